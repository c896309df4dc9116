package ports

import "context"

// GenerateOptions are per-request knobs passed through to the model.
// Zero values mean "use the adapter's default".
type GenerateOptions struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Generator is the external text-generation capability. Implementations wrap
// transport and model failures in domain.ErrGeneration; the engine never sees
// raw client errors.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return f(ctx, prompt, opts)
}
