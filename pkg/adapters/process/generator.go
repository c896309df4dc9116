// Package process generates text by running a local command per request.
// Meant for llama.cpp-style CLIs and for piping the engine into scripts
// during development; nothing leaves the machine.
package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

// Generator implements ports.Generator by executing a command. The prompt
// is written to the command's stdin and the reply read from its stdout.
// Request options are passed as VELLUM_* environment variables so the
// command line itself stays fixed.
type Generator struct {
	command string
	args    []string
	dir     string
	timeout time.Duration
}

// Option configures the Generator.
type Option func(*Generator)

// WithArgs sets fixed arguments for every invocation.
func WithArgs(args ...string) Option {
	return func(g *Generator) {
		g.args = args
	}
}

// WithDir sets the working directory for the command.
func WithDir(dir string) Option {
	return func(g *Generator) {
		g.dir = dir
	}
}

// WithTimeout bounds one invocation. Default 2 minutes.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// New creates a Generator running command.
func New(command string, opts ...Option) *Generator {
	g := &Generator{
		command: command,
		timeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ ports.Generator = (*Generator)(nil)

// Generate runs the command once. Non-zero exit, timeout, and empty output
// all surface as domain.ErrGeneration with stderr attached for context.
func (g *Generator) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.command, g.args...)
	cmd.Dir = g.dir
	cmd.Stdin = strings.NewReader(prompt)

	// Options go through the environment, not flags, so a hostile prompt
	// can never grow into command-line injection.
	env := cmd.Environ()
	if opts.Model != "" {
		env = append(env, "VELLUM_MODEL="+opts.Model)
	}
	if opts.Temperature > 0 {
		env = append(env, "VELLUM_TEMPERATURE="+strconv.FormatFloat(opts.Temperature, 'f', -1, 64))
	}
	if opts.TopP > 0 {
		env = append(env, "VELLUM_TOP_P="+strconv.FormatFloat(opts.TopP, 'f', -1, 64))
	}
	if opts.MaxTokens > 0 {
		env = append(env, "VELLUM_MAX_TOKENS="+strconv.Itoa(opts.MaxTokens))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: command timed out: %v", domain.ErrGeneration, ctx.Err())
		}
		return "", fmt.Errorf("%w: command failed: %v: %s", domain.ErrGeneration, err, firstLine(stderr.String()))
	}

	reply := strings.TrimSpace(stdout.String())
	if reply == "" {
		return "", fmt.Errorf("%w: command produced no output", domain.ErrGeneration)
	}
	return reply, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
