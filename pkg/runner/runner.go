package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/softgrove/vellum/pkg/prompt"
	"github.com/softgrove/vellum/pkg/session"
)

// LorePrefix marks a free-text input as a lore lookup: "lore <topic>".
const LorePrefix = "lore "

// Runner drives the story loop against a session controller using
// pluggable IO. The controller owns persistence; the runner only decides
// when a turn happens and when the loop stops.
type Runner struct {
	// Handler is the IO strategy. If nil, a TextHandler on Input/Output
	// is created on first use.
	Handler IOHandler

	// Logger is used for internal debug logging. If nil, a no-op logger
	// is used.
	Logger *slog.Logger

	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithHandler configures a custom IOHandler.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithRenderer configures the content renderer for the default handler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// NewRunner creates a Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the story loop until the player quits, the chapter
// ceiling is reached, input ends, or a turn fails. Quitting and
// interrupts return nil: the session stays saved and resumable.
func (r *Runner) Run(ctx context.Context, ctrl *session.Controller) error {
	handler := r.resolveHandler()

	signals := NewSignalManager()
	defer signals.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		turnCtx := signals.Context()

		text, err := ctrl.CurrentText(turnCtx)
		if err != nil {
			return fmt.Errorf("read chapter: %w", err)
		}
		if err := handler.Render(turnCtx, text); err != nil {
			return fmt.Errorf("render chapter: %w", err)
		}

		if ctrl.IsFinished() {
			handler.Notify(turnCtx, "The story has reached its end.")
			r.Logger.Info("story finished", "namespace", ctrl.ID())
			return nil
		}

		choices := ctrl.Choices(turnCtx)
		selection, err := handler.Choose(turnCtx, choices)
		if err != nil {
			if errors.Is(err, io.EOF) || turnCtx.Err() != nil {
				r.Logger.Info("session paused", "namespace", ctrl.ID())
				return nil
			}
			return fmt.Errorf("read choice: %w", err)
		}

		if strings.EqualFold(selection, prompt.QuitChoice) || strings.EqualFold(selection, "exit") {
			handler.Notify(turnCtx, "Progress saved. Until next time.")
			r.Logger.Info("player quit", "namespace", ctrl.ID())
			return nil
		}

		if topic, ok := strings.CutPrefix(selection, LorePrefix); ok {
			handler.Notify(turnCtx, ctrl.Lore(turnCtx, strings.TrimSpace(topic)))
			continue
		}

		if err := ctrl.Advance(turnCtx, selection); err != nil {
			if turnCtx.Err() != nil {
				r.Logger.Info("session paused mid-turn", "namespace", ctrl.ID())
				return nil
			}
			return fmt.Errorf("advance: %w", err)
		}
	}
}

// resolveHandler ensures a valid IOHandler is set. Memoized so repeated
// Run calls reuse the same input pump.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	r.Handler = th
	return th
}
