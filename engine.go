package vellum

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/softgrove/vellum/pkg/adapters/file"
	"github.com/softgrove/vellum/pkg/adapters/openai"
	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
	"github.com/softgrove/vellum/pkg/session"
)

// Engine is the high-level entry point for the vellum library.
// It wraps a session controller and provides a simplified API for consumers
// who want file-backed saves and an OpenAI-compatible generator without
// wiring the adapters themselves.
type Engine struct {
	ctrl     *session.Controller
	states   ports.StateStore
	chapters ports.ChapterStore
	links    ports.LinkStore
	gen      ports.Generator
	cfg      session.Config
	hasCfg   bool
	logger   *slog.Logger
	Name     string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStateStore injects a custom state store, bypassing the default
// file-backed initialization.
func WithStateStore(s ports.StateStore) Option {
	return func(e *Engine) {
		e.states = s
	}
}

// WithChapterStore injects a custom chapter store.
func WithChapterStore(c ports.ChapterStore) Option {
	return func(e *Engine) {
		e.chapters = c
	}
}

// WithLinkStore enables chapter link tracking.
func WithLinkStore(l ports.LinkStore) Option {
	return func(e *Engine) {
		e.links = l
	}
}

// WithGenerator sets the text generation backend.
func WithGenerator(g ports.Generator) Option {
	return func(e *Engine) {
		e.gen = g
	}
}

// WithConfig overrides the default session settings.
func WithConfig(cfg session.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
		e.hasCfg = true
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes a vellum Engine.
// By default it stores saves under savesPath and generates text through the
// OpenAI API, reading the key from OPENAI_API_KEY. Provide WithStateStore /
// WithChapterStore to skip the filesystem, or WithGenerator to skip OpenAI;
// savesPath can then be empty.
func New(savesPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}

	// Apply options first to check which defaults are still needed.
	for _, opt := range opts {
		opt(eng)
	}

	if eng.states == nil || eng.chapters == nil {
		if savesPath == "" {
			return nil, fmt.Errorf("savesPath is required when no custom stores are provided")
		}

		absPath, err := filepath.Abs(savesPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		if eng.states == nil {
			eng.states = file.NewStateStore(absPath)
		}
		if eng.chapters == nil {
			eng.chapters = file.NewChapterLog(absPath)
		}
		if eng.links == nil {
			eng.links = file.NewLinkIndex(absPath)
		}
	} else if savesPath != "" {
		// With custom stores the path only serves as a descriptive label.
		eng.Name = filepath.Base(savesPath)
	}

	if eng.gen == nil {
		eng.gen = openai.New(os.Getenv("OPENAI_API_KEY"))
	}
	if !eng.hasCfg {
		eng.cfg = session.DefaultConfig()
	}

	// Ensure logger is initialized so we never pass nil down to the
	// controller, which would overwrite its own default.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("saves", eng.Name)
	}

	ctrlOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.links != nil {
		ctrlOpts = append(ctrlOpts, session.WithLinkStore(eng.links))
	}
	eng.ctrl = session.NewController(eng.cfg, eng.states, eng.chapters, eng.gen, ctrlOpts...)

	return eng, nil
}

// Begin starts a brand new playthrough and writes its seed chapter.
func (e *Engine) Begin(ctx context.Context) error {
	return e.ctrl.New(ctx)
}

// Resume rehydrates a saved playthrough. With an empty id it picks the most
// recently saved one.
func (e *Engine) Resume(ctx context.Context, id string) error {
	return e.ctrl.Load(ctx, id)
}

// Advance accepts a choice and appends the next chapter.
func (e *Engine) Advance(ctx context.Context, choice string) error {
	return e.ctrl.Advance(ctx, choice)
}

// CurrentText returns the markdown of the chapter the session sits on.
func (e *Engine) CurrentText(ctx context.Context) (string, error) {
	return e.ctrl.CurrentText(ctx)
}

// Choices returns the options for the current chapter.
func (e *Engine) Choices(ctx context.Context) []string {
	return e.ctrl.Choices(ctx)
}

// IsFinished reports whether the session hit its chapter ceiling.
func (e *Engine) IsFinished() bool {
	return e.ctrl.IsFinished()
}

// Lore asks the generator for background detail on a topic without
// advancing the story.
func (e *Engine) Lore(ctx context.Context, topic string) string {
	return e.ctrl.Lore(ctx, topic)
}

// Save persists the world state of the active session.
func (e *Engine) Save(ctx context.Context) error {
	return e.ctrl.Save(ctx)
}

// ID returns the namespace of the active session, or "" when none is loaded.
func (e *Engine) ID() string {
	return e.ctrl.ID()
}

// CurrentRef identifies the chapter the session currently sits on.
func (e *Engine) CurrentRef() domain.ChapterRef {
	return e.ctrl.CurrentRef()
}

// Controller returns the underlying session controller for callers that
// need the full API.
func (e *Engine) Controller() *session.Controller {
	return e.ctrl
}
