// Package session implements the session lifecycle: creating, loading,
// saving, and advancing one playthrough. The Controller composes the state
// store, the chapter log, the task queue, and the generation capability.
//
// A Controller exclusively owns its namespace for the session's lifetime. No
// locking is provided; callers must not operate two controllers on the same
// namespace concurrently.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/softgrove/vellum/internal/logging"
	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
	"github.com/softgrove/vellum/pkg/prompt"
	"github.com/softgrove/vellum/pkg/queue"
)

// Controller drives one interactive-fiction session.
type Controller struct {
	cfg      Config
	states   ports.StateStore
	chapters ports.ChapterStore
	links    ports.LinkStore
	gen      ports.Generator
	tasks    *queue.Queue
	logger   *slog.Logger

	id      string
	state   *domain.WorldState
	current domain.ChapterRef
}

// Option configures the Controller.
type Option func(*Controller)

// WithLinkStore enables the best-effort cross-reference index.
func WithLinkStore(links ports.LinkStore) Option {
	return func(c *Controller) {
		c.links = links
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller over the given stores and generation
// capability. Generation requests are dispatched through an internal task
// queue, one at a time, in submission order.
func NewController(cfg Config, states ports.StateStore, chapters ports.ChapterStore, gen ports.Generator, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		states:   states,
		chapters: chapters,
		gen:      gen,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tasks = queue.New(queue.WithLogger(c.logger))
	return c
}

// ID returns the session id, empty before New or Load.
func (c *Controller) ID() string {
	return c.id
}

// State returns the current world state. Callers must treat it as read-only
// outside Patch and RecordEnding.
func (c *Controller) State() *domain.WorldState {
	return c.state
}

// CurrentRef returns the reference of the latest chapter.
func (c *Controller) CurrentRef() domain.ChapterRef {
	return c.current
}

// New creates a fresh session: a new UUID namespace, default world state, and
// an opening chapter requested with the sentinel "begin" choice. If generation
// or the first chapter write fails, the namespace is torn down again; a session
// without a first chapter is never left behind as a usable save.
func (c *Controller) New(ctx context.Context) error {
	id := uuid.NewString()

	state, err := c.states.Initialize(ctx, id)
	if err != nil {
		return fmt.Errorf("initialize session %s: %w", id, err)
	}
	c.id, c.state = id, state

	text, err := c.generate(ctx, prompt.Continuation("", prompt.BeginChoice))
	if err != nil {
		c.discard(ctx)
		return fmt.Errorf("opening chapter for %s: %w", id, err)
	}

	ref, err := c.chapters.Append(ctx, id, text)
	if err != nil {
		c.discard(ctx)
		return fmt.Errorf("write opening chapter for %s: %w", id, err)
	}
	c.current = ref

	if err := c.Save(ctx); err != nil {
		c.discard(ctx)
		return err
	}

	c.logger.Info("session created", "namespace", id)
	return nil
}

// discard tears down a half-created session. Best effort: a failure here is
// logged, the original error is what the caller sees.
func (c *Controller) discard(ctx context.Context) {
	if err := c.states.Delete(ctx, c.id); err != nil {
		c.logger.Warn("failed to discard incomplete session", "namespace", c.id, "err", err)
	}
	c.id, c.state, c.current = "", nil, domain.ChapterRef{}
}

// Load rehydrates an existing session. With an empty id it picks the most
// recently saved namespace. Missing or unparseable state and missing chapters
// surface as NotFound or CorruptState from the underlying stores.
func (c *Controller) Load(ctx context.Context, id string) error {
	if id == "" {
		var err error
		id, err = c.states.MostRecent(ctx)
		if err != nil {
			return err
		}
	}

	state, err := c.states.Load(ctx, id)
	if err != nil {
		return err
	}

	ref, err := c.chapters.Latest(ctx, id)
	if err != nil {
		return err
	}
	// Verify the document is actually readable, not just named in the index.
	if _, err := c.chapters.Read(ctx, ref); err != nil {
		return err
	}

	c.id, c.state, c.current = id, state, ref
	c.logger.Info("session loaded", "namespace", id, "chapter", ref.Seq)
	return nil
}

// Save persists the world state.
func (c *Controller) Save(ctx context.Context) error {
	if c.id == "" {
		return fmt.Errorf("%w: no session to save", domain.ErrUsage)
	}
	if err := c.states.Save(ctx, c.id, c.state); err != nil {
		return fmt.Errorf("save session %s: %w", c.id, err)
	}
	return nil
}

// Advance accepts a choice: it requests the continuation from the generation
// capability, records the choice, appends the new chapter, refreshes the link
// index (best effort), and autosaves when configured. Generation and chapter
// failures propagate; swallowing them would leave state and chapters out of
// sync. Callers must check IsFinished before advancing a finished session.
func (c *Controller) Advance(ctx context.Context, choice string) error {
	if c.id == "" || c.current.IsZero() {
		return fmt.Errorf("%w: session has no chapters yet", domain.ErrUsage)
	}

	currentText, err := c.chapters.Read(ctx, c.current)
	if err != nil {
		return fmt.Errorf("advance %s: %w", c.id, err)
	}

	text, err := c.generate(ctx, prompt.Continuation(currentText, choice))
	if err != nil {
		return fmt.Errorf("advance %s: %w", c.id, err)
	}

	next := c.state.ApplyChoice(choice)

	ref, err := c.chapters.Append(ctx, c.id, text)
	if err != nil {
		return fmt.Errorf("advance %s: %w", c.id, err)
	}

	// Commit only after the chapter exists, so choices and chapters stay in step.
	c.state, c.current = next, ref

	c.refreshLinks(ctx, ref, text)

	if c.cfg.AutoSave {
		if err := c.Save(ctx); err != nil {
			return err
		}
	}

	c.logger.Info("session advanced", "namespace", c.id, "chapter", ref.Seq, "choice", choice)
	return nil
}

// IsFinished reports whether the chapter ceiling has been reached. Extension
// point for richer ending conditions.
func (c *Controller) IsFinished() bool {
	if c.state == nil || c.cfg.MaxChapters <= 0 {
		return false
	}
	return c.state.Story.ChapterCount >= c.cfg.MaxChapters
}

// ReadChapter returns the text of one chapter of the loaded session.
func (c *Controller) ReadChapter(ctx context.Context, seq int) (string, error) {
	if c.id == "" {
		return "", fmt.Errorf("%w: no session loaded", domain.ErrUsage)
	}
	return c.chapters.Read(ctx, domain.ChapterRef{Namespace: c.id, Seq: seq})
}

// CurrentText returns the text of the latest chapter.
func (c *Controller) CurrentText(ctx context.Context) (string, error) {
	if c.current.IsZero() {
		return "", fmt.Errorf("%w: session has no chapters yet", domain.ErrUsage)
	}
	return c.chapters.Read(ctx, c.current)
}

// Choices asks the generation capability for the player's next options. On
// failure it logs and falls back to a single continue option; the literal
// "quit" sentinel is always appended last.
func (c *Controller) Choices(ctx context.Context) []string {
	choices := []string{prompt.FallbackChoice}

	text, err := c.CurrentText(ctx)
	if err == nil {
		reply, gerr := c.generate(ctx, prompt.Choices(text, c.state))
		if gerr != nil {
			c.logger.Warn("choice generation failed", "namespace", c.id, "err", gerr)
		} else if parsed := prompt.ParseChoices(reply, c.cfg.MaxChoices); len(parsed) > 0 {
			choices = parsed
		}
	}

	return append(choices, prompt.QuitChoice)
}

// Lore asks the generation capability about a topic. Best effort: on failure
// it returns a placeholder rather than an error.
func (c *Controller) Lore(ctx context.Context, topic string) string {
	reply, err := c.generate(ctx, prompt.Lore(topic, c.state))
	if err != nil {
		c.logger.Warn("lore generation failed", "namespace", c.id, "topic", topic, "err", err)
		return fmt.Sprintf("Nothing is known about %s.", topic)
	}
	return reply
}

// generate dispatches one request through the task queue and waits for its
// outcome. The queue serializes access to the generation capability; a failed
// task surfaces as domain.ErrGeneration.
func (c *Controller) generate(ctx context.Context, p string) (string, error) {
	taskID := c.tasks.Enqueue(func(ctx context.Context, payload any) (any, error) {
		return c.gen.Generate(ctx, payload.(string), c.cfg.Generate)
	}, p)

	if err := c.tasks.RunAll(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	result, ok := c.tasks.Result(taskID)
	if !ok {
		return "", fmt.Errorf("%w: task %s has no recorded outcome", domain.ErrGeneration, taskID)
	}
	if result.Status != domain.TaskCompleted {
		return "", fmt.Errorf("%w: task %s: %s", domain.ErrGeneration, taskID, result.Error)
	}
	text, ok := result.Result.(string)
	if !ok {
		return "", fmt.Errorf("%w: task %s returned no text", domain.ErrGeneration, taskID)
	}
	return text, nil
}

// refreshLinks queues the cross-reference extraction for a new chapter and
// drains it. Failure is recorded on the task and logged here; it never fails
// the advance that triggered it.
func (c *Controller) refreshLinks(ctx context.Context, ref domain.ChapterRef, text string) {
	if c.links == nil {
		return
	}

	taskID := c.tasks.Enqueue(func(ctx context.Context, payload any) (any, error) {
		reply, err := c.gen.Generate(ctx, prompt.Links(payload.(string)), c.cfg.Generate)
		if err != nil {
			return nil, err
		}
		links := prompt.ParseLinks(reply)
		if err := c.links.Put(ctx, c.id, ref, links); err != nil {
			return nil, err
		}
		return links, nil
	}, text)

	if err := c.tasks.RunAll(ctx); err != nil {
		c.logger.Warn("link refresh interrupted", "namespace", c.id, "chapter", ref.Seq, "err", err)
		return
	}
	if result, ok := c.tasks.Result(taskID); ok && result.Status == domain.TaskFailed {
		c.logger.Warn("link refresh failed", "namespace", c.id, "chapter", ref.Seq, "task_id", taskID, "err", result.Error)
	}
}
