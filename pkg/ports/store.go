package ports

import (
	"context"
	"time"

	"github.com/softgrove/vellum/pkg/domain"
)

// StateStore persists the WorldState of a session, keyed by namespace.
//
// A namespace is the storage partition for one session (its id). No locking is
// provided: callers must serialize access to a given namespace themselves.
type StateStore interface {
	// Initialize creates and persists the default state for a new namespace.
	Initialize(ctx context.Context, namespace string) (*domain.WorldState, error)

	// Load reads the state for a namespace. Returns domain.ErrNotFound if the
	// namespace has never been saved, and domain.ErrCorruptState if the
	// persisted payload does not parse. A parse failure is surfaced, never
	// replaced with defaults.
	Load(ctx context.Context, namespace string) (*domain.WorldState, error)

	// Save refreshes meta.lastSaved and writes the state durably. The write is
	// atomic: a crash mid-write never leaves a half-written state behind.
	Save(ctx context.Context, namespace string, state *domain.WorldState) error

	// Delete removes the namespace's state. Missing namespaces are not an error.
	Delete(ctx context.Context, namespace string) error

	// List returns all known namespaces.
	List(ctx context.Context) ([]string, error)

	// MostRecent returns the namespace with the latest meta.lastSaved.
	// Returns domain.ErrNotFound if no namespace has ever been saved.
	MostRecent(ctx context.Context) (string, error)
}

// ChapterStore owns the append-only sequence of chapter documents per
// namespace. Chapters are immutable once written; ordering is defined by the
// sequence number alone.
type ChapterStore interface {
	// Append writes text as a new chapter whose sequence number is one greater
	// than the highest existing number in the namespace. Gaps left by external
	// deletion are tolerated, never reused. Fails with domain.ErrWrite if the
	// underlying write fails.
	Append(ctx context.Context, namespace, text string) (domain.ChapterRef, error)

	// Latest returns the ref with the highest sequence number, or
	// domain.ErrNotFound if the namespace has no chapters.
	Latest(ctx context.Context, namespace string) (domain.ChapterRef, error)

	// Read returns the chapter text, or domain.ErrNotFound if the referenced
	// document no longer exists.
	Read(ctx context.Context, ref domain.ChapterRef) (string, error)
}

// LinkStore holds extracted cross-references per chapter, keyed by the
// chapter's sequence number. Written by the best-effort link-refresh step.
type LinkStore interface {
	Put(ctx context.Context, namespace string, ref domain.ChapterRef, links []string) error
	Get(ctx context.Context, namespace string) (map[int][]string, error)
}

// UnlockFunc releases a held session lock.
type UnlockFunc func(ctx context.Context) error

// SessionLocker serializes multi-process access to a namespace, for
// backends shared between machines. Single-process callers do not need
// one: the controller is not safe for concurrent use regardless.
type SessionLocker interface {
	Lock(ctx context.Context, namespace string, ttl time.Duration) (UnlockFunc, error)
}
