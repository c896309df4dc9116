// Package file persists sessions on the local filesystem. Each namespace owns
// one directory under the base path containing world.yaml, the numbered
// chapter documents, and the optional links.yaml index.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/softgrove/vellum/internal/logging"
	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

const worldStateFile = "world.yaml"

// StateStore implements ports.StateStore on the local filesystem.
// World state is stored as YAML, one directory per namespace.
type StateStore struct {
	BasePath string
	logger   *slog.Logger
	now      func() time.Time
}

// StateStoreOption configures the StateStore.
type StateStoreOption func(*StateStore)

// WithLogger configures a logger for non-fatal events (e.g. a corrupt
// namespace skipped during recency scanning).
func WithLogger(logger *slog.Logger) StateStoreOption {
	return func(s *StateStore) {
		s.logger = logger
	}
}

// WithClock overrides the time source. Used by tests to control lastSaved.
func WithClock(now func() time.Time) StateStoreOption {
	return func(s *StateStore) {
		s.now = now
	}
}

// NewStateStore creates a StateStore rooted at basePath.
// If basePath is empty, it defaults to ".vellum/saves".
func NewStateStore(basePath string, opts ...StateStoreOption) *StateStore {
	if basePath == "" {
		basePath = filepath.Join(".vellum", "saves")
	}
	s := &StateStore{
		BasePath: basePath,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.StateStore = (*StateStore)(nil)

func (s *StateStore) statePath(namespace string) string {
	return filepath.Join(s.BasePath, namespace, worldStateFile)
}

// Initialize creates and persists the default state for a new namespace.
func (s *StateStore) Initialize(ctx context.Context, namespace string) (*domain.WorldState, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: namespace cannot be empty", domain.ErrUsage)
	}
	state := domain.NewWorldState(s.now())
	if err := s.Save(ctx, namespace, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Load reads the state for a namespace. A parse failure surfaces as
// domain.ErrCorruptState; defaults are never substituted for an existing save.
func (s *StateStore) Load(ctx context.Context, namespace string) (*domain.WorldState, error) {
	data, err := os.ReadFile(s.statePath(namespace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: namespace %s", domain.ErrNotFound, namespace)
		}
		return nil, fmt.Errorf("read state for %s: %w", namespace, err)
	}

	var state domain.WorldState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: namespace %s: %v", domain.ErrCorruptState, namespace, err)
	}
	normalize(&state)
	return &state, nil
}

// Save refreshes meta.lastSaved and writes the state atomically: the payload
// goes to a temp file in the same directory and is renamed over world.yaml, so
// a crash mid-write never leaves a half-written state behind.
func (s *StateStore) Save(ctx context.Context, namespace string, state *domain.WorldState) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace cannot be empty", domain.ErrUsage)
	}

	dir := filepath.Join(s.BasePath, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: ensure %s: %v", domain.ErrWrite, dir, err)
	}

	state.Meta.LastSaved = s.now()

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: marshal state for %s: %v", domain.ErrWrite, namespace, err)
	}

	tmp := s.statePath(namespace) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrWrite, tmp, err)
	}
	if err := os.Rename(tmp, s.statePath(namespace)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: commit state for %s: %v", domain.ErrWrite, namespace, err)
	}
	return nil
}

// Delete removes the namespace directory. Missing namespaces are not an error.
func (s *StateStore) Delete(ctx context.Context, namespace string) error {
	if namespace == "" {
		return fmt.Errorf("%w: namespace cannot be empty", domain.ErrUsage)
	}
	if err := os.RemoveAll(filepath.Join(s.BasePath, namespace)); err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrWrite, namespace, err)
	}
	return nil
}

// List returns every namespace directory under the base path.
func (s *StateStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list namespaces: %w", err)
	}

	var namespaces []string
	for _, entry := range entries {
		if entry.IsDir() {
			namespaces = append(namespaces, entry.Name())
		}
	}
	return namespaces, nil
}

// MostRecent returns the namespace with the latest meta.lastSaved. The
// decision uses the timestamp inside each world.yaml, not directory mtimes,
// so it stays correct across copy and restore. Namespaces that fail to parse
// are skipped here with a warning; loading them directly still surfaces
// CorruptState.
func (s *StateStore) MostRecent(ctx context.Context) (string, error) {
	namespaces, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, ns := range namespaces {
		state, err := s.Load(ctx, ns)
		if err != nil {
			s.logger.Warn("skipping unreadable namespace", "namespace", ns, "err", err)
			continue
		}
		if best == "" || state.Meta.LastSaved.After(bestTime) {
			best = ns
			bestTime = state.Meta.LastSaved
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no saved sessions", domain.ErrNotFound)
	}
	return best, nil
}

// normalize rebuilds the nil maps and slices YAML omits for empty values, so
// a loaded state behaves like a fresh one.
func normalize(state *domain.WorldState) {
	if state.Player == nil {
		state.Player = make(map[string]any)
	}
	if state.World == nil {
		state.World = make(map[string]any)
	}
	if state.Story.Choices == nil {
		state.Story.Choices = []string{}
	}
	if state.Story.EndingsSeen == nil {
		state.Story.EndingsSeen = []string{}
	}
}
