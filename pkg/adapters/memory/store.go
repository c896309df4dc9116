// Package memory keeps sessions in process memory. Useful for tests,
// examples, and embedded scenarios where nothing should touch the disk.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

// StateStore implements ports.StateStore in memory.
// Safe for concurrent use.
type StateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WorldState
	now  func() time.Time
}

// StateStoreOption configures the StateStore.
type StateStoreOption func(*StateStore)

// WithClock overrides the time source. Used by tests to control lastSaved.
func WithClock(now func() time.Time) StateStoreOption {
	return func(s *StateStore) {
		s.now = now
	}
}

// NewStateStore creates an empty in-memory store.
func NewStateStore(opts ...StateStoreOption) *StateStore {
	s := &StateStore{
		data: make(map[string]*domain.WorldState),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.StateStore = (*StateStore)(nil)

// Initialize creates and stores the default state for a new namespace.
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

// Save stores a deep copy so later mutations by the caller cannot leak in.
func (s *StateStore) Save(ctx context.Context, namespace string, state *domain.WorldState) error {
	state.Meta.LastSaved = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[namespace] = state.Clone()
	return nil
}

// Load returns a copy of the stored state.
func (s *StateStore) Load(ctx context.Context, namespace string) (*domain.WorldState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, namespace)
	}
	return state.Clone(), nil
}

// Delete removes the namespace. Missing namespaces are not an error.
func (s *StateStore) Delete(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, namespace)
	return nil
}

// List returns all known namespaces.
func (s *StateStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out, nil
}

// MostRecent returns the namespace with the latest lastSaved stamp.
func (s *StateStore) MostRecent(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best     string
		bestTime time.Time
	)
	for id, state := range s.data {
		if best == "" || state.Meta.LastSaved.After(bestTime) {
			best, bestTime = id, state.Meta.LastSaved
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no sessions saved", domain.ErrNotFound)
	}
	return best, nil
}
