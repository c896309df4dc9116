// Package redis implements the state store on Redis, for deployments
// where saves must be shared between machines. Chapters stay on the
// filesystem; it is the world state and the recency index that benefit
// from a shared backend.
package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/softgrove/vellum/pkg/domain"
)

// StateStore implements ports.StateStore using Redis. State payloads
// are YAML, the same schema the file store writes, so a save can be
// migrated between backends by copying bytes.
type StateStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*StateStore)

// WithTTL sets an expiration for saves. Zero means saves never expire.
func WithTTL(ttl time.Duration) Option {
	return func(s *StateStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for saves.
func WithPrefix(prefix string) Option {
	return func(s *StateStore) {
		s.prefix = prefix
	}
}

// WithClock overrides the save timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *StateStore) {
		s.now = now
	}
}

// New creates a store with its own client.
func New(address, password string, db int, opts ...Option) *StateStore {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *StateStore {
	store := &StateStore{
		client: client,
		prefix: "vellum:session:",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *StateStore) key(namespace string) string {
	return s.prefix + namespace
}

// indexKey is the ZSET scoring each namespace by its last save time.
func (s *StateStore) indexKey() string {
	return s.prefix + "index"
}

// Initialize creates and persists the default state for a new namespace.
func (s *StateStore) Initialize(ctx context.Context, namespace string) (*domain.WorldState, error) {
	state := domain.NewWorldState(s.now().UTC())
	if err := s.Save(ctx, namespace, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Save writes the state and refreshes the recency index in one pipeline.
// Redis SET is atomic, so a crash never leaves a half-written payload.
func (s *StateStore) Save(ctx context.Context, namespace string, state *domain.WorldState) error {
	state.Meta.LastSaved = s.now().UTC()
	if state.Meta.Version == "" {
		state.Meta.Version = domain.SchemaVersion
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: marshal state for %s: %v", domain.ErrWrite, namespace, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(namespace), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(state.Meta.LastSaved.UnixNano()),
		Member: namespace,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: save %s: %v", domain.ErrWrite, namespace, err)
	}
	return nil
}

// Load reads the state for a namespace.
func (s *StateStore) Load(ctx context.Context, namespace string) (*domain.WorldState, error) {
	val, err := s.client.Get(ctx, s.key(namespace)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("%w: namespace %s", domain.ErrNotFound, namespace)
		}
		return nil, fmt.Errorf("load %s: %w", namespace, err)
	}

	var state domain.WorldState
	if err := yaml.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("%w: namespace %s: %v", domain.ErrCorruptState, namespace, err)
	}
	return &state, nil
}

// Delete removes the save and its index entry. Missing namespaces are
// not an error.
func (s *StateStore) Delete(ctx context.Context, namespace string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(namespace))
	pipe.ZRem(ctx, s.indexKey(), namespace)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns all indexed namespaces, pruning entries whose payload
// expired out from under the index.
func (s *StateStore) List(ctx context.Context) ([]string, error) {
	namespaces, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := namespaces[:0]
	for _, ns := range namespaces {
		exists, err := s.client.Exists(ctx, s.key(ns)).Result()
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		if exists == 0 {
			s.client.ZRem(ctx, s.indexKey(), ns)
			continue
		}
		out = append(out, ns)
	}
	return out, nil
}

// MostRecent returns the namespace with the highest save timestamp.
func (s *StateStore) MostRecent(ctx context.Context) (string, error) {
	for {
		members, err := s.client.ZRevRange(ctx, s.indexKey(), 0, 0).Result()
		if err != nil {
			return "", fmt.Errorf("most recent session: %w", err)
		}
		if len(members) == 0 {
			return "", fmt.Errorf("%w: no sessions saved", domain.ErrNotFound)
		}

		ns := members[0]
		exists, err := s.client.Exists(ctx, s.key(ns)).Result()
		if err != nil {
			return "", fmt.Errorf("most recent session: %w", err)
		}
		if exists == 1 {
			return ns, nil
		}
		// Expired payload; drop the stale index entry and retry.
		s.client.ZRem(ctx, s.indexKey(), ns)
	}
}

// Close closes the underlying client.
func (s *StateStore) Close() error {
	return s.client.Close()
}
