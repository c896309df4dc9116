package middleware

import (
	"context"
	"regexp"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

type maskingMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewMaskingMiddleware creates a middleware that masks the values of player
// and world facts whose keys match any of the patterns before they are
// persisted. The in-memory state the engine keeps working with is untouched.
func NewMaskingMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &maskingMiddleware{next: next, patterns: patterns}
	}
}

var _ ports.StateStore = (*maskingMiddleware)(nil)

func (m *maskingMiddleware) Initialize(ctx context.Context, namespace string) (*domain.WorldState, error) {
	return m.next.Initialize(ctx, namespace)
}

func (m *maskingMiddleware) Save(ctx context.Context, namespace string, state *domain.WorldState) error {
	cloned := state.Clone()
	maskMap(cloned.Player, m.patterns)
	maskMap(cloned.World, m.patterns)

	if err := m.next.Save(ctx, namespace, cloned); err != nil {
		return err
	}
	state.Meta.LastSaved = cloned.Meta.LastSaved
	return nil
}

func (m *maskingMiddleware) Load(ctx context.Context, namespace string) (*domain.WorldState, error) {
	return m.next.Load(ctx, namespace)
}

func (m *maskingMiddleware) Delete(ctx context.Context, namespace string) error {
	return m.next.Delete(ctx, namespace)
}

func (m *maskingMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *maskingMiddleware) MostRecent(ctx context.Context) (string, error) {
	return m.next.MostRecent(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
