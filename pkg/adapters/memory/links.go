package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

// LinkIndex implements ports.LinkStore in memory.
type LinkIndex struct {
	mu   sync.RWMutex
	data map[string]map[int][]string
}

// NewLinkIndex creates an empty in-memory link index.
func NewLinkIndex() *LinkIndex {
	return &LinkIndex{data: make(map[string]map[int][]string)}
}

var _ ports.LinkStore = (*LinkIndex)(nil)

// Put replaces the links recorded for one chapter.
func (l *LinkIndex) Put(ctx context.Context, namespace string, ref domain.ChapterRef, links []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	index, ok := l.data[namespace]
	if !ok {
		index = make(map[int][]string)
		l.data[namespace] = index
	}
	index[ref.Seq] = slices.Clone(links)
	return nil
}

// Get returns the full link index for a namespace. Unknown namespaces
// yield an empty map.
func (l *LinkIndex) Get(ctx context.Context, namespace string) (map[int][]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[int][]string, len(l.data[namespace]))
	for seq, links := range l.data[namespace] {
		out[seq] = slices.Clone(links)
	}
	return out, nil
}
