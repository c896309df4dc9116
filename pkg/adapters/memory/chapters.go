package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

// ChapterLog implements ports.ChapterStore in memory.
// Safe for concurrent use.
type ChapterLog struct {
	mu   sync.RWMutex
	data map[string]map[int]string
}

// NewChapterLog creates an empty in-memory chapter log.
func NewChapterLog() *ChapterLog {
	return &ChapterLog{data: make(map[string]map[int]string)}
}

var _ ports.ChapterStore = (*ChapterLog)(nil)

// Append stores text under the next sequence number. Gaps left by deletion
// are tolerated, never reused.
func (c *ChapterLog) Append(ctx context.Context, namespace, text string) (domain.ChapterRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chapters, ok := c.data[namespace]
	if !ok {
		chapters = make(map[int]string)
		c.data[namespace] = chapters
	}

	seq := 0
	for n := range chapters {
		if n > seq {
			seq = n
		}
	}
	seq++

	chapters[seq] = text
	return domain.ChapterRef{Namespace: namespace, Seq: seq}, nil
}

// Latest returns the ref with the highest sequence number.
func (c *ChapterLog) Latest(ctx context.Context, namespace string) (domain.ChapterRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seq := 0
	for n := range c.data[namespace] {
		if n > seq {
			seq = n
		}
	}
	if seq == 0 {
		return domain.ChapterRef{}, fmt.Errorf("%w: no chapters for session %s", domain.ErrNotFound, namespace)
	}
	return domain.ChapterRef{Namespace: namespace, Seq: seq}, nil
}

// Read returns the chapter text.
func (c *ChapterLog) Read(ctx context.Context, ref domain.ChapterRef) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	text, ok := c.data[ref.Namespace][ref.Seq]
	if !ok {
		return "", fmt.Errorf("%w: chapter %d of session %s", domain.ErrNotFound, ref.Seq, ref.Namespace)
	}
	return text, nil
}
