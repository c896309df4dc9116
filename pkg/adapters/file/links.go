package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

const linksFile = "links.yaml"

// LinkIndex implements ports.LinkStore as a links.yaml document per namespace,
// mapping chapter sequence numbers to their extracted cross-references.
type LinkIndex struct {
	BasePath string
}

// NewLinkIndex creates a LinkIndex rooted at basePath.
func NewLinkIndex(basePath string) *LinkIndex {
	if basePath == "" {
		basePath = filepath.Join(".vellum", "saves")
	}
	return &LinkIndex{BasePath: basePath}
}

var _ ports.LinkStore = (*LinkIndex)(nil)

func (l *LinkIndex) path(namespace string) string {
	return filepath.Join(l.BasePath, namespace, linksFile)
}

// Put records the links for one chapter, replacing any previous entry for the
// same sequence number. The index is rewritten atomically.
func (l *LinkIndex) Put(ctx context.Context, namespace string, ref domain.ChapterRef, links []string) error {
	index, err := l.Get(ctx, namespace)
	if err != nil {
		return err
	}
	index[ref.Seq] = links

	dir := filepath.Join(l.BasePath, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: ensure %s: %v", domain.ErrWrite, dir, err)
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("%w: marshal links for %s: %v", domain.ErrWrite, namespace, err)
	}

	tmp := l.path(namespace) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrWrite, tmp, err)
	}
	if err := os.Rename(tmp, l.path(namespace)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: commit links for %s: %v", domain.ErrWrite, namespace, err)
	}
	return nil
}

// Get returns the full index for a namespace. A missing links.yaml yields an
// empty index: the file is optional until the first link refresh succeeds.
func (l *LinkIndex) Get(ctx context.Context, namespace string) (map[int][]string, error) {
	data, err := os.ReadFile(l.path(namespace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[int][]string{}, nil
		}
		return nil, fmt.Errorf("read links for %s: %w", namespace, err)
	}

	index := map[int][]string{}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: links for %s: %v", domain.ErrCorruptState, namespace, err)
	}
	return index, nil
}
