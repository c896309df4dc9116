package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

const (
	chapterPrefix = "chapter_"
	chapterExt    = ".md"
)

// ChapterLog implements ports.ChapterStore as one markdown file per chapter,
// chapter_<N>.md, inside the namespace directory. Ordering is defined by the
// number embedded in the filename, never by modification time, so it stays
// correct under save/restore and clock skew.
type ChapterLog struct {
	BasePath string
}

// NewChapterLog creates a ChapterLog rooted at basePath.
// If basePath is empty, it defaults to ".vellum/saves".
func NewChapterLog(basePath string) *ChapterLog {
	if basePath == "" {
		basePath = filepath.Join(".vellum", "saves")
	}
	return &ChapterLog{BasePath: basePath}
}

var _ ports.ChapterStore = (*ChapterLog)(nil)

func (l *ChapterLog) chapterPath(ref domain.ChapterRef) string {
	name := chapterPrefix + strconv.Itoa(ref.Seq) + chapterExt
	return filepath.Join(l.BasePath, ref.Namespace, name)
}

// maxSeq returns the highest sequence number present in the namespace, or 0 if
// there are no chapters. Unparseable filenames are ignored.
func (l *ChapterLog) maxSeq(namespace string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(l.BasePath, namespace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan chapters for %s: %w", namespace, err)
	}

	max := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, chapterPrefix) || !strings.HasSuffix(name, chapterExt) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, chapterPrefix), chapterExt))
		if err != nil || seq <= 0 {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

// Append writes text as the next chapter. The sequence number is one greater
// than the highest existing number, not a count of files, so gaps left by
// external deletion are tolerated and never reused.
func (l *ChapterLog) Append(ctx context.Context, namespace, text string) (domain.ChapterRef, error) {
	if namespace == "" {
		return domain.ChapterRef{}, fmt.Errorf("%w: namespace cannot be empty", domain.ErrUsage)
	}

	dir := filepath.Join(l.BasePath, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.ChapterRef{}, fmt.Errorf("%w: ensure %s: %v", domain.ErrWrite, dir, err)
	}

	max, err := l.maxSeq(namespace)
	if err != nil {
		return domain.ChapterRef{}, fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	ref := domain.ChapterRef{Namespace: namespace, Seq: max + 1}

	// O_EXCL: chapters are immutable, an existing document is never rewritten.
	f, err := os.OpenFile(l.chapterPath(ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return domain.ChapterRef{}, fmt.Errorf("%w: create chapter %d in %s: %v", domain.ErrWrite, ref.Seq, namespace, err)
	}
	_, werr := f.WriteString(text)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(l.chapterPath(ref))
		return domain.ChapterRef{}, fmt.Errorf("%w: write chapter %d in %s: %v", domain.ErrWrite, ref.Seq, namespace, errors.Join(werr, cerr))
	}
	return ref, nil
}

// Latest returns the ref of the chapter with the highest sequence number.
func (l *ChapterLog) Latest(ctx context.Context, namespace string) (domain.ChapterRef, error) {
	max, err := l.maxSeq(namespace)
	if err != nil {
		return domain.ChapterRef{}, err
	}
	if max == 0 {
		return domain.ChapterRef{}, fmt.Errorf("%w: no chapters in %s", domain.ErrNotFound, namespace)
	}
	return domain.ChapterRef{Namespace: namespace, Seq: max}, nil
}

// Read returns the chapter text. A missing document (external deletion or
// tampering) surfaces as domain.ErrNotFound.
func (l *ChapterLog) Read(ctx context.Context, ref domain.ChapterRef) (string, error) {
	data, err := os.ReadFile(l.chapterPath(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: chapter %d in %s", domain.ErrNotFound, ref.Seq, ref.Namespace)
		}
		return "", fmt.Errorf("read chapter %d in %s: %w", ref.Seq, ref.Namespace, err)
	}
	return string(data), nil
}
