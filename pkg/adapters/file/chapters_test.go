package file_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/pkg/adapters/file"
	"github.com/softgrove/vellum/pkg/domain"
)

func TestChapterLog_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	log := file.NewChapterLog(dir)

	ref, err := log.Append(ctx, "session-1", "# Chapter One\n\nIt begins.")
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Seq)

	text, err := log.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "# Chapter One\n\nIt begins.", text)

	// The document lands exactly where readers expect it.
	_, err = os.Stat(filepath.Join(dir, "session-1", "chapter_1.md"))
	require.NoError(t, err)
}

func TestChapterLog_StrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	log := file.NewChapterLog(t.TempDir())

	for i := 1; i <= 3; i++ {
		ref, err := log.Append(ctx, "session-1", fmt.Sprintf("chapter %d", i))
		require.NoError(t, err)
		assert.Equal(t, i, ref.Seq)
	}

	latest, err := log.Latest(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Seq)
}

func TestChapterLog_GapTolerantNumbering(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	log := file.NewChapterLog(dir)

	for i := 1; i <= 3; i++ {
		_, err := log.Append(ctx, "session-1", fmt.Sprintf("chapter %d", i))
		require.NoError(t, err)
	}

	// Out-of-band deletion leaves a gap; the next append continues from the
	// max, never from the file count.
	require.NoError(t, os.Remove(filepath.Join(dir, "session-1", "chapter_2.md")))

	ref, err := log.Append(ctx, "session-1", "chapter four")
	require.NoError(t, err)
	assert.Equal(t, 4, ref.Seq, "sequence is max+1, not count+1")

	latest, err := log.Latest(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 4, latest.Seq)
}

func TestChapterLog_LatestEmpty(t *testing.T) {
	log := file.NewChapterLog(t.TempDir())
	_, err := log.Latest(context.Background(), "session-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChapterLog_ReadDeletedChapter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	log := file.NewChapterLog(dir)

	ref, err := log.Append(ctx, "session-1", "soon gone")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "session-1", "chapter_1.md")))

	_, err = log.Read(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChapterLog_NamespacesIsolated(t *testing.T) {
	ctx := context.Background()
	log := file.NewChapterLog(t.TempDir())

	refA, err := log.Append(ctx, "session-a", "a1")
	require.NoError(t, err)
	refB, err := log.Append(ctx, "session-b", "b1")
	require.NoError(t, err)

	assert.Equal(t, 1, refA.Seq)
	assert.Equal(t, 1, refB.Seq)
}

func TestLinkIndex_PutAndGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	index := file.NewLinkIndex(dir)

	// Absent index reads as empty, not as an error.
	links, err := index.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, links)

	ref := domain.ChapterRef{Namespace: "session-1", Seq: 1}
	require.NoError(t, index.Put(ctx, "session-1", ref, []string{"the keeper", "the lighthouse"}))

	ref2 := domain.ChapterRef{Namespace: "session-1", Seq: 2}
	require.NoError(t, index.Put(ctx, "session-1", ref2, []string{"the keeper"}))

	links, err = index.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"the keeper", "the lighthouse"}, links[1])
	assert.Equal(t, []string{"the keeper"}, links[2])

	_, err = os.Stat(filepath.Join(dir, "session-1", "links.yaml"))
	require.NoError(t, err)
}
