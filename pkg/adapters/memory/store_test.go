package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/pkg/adapters/memory"
	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStateStore())
}

func TestStateStore_SaveIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()

	state, err := store.Initialize(ctx, "session-1")
	require.NoError(t, err)

	state.Player["name"] = "Wren"
	require.NoError(t, store.Save(ctx, "session-1", state))

	// Mutating the caller's copy after Save must not leak into the store.
	state.Player["name"] = "Imposter"

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Wren", loaded.Player["name"])
}

func TestChapterLog_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	log := memory.NewChapterLog()

	ref1, err := log.Append(ctx, "session-1", "First chapter")
	require.NoError(t, err)
	assert.Equal(t, 1, ref1.Seq)

	ref2, err := log.Append(ctx, "session-1", "Second chapter")
	require.NoError(t, err)
	assert.Equal(t, 2, ref2.Seq)

	latest, err := log.Latest(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, ref2, latest)

	text, err := log.Read(ctx, ref1)
	require.NoError(t, err)
	assert.Equal(t, "First chapter", text)
}

func TestChapterLog_EmptyNamespace(t *testing.T) {
	ctx := context.Background()
	log := memory.NewChapterLog()

	_, err := log.Latest(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = log.Read(ctx, domain.ChapterRef{Namespace: "ghost", Seq: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLinkIndex_RoundTrip(t *testing.T) {
	ctx := context.Background()
	index := memory.NewLinkIndex()

	ref := domain.ChapterRef{Namespace: "session-1", Seq: 2}
	require.NoError(t, index.Put(ctx, "session-1", ref, []string{"the-locket", "mira"}))

	links, err := index.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"the-locket", "mira"}, links[2])

	empty, err := index.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
