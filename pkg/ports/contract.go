package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/pkg/domain"
)

// RunStateStoreContract verifies the StateStore behavior every backend
// must share. Adapter test suites call this against their own instance.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	namespace := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Initialize", func(t *testing.T) {
		state, err := store.Initialize(ctx, namespace)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, domain.SchemaVersion, state.Meta.Version)
		assert.Equal(t, 0, state.Story.ChapterCount)

		loaded, err := store.Load(ctx, namespace)
		require.NoError(t, err, "Initialize must persist, not just construct")
		assert.Equal(t, 0, loaded.Story.ChapterCount)
	})

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewWorldState(time.Now().UTC())
		state.Player["name"] = "Wren"
		state.World["weather"] = "storm"
		state = state.ApplyChoice("enter the keep")

		require.NoError(t, store.Save(ctx, namespace, state))

		loaded, err := store.Load(ctx, namespace)
		require.NoError(t, err)
		assert.Equal(t, "Wren", loaded.Player["name"])
		assert.Equal(t, "storm", loaded.World["weather"])
		assert.Equal(t, 1, loaded.Story.ChapterCount)
		assert.Equal(t, []string{"enter the keep"}, loaded.Story.Choices)
		assert.False(t, loaded.Meta.LastSaved.IsZero(), "Save must refresh lastSaved")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+namespace)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("MostRecent", func(t *testing.T) {
		older := namespace + "-older"
		newer := namespace + "-newer"
		_, err := store.Initialize(ctx, older)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = store.Initialize(ctx, newer)
		require.NoError(t, err)
		defer func() {
			_ = store.Delete(ctx, older)
			_ = store.Delete(ctx, newer)
		}()

		got, err := store.MostRecent(ctx)
		require.NoError(t, err)
		assert.Equal(t, newer, got)

		// A save on the older namespace moves it to the front.
		state, err := store.Load(ctx, older)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, store.Save(ctx, older, state))

		got, err = store.MostRecent(ctx)
		require.NoError(t, err)
		assert.Equal(t, older, got)
	})

	t.Run("List", func(t *testing.T) {
		id1 := namespace + "-list-1"
		id2 := namespace + "-list-2"
		_, err := store.Initialize(ctx, id1)
		require.NoError(t, err)
		_, err = store.Initialize(ctx, id2)
		require.NoError(t, err)
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		namespaces, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, namespaces, id1)
		assert.Contains(t, namespaces, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, namespace))

		_, err := store.Load(ctx, namespace)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		assert.NoError(t, store.Delete(ctx, namespace), "deleting a missing namespace is not an error")
	})
}
