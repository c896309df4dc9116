package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/pkg/adapters/memory"
	"github.com/softgrove/vellum/pkg/persistence/middleware"
)

func TestMasking_MatchingKeysAreMasked(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStateStore()
	store := middleware.Chain(inner,
		middleware.NewMaskingMiddleware([]string{"(?i)email", "^token$"}),
	)

	state, err := store.Initialize(ctx, "session-1")
	require.NoError(t, err)

	state.Player["name"] = "Wren"
	state.Player["Email"] = "wren@example.com"
	state.World["token"] = "abc123"
	state.World["inn"] = map[string]any{"keeper_email": "keeper@example.com"}
	require.NoError(t, store.Save(ctx, "session-1", state))

	raw, err := inner.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Wren", raw.Player["name"])
	assert.Equal(t, "***", raw.Player["Email"])
	assert.Equal(t, "***", raw.World["token"])
	assert.Equal(t, "***", raw.World["inn"].(map[string]any)["keeper_email"])
}

func TestMasking_InMemoryStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := middleware.Chain(memory.NewStateStore(),
		middleware.NewMaskingMiddleware([]string{"email"}),
	)

	state, err := store.Initialize(ctx, "session-1")
	require.NoError(t, err)

	state.Player["email"] = "wren@example.com"
	require.NoError(t, store.Save(ctx, "session-1", state))

	// The engine keeps advancing with the real value.
	assert.Equal(t, "wren@example.com", state.Player["email"])
}

func TestMasking_StacksWithEncryption(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStateStore()
	store := middleware.Chain(inner,
		middleware.NewMaskingMiddleware([]string{"email"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: testKey('a')}),
	)

	state, err := store.Initialize(ctx, "session-1")
	require.NoError(t, err)
	state.Player["email"] = "wren@example.com"
	require.NoError(t, store.Save(ctx, "session-1", state))

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Player["email"])

	raw, err := inner.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Contains(t, raw.Extra, "encrypted")
}
