package cli

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := LoadOptions()
	require.NoError(t, err)

	assert.Equal(t, ".vellum/saves", opts.SavesDir)
	assert.Equal(t, 50, opts.MaxChapters)
	assert.Equal(t, 4, opts.MaxChoices)
	assert.True(t, opts.AutoSave)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Empty(t, opts.RedisAddr)
}

func TestLoadOptionsFromEnvironment(t *testing.T) {
	t.Setenv("VELLUM_SAVES_DIR", "/tmp/stories")
	t.Setenv("VELLUM_MAX_CHAPTERS", "12")
	t.Setenv("VELLUM_AUTOSAVE", "false")
	t.Setenv("VELLUM_MODEL", "local-model")
	t.Setenv("VELLUM_TEMPERATURE", "0.3")

	opts, err := LoadOptions()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/stories", opts.SavesDir)
	assert.Equal(t, 12, opts.MaxChapters)
	assert.False(t, opts.AutoSave)

	cfg := opts.SessionConfig()
	assert.Equal(t, 12, cfg.MaxChapters)
	assert.False(t, cfg.AutoSave)
	assert.Equal(t, "local-model", cfg.Generate.Model)
	assert.Equal(t, 0.3, cfg.Generate.Temperature)
}

func TestBuildStoresFileBackend(t *testing.T) {
	opts := Options{SavesDir: t.TempDir()}
	stores, err := BuildStores(opts, opts.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	assert.NotNil(t, stores.States)
	assert.NotNil(t, stores.Chapters)
	assert.NotNil(t, stores.Links)
	assert.Nil(t, stores.Locker)
}

func TestBuildStoresRejectsBadEncryptionKey(t *testing.T) {
	opts := Options{SavesDir: t.TempDir(), EncryptionKey: "not-hex"}
	_, err := BuildStores(opts, opts.Logger())
	require.Error(t, err)

	opts.EncryptionKey = "abcd" // valid hex, wrong length
	_, err = BuildStores(opts, opts.Logger())
	require.Error(t, err)
}

func TestBuildStoresWithEncryption(t *testing.T) {
	key := make([]byte, 32)
	opts := Options{SavesDir: t.TempDir(), EncryptionKey: hex.EncodeToString(key)}
	stores, err := BuildStores(opts, opts.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	ctx := context.Background()
	state, err := stores.States.Initialize(ctx, "session-1")
	require.NoError(t, err)
	state.Player["name"] = "Wren"
	require.NoError(t, stores.States.Save(ctx, "session-1", state))

	// The file on disk holds only the envelope.
	raw, err := os.ReadFile(filepath.Join(opts.SavesDir, "session-1", "world.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Wren")
	assert.Contains(t, string(raw), "encrypted")

	loaded, err := stores.States.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Wren", loaded.Player["name"])
}
