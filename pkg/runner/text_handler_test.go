package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandlerChooseByNumber(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("2\n"), &out)

	choice, err := h.Choose(context.Background(), []string{"go north", "go south", "quit"})
	require.NoError(t, err)
	assert.Equal(t, "go south", choice)
	assert.Contains(t, out.String(), "1) go north")
	assert.Contains(t, out.String(), "3) quit")
}

func TestTextHandlerChooseFreeText(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("lore the keeper\n"), &out)

	choice, err := h.Choose(context.Background(), []string{"go north", "quit"})
	require.NoError(t, err)
	assert.Equal(t, "lore the keeper", choice)
}

func TestTextHandlerChooseRetriesOutOfRange(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("9\n\n1\n"), &out)

	choice, err := h.Choose(context.Background(), []string{"go north", "quit"})
	require.NoError(t, err)
	assert.Equal(t, "go north", choice)
	assert.Contains(t, out.String(), "between 1 and 2")
}

func TestTextHandlerChooseEOF(t *testing.T) {
	h := NewTextHandler(strings.NewReader(""), io.Discard)

	_, err := h.Choose(context.Background(), []string{"quit"})
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandlerChooseContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never yields would block forever without the context.
	h := NewTextHandler(blockingReader{}, io.Discard)
	_, err := h.Choose(ctx, []string{"quit"})
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}

func TestTextHandlerRenderUsesRenderer(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(nil, &out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "[styled] " + s, nil
	}))

	require.NoError(t, h.Render(context.Background(), "# Chapter"))
	assert.Equal(t, "[styled] # Chapter\n", out.String())
}

func TestSanitizeInputStripsControlChars(t *testing.T) {
	clean, err := SanitizeInput("go \x1b[31mnorth\x00")
	require.NoError(t, err)
	assert.Equal(t, "go [31mnorth", clean)
}

func TestSanitizeInputRejectsOversize(t *testing.T) {
	_, err := SanitizeInput(strings.Repeat("a", DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}
