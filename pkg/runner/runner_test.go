package runner_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/pkg/adapters/file"
	"github.com/softgrove/vellum/pkg/ports"
	"github.com/softgrove/vellum/pkg/runner"
	"github.com/softgrove/vellum/pkg/session"
)

// loopGen answers every continuation with a counter and every choice
// request with a fixed menu.
type loopGen struct {
	turns int
}

func (g *loopGen) Generate(ctx context.Context, p string, opts ports.GenerateOptions) (string, error) {
	if strings.Contains(p, "actions the player could take") {
		return "open the gate\nturn back", nil
	}
	g.turns++
	return fmt.Sprintf("Chapter text %d", g.turns), nil
}

func newSession(t *testing.T, cfg session.Config, gen ports.Generator) (*session.Controller, string) {
	t.Helper()
	dir := t.TempDir()
	ctrl := session.NewController(cfg, file.NewStateStore(dir), file.NewChapterLog(dir), gen)
	require.NoError(t, ctrl.New(context.Background()))
	return ctrl, dir
}

func TestRunnerQuitLeavesSessionResumable(t *testing.T) {
	ctrl, dir := newSession(t, session.DefaultConfig(), &loopGen{})

	var out bytes.Buffer
	r := runner.NewRunner()
	r.Input = strings.NewReader("1\nquit\n")
	r.Output = &out

	require.NoError(t, r.Run(context.Background(), ctrl))

	assert.Contains(t, out.String(), "Chapter text 1")
	assert.Contains(t, out.String(), "Chapter text 2")
	assert.Contains(t, out.String(), "Progress saved")

	// One advance happened and everything is on disk for a later resume.
	_, err := os.Stat(filepath.Join(dir, ctrl.ID(), "chapter_2.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.State().Story.ChapterCount)

	resumed := session.NewController(session.DefaultConfig(), file.NewStateStore(dir), file.NewChapterLog(dir), &loopGen{})
	require.NoError(t, resumed.Load(context.Background(), ""))
	assert.Equal(t, ctrl.ID(), resumed.ID())
}

func TestRunnerStopsAtCeiling(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.MaxChapters = 2
	ctrl, _ := newSession(t, cfg, &loopGen{})

	var out bytes.Buffer
	r := runner.NewRunner()
	// Enough selections to overrun the ceiling if the loop ignored it.
	r.Input = strings.NewReader("1\n1\n1\n1\n")
	r.Output = &out

	require.NoError(t, r.Run(context.Background(), ctrl))

	assert.Contains(t, out.String(), "reached its end")
	assert.Equal(t, 2, ctrl.State().Story.ChapterCount)
}

func TestRunnerEOFReturnsNil(t *testing.T) {
	ctrl, _ := newSession(t, session.DefaultConfig(), &loopGen{})

	r := runner.NewRunner()
	r.Input = strings.NewReader("")
	r.Output = &bytes.Buffer{}

	require.NoError(t, r.Run(context.Background(), ctrl))
	assert.Equal(t, 0, ctrl.State().Story.ChapterCount)
}

func TestRunnerLoreLookup(t *testing.T) {
	ctrl, _ := newSession(t, session.DefaultConfig(), &loreGen{})

	var out bytes.Buffer
	r := runner.NewRunner()
	r.Input = strings.NewReader("lore the lighthouse\nquit\n")
	r.Output = &out

	require.NoError(t, r.Run(context.Background(), ctrl))

	assert.Contains(t, out.String(), "An old lamp still burns there.")
	// A lore lookup is not a turn.
	assert.Equal(t, 0, ctrl.State().Story.ChapterCount)
}

type loreGen struct{}

func (loreGen) Generate(ctx context.Context, p string, opts ports.GenerateOptions) (string, error) {
	if strings.Contains(p, "the lighthouse") {
		return "An old lamp still burns there.", nil
	}
	return "Opening text", nil
}

func TestRunnerRendererApplied(t *testing.T) {
	ctrl, _ := newSession(t, session.DefaultConfig(), &loopGen{})

	var out bytes.Buffer
	r := runner.NewRunner(runner.WithRenderer(func(s string) (string, error) {
		return ">> " + s, nil
	}))
	r.Input = strings.NewReader("quit\n")
	r.Output = &out

	require.NoError(t, r.Run(context.Background(), ctrl))
	assert.Contains(t, out.String(), ">> Chapter text 1")
}
