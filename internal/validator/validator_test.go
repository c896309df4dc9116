package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/internal/validator"
	"github.com/softgrove/vellum/pkg/adapters/memory"
	"github.com/softgrove/vellum/pkg/domain"
)

type fixture struct {
	states   *memory.StateStore
	chapters *memory.ChapterLog
	links    *memory.LinkIndex
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return fixture{
		states:   memory.NewStateStore(),
		chapters: memory.NewChapterLog(),
		links:    memory.NewLinkIndex(),
	}
}

// seed writes a consistent two-chapter session.
func (f fixture) seed(t *testing.T, ctx context.Context, namespace string) {
	t.Helper()
	state, err := f.states.Initialize(ctx, namespace)
	require.NoError(t, err)

	_, err = f.chapters.Append(ctx, namespace, "Seed chapter")
	require.NoError(t, err)

	state = state.ApplyChoice("open the door")
	_, err = f.chapters.Append(ctx, namespace, "Second chapter")
	require.NoError(t, err)
	require.NoError(t, f.states.Save(ctx, namespace, state))
}

func TestValidateSession_SoundSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, ctx, "session-1")

	report, err := validator.ValidateSession(ctx, f.states, f.chapters, f.links, "session-1")
	require.NoError(t, err)
	assert.True(t, report.OK(), "problems: %v", report.Problems)
}

func TestValidateSession_MissingState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := validator.ValidateSession(ctx, f.states, f.chapters, f.links, "ghost")
	require.NoError(t, err)
	require.False(t, report.OK())
	assert.Contains(t, report.Problems[0], "world state unreadable")
}

func TestValidateSession_ChoiceCountMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, ctx, "session-1")

	state, err := f.states.Load(ctx, "session-1")
	require.NoError(t, err)
	state.Story.ChapterCount = 5
	require.NoError(t, f.states.Save(ctx, "session-1", state))

	report, err := validator.ValidateSession(ctx, f.states, f.chapters, f.links, "session-1")
	require.NoError(t, err)
	require.False(t, report.OK())
	assert.Contains(t, report.Problems[0], "choice history out of step")
}

func TestValidateSession_MissingChapters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	state, err := f.states.Initialize(ctx, "session-1")
	require.NoError(t, err)
	state = state.ApplyChoice("press on")
	require.NoError(t, f.states.Save(ctx, "session-1", state))

	report, err := validator.ValidateSession(ctx, f.states, f.chapters, f.links, "session-1")
	require.NoError(t, err)
	require.False(t, report.OK())
	assert.Contains(t, report.Problems[0], "no readable chapters")
}

func TestValidateSession_DanglingLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, ctx, "session-1")

	ref := domain.ChapterRef{Namespace: "session-1", Seq: 9}
	require.NoError(t, f.links.Put(ctx, "session-1", ref, []string{"nowhere"}))

	report, err := validator.ValidateSession(ctx, f.states, f.chapters, f.links, "session-1")
	require.NoError(t, err)
	require.False(t, report.OK())
	assert.Contains(t, report.Problems[0], "missing chapter 9")
}
