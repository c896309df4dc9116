package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/softgrove/vellum/internal/presentation/graph"
	"github.com/softgrove/vellum/pkg/domain"
)

func historyState(choices ...string) *domain.WorldState {
	state := domain.NewWorldState(time.Now())
	for _, c := range choices {
		state = state.ApplyChoice(c)
	}
	return state
}

func TestGenerateMermaid_History(t *testing.T) {
	out := graph.GenerateMermaid(historyState("open the door", "light the lamp"), nil, nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `ch1(("Chapter 1"))`)
	assert.Contains(t, out, `ch3["Chapter 3"]`)
	assert.Contains(t, out, `ch1 -- "open the door" --> ch2`)
	assert.Contains(t, out, `ch2 -- "light the lamp" --> ch3`)
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := graph.GenerateMermaid(historyState("open the door"), nil, &graph.Overlay{CurrentSeq: 2})

	assert.Contains(t, out, "classDef current")
	assert.Contains(t, out, "class ch2 current;")
}

func TestGenerateMermaid_LinksAndEscaping(t *testing.T) {
	state := historyState(`say "hello"`)
	links := map[int][]string{
		2: {"the-locket", "mira"},
		9: {"out-of-range"},
	}
	out := graph.GenerateMermaid(state, links, nil)

	assert.Contains(t, out, `ch1 -- "say 'hello'" --> ch2`)
	assert.Contains(t, out, `ch2 -. "the-locket, mira" .-> ch2`)
	assert.NotContains(t, out, "out-of-range")
}
