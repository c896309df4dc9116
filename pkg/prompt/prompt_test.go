package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/softgrove/vellum/pkg/domain"
)

func TestContinuation_Opening(t *testing.T) {
	p := Continuation("", BeginChoice)
	assert.Contains(t, p, "Begin a new story")
	assert.NotContains(t, p, "The player chose")
}

func TestContinuation_NextChapter(t *testing.T) {
	p := Continuation("The door creaks open.", "step inside")
	assert.Contains(t, p, "The door creaks open.")
	assert.Contains(t, p, "The player chose: step inside")
}

func TestParseChoices(t *testing.T) {
	tests := []struct {
		name     string
		response string
		max      int
		want     []string
	}{
		{
			name:     "Plain Lines",
			response: "go north\ngo south\n",
			max:      4,
			want:     []string{"go north", "go south"},
		},
		{
			name:     "Numbered And Bulleted",
			response: "1. open the chest\n- light the torch\n* wait\n",
			max:      4,
			want:     []string{"open the chest", "light the torch", "wait"},
		},
		{
			name:     "Capped At Max",
			response: "a\nb\nc\nd\ne",
			max:      3,
			want:     []string{"a", "b", "c"},
		},
		{
			name:     "Blank Lines Dropped",
			response: "\n\n  run  \n\n",
			max:      4,
			want:     []string{"run"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseChoices(tt.response, tt.max))
		})
	}
}

func TestChoices_IncludesState(t *testing.T) {
	state := domain.NewWorldState(time.Now())
	state.World["region"] = "salt fens"
	state = state.ApplyChoice("wade in")

	p := Choices("You stand at the water's edge.", state)
	assert.Contains(t, p, "salt fens")
	assert.Contains(t, p, "wade in")
	assert.False(t, strings.Contains(p, "last_saved"), "meta must not leak into prompts")
}
