package domain

import (
	"slices"
	"time"
)

// SchemaVersion is the current world-state schema tag written to meta.version.
const SchemaVersion = "1.0"

// Story tracks narrative progression. Choices is append-only and its length
// equals ChapterCount at every quiescent point outside an in-flight advance.
type Story struct {
	// ChapterCount is the number of accepted choices. The seed chapter created
	// by a new session does not count.
	ChapterCount int `yaml:"chapters"`

	// Choices is the ordered history of accepted choices.
	Choices []string `yaml:"choices"`

	// EndingsSeen is a de-duplicated, sorted list of ending identifiers.
	EndingsSeen []string `yaml:"endings_seen"`
}

// Meta holds bookkeeping about the save itself.
type Meta struct {
	Created   time.Time `yaml:"created"`
	LastSaved time.Time `yaml:"last_saved"`
	Version   string    `yaml:"version"`
}

// WorldState is the serialized session state. Player and World are free-form
// fact maps the engine stores but never interprets; Extra carries any keys a
// future schema adds so older builds round-trip them untouched.
type WorldState struct {
	Player map[string]any `yaml:"player"`
	World  map[string]any `yaml:"world"`
	Story  Story          `yaml:"story"`
	Meta   Meta           `yaml:"meta"`
	Extra  map[string]any `yaml:"extra,omitempty"`
}

// NewWorldState creates the default state for a fresh session.
func NewWorldState(now time.Time) *WorldState {
	return &WorldState{
		Player: make(map[string]any),
		World:  make(map[string]any),
		Story: Story{
			Choices:     []string{},
			EndingsSeen: []string{},
		},
		Meta: Meta{
			Created:   now,
			LastSaved: now,
			Version:   SchemaVersion,
		},
	}
}

// ApplyChoice returns a copy of the state with the choice appended and the
// chapter count incremented. Pure: the receiver is not modified and the caller
// is responsible for persisting the result.
func (s *WorldState) ApplyChoice(choice string) *WorldState {
	next := s.Clone()
	next.Story.Choices = append(next.Story.Choices, choice)
	next.Story.ChapterCount++
	return next
}

// RecordEnding adds an ending identifier to the seen set, keeping it sorted.
func (s *WorldState) RecordEnding(endingID string) {
	if slices.Contains(s.Story.EndingsSeen, endingID) {
		return
	}
	s.Story.EndingsSeen = append(s.Story.EndingsSeen, endingID)
	slices.Sort(s.Story.EndingsSeen)
}

// Clone returns a deep copy of the state.
func (s *WorldState) Clone() *WorldState {
	out := &WorldState{
		Player: cloneMap(s.Player),
		World:  cloneMap(s.World),
		Story: Story{
			ChapterCount: s.Story.ChapterCount,
			Choices:      slices.Clone(s.Story.Choices),
			EndingsSeen:  slices.Clone(s.Story.EndingsSeen),
		},
		Meta: s.Meta,
	}
	if s.Extra != nil {
		out.Extra = cloneMap(s.Extra)
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
