package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name   string
		target map[string]any
		patch  map[string]any
		want   map[string]any
	}{
		{
			name:   "Scalar Replaces Scalar",
			target: map[string]any{"health": 10},
			patch:  map[string]any{"health": 7},
			want:   map[string]any{"health": 7},
		},
		{
			name:   "Map Merges Into Map",
			target: map[string]any{"inventory": map[string]any{"torch": 1, "rope": 1}},
			patch:  map[string]any{"inventory": map[string]any{"rope": 2}},
			want:   map[string]any{"inventory": map[string]any{"torch": 1, "rope": 2}},
		},
		{
			name:   "Non-Map Replaces Map Wholesale",
			target: map[string]any{"door": map[string]any{"locked": true}},
			patch:  map[string]any{"door": "destroyed"},
			want:   map[string]any{"door": "destroyed"},
		},
		{
			name:   "Map Replaces Non-Map Wholesale",
			target: map[string]any{"door": "closed"},
			patch:  map[string]any{"door": map[string]any{"locked": false}},
			want:   map[string]any{"door": map[string]any{"locked": false}},
		},
		{
			name:   "New Keys Added",
			target: map[string]any{},
			patch:  map[string]any{"weather": map[string]any{"rain": true}},
			want:   map[string]any{"weather": map[string]any{"rain": true}},
		},
		{
			name: "Nested Merge Preserves Siblings",
			target: map[string]any{
				"npc": map[string]any{
					"keeper": map[string]any{"mood": "wary", "alive": true},
				},
			},
			patch: map[string]any{
				"npc": map[string]any{
					"keeper": map[string]any{"mood": "friendly"},
				},
			},
			want: map[string]any{
				"npc": map[string]any{
					"keeper": map[string]any{"mood": "friendly", "alive": true},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			DeepMerge(tt.target, tt.patch)
			if !reflect.DeepEqual(tt.target, tt.want) {
				t.Errorf("DeepMerge() = %#v, want %#v", tt.target, tt.want)
			}
		})
	}
}

func TestWorldState_Patch(t *testing.T) {
	state := NewWorldState(time.Now())
	state.Player["name"] = "Wren"

	state.Patch(map[string]any{
		"player": map[string]any{"health": 9},
		"world":  map[string]any{"region": "fens"},
		"mods":   map[string]any{"hard_mode": true},
	})

	if state.Player["name"] != "Wren" || state.Player["health"] != 9 {
		t.Errorf("player section = %#v", state.Player)
	}
	if state.World["region"] != "fens" {
		t.Errorf("world section = %#v", state.World)
	}
	extra, ok := state.Extra["mods"].(map[string]any)
	if !ok || extra["hard_mode"] != true {
		t.Errorf("extra section = %#v", state.Extra)
	}
}
