package domain

// DeepMerge merges patch into target key by key. A map value in patch merges
// recursively into the existing map in target; any non-map value replaces the
// target value wholesale. target is mutated in place.
func DeepMerge(target, patch map[string]any) {
	for key, patchVal := range patch {
		patchMap, patchIsMap := patchVal.(map[string]any)
		targetMap, targetIsMap := target[key].(map[string]any)
		if patchIsMap && targetIsMap {
			DeepMerge(targetMap, patchMap)
			continue
		}
		target[key] = patchVal
	}
}

// Patch applies a free-form patch to the state's fact maps. Recognized top
// level keys ("player", "world") merge into the typed sections; anything else
// lands in Extra.
func (s *WorldState) Patch(changes map[string]any) {
	for key, val := range changes {
		patch, ok := val.(map[string]any)
		switch {
		case key == "player" && ok:
			DeepMerge(s.Player, patch)
		case key == "world" && ok:
			DeepMerge(s.World, patch)
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			DeepMerge(s.Extra, map[string]any{key: val})
		}
	}
}
