package filterdef

import "fmt"

// UnmarshalTOML implements the tagged-union-by-presence decoding cc-allow
// uses for its MatchElement/FlexiblePattern types: exactly one of the
// recognized keys must be present in the TOML table, and its presence
// selects Kind.
func (e *ExpectRule) UnmarshalTOML(data interface{}) error {
	m, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expect entry must be a table, got %T", data)
	}

	found := 0
	if v, ok := m["equals"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expect.equals must be a string")
		}
		e.Kind = ExpectEquals
		e.Equals = s
		found++
	}
	if v, ok := m["contains"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expect.contains must be a string")
		}
		e.Kind = ExpectContains
		e.Contains = s
		found++
	}
	if v, ok := m["matches"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expect.matches must be a string")
		}
		e.Kind = ExpectMatches
		e.Matches = s
		found++
	}
	if v, ok := m["not_contains"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expect.not_contains must be a string")
		}
		e.Kind = ExpectNotContain
		e.NotContains = s
		found++
	}
	if v, ok := m["lines_eq"]; ok {
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("expect.lines_eq must be an integer")
		}
		nn := int(n)
		e.Kind = ExpectLinesEq
		e.LinesEq = &nn
		found++
	}

	if found == 0 {
		return fmt.Errorf("expect entry must set one of equals/contains/matches/not_contains/lines_eq")
	}
	if found > 1 {
		return fmt.Errorf("expect entry must set exactly one of equals/contains/matches/not_contains/lines_eq, got %d", found)
	}
	return e.compile()
}
