package content

// DefaultProperties returns the recognized property flags and their
// default values for the given item type. Flags outside this set are
// preserved by the codec but not surfaced by the editing UI.
//
// Postcondition: Returns a fresh map; callers may mutate it freely.
// Returns an empty map for unrecognized types.
func DefaultProperties(t ItemType) map[string]bool {
	switch t {
	case TypeArea:
		return map[string]bool{
			"is_accessible": true,
			"is_visible":    true,
			"is_dark":       false,
		}
	case TypeFixture:
		// is_accessible is forced false for fixtures at encode time.
		return map[string]bool{
			"is_openable":   false,
			"is_open":       false,
			"is_locked":     false,
			"is_visible":    true,
			"is_lit":        false,
			"is_flammable":  false,
			"is_dark":       false,
			"is_accessible": false,
		}
	case TypeItem:
		return map[string]bool{
			"is_openable":   false,
			"is_open":       false,
			"is_broken":     false,
			"is_accessible": true,
			"is_locked":     false,
			"is_visible":    true,
			"is_lit":        false,
			"is_flammable":  false,
			"is_dark":       false,
		}
	default:
		return map[string]bool{}
	}
}
