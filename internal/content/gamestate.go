package content

// GameStartMarker is the first log line of every new game.
const GameStartMarker = "[GAME START]"

// GameState is the initial mutable runtime state a project exports.
// Artifacts, IDToName, and Interactions are reserved for the runtime and
// passed through untouched.
type GameState struct {
	Inventory    []string       `json:"inventory"`
	Log          []string       `json:"log"`
	Score        int            `json:"score"`
	Timer        int            `json:"timer"`
	Artifacts    map[string]any `json:"artifacts"`
	IDToName     map[string]any `json:"id_to_name"`
	Events       map[string]any `json:"events"`
	Interactions map[string]any `json:"interactions"`
	VisitedTiles []string       `json:"visited_tiles"`

	// StateEvents is populated by the export assembler from the owning
	// project; the value is never read from stored settings text. The
	// runtime dereferences the key, so it serializes even when empty.
	StateEvents map[string]StateEvent `json:"state_events"`
}

// DefaultGameState returns the full default game-state shape used when a
// project's stored settings carry no usable game state.
func DefaultGameState() GameState {
	return GameState{
		Inventory:    []string{},
		Log:          []string{GameStartMarker},
		Score:        0,
		Timer:        0,
		Artifacts:    map[string]any{},
		IDToName:     map[string]any{},
		Events:       map[string]any{},
		Interactions: map[string]any{},
		VisitedTiles: []string{},
		StateEvents:  map[string]StateEvent{},
	}
}

// withDefaults replaces nil members with their empty defaults so the
// exported document never contains null where the runtime expects a
// collection.
func (gs GameState) withDefaults() GameState {
	if gs.Inventory == nil {
		gs.Inventory = []string{}
	}
	if gs.Log == nil {
		gs.Log = []string{GameStartMarker}
	}
	if gs.Artifacts == nil {
		gs.Artifacts = map[string]any{}
	}
	if gs.IDToName == nil {
		gs.IDToName = map[string]any{}
	}
	if gs.Events == nil {
		gs.Events = map[string]any{}
	}
	if gs.Interactions == nil {
		gs.Interactions = map[string]any{}
	}
	if gs.VisitedTiles == nil {
		gs.VisitedTiles = []string{}
	}
	if gs.StateEvents == nil {
		gs.StateEvents = map[string]StateEvent{}
	}
	return gs
}

// StateEvent is a project-level rule describing cascading state changes
// not tied to a single item's interactions. Artifacts maps artifact id to
// property overrides applied when the event fires; Events holds dependent
// event flags. Both are open-ended shapes owned by the runtime.
type StateEvent struct {
	Artifacts  map[string]map[string]any `json:"artifacts"`
	Events     map[string]any            `json:"events"`
	EventValue bool                      `json:"event_value"`
}
