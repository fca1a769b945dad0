// Package content provides the editor's domain model: items, projects'
// state events, game state, and the normalization codec that converts
// between stored rows and structured values.
package content

import "encoding/json"

// ItemType identifies one of the three kinds of game entity.
type ItemType string

// The three entity kinds. An item's type determines which property
// flags are recognized and whether exits are meaningful.
const (
	TypeArea    ItemType = "area"
	TypeFixture ItemType = "fixture"
	TypeItem    ItemType = "item"
)

// Valid reports whether t is one of the three recognized kinds.
func (t ItemType) Valid() bool {
	return t == TypeArea || t == TypeFixture || t == TypeItem
}

// Direction is a single-letter compass code used by area exits.
type Direction string

// Compass direction codes. Exits map destination area id to one of these.
const (
	North Direction = "n"
	South Direction = "s"
	East  Direction = "e"
	West  Direction = "w"
)

// Valid reports whether d is a recognized compass code.
func (d Direction) Valid() bool {
	return d == North || d == South || d == East || d == West
}

// TriggerText holds the replacement description text a trigger swaps in.
type TriggerText struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Description is an item's two-part display text. Start is shown before
// listing contents, End after. Triggers hold named alternate texts.
//
// Legacy rows store the description as a bare string; UnmarshalJSON
// upgrades that shape to {start: <string>, end: ""}. The legacy shape is
// never written back.
type Description struct {
	Start    string                 `json:"start"`
	End      string                 `json:"end"`
	Triggers map[string]TriggerText `json:"triggers,omitempty"`
}

// DefaultDescription returns the canonical empty description.
func DefaultDescription() Description {
	return Description{Triggers: map[string]TriggerText{}}
}

// UnmarshalJSON accepts both the structured shape and the legacy bare
// string, normalizing the latter on read.
func (d *Description) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*d = Description{Start: legacy, Triggers: map[string]TriggerText{}}
		return nil
	}

	type alias Description
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Triggers == nil {
		a.Triggers = map[string]TriggerText{}
	}
	*d = Description(a)
	return nil
}

// triggerMarkerKey distinguishes description-swapping triggers inside the
// flattened trigger record.
const triggerMarkerKey = "isDescriptionTrigger"

// Trigger is a named state an item can be switched into: the property
// flags that become active when it fires, plus a marker for triggers that
// swap the displayed description variant.
//
// The wire shape flattens the flags beside the marker in a single JSON
// object, e.g. {"is_open": true, "isDescriptionTrigger": false}.
type Trigger struct {
	IsDescriptionTrigger bool
	Flags                map[string]bool
}

// MarshalJSON emits the flattened wire shape.
func (t Trigger) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Flags)+1)
	for k, v := range t.Flags {
		if k == triggerMarkerKey {
			continue
		}
		out[k] = v
	}
	out[triggerMarkerKey] = t.IsDescriptionTrigger
	return json.Marshal(out)
}

// UnmarshalJSON reads the flattened wire shape. Non-boolean members are
// not flag state and are dropped.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.IsDescriptionTrigger = false
	t.Flags = make(map[string]bool, len(raw))
	for k, v := range raw {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			continue
		}
		if k == triggerMarkerKey {
			t.IsDescriptionTrigger = b
			continue
		}
		t.Flags[k] = b
	}
	return nil
}

// Interaction describes the consequence of interacting with an item.
type Interaction struct {
	// Message is the text shown to the player.
	Message string `json:"message"`
	// Events are game-state flag changes merged in when the interaction fires.
	Events map[string]any `json:"events"`
	// NewState is an optional trigger key the item switches into, or nil.
	NewState *string `json:"new_state"`
	// Consumed is true if the acting item is removed from inventory,
	// nil when not applicable.
	Consumed *bool `json:"consumed"`
	// IsRepeatable defaults to true when absent from the stored record.
	IsRepeatable bool `json:"is_repeatable"`
}

// UnmarshalJSON applies the is_repeatable default and canonicalizes the
// events map to non-nil.
func (i *Interaction) UnmarshalJSON(data []byte) error {
	type alias Interaction
	a := alias{IsRepeatable: true}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Events == nil {
		a.Events = map[string]any{}
	}
	*i = Interaction(a)
	return nil
}

// Item is a game entity: an area, fixture, or item. The JSON tags are the
// wire keys the game runtime consumes; the trailing underscores are part
// of the engine's document format.
type Item struct {
	ID   string   `json:"id"`
	Type ItemType `json:"type"`
	Name string   `json:"name"`

	Description          Description `json:"description_"`
	ContainerDescription string      `json:"container_description"`

	// Fixtures and Items list contained entities by id; DisplayOrder
	// controls presentation order when rendering contents (empty means
	// default order).
	Fixtures     []string `json:"fixtures_"`
	Items        []string `json:"items_"`
	DisplayOrder []string `json:"display_order"`

	// Exits maps destination area id to a compass code. Meaningful only
	// for areas. At most one destination per direction by convention;
	// the structure itself does not enforce it.
	Exits map[string]Direction `json:"exits_"`

	Properties   map[string]bool        `json:"properties"`
	Triggers     map[string]Trigger     `json:"triggers"`
	Interactions map[string]Interaction `json:"interactions"`

	// ProjectID references the owning project; nil means unassigned.
	ProjectID *int64 `json:"project_id,omitempty"`
}

// withDefaults returns a copy of the item with every nil compound field
// replaced by its documented default, so encoding never produces null.
func (i Item) withDefaults() Item {
	if i.Description.Triggers == nil {
		i.Description.Triggers = map[string]TriggerText{}
	}
	if i.Fixtures == nil {
		i.Fixtures = []string{}
	}
	if i.Items == nil {
		i.Items = []string{}
	}
	if i.DisplayOrder == nil {
		i.DisplayOrder = []string{}
	}
	if i.Exits == nil {
		i.Exits = map[string]Direction{}
	}
	if i.Properties == nil {
		i.Properties = map[string]bool{}
	}
	if i.Triggers == nil {
		i.Triggers = map[string]Trigger{}
	}
	if i.Interactions == nil {
		i.Interactions = map[string]Interaction{}
	}
	return i
}
