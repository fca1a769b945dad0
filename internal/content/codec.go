package content

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// RawItem is the storage representation of an item: every compound field
// serialized as JSON text, exactly as it sits in its column.
type RawItem struct {
	ID                   string
	Type                 string
	Name                 string
	Description          string
	ContainerDescription string
	Fixtures             string
	Items                string
	DisplayOrder         string
	Exits                string
	Properties           string
	Triggers             string
	Interactions         string
	ProjectID            *int64
}

// Codec converts between RawItem rows and structured values, applying
// defaulting and legacy-shape upgrades in both directions.
//
// Malformed stored text never propagates: the field's documented default
// is substituted and the corruption is logged, so one bad record cannot
// break a listing or an export.
type Codec struct {
	logger *zap.Logger
}

// NewCodec creates a Codec that reports malformed stored data to logger.
//
// Precondition: logger must be non-nil.
func NewCodec(logger *zap.Logger) *Codec {
	return &Codec{logger: logger}
}

// Decode parses every compound field of raw into its structured shape.
//
// Postcondition: No field of the returned item is nil; absent or
// malformed stored text yields the field's default. A legacy bare-string
// description is upgraded to {start: <string>, end: ""}.
func (c *Codec) Decode(raw RawItem) Item {
	item := Item{
		ID:                   raw.ID,
		Type:                 ItemType(raw.Type),
		Name:                 raw.Name,
		ContainerDescription: raw.ContainerDescription,
		ProjectID:            raw.ProjectID,
	}

	item.Description = decodeField(c, raw.ID, "description", raw.Description, DefaultDescription())
	item.Fixtures = decodeField(c, raw.ID, "fixtures", raw.Fixtures, []string{})
	item.Items = decodeField(c, raw.ID, "items", raw.Items, []string{})
	item.DisplayOrder = decodeField(c, raw.ID, "display_order", raw.DisplayOrder, []string{})
	item.Exits = decodeField(c, raw.ID, "exits", raw.Exits, map[string]Direction{})
	item.Properties = decodeField(c, raw.ID, "properties", raw.Properties, map[string]bool{})
	item.Triggers = decodeField(c, raw.ID, "triggers", raw.Triggers, map[string]Trigger{})
	item.Interactions = decodeField(c, raw.ID, "interactions", raw.Interactions, map[string]Interaction{})

	// A stored JSON null parses successfully but leaves the zero value.
	return item.withDefaults()
}

// Encode serializes every compound field of item to JSON text.
//
// Postcondition: No column of the returned row is empty; nil fields
// serialize to their defaults. When item.Type is fixture,
// properties.is_accessible is forced false regardless of input.
func (c *Codec) Encode(item Item) RawItem {
	item = item.withDefaults()

	if item.Type == TypeFixture {
		props := make(map[string]bool, len(item.Properties))
		for k, v := range item.Properties {
			props[k] = v
		}
		props["is_accessible"] = false
		item.Properties = props
	}

	return RawItem{
		ID:                   item.ID,
		Type:                 string(item.Type),
		Name:                 item.Name,
		Description:          encodeField(c, item.ID, "description", item.Description, `{"start":"","end":""}`),
		ContainerDescription: item.ContainerDescription,
		Fixtures:             encodeField(c, item.ID, "fixtures", item.Fixtures, "[]"),
		Items:                encodeField(c, item.ID, "items", item.Items, "[]"),
		DisplayOrder:         encodeField(c, item.ID, "display_order", item.DisplayOrder, "[]"),
		Exits:                encodeField(c, item.ID, "exits", item.Exits, "{}"),
		Properties:           encodeField(c, item.ID, "properties", item.Properties, "{}"),
		Triggers:             encodeField(c, item.ID, "triggers", item.Triggers, "{}"),
		Interactions:         encodeField(c, item.ID, "interactions", item.Interactions, "{}"),
		ProjectID:            item.ProjectID,
	}
}

// DecodeGameState parses stored game-state text. Absent, malformed, or
// non-object text yields the full default shape; members missing from a
// parseable object resolve to their defaults, so score and timer are
// always present.
func (c *Codec) DecodeGameState(raw string) GameState {
	gs := DefaultGameState()
	if strings.TrimSpace(raw) == "" {
		return gs
	}
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		c.logger.Warn("malformed stored game state, substituting default",
			zap.Error(err),
		)
		return DefaultGameState()
	}
	return gs.withDefaults()
}

// EncodeGameState serializes a game state for storage.
func (c *Codec) EncodeGameState(gs GameState) string {
	return encodeField(c, "", "game_state", gs.withDefaults(), "{}")
}

// DecodeStateEvents parses a project's stored state-event rules. Absent
// or malformed text yields an empty mapping.
func (c *Codec) DecodeStateEvents(projectID int64, raw string) map[string]StateEvent {
	events := decodeJSON(c, raw, map[string]StateEvent{}, func(err error) {
		c.logger.Warn("malformed stored state events, substituting default",
			zap.Int64("project_id", projectID),
			zap.Error(err),
		)
	})
	if events == nil {
		events = map[string]StateEvent{}
	}
	return events
}

// EncodeStateEvents serializes a project's state-event rules for storage.
func (c *Codec) EncodeStateEvents(events map[string]StateEvent) string {
	if events == nil {
		events = map[string]StateEvent{}
	}
	return encodeField(c, "", "state_events", events, "{}")
}

// decodeField parses one compound column, falling back to the documented
// default on absent or malformed text.
func decodeField[T any](c *Codec, itemID, field, raw string, fallback T) T {
	return decodeJSON(c, raw, fallback, func(err error) {
		c.logger.Warn("malformed stored field, substituting default",
			zap.String("item_id", itemID),
			zap.String("field", field),
			zap.Error(err),
		)
	})
}

// decodeJSON is the single decode-with-fallback primitive every compound
// field goes through.
func decodeJSON[T any](c *Codec, raw string, fallback T, onErr func(error)) T {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		onErr(err)
		return fallback
	}
	return v
}

// encodeField serializes one compound value, falling back to the field's
// default literal if the value cannot be marshalled.
func encodeField(c *Codec, itemID, field string, v any, fallback string) string {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("unencodable field, substituting default",
			zap.String("item_id", itemID),
			zap.String("field", field),
			zap.Error(err),
		)
		return fallback
	}
	return string(b)
}
