// Package export assembles the game-state snapshot the runtime engine
// consumes: a project's export settings, its state-event rules, and every
// item assigned to it, merged into a single document.
package export

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

// ErrStartAreaRequired is returned by BuildLegacy when no start area is
// supplied.
var ErrStartAreaRequired = errors.New("start_area is required")

// SettingsStore defines the export-settings read the assembler requires.
type SettingsStore interface {
	ByProject(ctx context.Context, projectID int64) (postgres.ExportSettings, error)
}

// StateEventStore defines the project state-event read the assembler requires.
type StateEventStore interface {
	StateEvents(ctx context.Context, projectID int64) (map[string]content.StateEvent, error)
}

// ItemStore defines the item reads the assembler requires.
type ItemStore interface {
	List(ctx context.Context) ([]content.Item, error)
	ListByProject(ctx context.Context, projectID int64) ([]content.Item, error)
}

// Document is the exportable game-state snapshot. Artifacts holds every
// exported item in its decoded, engine-facing shape.
type Document struct {
	StartArea string            `json:"start_area"`
	GameState content.GameState `json:"game_state"`
	Artifacts []content.Item    `json:"artifacts"`
}

// Assembler builds export documents from store reads. It holds no
// mutable state: builds are repeatable and safe to run concurrently.
type Assembler struct {
	settings SettingsStore
	projects StateEventStore
	items    ItemStore
	codec    *content.Codec
	logger   *zap.Logger
}

// NewAssembler creates an Assembler over the given stores.
//
// Precondition: all arguments must be non-nil.
func NewAssembler(settings SettingsStore, projects StateEventStore, items ItemStore, codec *content.Codec, logger *zap.Logger) *Assembler {
	return &Assembler{
		settings: settings,
		projects: projects,
		items:    items,
		codec:    codec,
		logger:   logger,
	}
}

// BuildProject composes the export document for one project.
//
// The stored game-state text degrades to the full default shape when it
// is absent, malformed, or not an object. State events always come from
// the project row, overwriting anything present in the stored text. The
// start area is not re-validated against the project's items here; the
// editor only offers valid area ids when settings are saved.
//
// Postcondition: Returns a document whose Artifacts slice is non-nil
// (empty for a project with no items), or postgres.ErrSettingsNotFound /
// postgres.ErrProjectNotFound.
func (a *Assembler) BuildProject(ctx context.Context, projectID int64) (*Document, error) {
	settings, err := a.settings.ByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stateEvents, err := a.projects.StateEvents(ctx, projectID)
	if err != nil {
		return nil, err
	}

	items, err := a.items.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []content.Item{}
	}

	gs := a.codec.DecodeGameState(settings.GameState)
	gs.StateEvents = stateEvents

	a.logger.Debug("assembled project export",
		zap.Int64("project_id", projectID),
		zap.Int("artifacts", len(items)),
		zap.Int("state_events", len(stateEvents)),
	)

	return &Document{
		StartArea: settings.StartArea,
		GameState: gs,
		Artifacts: items,
	}, nil
}

// BuildLegacy composes an unscoped export document covering every item
// regardless of project, with the start area and game state supplied by
// the caller instead of stored settings. Retained for pre-project data.
//
// Precondition: startArea must be non-empty.
// Postcondition: An empty or unparseable gameState yields the full
// default shape, same as stored settings text.
func (a *Assembler) BuildLegacy(ctx context.Context, startArea string, gameState string) (*Document, error) {
	if startArea == "" {
		return nil, ErrStartAreaRequired
	}

	items, err := a.items.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []content.Item{}
	}

	gs := a.codec.DecodeGameState(gameState)

	return &Document{
		StartArea: startArea,
		GameState: gs,
		Artifacts: items,
	}, nil
}
