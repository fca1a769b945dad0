package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fableforge/fableforge/internal/content"
)

// ErrSettingsNotFound is returned when a project has no export settings row.
var ErrSettingsNotFound = errors.New("export settings not found")

// ExportSettings is a project's export configuration. GameState holds the
// stored JSON text verbatim; the content codec parses it where needed so
// corrupt text degrades to defaults instead of failing reads.
type ExportSettings struct {
	ID        int64
	ProjectID int64
	StartArea string
	GameState string
	CreatedAt time.Time
}

// ExportSettingsRepository provides per-project export settings
// persistence. Each project has at most one row.
type ExportSettingsRepository struct {
	db    *pgxpool.Pool
	codec *content.Codec
}

// NewExportSettingsRepository creates an ExportSettingsRepository backed
// by the given pool.
//
// Precondition: db must be a valid, open connection pool; codec must be non-nil.
func NewExportSettingsRepository(db *pgxpool.Pool, codec *content.Codec) *ExportSettingsRepository {
	return &ExportSettingsRepository{db: db, codec: codec}
}

// ByProject retrieves the settings row for a project.
//
// Postcondition: Returns the settings or ErrSettingsNotFound.
func (r *ExportSettingsRepository) ByProject(ctx context.Context, projectID int64) (ExportSettings, error) {
	var s ExportSettings
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, start_area, game_state, created_at
		FROM export_settings WHERE project_id = $1`,
		projectID,
	).Scan(&s.ID, &s.ProjectID, &s.StartArea, &s.GameState, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ExportSettings{}, ErrSettingsNotFound
		}
		return ExportSettings{}, fmt.Errorf("querying export settings: %w", err)
	}
	return s, nil
}

// GetOrCreate retrieves a project's settings, lazily inserting a default
// row (empty start area, default game state) on first fetch.
//
// Postcondition: Returns an existing or freshly created settings row, or
// ErrProjectNotFound when projectID does not reference a project.
func (r *ExportSettingsRepository) GetOrCreate(ctx context.Context, projectID int64) (ExportSettings, error) {
	s, err := r.ByProject(ctx, projectID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return ExportSettings{}, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID,
	).Scan(&exists); err != nil {
		return ExportSettings{}, fmt.Errorf("checking project: %w", err)
	}
	if !exists {
		return ExportSettings{}, ErrProjectNotFound
	}

	return r.Save(ctx, projectID, "", content.DefaultGameState())
}

// Save creates or replaces a project's export settings.
//
// Precondition: a non-empty startArea is required for explicit saves;
// the API boundary enforces it. The lazy-create path passes an empty one.
// Postcondition: Returns the stored row, or ErrProjectNotFound when
// projectID does not reference a project.
func (r *ExportSettingsRepository) Save(ctx context.Context, projectID int64, startArea string, gs content.GameState) (ExportSettings, error) {
	var s ExportSettings
	err := r.db.QueryRow(ctx, `
		INSERT INTO export_settings (project_id, start_area, game_state)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id)
		DO UPDATE SET start_area = EXCLUDED.start_area, game_state = EXCLUDED.game_state
		RETURNING id, project_id, start_area, game_state, created_at`,
		projectID, startArea, r.codec.EncodeGameState(gs),
	).Scan(&s.ID, &s.ProjectID, &s.StartArea, &s.GameState, &s.CreatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return ExportSettings{}, ErrProjectNotFound
		}
		return ExportSettings{}, fmt.Errorf("saving export settings: %w", err)
	}
	return s, nil
}

// isForeignKeyError checks if a pgx error is a foreign key violation.
func isForeignKeyError(err error) bool {
	// SQLSTATE 23503 (foreign_key_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23503"
	}
	return false
}
