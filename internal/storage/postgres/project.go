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

// ErrProjectNotFound is returned when a project lookup yields no results.
var ErrProjectNotFound = errors.New("project not found")

// ErrProjectNameTaken is returned when creating a project with a name that
// already exists.
var ErrProjectNameTaken = errors.New("project name already taken")

// Project is a named grouping of items plus its project-level
// state-event rules.
type Project struct {
	ID          int64                         `json:"id"`
	Name        string                        `json:"name"`
	CreatedAt   time.Time                     `json:"created_at"`
	StateEvents map[string]content.StateEvent `json:"state_events"`
}

// ProjectRepository provides project persistence operations, including
// the cascading delete that unassigns member items.
type ProjectRepository struct {
	db    *pgxpool.Pool
	codec *content.Codec
}

// NewProjectRepository creates a ProjectRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool; codec must be non-nil.
func NewProjectRepository(db *pgxpool.Pool, codec *content.Codec) *ProjectRepository {
	return &ProjectRepository{db: db, codec: codec}
}

// List returns all projects ordered by creation time.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ProjectRepository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, created_at, state_events FROM projects ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		var (
			p   Project
			raw string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &raw); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		p.StateEvents = r.codec.DecodeStateEvents(p.ID, raw)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Get retrieves a project by id.
//
// Postcondition: Returns the Project or ErrProjectNotFound.
func (r *ProjectRepository) Get(ctx context.Context, id int64) (Project, error) {
	var (
		p   Project
		raw string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, state_events FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, fmt.Errorf("querying project: %w", err)
	}
	p.StateEvents = r.codec.DecodeStateEvents(p.ID, raw)
	return p, nil
}

// Create inserts a new project with empty state events.
//
// Precondition: name must be non-empty (validated at the API boundary).
// Postcondition: Returns the created project with ID and CreatedAt set,
// or ErrProjectNameTaken on a duplicate name.
func (r *ProjectRepository) Create(ctx context.Context, name string) (Project, error) {
	var p Project
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (name, state_events)
		VALUES ($1, '{}')
		RETURNING id, name, created_at`,
		name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Project{}, ErrProjectNameTaken
		}
		return Project{}, fmt.Errorf("inserting project: %w", err)
	}
	p.StateEvents = map[string]content.StateEvent{}
	return p, nil
}

// Delete removes a project, its export settings, and its item
// assignments in a single transaction. Member items are unassigned, not
// deleted. A concurrent reader sees either the full pre-delete state or
// a missing project, never a partially unassigned one.
//
// Postcondition: Returns nil on success, ErrProjectNotFound if no
// project row matched; on any error the transaction is rolled back.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE items SET project_id = NULL WHERE project_id = $1`, id,
	); err != nil {
		return fmt.Errorf("unassigning project items: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM export_settings WHERE project_id = $1`, id,
	); err != nil {
		return fmt.Errorf("deleting export settings: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete transaction: %w", err)
	}
	return nil
}

// StateEvents returns the project's state-event rules, defaulting to an
// empty mapping when the stored text is absent or malformed.
//
// Postcondition: Returns a non-nil mapping or ErrProjectNotFound.
func (r *ProjectRepository) StateEvents(ctx context.Context, id int64) (map[string]content.StateEvent, error) {
	var raw string
	err := r.db.QueryRow(ctx,
		`SELECT state_events FROM projects WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("querying state events: %w", err)
	}
	return r.codec.DecodeStateEvents(id, raw), nil
}

// SetStateEvents replaces the project's state-event rules.
//
// Postcondition: Returns nil on success, ErrProjectNotFound if no row matched.
func (r *ProjectRepository) SetStateEvents(ctx context.Context, id int64, events map[string]content.StateEvent) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET state_events = $2 WHERE id = $1`,
		id, r.codec.EncodeStateEvents(events),
	)
	if err != nil {
		return fmt.Errorf("updating state events: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}
