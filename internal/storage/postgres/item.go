package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fableforge/fableforge/internal/content"
)

// ErrItemNotFound is returned when an item lookup yields no results.
var ErrItemNotFound = errors.New("item not found")

// ErrItemExists is returned when creating an item whose id is already taken.
var ErrItemExists = errors.New("item already exists")

const itemColumns = `id, type, name, description, container_description,
	fixtures, items, display_order, exits, properties, triggers, interactions, project_id`

// ItemRepository provides item persistence. Rows cross the storage
// boundary through the content codec: reads decode compound text into
// structured items, writes encode structured items back to text.
type ItemRepository struct {
	db    *pgxpool.Pool
	codec *content.Codec
}

// NewItemRepository creates an ItemRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool; codec must be non-nil.
func NewItemRepository(db *pgxpool.Pool, codec *content.Codec) *ItemRepository {
	return &ItemRepository{db: db, codec: codec}
}

// List returns every item, decoded, ordered by id.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error. A row
// with malformed compound text is still returned, with defaults in place
// of the unparseable fields.
func (r *ItemRepository) List(ctx context.Context) ([]content.Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// ListByProject returns every item assigned to the given project,
// decoded, ordered by id.
func (r *ItemRepository) ListByProject(ctx context.Context, projectID int64) ([]content.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM items WHERE project_id = $1 ORDER BY id ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing project items: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

// Get retrieves a single item by id.
//
// Postcondition: Returns the decoded item or ErrItemNotFound.
func (r *ItemRepository) Get(ctx context.Context, id string) (content.Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	raw, err := scanRawItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.Item{}, ErrItemNotFound
		}
		return content.Item{}, fmt.Errorf("querying item: %w", err)
	}
	return r.codec.Decode(raw), nil
}

// Create inserts a new item.
//
// Precondition: item.ID, item.Type, and item.Name must be non-empty
// (validated at the API boundary).
// Postcondition: Returns nil on success or ErrItemExists on a duplicate id.
func (r *ItemRepository) Create(ctx context.Context, item content.Item) error {
	raw := r.codec.Encode(item)
	_, err := r.db.Exec(ctx, `
		INSERT INTO items
			(id, type, name, description, container_description,
			 fixtures, items, display_order, exits, properties, triggers, interactions, project_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		raw.ID, raw.Type, raw.Name, raw.Description, raw.ContainerDescription,
		raw.Fixtures, raw.Items, raw.DisplayOrder, raw.Exits,
		raw.Properties, raw.Triggers, raw.Interactions, raw.ProjectID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrItemExists
		}
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

// Update replaces every mutable column of an existing item. The id is
// immutable; project assignment changes go through Assign.
//
// Postcondition: Returns nil on success, ErrItemNotFound if no row matched.
func (r *ItemRepository) Update(ctx context.Context, item content.Item) error {
	raw := r.codec.Encode(item)
	tag, err := r.db.Exec(ctx, `
		UPDATE items
		SET type = $2, name = $3, description = $4, container_description = $5,
		    fixtures = $6, items = $7, display_order = $8, exits = $9,
		    properties = $10, triggers = $11, interactions = $12, updated_at = NOW()
		WHERE id = $1`,
		raw.ID, raw.Type, raw.Name, raw.Description, raw.ContainerDescription,
		raw.Fixtures, raw.Items, raw.DisplayOrder, raw.Exits,
		raw.Properties, raw.Triggers, raw.Interactions,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete removes an item by id.
//
// Postcondition: Returns nil on success, ErrItemNotFound if no row matched.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Assign sets project_id on every listed item in one statement and
// returns the number of rows updated. Ids with no matching item are
// silent no-ops: zero rows affected is not an error for bulk assignment.
//
// Postcondition: Returns the updated count, or ErrProjectNotFound when
// projectID does not reference an existing project.
func (r *ItemRepository) Assign(ctx context.Context, itemIDs []string, projectID int64) (int64, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("checking project: %w", err)
	}
	if !exists {
		return 0, ErrProjectNotFound
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE items SET project_id = $1 WHERE id = ANY($2)`,
		projectID, itemIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("assigning items: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ItemRepository) collect(rows pgx.Rows) ([]content.Item, error) {
	items := make([]content.Item, 0)
	for rows.Next() {
		raw, err := scanRawItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, r.codec.Decode(raw))
	}
	return items, rows.Err()
}

func scanRawItem(row pgx.Row) (content.RawItem, error) {
	var raw content.RawItem
	err := row.Scan(
		&raw.ID, &raw.Type, &raw.Name, &raw.Description, &raw.ContainerDescription,
		&raw.Fixtures, &raw.Items, &raw.DisplayOrder, &raw.Exits,
		&raw.Properties, &raw.Triggers, &raw.Interactions, &raw.ProjectID,
	)
	return raw, err
}
