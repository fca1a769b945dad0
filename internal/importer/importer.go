// Package importer loads editor content from JSON and YAML files into
// the item store.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

// ItemStore is the subset of item persistence the importer needs.
type ItemStore interface {
	Create(ctx context.Context, item content.Item) error
	Assign(ctx context.Context, itemIDs []string, projectID int64) (int64, error)
}

// Summary reports what an import run did.
type Summary struct {
	Imported int
	Skipped  int
}

// Importer orchestrates content import from a Source into an ItemStore.
type Importer struct {
	source Source
	store  ItemStore
	logger *zap.Logger
}

// New constructs an Importer.
//
// Precondition: source, store, and logger must be non-nil.
func New(source Source, store ItemStore, logger *zap.Logger) *Importer {
	return &Importer{source: source, store: store, logger: logger}
}

// Run loads items from path, normalizes them, and inserts each into the
// store. Items whose id already exists are skipped, not overwritten.
// When projectID is non-nil every imported item is assigned to that
// project afterward.
//
// Postcondition: returns a Summary of inserted and skipped items, or a
// non-nil error. A partial import is possible on error.
func (imp *Importer) Run(ctx context.Context, path string, projectID *int64) (Summary, error) {
	var sum Summary

	items, err := imp.source.Load(path)
	if err != nil {
		return sum, fmt.Errorf("loading source: %w", err)
	}

	imported := make([]string, 0, len(items))
	for _, item := range items {
		item, err := normalize(item)
		if err != nil {
			imp.logger.Warn("skipping invalid item", zap.String("id", item.ID), zap.Error(err))
			sum.Skipped++
			continue
		}

		if err := imp.store.Create(ctx, item); err != nil {
			if errors.Is(err, postgres.ErrItemExists) {
				imp.logger.Warn("skipping existing item", zap.String("id", item.ID))
				sum.Skipped++
				continue
			}
			return sum, fmt.Errorf("inserting item %q: %w", item.ID, err)
		}
		imported = append(imported, item.ID)
		sum.Imported++
	}

	if projectID != nil && len(imported) > 0 {
		if _, err := imp.store.Assign(ctx, imported, *projectID); err != nil {
			return sum, fmt.Errorf("assigning imported items to project %d: %w", *projectID, err)
		}
	}
	return sum, nil
}

// normalize fills an item's generated fields and rejects ones that
// cannot be stored.
//
// Postcondition: the returned item has a non-empty id and a valid type,
// or a non-nil error is returned.
func normalize(item content.Item) (content.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if !item.Type.Valid() {
		return item, fmt.Errorf("unknown item type %q", item.Type)
	}
	if item.Name == "" {
		item.Name = item.ID
	}
	return item, nil
}
