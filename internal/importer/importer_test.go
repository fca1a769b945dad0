package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

type fakeStore struct {
	created  []content.Item
	existing map[string]bool
	assigned map[string]int64
}

func newFakeStore(existing ...string) *fakeStore {
	f := &fakeStore{existing: map[string]bool{}, assigned: map[string]int64{}}
	for _, id := range existing {
		f.existing[id] = true
	}
	return f
}

func (f *fakeStore) Create(_ context.Context, item content.Item) error {
	if f.existing[item.ID] {
		return postgres.ErrItemExists
	}
	f.existing[item.ID] = true
	f.created = append(f.created, item)
	return nil
}

func (f *fakeStore) Assign(_ context.Context, itemIDs []string, projectID int64) (int64, error) {
	for _, id := range itemIDs {
		f.assigned[id] = projectID
	}
	return int64(len(itemIDs)), nil
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRun_JSONArray(t *testing.T) {
	path := writeFile(t, t.TempDir(), "items.json", `[
		{"id": "cellar", "type": "area", "name": "Cellar"},
		{"id": "torch", "type": "item", "name": "Torch"}
	]`)

	store := newFakeStore()
	imp := New(FileSource{}, store, zap.NewNop())

	sum, err := imp.Run(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Imported)
	assert.Zero(t, sum.Skipped)
	assert.Len(t, store.created, 2)
}

// An export document imports through its artifacts member.
func TestRun_ExportDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "game.json", `{
		"start_area": "cellar",
		"game_state": {"score": 0},
		"artifacts": [{"id": "cellar", "type": "area", "name": "Cellar"}]
	}`)

	store := newFakeStore()
	imp := New(FileSource{}, store, zap.NewNop())

	sum, err := imp.Run(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)
}

func TestRun_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "items.yaml", `
- id: cellar
  type: area
  name: Cellar
  description_: a damp cellar
- id: torch
  type: item
  name: Torch
`)

	store := newFakeStore()
	imp := New(FileSource{}, store, zap.NewNop())

	sum, err := imp.Run(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Imported)

	// The legacy bare-string description upgrades on the way in.
	assert.Equal(t, "a damp cellar", store.created[0].Description.Start)
}

func TestRun_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `[{"id": "torch", "type": "item", "name": "Torch"}]`)
	writeFile(t, dir, "a.yaml", "- id: cellar\n  type: area\n  name: Cellar\n")
	writeFile(t, dir, "notes.txt", "ignored")

	store := newFakeStore()
	imp := New(FileSource{}, store, zap.NewNop())

	sum, err := imp.Run(context.Background(), dir, nil)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Imported)

	// Files load in name order.
	assert.Equal(t, "cellar", store.created[0].ID)
	assert.Equal(t, "torch", store.created[1].ID)
}

func TestRun_SkipsExistingAndInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "items.json", `[
		{"id": "cellar", "type": "area", "name": "Cellar"},
		{"id": "bad", "type": "room", "name": "Bad"},
		{"id": "torch", "type": "item", "name": "Torch"}
	]`)

	store := newFakeStore("cellar")
	imp := New(FileSource{}, store, zap.NewNop())

	sum, err := imp.Run(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Imported)
	assert.Equal(t, 2, sum.Skipped)
}

func TestRun_AssignsProject(t *testing.T) {
	path := writeFile(t, t.TempDir(), "items.json",
		`[{"id": "cellar", "type": "area", "name": "Cellar"}]`)

	store := newFakeStore()
	imp := New(FileSource{}, store, zap.NewNop())

	pid := int64(3)
	_, err := imp.Run(context.Background(), path, &pid)
	require.NoError(t, err)
	assert.Equal(t, int64(3), store.assigned["cellar"])
}

// A missing id is generated, a missing name falls back to the id.
func TestNormalize(t *testing.T) {
	item, err := normalize(content.Item{Type: content.TypeItem})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, item.ID, item.Name)

	_, err = normalize(content.Item{ID: "x", Type: "hallway"})
	assert.Error(t, err)
}

func TestRun_MissingPath(t *testing.T) {
	imp := New(FileSource{}, newFakeStore(), zap.NewNop())
	_, err := imp.Run(context.Background(), filepath.Join(t.TempDir(), "absent.json"), nil)
	assert.Error(t, err)
}
