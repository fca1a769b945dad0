package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/api"
	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/export"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeItemStore is an in-memory ItemStore keyed by item id.
type fakeItemStore struct {
	items map[string]content.Item
	err   error
}

func newFakeItemStore(items ...content.Item) *fakeItemStore {
	f := &fakeItemStore{items: map[string]content.Item{}}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeItemStore) List(_ context.Context) ([]content.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]content.Item, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeItemStore) ListByProject(_ context.Context, projectID int64) ([]content.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []content.Item{}
	for _, it := range f.items {
		if it.ProjectID != nil && *it.ProjectID == projectID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeItemStore) Get(_ context.Context, id string) (content.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return content.Item{}, postgres.ErrItemNotFound
	}
	return it, nil
}

func (f *fakeItemStore) Create(_ context.Context, item content.Item) error {
	if _, ok := f.items[item.ID]; ok {
		return postgres.ErrItemExists
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemStore) Update(_ context.Context, item content.Item) error {
	if _, ok := f.items[item.ID]; !ok {
		return postgres.ErrItemNotFound
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemStore) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return postgres.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeItemStore) Assign(_ context.Context, itemIDs []string, projectID int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, id := range itemIDs {
		it, ok := f.items[id]
		if !ok {
			continue
		}
		pid := projectID
		it.ProjectID = &pid
		f.items[id] = it
		n++
	}
	return n, nil
}

// fakeProjectStore is an in-memory ProjectStore.
type fakeProjectStore struct {
	projects map[int64]postgres.Project
	nextID   int64
}

func newFakeProjectStore(projects ...postgres.Project) *fakeProjectStore {
	f := &fakeProjectStore{projects: map[int64]postgres.Project{}, nextID: 1}
	for _, p := range projects {
		f.projects[p.ID] = p
		if p.ID >= f.nextID {
			f.nextID = p.ID + 1
		}
	}
	return f
}

func (f *fakeProjectStore) List(_ context.Context) ([]postgres.Project, error) {
	out := make([]postgres.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjectStore) Get(_ context.Context, id int64) (postgres.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return postgres.Project{}, postgres.ErrProjectNotFound
	}
	return p, nil
}

func (f *fakeProjectStore) Create(_ context.Context, name string) (postgres.Project, error) {
	for _, p := range f.projects {
		if p.Name == name {
			return postgres.Project{}, postgres.ErrProjectNameTaken
		}
	}
	p := postgres.Project{
		ID:          f.nextID,
		Name:        name,
		CreatedAt:   time.Now(),
		StateEvents: map[string]content.StateEvent{},
	}
	f.nextID++
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeProjectStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return postgres.ErrProjectNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectStore) StateEvents(_ context.Context, id int64) (map[string]content.StateEvent, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, postgres.ErrProjectNotFound
	}
	return p.StateEvents, nil
}

func (f *fakeProjectStore) SetStateEvents(_ context.Context, id int64, events map[string]content.StateEvent) error {
	p, ok := f.projects[id]
	if !ok {
		return postgres.ErrProjectNotFound
	}
	p.StateEvents = events
	f.projects[id] = p
	return nil
}

// fakeSettingsStore is an in-memory SettingsStore.
type fakeSettingsStore struct {
	settings map[int64]postgres.ExportSettings
	projects *fakeProjectStore
	codec    *content.Codec
	nextID   int64
}

func (f *fakeSettingsStore) GetOrCreate(_ context.Context, projectID int64) (postgres.ExportSettings, error) {
	if s, ok := f.settings[projectID]; ok {
		return s, nil
	}
	if _, ok := f.projects.projects[projectID]; !ok {
		return postgres.ExportSettings{}, postgres.ErrProjectNotFound
	}
	f.nextID++
	s := postgres.ExportSettings{
		ID:        f.nextID,
		ProjectID: projectID,
		GameState: f.codec.EncodeGameState(content.DefaultGameState()),
		CreatedAt: time.Now(),
	}
	f.settings[projectID] = s
	return s, nil
}

func (f *fakeSettingsStore) Save(_ context.Context, projectID int64, startArea string, gs content.GameState) (postgres.ExportSettings, error) {
	if _, ok := f.projects.projects[projectID]; !ok {
		return postgres.ExportSettings{}, postgres.ErrProjectNotFound
	}
	s, ok := f.settings[projectID]
	if !ok {
		f.nextID++
		s = postgres.ExportSettings{ID: f.nextID, ProjectID: projectID, CreatedAt: time.Now()}
	}
	s.StartArea = startArea
	s.GameState = f.codec.EncodeGameState(gs)
	f.settings[projectID] = s
	return s, nil
}

func (f *fakeSettingsStore) ByProject(_ context.Context, projectID int64) (postgres.ExportSettings, error) {
	s, ok := f.settings[projectID]
	if !ok {
		return postgres.ExportSettings{}, postgres.ErrSettingsNotFound
	}
	return s, nil
}

type fakeHealth struct{ err error }

func (f *fakeHealth) Health(_ context.Context, _ time.Duration) error { return f.err }

// env bundles the handler with its fakes for assertions.
type env struct {
	router   http.Handler
	items    *fakeItemStore
	projects *fakeProjectStore
	settings *fakeSettingsStore
	health   *fakeHealth
}

func newEnv(t *testing.T, items ...content.Item) *env {
	t.Helper()
	logger := zap.NewNop()
	codec := content.NewCodec(logger)

	itemStore := newFakeItemStore(items...)
	projectStore := newFakeProjectStore()
	settingsStore := &fakeSettingsStore{
		settings: map[int64]postgres.ExportSettings{},
		projects: projectStore,
		codec:    codec,
	}
	assembler := export.NewAssembler(settingsStore, projectStore, itemStore, codec, logger)
	health := &fakeHealth{}

	h := api.NewHandler(itemStore, projectStore, settingsStore, assembler, codec, health, logger)
	return &env{
		router:   h.Router(),
		items:    itemStore,
		projects: projectStore,
		settings: settingsStore,
		health:   health,
	}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]map[string]string](t, w)
	return body["error"]["kind"]
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	e.health.err = context.DeadlineExceeded
	w = e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListItems(t *testing.T) {
	e := newEnv(t,
		content.Item{ID: "cellar", Type: content.TypeArea, Name: "Cellar"},
		content.Item{ID: "key", Type: content.TypeItem, Name: "Key"},
	)

	w := e.do(t, http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]content.Item](t, w), 2)
}

func TestListItems_ByProject(t *testing.T) {
	pid := int64(7)
	e := newEnv(t,
		content.Item{ID: "cellar", Type: content.TypeArea, Name: "Cellar", ProjectID: &pid},
		content.Item{ID: "key", Type: content.TypeItem, Name: "Key"},
	)

	w := e.do(t, http.MethodGet, "/api/items?project_id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody[[]content.Item](t, w)
	require.Len(t, items, 1)
	assert.Equal(t, "cellar", items[0].ID)
}

func TestListItems_BadProjectID(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/items?project_id=seven", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorKind(t, w))
}

func TestGetItem_NotFound(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/items/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorKind(t, w))
}

func TestCreateItem(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/items", map[string]any{
		"id": "torch", "type": "item", "name": "Torch",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "torch", decodeBody[map[string]string](t, w)["id"])
	assert.Contains(t, e.items.items, "torch")
}

func TestCreateItem_MissingFields(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Torch"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody[map[string]map[string]string](t, w)
	assert.Contains(t, body["error"]["message"], "id")
	assert.Contains(t, body["error"]["message"], "type")
}

func TestCreateItem_UnknownType(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/items", map[string]any{
		"id": "x", "type": "room", "name": "X",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateItem_Duplicate(t *testing.T) {
	e := newEnv(t, content.Item{ID: "torch", Type: content.TypeItem, Name: "Torch"})
	w := e.do(t, http.MethodPost, "/api/items", map[string]any{
		"id": "torch", "type": "item", "name": "Torch",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorKind(t, w))
}

// The path parameter addresses the item; an id in the body is ignored.
func TestUpdateItem_PathWins(t *testing.T) {
	e := newEnv(t, content.Item{ID: "torch", Type: content.TypeItem, Name: "Torch"})
	w := e.do(t, http.MethodPut, "/api/items/torch", map[string]any{
		"id": "other", "type": "item", "name": "Bright Torch",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bright Torch", e.items.items["torch"].Name)
	assert.NotContains(t, e.items.items, "other")
}

func TestDeleteItem(t *testing.T) {
	e := newEnv(t, content.Item{ID: "torch", Type: content.TypeItem, Name: "Torch"})
	w := e.do(t, http.MethodDelete, "/api/items/torch", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodDelete, "/api/items/torch", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProject(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/projects", map[string]any{"name": "haunted manor"})
	require.Equal(t, http.StatusCreated, w.Code)

	p := decodeBody[postgres.Project](t, w)
	assert.Equal(t, "haunted manor", p.Name)
	assert.NotZero(t, p.ID)
}

func TestGetProject(t *testing.T) {
	e := newEnv(t)
	_, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/projects/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	p := decodeBody[postgres.Project](t, w)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "manor", p.Name)
}

func TestGetProject_NotFound(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/projects/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorKind(t, w))
}

func TestCreateProject_DuplicateName(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/projects", map[string]any{"name": "manor"})
	w := e.do(t, http.MethodPost, "/api/projects", map[string]any{"name": "manor"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateProject_MissingName(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/projects", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteProject_NotFound(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodDelete, "/api/projects/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProject_BadID(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodDelete, "/api/projects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignItems(t *testing.T) {
	e := newEnv(t,
		content.Item{ID: "cellar", Type: content.TypeArea, Name: "Cellar"},
		content.Item{ID: "key", Type: content.TypeItem, Name: "Key"},
	)
	p, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)

	// Unknown ids are silent no-ops.
	w := e.do(t, http.MethodPost, "/api/projects/1/items", map[string]any{
		"item_ids": []string{"cellar", "key", "ghost"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody[map[string]any](t, w)["assigned"])

	assert.Equal(t, p.ID, *e.items.items["cellar"].ProjectID)
}

func TestStateEventsRoundTrip(t *testing.T) {
	e := newEnv(t)
	_, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)

	w := e.do(t, http.MethodPost, "/api/projects/1/state-events", map[string]any{
		"state_events": map[string]any{
			"flood": map[string]any{"event_value": true},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/projects/1/state-events", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		StateEvents map[string]content.StateEvent `json:"state_events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.StateEvents["flood"].EventValue)
}

func TestStateEvents_ProjectNotFound(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/projects/9/state-events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// First fetch lazily creates a default settings row.
func TestGetExportSettings_LazyCreate(t *testing.T) {
	e := newEnv(t)
	_, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/projects/1/export-settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ProjectID int64             `json:"project_id"`
		StartArea string            `json:"start_area"`
		GameState content.GameState `json:"game_state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.ProjectID)
	assert.Equal(t, "", body.StartArea)
	assert.Equal(t, []string{content.GameStartMarker}, body.GameState.Log)
}

func TestSaveExportSettings(t *testing.T) {
	e := newEnv(t)
	_, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)

	w := e.do(t, http.MethodPost, "/api/projects/1/export-settings", map[string]any{
		"start_area": "cellar",
		"game_state": map[string]any{"score": 10},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		StartArea string            `json:"start_area"`
		GameState content.GameState `json:"game_state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cellar", body.StartArea)
	assert.Equal(t, 10, body.GameState.Score)
}

func TestSaveExportSettings_MissingStartArea(t *testing.T) {
	e := newEnv(t)
	_, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)

	w := e.do(t, http.MethodPost, "/api/projects/1/export-settings", map[string]any{
		"game_state": map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportProject(t *testing.T) {
	pid := int64(1)
	e := newEnv(t,
		content.Item{ID: "cellar", Type: content.TypeArea, Name: "Cellar", ProjectID: &pid},
		content.Item{ID: "stray", Type: content.TypeItem, Name: "Stray"},
	)
	_, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)
	_, err = e.settings.Save(context.Background(), 1, "cellar", content.DefaultGameState())
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/projects/1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)

	doc := decodeBody[export.Document](t, w)
	assert.Equal(t, "cellar", doc.StartArea)
	require.Len(t, doc.Artifacts, 1)
	assert.Equal(t, "cellar", doc.Artifacts[0].ID)
}

func TestExportProject_NoSettings(t *testing.T) {
	e := newEnv(t)
	_, err := e.projects.Create(context.Background(), "manor")
	require.NoError(t, err)

	w := e.do(t, http.MethodGet, "/api/projects/1/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListExportItems(t *testing.T) {
	e := newEnv(t,
		content.Item{ID: "a", Type: content.TypeArea, Name: "A"},
		content.Item{ID: "b", Type: content.TypeItem, Name: "B"},
	)

	w := e.do(t, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]content.Item](t, w), 2)
}

func TestExportLegacy(t *testing.T) {
	e := newEnv(t, content.Item{ID: "cellar", Type: content.TypeArea, Name: "Cellar"})

	w := e.do(t, http.MethodPost, "/api/export", map[string]any{
		"start_area": "cellar",
		"game_state": map[string]any{"timer": 3},
	})
	require.Equal(t, http.StatusOK, w.Code)

	doc := decodeBody[export.Document](t, w)
	assert.Equal(t, "cellar", doc.StartArea)
	assert.Equal(t, 3, doc.GameState.Timer)
	assert.Len(t, doc.Artifacts, 1)
}

func TestExportLegacy_MissingStartArea(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/api/export", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorKind(t, w))
}
