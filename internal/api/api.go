// Package api provides the editor's REST transport: a gin router over
// the persistence repositories and the export assembler. The transport
// does request validation and error mapping only; all domain behavior
// lives behind the store interfaces.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/export"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

// ItemStore defines the item persistence operations the API requires.
type ItemStore interface {
	List(ctx context.Context) ([]content.Item, error)
	ListByProject(ctx context.Context, projectID int64) ([]content.Item, error)
	Get(ctx context.Context, id string) (content.Item, error)
	Create(ctx context.Context, item content.Item) error
	Update(ctx context.Context, item content.Item) error
	Delete(ctx context.Context, id string) error
	Assign(ctx context.Context, itemIDs []string, projectID int64) (int64, error)
}

// ProjectStore defines the project persistence operations the API requires.
type ProjectStore interface {
	List(ctx context.Context) ([]postgres.Project, error)
	Get(ctx context.Context, id int64) (postgres.Project, error)
	Create(ctx context.Context, name string) (postgres.Project, error)
	Delete(ctx context.Context, id int64) error
	StateEvents(ctx context.Context, id int64) (map[string]content.StateEvent, error)
	SetStateEvents(ctx context.Context, id int64, events map[string]content.StateEvent) error
}

// SettingsStore defines the export-settings operations the API requires.
type SettingsStore interface {
	GetOrCreate(ctx context.Context, projectID int64) (postgres.ExportSettings, error)
	Save(ctx context.Context, projectID int64, startArea string, gs content.GameState) (postgres.ExportSettings, error)
}

// Exporter defines the export builds the API requires.
type Exporter interface {
	BuildProject(ctx context.Context, projectID int64) (*export.Document, error)
	BuildLegacy(ctx context.Context, startArea string, gameState string) (*export.Document, error)
}

// HealthChecker reports storage reachability for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// Handler holds the API's collaborators and implements every route.
type Handler struct {
	items    ItemStore
	projects ProjectStore
	settings SettingsStore
	exporter Exporter
	codec    *content.Codec
	health   HealthChecker
	logger   *zap.Logger
}

// NewHandler creates the API handler.
//
// Precondition: all arguments must be non-nil.
func NewHandler(
	items ItemStore,
	projects ProjectStore,
	settings SettingsStore,
	exporter Exporter,
	codec *content.Codec,
	health HealthChecker,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		items:    items,
		projects: projects,
		settings: settings,
		exporter: exporter,
		codec:    codec,
		health:   health,
		logger:   logger,
	}
}

// Router builds the gin engine with middleware and all routes registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(h.logger))

	r.GET("/healthz", h.healthz)

	api := r.Group("/api")
	{
		api.GET("/items", h.listItems)
		api.POST("/items", h.createItem)
		api.GET("/items/:id", h.getItem)
		api.PUT("/items/:id", h.updateItem)
		api.DELETE("/items/:id", h.deleteItem)

		api.GET("/projects", h.listProjects)
		api.GET("/projects/:id", h.getProject)
		api.POST("/projects", h.createProject)
		api.DELETE("/projects/:id", h.deleteProject)
		api.POST("/projects/:id/items", h.assignItems)

		api.GET("/projects/:id/export-settings", h.getExportSettings)
		api.POST("/projects/:id/export-settings", h.saveExportSettings)
		api.GET("/projects/:id/state-events", h.getStateEvents)
		api.POST("/projects/:id/state-events", h.setStateEvents)
		api.GET("/projects/:id/export", h.exportProject)

		api.GET("/export", h.listExportItems)
		api.POST("/export", h.exportLegacy)
	}

	return r
}

func (h *Handler) healthz(c *gin.Context) {
	if err := h.health.Health(c.Request.Context(), 2*time.Second); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.JSON(503, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}
