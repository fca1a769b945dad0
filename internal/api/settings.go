package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

// settingsResponse is the wire shape for export settings: the stored
// game-state text is returned parsed, with defaults substituted for
// anything unreadable.
type settingsResponse struct {
	ProjectID int64             `json:"project_id"`
	StartArea string            `json:"start_area"`
	GameState content.GameState `json:"game_state"`
}

func (h *Handler) settingsResponse(s postgres.ExportSettings) settingsResponse {
	return settingsResponse{
		ProjectID: s.ProjectID,
		StartArea: s.StartArea,
		GameState: h.codec.DecodeGameState(s.GameState),
	}
}

func (h *Handler) getExportSettings(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}

	// Lazily creates a default row on first fetch.
	settings, err := h.settings.GetOrCreate(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.settingsResponse(settings))
}

type saveSettingsRequest struct {
	StartArea string          `json:"start_area"`
	GameState json.RawMessage `json:"game_state"`
}

func (h *Handler) saveExportSettings(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}

	var req saveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid JSON body")
		return
	}
	if req.StartArea == "" {
		respondValidation(c, "missing required fields: start_area")
		return
	}

	gs := h.codec.DecodeGameState(string(req.GameState))
	settings, err := h.settings.Save(c.Request.Context(), id, req.StartArea, gs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.settingsResponse(settings))
}
