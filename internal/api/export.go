package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) exportProject(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}
	doc, err := h.exporter.BuildProject(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// listExportItems is the oldest export surface: every item, decoded, as
// a bare array with no settings attached.
func (h *Handler) listExportItems(c *gin.Context) {
	items, err := h.items.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type legacyExportRequest struct {
	StartArea string          `json:"start_area"`
	GameState json.RawMessage `json:"game_state"`
}

// exportLegacy builds an unscoped export from caller-supplied settings,
// covering all items regardless of project.
func (h *Handler) exportLegacy(c *gin.Context) {
	var req legacyExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid JSON body")
		return
	}

	doc, err := h.exporter.BuildLegacy(c.Request.Context(), req.StartArea, string(req.GameState))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
