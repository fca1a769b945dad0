package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fableforge/fableforge/internal/content"
)

func (h *Handler) listProjects(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) getProject(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondValidation(c, "missing required fields: name")
		return
	}

	project, err := h.projects.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) deleteProject(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignItemsRequest struct {
	ItemIDs []string `json:"item_ids"`
}

func (h *Handler) assignItems(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}

	var req assignItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid JSON body")
		return
	}

	// Unknown item ids are silent no-ops; an empty list assigns nothing.
	count, err := h.items.Assign(c.Request.Context(), req.ItemIDs, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": count})
}

type stateEventsPayload struct {
	StateEvents map[string]content.StateEvent `json:"state_events"`
}

func (h *Handler) getStateEvents(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}
	events, err := h.projects.StateEvents(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateEventsPayload{StateEvents: events})
}

func (h *Handler) setStateEvents(c *gin.Context) {
	id, ok := projectParam(c)
	if !ok {
		return
	}

	var req stateEventsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid JSON body")
		return
	}
	if req.StateEvents == nil {
		req.StateEvents = map[string]content.StateEvent{}
	}

	if err := h.projects.SetStateEvents(c.Request.Context(), id, req.StateEvents); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateEventsPayload{StateEvents: req.StateEvents})
}
