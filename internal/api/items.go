package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fableforge/fableforge/internal/content"
)

func (h *Handler) listItems(c *gin.Context) {
	if raw := c.Query("project_id"); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondValidation(c, "project_id must be an integer")
			return
		}
		items, err := h.items.ListByProject(c.Request.Context(), projectID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
		return
	}

	items, err := h.items.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getItem(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) createItem(c *gin.Context) {
	var item content.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		respondValidation(c, "invalid JSON body")
		return
	}

	missing := missingFields(map[string]string{
		"id":   item.ID,
		"type": string(item.Type),
		"name": item.Name,
	}, "id", "type", "name")
	if len(missing) > 0 {
		respondValidation(c, "missing required fields: "+strings.Join(missing, ", "))
		return
	}
	if !item.Type.Valid() {
		respondValidation(c, fmt.Sprintf("unknown item type %q", item.Type))
		return
	}

	if err := h.items.Create(c.Request.Context(), item); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": item.ID})
}

func (h *Handler) updateItem(c *gin.Context) {
	var item content.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		respondValidation(c, "invalid JSON body")
		return
	}
	// The path, not the body, addresses the item.
	item.ID = c.Param("id")

	missing := missingFields(map[string]string{
		"type": string(item.Type),
		"name": item.Name,
	}, "type", "name")
	if len(missing) > 0 {
		respondValidation(c, "missing required fields: "+strings.Join(missing, ", "))
		return
	}
	if !item.Type.Valid() {
		respondValidation(c, fmt.Sprintf("unknown item type %q", item.Type))
		return
	}

	if err := h.items.Update(c.Request.Context(), item); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": item.ID})
}

func (h *Handler) deleteItem(c *gin.Context) {
	if err := h.items.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
