package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/export"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

// Error kinds surfaced in the response envelope.
const (
	kindValidation = "validation"
	kindNotFound   = "not_found"
	kindConflict   = "conflict"
	kindInternal   = "internal"
)

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// respondError maps a repository or assembler error onto the envelope.
// Not-found and conflict sentinels pass through with their message;
// anything else is an internal error and the detail stays in the log.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, postgres.ErrItemNotFound),
		errors.Is(err, postgres.ErrProjectNotFound),
		errors.Is(err, postgres.ErrSettingsNotFound):
		c.JSON(http.StatusNotFound, errorResponse{apiError{kindNotFound, err.Error()}})
	case errors.Is(err, postgres.ErrItemExists),
		errors.Is(err, postgres.ErrProjectNameTaken):
		c.JSON(http.StatusConflict, errorResponse{apiError{kindConflict, err.Error()}})
	case errors.Is(err, export.ErrStartAreaRequired):
		c.JSON(http.StatusBadRequest, errorResponse{apiError{kindValidation, err.Error()}})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, errorResponse{apiError{kindInternal, "internal error"}})
	}
}

// respondValidation reports missing or invalid request fields.
func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{apiError{kindValidation, message}})
}

// missingFields returns the names in order that map to empty values.
func missingFields(fields map[string]string, order ...string) []string {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// projectParam parses the :id path parameter as a project id.
func projectParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondValidation(c, "project id must be an integer")
		return 0, false
	}
	return id, true
}
