package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kurihiro0119/github-org-audit/internal/errors"
	"github.com/kurihiro0119/github-org-audit/internal/storage"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// Handler handles API requests
type Handler struct {
	store storage.Storage
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage) *Handler {
	return &Handler{
		store: store,
	}
}

// GetRuns returns the most recent audit runs of an organization
// GET /api/v1/orgs/:org/runs
func (h *Handler) GetRuns(c *gin.Context) {
	org := c.Param("org")
	limit, err := parseLimit(c, defaultRunLimit, maxRunLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	runs, err := h.store.GetRuns(c.Request.Context(), org, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// GetRun returns a single audit run
// GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": run,
	})
}

// GetFindings returns the findings recorded for a run
// GET /api/v1/runs/:id/findings
func (h *Handler) GetFindings(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.store.GetRun(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	findings, err := h.store.GetFindings(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": findings,
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// parseLimit reads the "limit" query parameter. A missing value yields
// defaultValue and values above maxValue are capped.
func parseLimit(c *gin.Context, defaultValue, maxValue int) (int, error) {
	valueStr := c.Query("limit")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return 0, apperrors.NewBadRequestError(fmt.Sprintf("limit must be a positive integer, got %q", valueStr))
	}
	if value > maxValue {
		value = maxValue
	}
	return value, nil
}

func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
