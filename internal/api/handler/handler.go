package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/waterprint/waterprint/internal/api/models"
	"github.com/waterprint/waterprint/internal/database"
	"github.com/waterprint/waterprint/internal/engine"
	"github.com/waterprint/waterprint/internal/report"
	"github.com/waterprint/waterprint/internal/scheduler"
)

type Handler struct {
	engine *engine.Engine
}

func New(eng *engine.Engine) *Handler {
	return &Handler{
		engine: eng,
	}
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", param, database.ErrInvalidArgument)
	}
	v, err := safecast.Convert[uint](id)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", param, database.ErrInvalidArgument)
	}
	return v, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrInvalidArgument),
		errors.Is(err, report.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, scheduler.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrEmailDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// userID reads the :id path parameter. It writes the error response itself.
func userID(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return id, true
}

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterUser creates a new user.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.engine.RegisterUser(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.RegisterUserResponse{
		ID:     user.ID,
		Status: "registered",
	})
}

// GetUser returns a registered user.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.engine.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ToUser(user, h.engine.GravatarURL(user.Email)))
}

// RecordEntry stores a consumption amount for a user.
func (h *Handler) RecordEntry(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req models.RecordEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	entry, err := h.engine.RecordEntry(c.Request.Context(), id, req.CategoryID, lo.FromPtr(req.Amount))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.RecordEntryResponse{
		ID:     entry.ID,
		Status: "recorded",
	})
}

// GetBreakdown lists the entries of a user with their footprint.
func (h *Handler) GetBreakdown(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	rows, err := h.engine.GetBreakdown(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ToBreakdownResponse(id, rows))
}

// GetTotalFootprint returns the live total and refreshes the cached value.
func (h *Handler) GetTotalFootprint(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	total, err := h.engine.GetTotalFootprint(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FootprintResponse{UserID: id, Total: total})
}

// GetComparison compares a user with the population average.
func (h *Handler) GetComparison(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	cmp, err := h.engine.GetComparison(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ComparisonResponse{
		UserID:            id,
		UserTotal:         cmp.UserTotal,
		PopulationAverage: cmp.PopulationAverage,
	})
}

// Export serves the user's report as a file download.
func (h *Handler) Export(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	format, err := report.ParseFormat(c.Param("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	artifact, err := h.engine.Export(c.Request.Context(), id, format)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// EmailReport mails the PDF report to the user.
func (h *Handler) EmailReport(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.engine.EmailReport(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Report sent",
	})
}

// ListCategories returns the catalog.
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.engine.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ToCategories(categories))
}

// Estimate computes a footprint for ad-hoc amounts.
func (h *Handler) Estimate(c *gin.Context) {
	var req models.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	est, err := h.engine.Estimate(c.Request.Context(), models.ToEstimateItems(req.Items))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.EstimateResponse{
		Rows:  models.ToBreakdownRows(est.Rows),
		Total: est.Total,
	})
}

// Stats returns population statistics.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ToStatsResponse(stats, h.engine.CacheStats()))
}
