package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/waterprint/waterprint/internal/api/models"
)

// GetJobs lists the scheduled jobs.
func (h *Handler) GetJobs(c *gin.Context) {
	jobs := h.engine.GetScheduler().GetJobs()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobs":    models.ToJobs(jobs),
	})
}

// RunJob triggers a job immediately.
func (h *Handler) RunJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.GetScheduler().RunJobNow(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Job triggered",
	})
}
