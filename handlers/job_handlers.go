package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"videoforge/models"
	"videoforge/utils"
)

// GetJobStatus returns the current snapshot of a processing job. Polling
// this endpoint after a terminal state returns identical output every time.
// GET /api/status/:jobId
func (h *ApplicationHandler) GetJobStatus(c *fiber.Ctx) error {
	jobID := c.Params("jobId")

	job, ok := h.Registry.GetJob(jobID)
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "not_found", "Job not found")
	}

	return c.JSON(models.StatusResponse{
		Status:    job.Status,
		Progress:  job.Progress,
		OutputURL: job.OutputURL,
		Error:     job.Error,
	})
}

// DownloadResult streams the artifact of a completed job.
// GET /api/download/:jobId
func (h *ApplicationHandler) DownloadResult(c *fiber.Ctx) error {
	jobID := c.Params("jobId")

	job, ok := h.Registry.GetJob(jobID)
	if !ok || job.Status != models.JobStatusCompleted || job.OutputPath == "" {
		return utils.RespondWithError(c, fiber.StatusNotFound, "not_found", "File not found or processing incomplete")
	}

	// The sweeper may have reclaimed the artifact since completion.
	if _, err := os.Stat(job.OutputPath); err != nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, "not_found", "File not found or processing incomplete")
	}

	return c.Download(job.OutputPath)
}
