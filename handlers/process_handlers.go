package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"videoforge/internal/registry"
	"videoforge/models"
	"videoforge/utils"
)

// ProcessVideo validates the request envelope, sanitizes the requested
// operations, creates a pending job and kicks off its execution.
// POST /api/process
func (h *ApplicationHandler) ProcessVideo(c *fiber.Ctx) error {
	var req models.ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
	}

	if err := h.Validate.Struct(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "invalid_request",
			strings.Join(utils.FormatValidationErrors(err), "; "))
	}

	if req.Operations == nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "invalid_request", "operations object is required")
	}

	// Permissive sanitize: unknown or out-of-bounds operation fields are
	// dropped, never rejected.
	ops := models.SanitizeOperations(req.Operations)

	job, err := h.Registry.CreateJob(req.FileID, ops)
	if err != nil {
		if errors.Is(err, registry.ErrSourceNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "not_found", "File not found")
		}
		h.Logger.WithField("error", err.Error()).Error("Failed to create job")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "internal_error", "Could not create processing job")
	}

	h.Executor.Dispatch(job.ID)

	h.Logger.WithFields(map[string]interface{}{
		"job_id":  job.ID,
		"file_id": req.FileID,
	}).Info("Processing job created")

	return c.JSON(models.ProcessResponse{JobID: job.ID})
}
