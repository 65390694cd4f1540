package handlers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"videoforge/models"
	"videoforge/utils"
)

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".mkv":  true,
	".flv":  true,
}

var allowedMimeTypes = map[string]bool{
	"video/mp4":        true,
	"video/mov":        true,
	"video/avi":        true,
	"video/webm":       true,
	"video/mkv":        true,
	"video/flv":        true,
	"video/quicktime":  true,
	"video/x-msvideo":  true,
	"video/x-matroska": true,
	"video/x-flv":      true,
}

// UploadVideo accepts a single video file, stores it under a fresh id,
// probes its metadata and registers it as a processing source.
// POST /api/upload
func (h *ApplicationHandler) UploadVideo(c *fiber.Ctx) error {
	file, err := c.FormFile("video")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "no_file", "Please upload a video file")
	}

	if file.Size > h.Config.Upload.MaxFileSize {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "file_too_large",
			fmt.Sprintf("File size must be less than %dMB", h.Config.Upload.MaxFileSize/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "unsupported_file",
			fmt.Sprintf("Unsupported file extension: %s", ext))
	}

	if mime := file.Header.Get("Content-Type"); mime != "" && !allowedMimeTypes[mime] {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "unsupported_file",
			fmt.Sprintf("Unsupported file type: %s", mime))
	}

	fileID := uuid.NewString()
	filename := fileID + ext

	path, err := h.Store.SaveUpload(file, filename)
	if err != nil {
		h.Logger.WithField("error", err.Error()).Error("Failed to store upload")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "storage_error", "Could not store uploaded file")
	}

	info, err := h.Inspector.Probe(path)
	if err != nil {
		// An unreadable upload is useless; drop it instead of letting the
		// sweeper find it later.
		h.Store.Remove(path)
		h.Logger.WithFields(map[string]interface{}{
			"filename": file.Filename,
			"error":    err.Error(),
		}).Warn("Probe of uploaded file failed")
		return utils.RespondWithError(c, fiber.StatusBadRequest, "probe_error", "Uploaded file is not a readable video")
	}

	source := models.SourceFile{
		ID:           fileID,
		OriginalName: file.Filename,
		Filename:     filename,
		Path:         path,
		Size:         file.Size,
		Duration:     info.Duration,
		Width:        info.Width,
		Height:       info.Height,
		Format:       info.Format,
		UploadedAt:   time.Now(),
	}
	h.Registry.RegisterSource(source)

	h.Logger.WithFields(map[string]interface{}{
		"file_id":  fileID,
		"filename": file.Filename,
		"duration": info.Duration,
	}).Info("Video uploaded and registered")

	return c.JSON(models.UploadResponse{
		FileID:   fileID,
		Duration: info.Duration,
		Dimensions: models.Dimensions{
			Width:  info.Width,
			Height: info.Height,
		},
		Format: info.Format,
	})
}
