package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"videoforge/config"
	"videoforge/internal/broadcast"
	"videoforge/internal/executor"
	"videoforge/internal/ffmpeg"
	"videoforge/internal/registry"
	"videoforge/internal/storage"
)

// Inspector probes intrinsic media properties of an uploaded file. The
// concrete implementation shells out to ffprobe; tests can substitute fakes.
type Inspector interface {
	Probe(path string) (*ffmpeg.MediaInfo, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger    *logrus.Logger
	Config    *config.Config
	Registry  *registry.Registry
	Executor  *executor.Executor
	Inspector Inspector
	Store     *storage.LocalStore
	Hub       *broadcast.Hub
	Validate  *validator.Validate
}

// NewApplicationHandler creates an ApplicationHandler with the given dependencies.
func NewApplicationHandler(
	logger *logrus.Logger,
	cfg *config.Config,
	reg *registry.Registry,
	exec *executor.Executor,
	inspector Inspector,
	store *storage.LocalStore,
	hub *broadcast.Hub,
) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:    logger,
		Config:    cfg,
		Registry:  reg,
		Executor:  exec,
		Inspector: inspector,
		Store:     store,
		Hub:       hub,
		Validate:  validator.New(),
	}
}
