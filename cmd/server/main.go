package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"videoforge/config"
	"videoforge/handlers"
	"videoforge/internal/broadcast"
	"videoforge/internal/executor"
	"videoforge/internal/ffmpeg"
	"videoforge/internal/registry"
	"videoforge/internal/storage"
	"videoforge/internal/sweeper"
	"videoforge/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	config.InitLogger()
	log := config.Log
	cfg := config.Load()

	store, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Output.Dir)
	if err != nil {
		log.Fatalf("Failed to prepare storage directories: %v", err)
	}

	reg := registry.New()
	hub := broadcast.NewHub(log)
	engine := ffmpeg.NewEngine(cfg.Engine.FFmpegPath, cfg.Engine.FFprobePath, log)
	exec := executor.New(reg, engine, hub, store.OutputDir, log)

	sweep := sweeper.New(reg, cfg.Retention.Interval, cfg.Retention.Window, log)
	sweep.Start()

	h := handlers.NewApplicationHandler(log, cfg, reg, exec, engine, store, hub)

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Upload.MaxFileSize) + 1024*1024, // headroom for multipart framing
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	api.Post("/upload", h.UploadVideo)
	api.Post("/process", h.ProcessVideo)
	api.Get("/status/:jobId", h.GetJobStatus)
	api.Get("/download/:jobId", h.DownloadResult)

	app.Use("/ws", h.WebsocketUpgrade())
	app.Get("/ws", h.HandleSocket())

	// Processed artifacts are also reachable directly.
	app.Static("/outputs", store.OutputDir)

	go func() {
		log.Infof("Starting videoforge on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	sweep.Stop()
	if err := app.Shutdown(); err != nil {
		log.Errorf("Shutdown error: %v", err)
	}
}
