package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the server reads from the environment.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Output    OutputConfig
	Retention RetentionConfig
	Engine    EngineConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

type UploadConfig struct {
	Dir         string
	MaxFileSize int64 // bytes
}

type OutputConfig struct {
	Dir string
}

type RetentionConfig struct {
	Interval time.Duration // how often the sweeper runs
	Window   time.Duration // how old an entry must be before reclaim
}

type EngineConfig struct {
	FFmpegPath  string
	FFprobePath string
}

// Load builds a Config from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3001"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		},
		Upload: UploadConfig{
			Dir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 100*1024*1024), // 100MB
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "outputs"),
		},
		Retention: RetentionConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", time.Hour),
			Window:   getEnvAsDuration("RETENTION_WINDOW", 30*time.Minute),
		},
		Engine: EngineConfig{
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
