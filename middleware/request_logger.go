package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"videoforge/config"
)

// RequestLogger creates a middleware handler for structured request logging
// with the shared logrus instance.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()

		// Expose the request id to handlers that want to correlate logs.
		c.Locals("requestid", requestID)

		err := c.Next()

		latency := time.Since(start)
		statusCode := c.Response().StatusCode()

		logEntry := config.Log.WithFields(map[string]interface{}{
			"request_id":  requestID,
			"http_method": c.Method(),
			"uri":         c.OriginalURL(),
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.IP(),
		})

		if err != nil {
			// Fiber's error handler still runs; log here with request context.
			logEntry.WithField("error", err.Error()).Error("Request processing failed")
		} else if statusCode >= 500 {
			logEntry.Error("Request completed with server error")
		} else if statusCode >= 400 {
			logEntry.Warn("Request completed with client error")
		} else {
			logEntry.Info("Request completed")
		}

		return err
	}
}
