package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger tags every request with a uuid and logs method, path,
// status and duration after the handler chain completes.
func RequestLogger(logger *zap.Logger) func(*fiber.Ctx) error {
	log := logger.Named("http")
	return func(c *fiber.Ctx) error {
		id := uuid.New().String()
		c.Set("X-Request-Id", id)
		start := time.Now()
		err := c.Next()
		log.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
		return err
	}
}
