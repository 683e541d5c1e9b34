package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit emits one structured log line per request. Ledger-changing routes log
// at info, everything else at debug.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if requestID := RequestIDFrom(c); requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if key := c.Get(idempotencyKeyHeader); key != "" {
			attrs = append(attrs, slog.String("idempotency_key", key))
		}

		ctx := c.UserContext()
		switch {
		case err != nil:
			attrs = append(attrs, slog.Any("error", err))
			logger.LogAttrs(ctx, slog.LevelError, "request completed", attrs...)
			return err
		case c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead:
			logger.LogAttrs(ctx, slog.LevelDebug, "request completed", attrs...)
		default:
			logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
		}
		return nil
	}
}
