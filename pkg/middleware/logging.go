package middleware

import (
	"log/slog"
	"time"
)

// Logging creates middleware that logs every chain execution through slog.
// A nil logger uses slog.Default().
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return Func(func(c *Ctx, next Next) (Outcome, error) {
		start := time.Now()
		out, err := next(c)

		attrs := []any{
			slog.String("method", c.Method),
			slog.String("route", c.Route),
			slog.String("path", c.Path),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("short_circuit", out.Halted()),
		}
		if err != nil {
			logger.Error("request failed", append(attrs, slog.Any("error", err))...)
			return out, err
		}
		logger.Info("request", attrs...)
		return out, nil
	})
}
