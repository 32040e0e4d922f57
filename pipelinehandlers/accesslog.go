package pipelinehandlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// AccessLogConfig configures the Access Log middleware behaviour.
type AccessLogConfig struct {
	// Logger receives one record per request. Defaults to slog.Default.
	Logger *slog.Logger

	// Level is the level of successful requests. Requests that end in an
	// error or a 5xx status are logged at slog.LevelError.
	Level slog.Level

	// Message is the record message. Defaults to "request".
	Message string
}

// AccessLogMiddleware returns a middleware that logs every exchange after the
// downstream handlers complete, with the method, path base, path, status,
// duration and request ID.
func AccessLogMiddleware(cfg AccessLogConfig) pipeline.MiddlewareFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	message := cfg.Message
	if message == "" {
		message = "request"
	}

	level := cfg.Level

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			start := time.Now()
			method, pathBase, path := env.RequestMethod, env.RequestPathBase, env.RequestPath

			err := next(env)

			status := env.StatusCode()
			attrs := []slog.Attr{
				slog.String("method", method),
				slog.String("path_base", pathBase),
				slog.String("path", path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}

			if env.RequestID != "" {
				attrs = append(attrs, slog.String("request_id", env.RequestID))
			}

			lvl := level
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				lvl = slog.LevelError
			} else if status >= 500 {
				lvl = slog.LevelError
			}

			logger.LogAttrs(logContext(env), lvl, message, attrs...)

			return err
		}
	}
}

func logContext(env *owin.Environment) context.Context {
	return context.WithoutCancel(env.Ctx())
}
