package pipelinehandlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// ErrInvalidTimeout is returned when TimeoutConfig.Duration is not greater
// than zero.
var ErrInvalidTimeout = errors.New("timeout: duration must be greater than zero")

// TimeoutConfig configures the Timeout middleware behaviour.
type TimeoutConfig struct {
	// Duration is the maximum time allowed for the downstream handlers to
	// complete. Must be greater than zero.
	Duration time.Duration

	// Message is the response body returned when the handler times out.
	// When empty, the status text is used.
	Message string
}

// TimeoutMiddleware returns a middleware that bounds downstream execution
// time. It replaces env.Context with a context that expires after Duration
// for the duration of the call. Cancellation is cooperative: handlers are
// expected to observe env.Ctx(). When the downstream call returns an error
// wrapping context.DeadlineExceeded after the deadline passed, the response
// becomes 503 Service Unavailable with Message as the body.
//
// It returns ErrInvalidTimeout if Duration is not greater than zero.
func TimeoutMiddleware(cfg TimeoutConfig) (pipeline.MiddlewareFunc, error) {
	if cfg.Duration <= 0 {
		return nil, ErrInvalidTimeout
	}

	duration := cfg.Duration
	message := cfg.Message
	if message == "" {
		message = http.StatusText(http.StatusServiceUnavailable)
	}

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			parent := env.Context
			ctx, cancel := context.WithTimeout(env.Ctx(), duration)
			defer func() {
				cancel()
				env.Context = parent
			}()

			env.Context = ctx

			err := next(env)
			if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
				setHeader(&env.ResponseHeaders, "Content-Type", "text/plain; charset=utf-8")
				env.ResponseStatusCode = http.StatusServiceUnavailable

				_, werr := env.Write([]byte(message))
				return werr
			}

			return err
		}
	}, nil
}
