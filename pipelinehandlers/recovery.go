package pipelinehandlers

import (
	"net/http"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// RecoveryConfig configures the Recovery middleware behaviour.
type RecoveryConfig struct {
	// LogFunc is an optional callback invoked with the environment and the
	// recovered value when a panic occurs, or the returned error when
	// HandleErrors is set. When nil, no logging is performed.
	LogFunc func(env *owin.Environment, err any)

	// HandleErrors also converts errors returned by downstream handlers into
	// 500 Internal Server Error responses instead of propagating them.
	HandleErrors bool
}

// RecoveryMiddleware returns a middleware that recovers from panics in
// downstream handlers. When a panic occurs it responds with 500 Internal
// Server Error and optionally invokes LogFunc. Register it first so that it
// observes faults from every later stage.
func RecoveryMiddleware(cfg RecoveryConfig) pipeline.MiddlewareFunc {
	logFunc := cfg.LogFunc
	handleErrors := cfg.HandleErrors

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					if logFunc != nil {
						logFunc(env, rec)
					}

					err = owin.Error(env, http.StatusInternalServerError)
				}
			}()

			err = next(env)
			if err != nil && handleErrors {
				if logFunc != nil {
					logFunc(env, err)
				}

				return owin.Error(env, http.StatusInternalServerError)
			}

			return err
		}
	}
}
