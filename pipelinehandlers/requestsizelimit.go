package pipelinehandlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// ErrInvalidMaxSize is returned when RequestSizeLimitConfig.MaxBytes is not
// greater than zero.
var ErrInvalidMaxSize = errors.New("request size limit: max size must be greater than zero")

// RequestSizeLimitConfig configures the Request Size Limit middleware behaviour.
type RequestSizeLimitConfig struct {
	// MaxBytes is the maximum allowed request body size in bytes.
	// Must be greater than zero.
	MaxBytes int64
}

// RequestSizeLimitMiddleware returns a middleware that limits the size of
// request bodies. It wraps env.RequestBody with http.MaxBytesReader so that
// downstream handlers receive an *http.MaxBytesError when reading beyond the
// limit. When such an error is returned from downstream and no status has
// been set, the response becomes 413 Content Too Large.
//
// It returns ErrInvalidMaxSize if MaxBytes is not greater than zero.
func RequestSizeLimitMiddleware(cfg RequestSizeLimitConfig) (pipeline.MiddlewareFunc, error) {
	if cfg.MaxBytes <= 0 {
		return nil, ErrInvalidMaxSize
	}

	maxBytes := cfg.MaxBytes

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			if env.RequestBody != nil {
				body := env.RequestBody
				defer func() { env.RequestBody = body }()

				env.RequestBody = http.MaxBytesReader(nil, readCloser(body), maxBytes)
			}

			err := next(env)

			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) && env.ResponseStatusCode == 0 {
				return owin.Error(env, http.StatusRequestEntityTooLarge)
			}

			return err
		}
	}, nil
}

func readCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}

	return io.NopCloser(r)
}
