package pipelinehandlers

import (
	"github.com/google/uuid"
	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// RequestIDFromEnvironment returns the request ID stored by
// RequestIDMiddleware. Returns an empty string if no ID is present.
func RequestIDFromEnvironment(env *owin.Environment) string {
	if env == nil {
		return ""
	}

	return env.RequestID
}

// RequestIDConfig configures the Request ID middleware behaviour.
type RequestIDConfig struct {
	// HeaderName overrides the header used to propagate the request ID.
	// Defaults to "X-Request-ID" when empty.
	HeaderName string

	// GenerateFunc is an optional callback that returns a new unique ID.
	// It receives the current environment, allowing ID generation based on
	// request state. Defaults to GenerateUUIDv4.
	GenerateFunc func(env *owin.Environment) string

	// TrustIncoming, when true, reuses an existing request ID from the
	// incoming request header instead of generating a new one.
	TrustIncoming bool
}

// RequestIDMiddleware returns a middleware that generates or propagates a
// request ID. The ID is stored in env.RequestID and set on both the request
// headers (for downstream handlers) and the response headers (for the
// caller).
func RequestIDMiddleware(cfg RequestIDConfig) pipeline.MiddlewareFunc {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "X-Request-ID"
	}

	generate := cfg.GenerateFunc
	if generate == nil {
		generate = GenerateUUIDv4
	}

	trustIncoming := cfg.TrustIncoming

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			id := ""
			if trustIncoming {
				id = env.RequestHeaders.Get(headerName)
			}

			if id == "" {
				id = generate(env)
			}

			if id != "" {
				setHeader(&env.RequestHeaders, headerName, id)
				setHeader(&env.ResponseHeaders, headerName, id)
				env.RequestID = id
			}

			return next(env)
		}
	}
}

// GenerateUUIDv4 returns a new UUID v4 string.
//
// Reference: https://www.rfc-editor.org/rfc/rfc9562#section-5.4
func GenerateUUIDv4(_ *owin.Environment) string {
	return uuid.New().String()
}

// GenerateUUIDv7 returns a new UUID v7 string. UUIDs are time-ordered:
// IDs generated later sort lexicographically after earlier ones.
//
// Reference: https://www.rfc-editor.org/rfc/rfc9562#section-5.7
func GenerateUUIDv7(_ *owin.Environment) string {
	return uuid.Must(uuid.NewV7()).String()
}
