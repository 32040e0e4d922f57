package pipelinehandlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// ErrNoAuthSource is returned when BasicAuthConfig has neither ValidateFunc
// nor Credentials configured.
var ErrNoAuthSource = errors.New("basic auth: at least one of ValidateFunc or Credentials must be set")

// BasicAuthConfig configures the Basic Auth middleware behaviour.
//
// Reference: https://www.rfc-editor.org/rfc/rfc7617
type BasicAuthConfig struct {
	// Realm is the authentication realm sent in the WWW-Authenticate header.
	// Defaults to "Restricted" when empty.
	Realm string

	// ValidateFunc is called to validate credentials dynamically.
	// Takes priority over Credentials when both are set.
	ValidateFunc func(username, password string) bool

	// Credentials is a static map of username -> password pairs.
	// Compared using SHA-256 hashed constant-time comparison to prevent
	// timing attacks, including length-based leaks.
	Credentials map[string]string
}

// BasicAuthMiddleware returns a middleware that implements HTTP Basic
// Authentication per RFC 7617. It validates the Authorization request header
// and responds with 401 Unauthorized when credentials are missing or
// invalid. The authenticated user name is stored under KeyUser.
//
// It returns ErrNoAuthSource if both ValidateFunc and Credentials are nil/empty.
func BasicAuthMiddleware(cfg BasicAuthConfig) (pipeline.MiddlewareFunc, error) {
	if cfg.ValidateFunc == nil && len(cfg.Credentials) == 0 {
		return nil, ErrNoAuthSource
	}

	realm := cfg.Realm
	if realm == "" {
		realm = "Restricted"
	}

	wwwAuthenticate := fmt.Sprintf("Basic realm=%q", realm)

	validate := cfg.ValidateFunc
	credentials := cfg.Credentials

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			username, password, ok := basicAuth(env)
			if !ok {
				return unauthorized(env, wwwAuthenticate)
			}

			if validate != nil {
				if !validate(username, password) {
					return unauthorized(env, wwwAuthenticate)
				}
			} else {
				expectedPassword, exists := credentials[username]
				// Always compare so that unknown users take as long as
				// known ones.
				passwordMatch := constantTimeEqual(password, expectedPassword)
				if !exists || !passwordMatch {
					return unauthorized(env, wwwAuthenticate)
				}
			}

			env.Set(KeyUser, username)

			return next(env)
		}
	}, nil
}

// KeyUser is the environment key holding the authenticated user name.
const KeyUser = "server.User"

// basicAuth parses the Authorization request header by delegating to
// http.Request.BasicAuth, which implements the RFC 7617 decoding rules.
func basicAuth(env *owin.Environment) (string, string, bool) {
	auth := env.RequestHeaders.Get("Authorization")
	if auth == "" {
		return "", "", false
	}

	req := http.Request{Header: http.Header{"Authorization": {auth}}}
	return req.BasicAuth()
}

// constantTimeEqual compares two strings in constant time by first hashing
// them with SHA-256. This prevents both value leaks and length-based timing
// leaks that raw ConstantTimeCompare would allow on different-length inputs.
func constantTimeEqual(a, b string) bool {
	aHash := sha256.Sum256([]byte(a))
	bHash := sha256.Sum256([]byte(b))

	return subtle.ConstantTimeCompare(aHash[:], bHash[:]) == 1
}

// unauthorized sets a 401 response with the WWW-Authenticate header and an
// empty body.
func unauthorized(env *owin.Environment, wwwAuthenticate string) error {
	setHeader(&env.ResponseHeaders, "WWW-Authenticate", wwwAuthenticate)
	env.ResponseStatusCode = http.StatusUnauthorized

	return nil
}
