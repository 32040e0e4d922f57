package pipelinehandlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
	"golang.org/x/net/http/httpguts"
)

// ErrInvalidOverrideMethod is returned when MethodOverrideConfig.AllowedMethods
// or MethodOverrideConfig.OriginalMethods contains an invalid HTTP method.
var ErrInvalidOverrideMethod = errors.New("method override: allowed methods must be valid HTTP methods")

// MethodOverrideConfig configures the Method Override middleware behaviour.
type MethodOverrideConfig struct {
	// HeaderNames is the list of header names checked in order.
	// The first non-empty header value is used as the override.
	// When nil, defaults to
	// ["X-HTTP-Method-Override", "X-Method-Override", "X-HTTP-Method"].
	HeaderNames []string

	// OriginalMethods is the set of HTTP methods eligible for override.
	// When nil, defaults to [POST].
	OriginalMethods []string

	// AllowedMethods restricts which methods can be used as overrides.
	// When nil, defaults to PUT, PATCH, DELETE, HEAD, OPTIONS.
	AllowedMethods []string
}

var defaultOverrideHeaders = []string{
	"X-HTTP-Method-Override",
	"X-Method-Override",
	"X-HTTP-Method",
}

var defaultOriginalMethods = []string{http.MethodPost}

var defaultOverrideMethods = []string{
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// MethodOverrideMiddleware returns a middleware that allows clients to
// override the request method via a configurable header. The first
// non-empty header value from HeaderNames is uppercased and checked against
// the allowed set. When allowed, env.RequestMethod is set to the override
// value and the header is removed. Override is only applied when the
// original method is in OriginalMethods (defaults to POST).
//
// It returns ErrInvalidOverrideMethod if AllowedMethods or OriginalMethods
// contains a method that is not an uppercase RFC 9110 token.
func MethodOverrideMiddleware(cfg MethodOverrideConfig) (pipeline.MiddlewareFunc, error) {
	headers := cfg.HeaderNames
	if len(headers) == 0 {
		headers = defaultOverrideHeaders
	}

	originals := cfg.OriginalMethods
	if originals == nil {
		originals = defaultOriginalMethods
	}

	methods := cfg.AllowedMethods
	if methods == nil {
		methods = defaultOverrideMethods
	}

	originalSet, err := methodSet(originals)
	if err != nil {
		return nil, err
	}

	allowed, err := methodSet(methods)
	if err != nil {
		return nil, err
	}

	headerNames := make([]string, len(headers))
	copy(headerNames, headers)

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			if _, ok := originalSet[env.RequestMethod]; ok {
				for _, h := range headerNames {
					if v := env.RequestHeaders.Get(h); v != "" {
						override := strings.ToUpper(v)
						if _, ok := allowed[override]; ok {
							env.RequestMethod = override
							env.RequestHeaders.Del(h)
						}

						break
					}
				}
			}

			return next(env)
		}
	}, nil
}

func methodSet(methods []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		if !httpguts.ValidHeaderFieldName(m) || m != strings.ToUpper(m) {
			return nil, ErrInvalidOverrideMethod
		}

		set[m] = struct{}{}
	}

	return set, nil
}
