package pipelinehandlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// ErrNoAllowedTypes is returned when ContentTypeCheckConfig.AllowedTypes is
// empty.
var ErrNoAllowedTypes = errors.New("content type check: at least one allowed content type is required")

// ContentTypeCheckConfig configures the Content-Type Check middleware behaviour.
type ContentTypeCheckConfig struct {
	// AllowedTypes is the set of acceptable Content-Type values.
	// Matching is case-insensitive and ignores parameters
	// (e.g. "application/json" matches "application/json; charset=utf-8").
	// Required; at least one must be provided.
	AllowedTypes []string

	// Methods is the set of HTTP methods that require Content-Type
	// validation. When nil, defaults to POST, PUT, PATCH.
	Methods []string
}

var defaultCheckedMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
}

// ContentTypeCheckMiddleware returns a middleware that validates the
// Content-Type request header for matching methods. It responds with 415
// Unsupported Media Type when the Content-Type is missing or does not match
// any of the allowed types.
//
// It returns ErrNoAllowedTypes if AllowedTypes is empty.
func ContentTypeCheckMiddleware(cfg ContentTypeCheckConfig) (pipeline.MiddlewareFunc, error) {
	if len(cfg.AllowedTypes) == 0 {
		return nil, ErrNoAllowedTypes
	}

	methods := cfg.Methods
	if methods == nil {
		methods = defaultCheckedMethods
	}

	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}

	allowedSet := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowedSet[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			if _, check := methodSet[env.RequestMethod]; check {
				ct := env.RequestHeaders.Get("Content-Type")
				if ct == "" {
					return owin.Error(env, http.StatusUnsupportedMediaType)
				}

				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil {
					return owin.Error(env, http.StatusUnsupportedMediaType)
				}

				if _, ok := allowedSet[strings.ToLower(mediaType)]; !ok {
					return owin.Error(env, http.StatusUnsupportedMediaType)
				}
			}

			return next(env)
		}
	}, nil
}
