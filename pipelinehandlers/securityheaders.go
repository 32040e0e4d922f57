package pipelinehandlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
	"golang.org/x/net/http/httpguts"
)

// ErrInvalidFrameOption is returned when SecurityHeadersConfig.FrameOption is
// not one of the valid values: "DENY", "SAMEORIGIN", or empty string.
var ErrInvalidFrameOption = errors.New("security headers: frame option must be DENY, SAMEORIGIN, or empty")

// ErrInvalidHeader is returned when SecurityHeadersConfig.ExtraHeaders
// contains a header name or value that is not valid per RFC 9110.
var ErrInvalidHeader = errors.New("security headers: invalid header field")

// SecurityHeadersConfig configures the Security Headers middleware behaviour.
type SecurityHeadersConfig struct {
	// DisableContentTypeNosniff disables the X-Content-Type-Options: nosniff
	// header. The header is set by default (when false).
	DisableContentTypeNosniff bool

	// FrameOption sets the X-Frame-Options header value.
	// Valid values are "DENY", "SAMEORIGIN", or empty string to skip.
	// Defaults to "DENY".
	FrameOption string

	// ReferrerPolicy sets the Referrer-Policy header value.
	// Defaults to "strict-origin-when-cross-origin".
	ReferrerPolicy string

	// HSTSMaxAge sets the max-age directive for the Strict-Transport-Security
	// header in seconds. When zero, the header is not set.
	HSTSMaxAge int

	// HSTSIncludeSubDomains appends the includeSubDomains directive to the
	// Strict-Transport-Security header. Only effective when HSTSMaxAge > 0.
	HSTSIncludeSubDomains bool

	// HSTSPreload appends the preload directive to the
	// Strict-Transport-Security header. Only effective when HSTSMaxAge > 0.
	HSTSPreload bool

	// CrossOriginOpenerPolicy sets the Cross-Origin-Opener-Policy header.
	// When empty, the header is not set.
	CrossOriginOpenerPolicy string

	// ContentSecurityPolicy sets the Content-Security-Policy header.
	// When empty, the header is not set.
	ContentSecurityPolicy string

	// PermissionsPolicy sets the Permissions-Policy header.
	// When empty, the header is not set.
	PermissionsPolicy string

	// ExtraHeaders are additional response headers set on every response.
	// Names and values are validated when the middleware is created.
	ExtraHeaders map[string]string
}

// SecurityHeadersMiddleware returns a middleware that sets common security
// response headers. Headers are set before calling the next handler.
//
// It returns ErrInvalidFrameOption if FrameOption is set to a value other than
// "DENY", "SAMEORIGIN", or empty string, and ErrInvalidHeader if ExtraHeaders
// contains an invalid field name or value.
func SecurityHeadersMiddleware(cfg SecurityHeadersConfig) (pipeline.MiddlewareFunc, error) {
	if cfg.FrameOption != "" && cfg.FrameOption != "DENY" && cfg.FrameOption != "SAMEORIGIN" {
		return nil, ErrInvalidFrameOption
	}

	if cfg.FrameOption == "" {
		cfg.FrameOption = "DENY"
	}

	if cfg.ReferrerPolicy == "" {
		cfg.ReferrerPolicy = "strict-origin-when-cross-origin"
	}

	headers := make(http.Header)

	for name, value := range cfg.ExtraHeaders {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("%w: name %q", ErrInvalidHeader, name)
		}

		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("%w: value for %q", ErrInvalidHeader, name)
		}

		headers.Set(name, value)
	}

	if !cfg.DisableContentTypeNosniff {
		headers.Set("X-Content-Type-Options", "nosniff")
	}

	headers.Set("X-Frame-Options", cfg.FrameOption)
	headers.Set("Referrer-Policy", cfg.ReferrerPolicy)

	if cfg.HSTSMaxAge > 0 {
		hstsValue := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubDomains {
			hstsValue += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hstsValue += "; preload"
		}

		headers.Set("Strict-Transport-Security", hstsValue)
	}

	if cfg.CrossOriginOpenerPolicy != "" {
		headers.Set("Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy)
	}

	if cfg.ContentSecurityPolicy != "" {
		headers.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	}

	if cfg.PermissionsPolicy != "" {
		headers.Set("Permissions-Policy", cfg.PermissionsPolicy)
	}

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			for name, values := range headers {
				setHeader(&env.ResponseHeaders, name, values[0])
			}

			return next(env)
		}
	}, nil
}
