package pipelinehandlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// ErrNoCacheControlRules is returned when CacheControlConfig.Rules is empty.
var ErrNoCacheControlRules = errors.New("cache control: at least one rule is required")

// CacheControlRule maps a Content-Type prefix to Cache-Control and Expires
// header values.
type CacheControlRule struct {
	// ContentType is a content type prefix matched case-insensitively
	// against the response Content-Type (e.g. "image/", "application/json").
	ContentType string

	// Value is the Cache-Control header value to set when this rule matches.
	Value string

	// Expires is the duration added to the current time to compute the
	// Expires header. A negative duration means no Expires header is set.
	Expires time.Duration
}

// CacheControlConfig configures the CacheControl middleware behaviour.
type CacheControlConfig struct {
	// Rules is the ordered list of content type rules. The first matching
	// rule wins. At least one is required.
	Rules []CacheControlRule

	// DefaultValue is the Cache-Control header value for responses that
	// match no rule. When empty, no header is set.
	DefaultValue string

	// DefaultExpires is the Expires offset for responses that match no rule.
	// A negative duration means no Expires header is set.
	DefaultExpires time.Duration
}

type cacheControlRule struct {
	contentType string
	value       string
	expires     time.Duration
	hasExpires  bool
}

// CacheControlMiddleware returns a middleware that sets Cache-Control and
// Expires response headers based on the response Content-Type. Headers
// already set downstream are left untouched.
//
// The headers are applied after the downstream app returns, so the host must
// not flush response headers before the pipeline completes.
func CacheControlMiddleware(cfg CacheControlConfig) (pipeline.MiddlewareFunc, error) {
	if len(cfg.Rules) == 0 {
		return nil, ErrNoCacheControlRules
	}

	rules := make([]cacheControlRule, len(cfg.Rules))
	for i, r := range cfg.Rules {
		rules[i] = cacheControlRule{
			contentType: strings.ToLower(r.ContentType),
			value:       r.Value,
			expires:     r.Expires,
			hasExpires:  r.Expires >= 0,
		}
	}

	fallback := cacheControlRule{
		value:      cfg.DefaultValue,
		expires:    cfg.DefaultExpires,
		hasExpires: cfg.DefaultExpires >= 0,
	}

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			if err := next(env); err != nil {
				return err
			}

			h := env.ResponseHeaders
			ccSet := h.Get("Cache-Control") != ""
			exSet := h.Get("Expires") != ""
			if ccSet && exSet {
				return nil
			}

			rule := fallback
			ct := strings.ToLower(h.Get("Content-Type"))
			for _, r := range rules {
				if strings.HasPrefix(ct, r.contentType) {
					rule = r
					break
				}
			}

			if !ccSet && rule.value != "" {
				setHeader(&env.ResponseHeaders, "Cache-Control", rule.value)
			}

			if !exSet && rule.hasExpires {
				setHeader(&env.ResponseHeaders, "Expires", time.Now().UTC().Add(rule.expires).Format(http.TimeFormat))
			}

			return nil
		}
	}, nil
}
