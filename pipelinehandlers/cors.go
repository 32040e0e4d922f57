package pipelinehandlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// ErrWildcardCredentials is returned when AllowedOrigins contains "*" and
// AllowCredentials is true. Use AllowOriginFunc for dynamic origin checks
// with credentials.
var ErrWildcardCredentials = errors.New("cors: wildcard origin \"*\" cannot be used with AllowCredentials")

// ErrInvalidOriginPattern is returned when an AllowedOrigins entry contains
// more than one wildcard.
var ErrInvalidOriginPattern = errors.New("cors: origin pattern contains multiple wildcards")

var defaultCORSMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost}

// CORSConfig configures the CORS middleware behaviour.
//
// References:
//   - CORS protocol: https://fetch.spec.whatwg.org/#http-cors-protocol
//   - Web Origin:    https://www.rfc-editor.org/rfc/rfc6454
type CORSConfig struct {
	// AllowedOrigins is a list of exact origin strings, "*" for wildcard,
	// or subdomain wildcard patterns like "https://*.example.com".
	AllowedOrigins []string

	// AllowOriginFunc is an optional dynamic callback invoked when the
	// origin does not match any entry in AllowedOrigins.
	AllowOriginFunc func(origin string) bool

	// AllowedMethods is the set of methods advertised in preflight and
	// actual responses. Defaults to GET, HEAD and POST.
	AllowedMethods []string

	// AllowedHeaders lists the headers the client may send. When empty the
	// Access-Control-Request-Headers value is reflected. "*" reflects all
	// requested headers.
	AllowedHeaders []string

	// ExposeHeaders lists the headers the browser may expose to client code.
	ExposeHeaders []string

	// AllowCredentials sets Access-Control-Allow-Credentials: true.
	AllowCredentials bool

	// MaxAge is the number of seconds a preflight result may be cached.
	// Negative values emit "0", zero omits the header.
	MaxAge int

	// OptionsStatusCode is the status code for preflight responses.
	// Defaults to 204 No Content.
	OptionsStatusCode int

	// OptionsPassthrough forwards preflight requests to the next app after
	// setting the CORS headers.
	OptionsPassthrough bool

	// AllowPrivateNetwork answers Access-Control-Request-Private-Network
	// preflight headers with Access-Control-Allow-Private-Network: true.
	AllowPrivateNetwork bool
}

type wildcardPattern struct {
	prefix string
	suffix string
}

// CORSMiddleware returns a middleware that implements the CORS protocol. It
// validates the Origin header, answers preflight OPTIONS requests and sets
// the CORS response headers. Requests from disallowed origins pass through
// without CORS headers.
//
// It returns ErrWildcardCredentials if a wildcard origin is combined with
// AllowCredentials, and ErrInvalidOriginPattern for malformed patterns.
func CORSMiddleware(cfg CORSConfig) (pipeline.MiddlewareFunc, error) {
	wildcardOrigin := slices.Contains(cfg.AllowedOrigins, "*")
	if wildcardOrigin && cfg.AllowCredentials {
		return nil, ErrWildcardCredentials
	}

	exactOrigins, patterns, err := parseOrigins(cfg.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	isAllowed := func(origin string) bool {
		if matchOrigin(strings.ToLower(origin), exactOrigins, patterns) {
			return true
		}

		return cfg.AllowOriginFunc != nil && cfg.AllowOriginFunc(origin)
	}

	hasSpecificOrigins := !wildcardOrigin &&
		(len(exactOrigins) > 0 || len(patterns) > 0 || cfg.AllowOriginFunc != nil)

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	allowMethods := strings.Join(methods, ",")

	headersWildcard := slices.Contains(cfg.AllowedHeaders, "*")
	allowHeaders := strings.Join(cfg.AllowedHeaders, ",")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ",")

	preflightStatus := cfg.OptionsStatusCode
	if preflightStatus == 0 {
		preflightStatus = http.StatusNoContent
	}

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			origin := env.RequestHeaders.Get("Origin")

			if origin == "" {
				if hasSpecificOrigins {
					addHeader(&env.ResponseHeaders, "Vary", "Origin")
				}

				return next(env)
			}

			if !isAllowed(origin) {
				return next(env)
			}

			if wildcardOrigin {
				setHeader(&env.ResponseHeaders, "Access-Control-Allow-Origin", "*")
			} else {
				setHeader(&env.ResponseHeaders, "Access-Control-Allow-Origin", origin)
				addHeader(&env.ResponseHeaders, "Vary", "Origin")
			}

			if cfg.AllowCredentials {
				setHeader(&env.ResponseHeaders, "Access-Control-Allow-Credentials", "true")
			}

			setHeader(&env.ResponseHeaders, "Access-Control-Allow-Methods", allowMethods)

			if env.RequestMethod != http.MethodOptions || env.RequestHeaders.Get("Access-Control-Request-Method") == "" {
				if exposeHeaders != "" {
					setHeader(&env.ResponseHeaders, "Access-Control-Expose-Headers", exposeHeaders)
				}

				return next(env)
			}

			requested := env.RequestHeaders.Get("Access-Control-Request-Headers")
			switch {
			case headersWildcard || allowHeaders == "":
				if requested != "" {
					setHeader(&env.ResponseHeaders, "Access-Control-Allow-Headers", requested)
				}
			default:
				setHeader(&env.ResponseHeaders, "Access-Control-Allow-Headers", allowHeaders)
			}

			if cfg.MaxAge > 0 {
				setHeader(&env.ResponseHeaders, "Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			} else if cfg.MaxAge < 0 {
				setHeader(&env.ResponseHeaders, "Access-Control-Max-Age", "0")
			}

			if cfg.AllowPrivateNetwork && env.RequestHeaders.Get("Access-Control-Request-Private-Network") == "true" {
				setHeader(&env.ResponseHeaders, "Access-Control-Allow-Private-Network", "true")
				addHeader(&env.ResponseHeaders, "Vary", "Access-Control-Request-Private-Network")
			}

			addHeader(&env.ResponseHeaders, "Vary", "Access-Control-Request-Method")
			addHeader(&env.ResponseHeaders, "Vary", "Access-Control-Request-Headers")

			if cfg.OptionsPassthrough {
				return next(env)
			}

			env.ResponseStatusCode = preflightStatus

			return nil
		}
	}, nil
}

// parseOrigins lowercases AllowedOrigins and splits them into exact matches
// and single-wildcard patterns.
func parseOrigins(origins []string) ([]string, []wildcardPattern, error) {
	var exact []string
	var patterns []wildcardPattern

	for _, o := range origins {
		if o == "*" {
			exact = append(exact, o)
			continue
		}

		lower := strings.ToLower(o)

		prefix, suffix, ok := strings.Cut(lower, "*")
		if !ok {
			exact = append(exact, lower)
			continue
		}

		if strings.Contains(suffix, "*") {
			return nil, nil, fmt.Errorf("%w: %q", ErrInvalidOriginPattern, o)
		}

		patterns = append(patterns, wildcardPattern{prefix: prefix, suffix: suffix})
	}

	return exact, patterns, nil
}

func matchOrigin(originLower string, exactOrigins []string, patterns []wildcardPattern) bool {
	for _, o := range exactOrigins {
		if o == "*" || o == originLower {
			return true
		}
	}

	for _, wp := range patterns {
		if len(originLower) >= len(wp.prefix)+len(wp.suffix) &&
			strings.HasPrefix(originLower, wp.prefix) &&
			strings.HasSuffix(originLower, wp.suffix) {
			return true
		}
	}

	return false
}
