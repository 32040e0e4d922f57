package pipelinehandlers

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// KeyRemoteIPAddress is the environment extension key holding the address of
// the connected peer. Hosts set it before invoking the pipeline.
const KeyRemoteIPAddress = "server.RemoteIpAddress"

// ErrInvalidProxy is returned when a ProxyHeadersConfig.TrustedProxies entry
// is neither a valid IP address nor a valid CIDR notation.
var ErrInvalidProxy = errors.New("proxy headers: invalid proxy entry")

// DefaultTrustedProxies contains loopback and private network ranges used
// when TrustedProxies is empty.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"::1/128",
	"fc00::/7",
}

// ProxyHeadersConfig configures the Proxy Headers middleware behaviour.
type ProxyHeadersConfig struct {
	// TrustedProxies lists IP addresses or CIDR ranges whose forwarding
	// headers are honoured. Defaults to DefaultTrustedProxies.
	TrustedProxies []string

	// EnableForwarded enables parsing of the RFC 7239 Forwarded header as a
	// fallback when the X-Forwarded-* headers are absent.
	EnableForwarded bool
}

type proxyTrustSet struct {
	ips  []net.IP
	nets []*net.IPNet
}

// ProxyHeadersMiddleware returns a middleware that applies forwarding headers
// set by a trusted reverse proxy to the environment:
//
//   - X-Forwarded-For, X-Real-IP or Forwarded "for" replace the
//     KeyRemoteIPAddress value
//   - X-Forwarded-Proto, X-Forwarded-Scheme or Forwarded "proto" replace
//     RequestScheme
//   - X-Forwarded-Host or Forwarded "host" replace the Host request header
//   - X-Forwarded-Prefix is prepended to RequestPathBase
//
// Headers from peers outside TrustedProxies are ignored. It returns
// ErrInvalidProxy if a TrustedProxies entry cannot be parsed.
func ProxyHeadersMiddleware(cfg ProxyHeadersConfig) (pipeline.MiddlewareFunc, error) {
	proxies := cfg.TrustedProxies
	if len(proxies) == 0 {
		proxies = DefaultTrustedProxies
	}

	ts, err := parseTrustedProxies(proxies)
	if err != nil {
		return nil, err
	}

	enableFwd := cfg.EnableForwarded

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			remote, _ := owin.Lookup[string](env, KeyRemoteIPAddress)
			if !isTrustedPeer(remote, ts) {
				return next(env)
			}

			var fwd forwardedParams
			if enableFwd {
				fwd = parseForwarded(env.RequestHeaders.Get("Forwarded"))
			}

			if xff := env.RequestHeaders.Get("X-Forwarded-For"); xff != "" {
				if ip := parseXForwardedFor(xff); ip != "" {
					env.Set(KeyRemoteIPAddress, ip)
				}
			} else if realIP := strings.TrimSpace(env.RequestHeaders.Get("X-Real-IP")); realIP != "" {
				if net.ParseIP(realIP) != nil {
					env.Set(KeyRemoteIPAddress, realIP)
				}
			} else if fwd.forIP != "" {
				env.Set(KeyRemoteIPAddress, fwd.forIP)
			}

			if scheme := proxyScheme(env); scheme != "" {
				env.RequestScheme = scheme
			} else if fwd.proto != "" {
				env.RequestScheme = fwd.proto
			}

			if host := env.RequestHeaders.Get("X-Forwarded-Host"); host != "" {
				env.RequestHeaders.Set("Host", host)
			} else if fwd.host != "" {
				env.RequestHeaders.Set("Host", fwd.host)
			}

			if prefix := proxyPrefix(env); prefix != "" {
				env.RequestPathBase = prefix + env.RequestPathBase
			}

			return next(env)
		}
	}, nil
}

func proxyScheme(env *owin.Environment) string {
	for _, header := range []string{"X-Forwarded-Proto", "X-Forwarded-Scheme"} {
		if val := env.RequestHeaders.Get(header); val != "" {
			normalized := strings.ToLower(strings.TrimSpace(val))
			if normalized == "http" || normalized == "https" {
				return normalized
			}

			return ""
		}
	}

	return ""
}

// proxyPrefix returns X-Forwarded-Prefix in path base form: a leading slash
// and no trailing slash. A bare "/" yields an empty prefix.
func proxyPrefix(env *owin.Environment) string {
	prefix := strings.TrimSpace(env.RequestHeaders.Get("X-Forwarded-Prefix"))
	if !strings.HasPrefix(prefix, "/") {
		return ""
	}

	return strings.TrimRight(prefix, "/")
}

func parseTrustedProxies(entries []string) (*proxyTrustSet, error) {
	ts := &proxyTrustSet{}

	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
			}

			ts.nets = append(ts.nets, ipNet)
			continue
		}

		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
		}

		ts.ips = append(ts.ips, ip)
	}

	return ts, nil
}

func isTrustedPeer(remoteAddr string, ts *proxyTrustSet) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	for _, trusted := range ts.ips {
		if trusted.Equal(ip) {
			return true
		}
	}

	for _, ipNet := range ts.nets {
		if ipNet.Contains(ip) {
			return true
		}
	}

	return false
}

// parseXForwardedFor returns the left-most valid IP.
func parseXForwardedFor(xff string) string {
	for part := range strings.SplitSeq(xff, ",") {
		candidate := strings.TrimSpace(part)
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}

	return ""
}

type forwardedParams struct {
	forIP string
	proto string
	host  string
}

// parseForwarded reads the first element of an RFC 7239 Forwarded header.
func parseForwarded(header string) forwardedParams {
	if header == "" {
		return forwardedParams{}
	}

	if idx := strings.IndexByte(header, ','); idx != -1 {
		header = header[:idx]
	}

	var result forwardedParams

	for param := range strings.SplitSeq(header, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok {
			continue
		}

		val = strings.Trim(strings.TrimSpace(val), `"`)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "for":
			result.forIP = parseForwardedIP(val)
		case "proto":
			val = strings.ToLower(val)
			if val == "http" || val == "https" {
				result.proto = val
			}
		case "host":
			result.host = val
		}
	}

	return result
}

func parseForwardedIP(val string) string {
	if host, _, err := net.SplitHostPort(val); err == nil {
		val = host
	} else {
		val = strings.TrimSuffix(strings.TrimPrefix(val, "["), "]")
	}

	if net.ParseIP(val) != nil {
		return val
	}

	return ""
}
