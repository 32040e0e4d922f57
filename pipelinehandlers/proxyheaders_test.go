package pipelinehandlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/katana/owin"
)

func TestProxyHeadersMiddleware(t *testing.T) {
	t.Run("config validation", func(t *testing.T) {
		tests := []struct {
			name    string
			config  ProxyHeadersConfig
			wantErr error
		}{
			{"invalid IP entry", ProxyHeadersConfig{TrustedProxies: []string{"not-an-ip"}}, ErrInvalidProxy},
			{"invalid CIDR entry", ProxyHeadersConfig{TrustedProxies: []string{"10.0.0.0/99"}}, ErrInvalidProxy},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ProxyHeadersMiddleware(tt.config)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}

		t.Run("valid IPs and CIDRs accepted", func(t *testing.T) {
			_, err := ProxyHeadersMiddleware(ProxyHeadersConfig{
				TrustedProxies: []string{"10.0.0.1", "192.168.0.0/16", "::1", "fd00::/8"},
			})
			assert.NoError(t, err)
		})
	})

	tests := []struct {
		name         string
		config       ProxyHeadersConfig
		remoteAddr   string
		pathBase     string
		headers      map[string]string
		wantAddr     string
		wantScheme   string
		wantHost     string
		wantPathBase string
	}{
		{
			name:       "default config trusts private peer",
			remoteAddr: "10.0.0.1:8080",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			wantAddr:   "203.0.113.50",
		},
		{
			name:       "default config rejects public peer",
			remoteAddr: "203.0.113.1:8080",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.10", "X-Forwarded-Proto": "https"},
			wantAddr:   "203.0.113.1:8080",
		},
		{
			name:     "missing remote address is untrusted",
			headers:  map[string]string{"X-Forwarded-For": "198.51.100.10"},
			wantAddr: "",
		},
		{
			name:       "trusted peer by exact IP",
			config:     ProxyHeadersConfig{TrustedProxies: []string{"10.0.0.1"}},
			remoteAddr: "10.0.0.1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			wantAddr:   "203.0.113.50",
		},
		{
			name:       "invalid X-Forwarded-For entries are skipped",
			remoteAddr: "127.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "unknown, 198.51.100.7"},
			wantAddr:   "198.51.100.7",
		},
		{
			name:       "X-Real-IP fallback",
			remoteAddr: "127.0.0.1:1",
			headers:    map[string]string{"X-Real-IP": " 198.51.100.8 "},
			wantAddr:   "198.51.100.8",
		},
		{
			name:       "scheme from X-Forwarded-Proto",
			remoteAddr: "127.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-Proto": "HTTPS"},
			wantAddr:   "127.0.0.1:1",
			wantScheme: "https",
		},
		{
			name:       "invalid scheme is ignored",
			remoteAddr: "127.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-Proto": "ftp", "X-Forwarded-Scheme": "https"},
			wantAddr:   "127.0.0.1:1",
			wantScheme: "http",
		},
		{
			name:       "host from X-Forwarded-Host",
			remoteAddr: "127.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-Host": "example.com"},
			wantAddr:   "127.0.0.1:1",
			wantHost:   "example.com",
		},
		{
			name:         "prefix extends path base",
			remoteAddr:   "127.0.0.1:1",
			pathBase:     "/app",
			headers:      map[string]string{"X-Forwarded-Prefix": "/proxy/"},
			wantAddr:     "127.0.0.1:1",
			wantPathBase: "/proxy/app",
		},
		{
			name:         "relative prefix is ignored",
			remoteAddr:   "127.0.0.1:1",
			pathBase:     "/app",
			headers:      map[string]string{"X-Forwarded-Prefix": "proxy"},
			wantAddr:     "127.0.0.1:1",
			wantPathBase: "/app",
		},
		{
			name:       "Forwarded header when enabled",
			config:     ProxyHeadersConfig{EnableForwarded: true},
			remoteAddr: "127.0.0.1:1",
			headers:    map[string]string{"Forwarded": `for="[2001:db8::1]:4711";proto=https;host=example.org, for=198.51.100.1`},
			wantAddr:   "2001:db8::1",
			wantScheme: "https",
			wantHost:   "example.org",
		},
		{
			name:       "Forwarded header ignored when disabled",
			remoteAddr: "127.0.0.1:1",
			headers:    map[string]string{"Forwarded": "for=198.51.100.1;proto=https"},
			wantAddr:   "127.0.0.1:1",
			wantScheme: "http",
		},
		{
			name:       "X-Forwarded headers take precedence over Forwarded",
			config:     ProxyHeadersConfig{EnableForwarded: true},
			remoteAddr: "127.0.0.1:1",
			headers: map[string]string{
				"Forwarded":         "for=198.51.100.1;proto=http",
				"X-Forwarded-For":   "198.51.100.2",
				"X-Forwarded-Proto": "https",
			},
			wantAddr:   "198.51.100.2",
			wantScheme: "https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw, err := ProxyHeadersMiddleware(tt.config)
			require.NoError(t, err)

			env, _ := newEnv(http.MethodGet, "/")
			env.RequestScheme = "http"
			env.RequestPathBase = tt.pathBase
			if tt.remoteAddr != "" {
				env.Set(KeyRemoteIPAddress, tt.remoteAddr)
			}
			for name, value := range tt.headers {
				env.RequestHeaders.Set(name, value)
			}

			var gotAddr, gotScheme, gotHost, gotPathBase string
			require.NoError(t, serve(t, mw, func(env *owin.Environment) error {
				gotAddr, _ = owin.Lookup[string](env, KeyRemoteIPAddress)
				gotScheme = env.RequestScheme
				gotHost = env.RequestHeaders.Get("Host")
				gotPathBase = env.RequestPathBase
				return nil
			}, env))

			wantScheme := tt.wantScheme
			if wantScheme == "" {
				wantScheme = "http"
			}

			wantPathBase := tt.wantPathBase
			if wantPathBase == "" {
				wantPathBase = tt.pathBase
			}

			assert.Equal(t, tt.wantAddr, gotAddr)
			assert.Equal(t, wantScheme, gotScheme)
			assert.Equal(t, tt.wantHost, gotHost)
			assert.Equal(t, wantPathBase, gotPathBase)
		})
	}
}

func TestParseForwarded(t *testing.T) {
	assert.Equal(t, forwardedParams{}, parseForwarded(""))
	assert.Equal(t, forwardedParams{forIP: "192.0.2.60", proto: "http"}, parseForwarded("For=192.0.2.60; Proto=http; by=203.0.113.43"))
	assert.Equal(t, forwardedParams{}, parseForwarded("for=unknown;proto=gopher"))
}
