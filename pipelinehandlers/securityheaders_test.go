package pipelinehandlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		config      SecurityHeadersConfig
		wantHeaders map[string]string
		wantAbsent  []string
	}{
		{
			name:   "defaults",
			config: SecurityHeadersConfig{},
			wantHeaders: map[string]string{
				"X-Content-Type-Options": "nosniff",
				"X-Frame-Options":        "DENY",
				"Referrer-Policy":        "strict-origin-when-cross-origin",
			},
			wantAbsent: []string{
				"Strict-Transport-Security",
				"Cross-Origin-Opener-Policy",
				"Content-Security-Policy",
				"Permissions-Policy",
			},
		},
		{
			name:       "disable nosniff",
			config:     SecurityHeadersConfig{DisableContentTypeNosniff: true},
			wantAbsent: []string{"X-Content-Type-Options"},
		},
		{
			name:        "sameorigin frame option",
			config:      SecurityHeadersConfig{FrameOption: "SAMEORIGIN"},
			wantHeaders: map[string]string{"X-Frame-Options": "SAMEORIGIN"},
		},
		{
			name:        "hsts with all directives",
			config:      SecurityHeadersConfig{HSTSMaxAge: 31536000, HSTSIncludeSubDomains: true, HSTSPreload: true},
			wantHeaders: map[string]string{"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload"},
		},
		{
			name:        "hsts max age only",
			config:      SecurityHeadersConfig{HSTSMaxAge: 600},
			wantHeaders: map[string]string{"Strict-Transport-Security": "max-age=600"},
		},
		{
			name: "policies",
			config: SecurityHeadersConfig{
				CrossOriginOpenerPolicy: "same-origin",
				ContentSecurityPolicy:   "default-src 'self'",
				PermissionsPolicy:       "camera=()",
			},
			wantHeaders: map[string]string{
				"Cross-Origin-Opener-Policy": "same-origin",
				"Content-Security-Policy":    "default-src 'self'",
				"Permissions-Policy":         "camera=()",
			},
		},
		{
			name: "extra headers",
			config: SecurityHeadersConfig{
				ExtraHeaders: map[string]string{"X-Permitted-Cross-Domain-Policies": "none"},
			},
			wantHeaders: map[string]string{"X-Permitted-Cross-Domain-Policies": "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw, err := SecurityHeadersMiddleware(tt.config)
			require.NoError(t, err)

			env, _ := newEnv(http.MethodGet, "/test")
			require.NoError(t, serve(t, mw, okApp, env))

			for name, value := range tt.wantHeaders {
				assert.Equal(t, value, env.ResponseHeaders.Get(name), name)
			}

			for _, name := range tt.wantAbsent {
				assert.Empty(t, env.ResponseHeaders.Get(name), name)
			}
		})
	}

	t.Run("invalid configuration", func(t *testing.T) {
		invalid := []struct {
			name    string
			config  SecurityHeadersConfig
			wantErr error
		}{
			{"frame option", SecurityHeadersConfig{FrameOption: "ALLOW-FROM"}, ErrInvalidFrameOption},
			{"header name", SecurityHeadersConfig{ExtraHeaders: map[string]string{"Bad Header": "x"}}, ErrInvalidHeader},
			{"header value", SecurityHeadersConfig{ExtraHeaders: map[string]string{"X-Ok": "a\r\nb"}}, ErrInvalidHeader},
		}

		for _, tt := range invalid {
			t.Run(tt.name, func(t *testing.T) {
				mw, err := SecurityHeadersMiddleware(tt.config)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, mw)
			})
		}
	})
}
