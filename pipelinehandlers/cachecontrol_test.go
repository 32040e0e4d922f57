package pipelinehandlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/katana/owin"
)

func TestCacheControlMiddleware(t *testing.T) {
	t.Run("no rules", func(t *testing.T) {
		mw, err := CacheControlMiddleware(CacheControlConfig{})
		assert.ErrorIs(t, err, ErrNoCacheControlRules)
		assert.Nil(t, mw)
	})

	config := CacheControlConfig{
		Rules: []CacheControlRule{
			{ContentType: "image/", Value: "public, max-age=86400", Expires: 24 * time.Hour},
			{ContentType: "application/json", Value: "no-cache", Expires: -1},
		},
		DefaultValue:   "no-store",
		DefaultExpires: -1,
	}

	respond := func(contentType string, headers map[string]string) owin.AppFunc {
		return func(env *owin.Environment) error {
			if contentType != "" {
				env.ResponseHeaders.Set("Content-Type", contentType)
			}
			for name, value := range headers {
				env.ResponseHeaders.Set(name, value)
			}

			return okApp(env)
		}
	}

	tests := []struct {
		name         string
		handler      owin.AppFunc
		wantCache    string
		wantExpires  bool
		wantExactExp string
	}{
		{
			name:        "image rule with expires",
			handler:     respond("IMAGE/PNG", nil),
			wantCache:   "public, max-age=86400",
			wantExpires: true,
		},
		{
			name:      "json rule without expires",
			handler:   respond("application/json; charset=utf-8", nil),
			wantCache: "no-cache",
		},
		{
			name:      "default for unmatched type",
			handler:   respond("text/html", nil),
			wantCache: "no-store",
		},
		{
			name:      "default without content type",
			handler:   respond("", nil),
			wantCache: "no-store",
		},
		{
			name:         "existing headers are preserved",
			handler:      respond("image/gif", map[string]string{"Cache-Control": "private", "Expires": "0"}),
			wantCache:    "private",
			wantExpires:  true,
			wantExactExp: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw, err := CacheControlMiddleware(config)
			require.NoError(t, err)

			env, _ := newEnv(http.MethodGet, "/asset")
			require.NoError(t, serve(t, mw, tt.handler, env))

			assert.Equal(t, tt.wantCache, env.ResponseHeaders.Get("Cache-Control"))

			expires := env.ResponseHeaders.Get("Expires")
			if !tt.wantExpires {
				assert.Empty(t, expires)
				return
			}

			if tt.wantExactExp != "" {
				assert.Equal(t, tt.wantExactExp, expires)
				return
			}

			parsed, err := http.ParseTime(expires)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), parsed, time.Minute)
		})
	}

	t.Run("errors skip headers", func(t *testing.T) {
		mw, err := CacheControlMiddleware(config)
		require.NoError(t, err)

		errFailed := errors.New("failed")
		env, _ := newEnv(http.MethodGet, "/asset")
		err = serve(t, mw, func(*owin.Environment) error { return errFailed }, env)

		assert.ErrorIs(t, err, errFailed)
		assert.Empty(t, env.ResponseHeaders.Get("Cache-Control"))
	})
}
