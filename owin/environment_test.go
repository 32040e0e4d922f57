package owin

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvironment(t *testing.T) {
	ctx := context.Background()
	env := NewEnvironment(ctx, http.MethodGet, "/users")

	assert.Equal(t, http.MethodGet, env.RequestMethod)
	assert.Equal(t, "/users", env.RequestPath)
	assert.Equal(t, "", env.RequestPathBase)
	assert.Equal(t, Version, env.Version)
	assert.NotNil(t, env.RequestHeaders)
	assert.NotNil(t, env.ResponseHeaders)
	assert.Equal(t, ctx, env.Context)
	assert.Equal(t, 0, env.ResponseStatusCode)
}

func TestEnvironmentGet(t *testing.T) {
	t.Run("well-known keys read fields", func(t *testing.T) {
		env := NewEnvironment(context.Background(), http.MethodPost, "/a")
		env.RequestPathBase = "/base"
		env.ResponseStatusCode = http.StatusCreated

		v, ok := env.Get(KeyRequestMethod)
		assert.True(t, ok)
		assert.Equal(t, http.MethodPost, v)

		v, ok = env.Get(KeyRequestPathBase)
		assert.True(t, ok)
		assert.Equal(t, "/base", v)

		v, ok = env.Get(KeyResponseStatusCode)
		assert.True(t, ok)
		assert.Equal(t, http.StatusCreated, v)
	})

	t.Run("unset well-known keys are absent", func(t *testing.T) {
		env := &Environment{}

		for _, key := range wellKnownKeys {
			_, ok := env.Get(key)
			assert.False(t, ok, key)
		}
	})

	t.Run("custom keys read side-table", func(t *testing.T) {
		env := &Environment{}

		_, ok := env.Get("app.Tenant")
		assert.False(t, ok)

		env.Set("app.Tenant", "acme")
		v, ok := env.Get("app.Tenant")
		assert.True(t, ok)
		assert.Equal(t, "acme", v)
	})

	t.Run("keys are case-sensitive", func(t *testing.T) {
		env := &Environment{}
		env.Set("app.tenant", "acme")

		_, ok := env.Get("app.Tenant")
		assert.False(t, ok)
	})
}

func TestEnvironmentSet(t *testing.T) {
	t.Run("overwrites well-known fields", func(t *testing.T) {
		env := NewEnvironment(context.Background(), http.MethodGet, "/a")

		env.Set(KeyRequestPath, "/b")
		env.Set(KeyResponseStatusCode, http.StatusTeapot)
		env.Set(KeyResponseReason, "short and stout")

		assert.Equal(t, "/b", env.RequestPath)
		assert.Equal(t, http.StatusTeapot, env.ResponseStatusCode)
		assert.Equal(t, "short and stout", env.ResponseReasonPhrase)
	})

	t.Run("interface-typed fields accept implementations", func(t *testing.T) {
		env := &Environment{}
		buf := &bytes.Buffer{}
		body := strings.NewReader("payload")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		env.Set(KeyResponseBody, buf)
		env.Set(KeyRequestBody, body)
		env.Set(KeyCallCancelled, ctx)

		assert.Same(t, buf, env.ResponseBody)
		assert.Same(t, body, env.RequestBody)
		assert.Equal(t, ctx, env.Context)
	})

	t.Run("wrong type for well-known key is ignored", func(t *testing.T) {
		env := NewEnvironment(context.Background(), http.MethodGet, "/a")

		env.Set(KeyRequestPath, 42)
		env.Set(KeyResponseStatusCode, "404")

		assert.Equal(t, "/a", env.RequestPath)
		assert.Equal(t, 0, env.ResponseStatusCode)
		_, ok := env.extra[KeyRequestPath]
		assert.False(t, ok)
	})

	t.Run("nil resets well-known field", func(t *testing.T) {
		env := NewEnvironment(context.Background(), http.MethodGet, "/a")

		env.Set(KeyRequestHeaders, nil)
		assert.Nil(t, env.RequestHeaders)
	})
}

func TestEnvironmentDelete(t *testing.T) {
	env := NewEnvironment(context.Background(), http.MethodGet, "/a")
	env.Set("custom", 1)

	env.Delete(KeyRequestPath)
	env.Delete("custom")
	env.Delete("missing")

	assert.Equal(t, "", env.RequestPath)
	_, ok := env.Get("custom")
	assert.False(t, ok)
}

func TestEnvironmentKeys(t *testing.T) {
	env := NewEnvironment(context.Background(), http.MethodGet, "/a")
	env.Set("zeta", true)
	env.Set("alpha", true)

	assert.Equal(t, []string{
		"alpha",
		KeyCallCancelled,
		KeyRequestHeaders,
		KeyRequestMethod,
		KeyRequestPath,
		KeyResponseHeaders,
		KeyVersion,
		"zeta",
	}, env.Keys())
}

func TestTypedAccessors(t *testing.T) {
	env := NewEnvironment(context.Background(), http.MethodGet, "/a")
	env.Set("count", 3)

	assert.Equal(t, 3, Get[int](env, "count"))
	assert.Equal(t, "/a", Get[string](env, KeyRequestPath))

	t.Run("absent key yields zero value", func(t *testing.T) {
		assert.Equal(t, "", Get[string](env, "missing"))
		assert.Nil(t, Get[http.Header](env, KeyResponseBody))

		_, ok := Lookup[int](env, "missing")
		assert.False(t, ok)
	})

	t.Run("type mismatch yields zero value", func(t *testing.T) {
		assert.Equal(t, "", Get[string](env, "count"))

		_, ok := Lookup[string](env, "count")
		assert.False(t, ok)
	})

	t.Run("nil environment", func(t *testing.T) {
		v, ok := Lookup[string](nil, KeyRequestPath)
		assert.False(t, ok)
		assert.Equal(t, "", v)
	})
}

func TestEnvironmentCtx(t *testing.T) {
	env := &Environment{}
	require.NotNil(t, env.Ctx())

	ctx, cancel := context.WithCancel(context.Background())
	env.Context = ctx
	cancel()
	assert.ErrorIs(t, env.Ctx().Err(), context.Canceled)
}

func TestEnvironmentStatusCode(t *testing.T) {
	env := &Environment{}
	assert.Equal(t, http.StatusOK, env.StatusCode())

	env.ResponseStatusCode = http.StatusAccepted
	assert.Equal(t, http.StatusAccepted, env.StatusCode())
}

func TestEnvironmentWrite(t *testing.T) {
	t.Run("without body discards", func(t *testing.T) {
		env := &Environment{}
		n, err := env.Write([]byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("with body writes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		env := &Environment{ResponseBody: buf}
		_, err := env.Write([]byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, "abc", buf.String())
	})
}
