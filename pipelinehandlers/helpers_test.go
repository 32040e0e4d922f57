package pipelinehandlers

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// serve builds a pipeline of mw followed by app and runs it against env.
func serve(t *testing.T, mw pipeline.MiddlewareFunc, app owin.AppFunc, env *owin.Environment) error {
	t.Helper()

	b := pipeline.NewBuilder()
	b.Use(mw)
	if app != nil {
		b.Run(app)
	}

	built, err := b.BuildApp()
	require.NoError(t, err)

	return built(env)
}

func newEnv(method, path string) (*owin.Environment, *bytes.Buffer) {
	body := &bytes.Buffer{}
	env := owin.NewEnvironment(context.Background(), method, path)
	env.ResponseBody = body

	return env, body
}

func okApp(env *owin.Environment) error {
	env.ResponseStatusCode = 200
	return nil
}
