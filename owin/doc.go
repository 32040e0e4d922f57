// Package owin defines the request/response environment exchanged between a
// host and a middleware pipeline, and the handler shapes that consume it.
//
// # Environment
//
// An Environment is created by the host for every inbound request and is
// passed by reference through the whole pipeline. Well-known values are
// typed fields; any other value is stored by string key:
//
//	env := owin.NewEnvironment(ctx, http.MethodGet, "/api/users")
//	env.Set("app.TenantID", "acme")
//	tenant := owin.Get[string](env, "app.TenantID")
//
// Absence is never an error. Get returns the zero value for missing keys and
// for values of an unexpected type; Lookup additionally reports presence.
// Well-known keys are accessible through the same API:
//
//	path := owin.Get[string](env, owin.KeyRequestPath) // same as env.RequestPath
//
// # Handlers
//
// AppFunc is the canonical handler shape. Handler and ContextAppFunc are the
// alternative shapes a pipeline can be built into:
//
//	var app owin.AppFunc = func(env *owin.Environment) error {
//	    env.ResponseStatusCode = http.StatusOK
//	    _, err := env.Write([]byte("hello"))
//	    return err
//	}
//
// # Not Found
//
// NotFound is the stateless fallback handler. It sets the response status to
// 404 Not Found (RFC 9110 Section 15.5.5) and completes without a body.
package owin
