package owin

import (
	"context"
	"net/http"
)

// AppFunc processes one exchange. A nil return reports success; a non-nil
// error is a request-time fault that propagates to the caller.
type AppFunc func(env *Environment) error

// Invoke calls f(env).
func (f AppFunc) Invoke(env *Environment) error {
	return f(env)
}

// Handler is the object form of AppFunc.
type Handler interface {
	Invoke(env *Environment) error
}

// ContextAppFunc is an AppFunc that receives the cancellation context as an
// explicit argument.
type ContextAppFunc func(ctx context.Context, env *Environment) error

// Invoke calls f with the environment's context.
func (f ContextAppFunc) Invoke(env *Environment) error {
	return f(env.Ctx(), env)
}

// HandlerApp adapts a Handler to an AppFunc. An AppFunc is returned as is.
func HandlerApp(h Handler) AppFunc {
	if app, ok := h.(AppFunc); ok {
		return app
	}

	return h.Invoke
}

// ContextApp adapts an AppFunc to a ContextAppFunc. The context argument
// replaces env.Context for the duration of the call.
func ContextApp(app AppFunc) ContextAppFunc {
	return func(ctx context.Context, env *Environment) error {
		if ctx == nil {
			return app(env)
		}

		prev := env.Context
		env.Context = ctx
		defer func() { env.Context = prev }()

		return app(env)
	}
}

// NotFound is the terminal handler used when no application handler is
// configured. It sets the response status to 404 and writes nothing.
var NotFound AppFunc = notFound

func notFound(env *Environment) error {
	if env != nil {
		env.ResponseStatusCode = http.StatusNotFound
	}

	return nil
}
