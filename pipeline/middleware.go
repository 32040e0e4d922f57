package pipeline

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/vitalvas/katana/owin"
)

// MiddlewareFunc receives the next handler and returns a handler that wraps
// it.
type MiddlewareFunc func(next owin.AppFunc) owin.AppFunc

// Middleware allows MiddlewareFunc to implement the Middleware interface.
func (mw MiddlewareFunc) Middleware(next owin.AppFunc) owin.AppFunc {
	return mw(next)
}

// Middleware is the object form of MiddlewareFunc.
type Middleware interface {
	Middleware(next owin.AppFunc) owin.AppFunc
}

// InlineFunc is middleware written as a single function that receives the
// environment together with the next handler.
type InlineFunc func(env *owin.Environment, next owin.AppFunc) error

// HandlerMiddlewareFunc wraps handlers in their object form.
type HandlerMiddlewareFunc func(next owin.Handler) owin.Handler

// ContextMiddlewareFunc wraps handlers that take an explicit context.
type ContextMiddlewareFunc func(next owin.ContextAppFunc) owin.ContextAppFunc

// Constructor creates a handler from the next handler and the arguments
// given to Use. It is called once per Build.
type Constructor func(next owin.AppFunc, args ...any) (owin.Handler, error)

// wrap resolves one registered middleware against next.
func wrap(mw any, args []any, next owin.AppFunc) (owin.AppFunc, error) {
	if isNil(mw) {
		return nil, ErrNilMiddleware
	}

	switch fn := mw.(type) {
	case Constructor:
		return construct(fn, args, next)
	case func(owin.AppFunc, ...any) (owin.Handler, error):
		return construct(fn, args, next)
	}

	if len(args) > 0 {
		return nil, ErrUnexpectedArgs
	}

	var app owin.AppFunc

	switch fn := mw.(type) {
	case MiddlewareFunc:
		app = fn(next)
	case func(owin.AppFunc) owin.AppFunc:
		app = fn(next)
	case InlineFunc:
		app = inline(fn, next)
	case func(*owin.Environment, owin.AppFunc) error:
		app = inline(fn, next)
	case HandlerMiddlewareFunc:
		app = handlerApp(fn(next))
	case func(owin.Handler) owin.Handler:
		app = handlerApp(fn(next))
	case ContextMiddlewareFunc:
		app = contextApp(fn(owin.ContextApp(next)))
	case func(owin.ContextAppFunc) owin.ContextAppFunc:
		app = contextApp(fn(owin.ContextApp(next)))
	case Middleware:
		app = fn.Middleware(next)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMiddleware, mw)
	}

	if app == nil {
		return nil, ErrNilHandler
	}

	return app, nil
}

func construct(ctor func(owin.AppFunc, ...any) (owin.Handler, error), args []any, next owin.AppFunc) (owin.AppFunc, error) {
	h, err := ctor(next, args...)
	if err != nil {
		return nil, err
	}

	app := handlerApp(h)
	if app == nil {
		return nil, ErrNilHandler
	}

	return app, nil
}

func inline(fn func(*owin.Environment, owin.AppFunc) error, next owin.AppFunc) owin.AppFunc {
	return func(env *owin.Environment) error {
		return fn(env, next)
	}
}

func handlerApp(h owin.Handler) owin.AppFunc {
	if h == nil {
		return nil
	}

	return owin.HandlerApp(h)
}

func contextApp(fn owin.ContextAppFunc) owin.AppFunc {
	if fn == nil {
		return nil
	}

	return fn.Invoke
}

// isNil reports whether mw is nil or a nil function or pointer.
func isNil(mw any) bool {
	if mw == nil {
		return true
	}

	switch v := reflect.ValueOf(mw); v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface, reflect.Map:
		return v.IsNil()
	}

	return false
}

// middlewareName returns a diagnostic name for a registered middleware.
func middlewareName(mw any) string {
	if isNil(mw) {
		return "<nil>"
	}

	if v := reflect.ValueOf(mw); v.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			return fn.Name()
		}
	}

	return fmt.Sprintf("%T", mw)
}
