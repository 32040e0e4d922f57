package pipeline

import (
	"fmt"

	"github.com/vitalvas/katana/owin"
)

// Shape selects the handler type produced by Build.
type Shape int

const (
	// ShapeAppFunc builds an owin.AppFunc.
	ShapeAppFunc Shape = iota

	// ShapeHandler builds an owin.Handler.
	ShapeHandler

	// ShapeContextFunc builds an owin.ContextAppFunc.
	ShapeContextFunc
)

func (s Shape) String() string {
	switch s {
	case ShapeAppFunc:
		return "AppFunc"
	case ShapeHandler:
		return "Handler"
	case ShapeContextFunc:
		return "ContextAppFunc"
	}

	return fmt.Sprintf("Shape(%d)", int(s))
}

func (s Shape) valid() bool {
	return s >= ShapeAppFunc && s <= ShapeContextFunc
}

// convert adapts the composed app to the requested shape.
func convert(app owin.AppFunc, shape Shape) (any, error) {
	switch shape {
	case ShapeAppFunc:
		return app, nil
	case ShapeHandler:
		return owin.Handler(app), nil
	case ShapeContextFunc:
		return owin.ContextApp(app), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedShape, shape)
}

// asApp adapts a default app property value to an owin.AppFunc.
func asApp(v any) (owin.AppFunc, error) {
	switch app := v.(type) {
	case owin.AppFunc:
		if app != nil {
			return app, nil
		}
	case func(*owin.Environment) error:
		if app != nil {
			return app, nil
		}
	case owin.ContextAppFunc:
		if app != nil {
			return app.Invoke, nil
		}
	case owin.Handler:
		if !isNil(app) {
			return owin.HandlerApp(app), nil
		}
	default:
		return nil, fmt.Errorf("%w: default app of type %T", ErrUnsupportedShape, v)
	}

	return nil, fmt.Errorf("%w: default app is nil", ErrUnsupportedShape)
}
