package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPathMatch is returned by Map when the path is not empty and
	// either does not start with "/" or ends with "/".
	ErrInvalidPathMatch = errors.New("pipeline: path match must be empty or start with '/' and must not end with '/'")

	// ErrNilConfiguration is returned by Map and MapWhen when the branch
	// configuration function is nil.
	ErrNilConfiguration = errors.New("pipeline: branch configuration is nil")

	// ErrNilPredicate is returned by MapWhen when the predicate is nil.
	ErrNilPredicate = errors.New("pipeline: branch predicate is nil")

	// ErrNilMiddleware is reported by Build for a nil registration.
	ErrNilMiddleware = errors.New("pipeline: middleware is nil")

	// ErrUnsupportedMiddleware is reported by Build for a registration whose
	// type is not one of the supported middleware forms.
	ErrUnsupportedMiddleware = errors.New("pipeline: unsupported middleware type")

	// ErrUnexpectedArgs is reported by Build when arguments were registered
	// with a middleware form other than Constructor.
	ErrUnexpectedArgs = errors.New("pipeline: arguments are only accepted by constructor middleware")

	// ErrNilHandler is reported by Build when a middleware produced a nil
	// handler.
	ErrNilHandler = errors.New("pipeline: middleware produced a nil handler")

	// ErrUnsupportedShape is returned by Build for an unknown target shape
	// or a default app of an unsupported type.
	ErrUnsupportedShape = errors.New("pipeline: unsupported handler shape")

	// ErrInvalidStage is reported for an unknown pipeline stage name.
	ErrInvalidStage = errors.New("pipeline: unknown pipeline stage")
)

// BuildError describes a registration that could not be turned into a
// handler. It unwraps to the underlying cause.
type BuildError struct {
	// Index is the registration position of the failing entry.
	Index int

	// Name is the diagnostic name of the failing entry.
	Name string

	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pipeline: build entry %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
