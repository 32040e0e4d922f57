package pipeline

import (
	"log/slog"

	"github.com/vitalvas/katana/owin"
)

// Kind identifies how a pipeline entry was registered.
type Kind string

const (
	KindUse     Kind = "use"
	KindRun     Kind = "run"
	KindMap     Kind = "map"
	KindMapWhen Kind = "mapwhen"
	KindStage   Kind = "stage"
)

// entry is one registration. Entries are immutable once appended.
type entry struct {
	kind       Kind
	name       string
	middleware any
	args       []any

	// path is the path match of a KindMap entry.
	path string

	// stage is the raw stage name of a KindStage entry.
	stage string

	// branch is the builder of a KindMap or KindMapWhen entry.
	branch *Builder
}

// Builder accumulates middleware registrations and composes them into a
// single handler.
//
//	b := pipeline.NewBuilder()
//	b.Use(loggingMiddleware)
//	b.Run(app)
//	handler, err := b.BuildApp()
//
// A Builder is configured from a single goroutine. The handlers it builds are
// safe for concurrent use as long as the registered middleware is.
type Builder struct {
	props   *Properties
	parent  *Builder
	entries []entry
}

var discardLogger = slog.New(slog.DiscardHandler)

// NewBuilder returns a root builder with an empty property store.
func NewBuilder() *Builder {
	return &Builder{props: NewProperties()}
}

// New returns a builder that shares this builder's properties but starts
// with an empty registry. It is used to construct branch pipelines.
func (b *Builder) New() *Builder {
	return &Builder{
		props:  b.props,
		parent: b,
	}
}

// Properties returns the property store shared with derived builders.
func (b *Builder) Properties() *Properties {
	return b.props
}

// Parent returns the builder this builder was derived from, or nil for a
// root builder.
func (b *Builder) Parent() *Builder {
	return b.parent
}

// Len returns the number of registered entries.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Logger returns the logger stored under PropertyTraceOutput, or a logger
// that discards everything.
func (b *Builder) Logger() *slog.Logger {
	if l := Property[*slog.Logger](b.props, PropertyTraceOutput); l != nil {
		return l
	}

	return discardLogger
}

// SetLogger stores l under PropertyTraceOutput and returns the builder.
func (b *Builder) SetLogger(l *slog.Logger) *Builder {
	b.props.Set(PropertyTraceOutput, l)
	return b
}

// SetDefaultApp stores app under PropertyDefaultApp and returns the builder.
func (b *Builder) SetDefaultApp(app owin.AppFunc) *Builder {
	b.props.Set(PropertyDefaultApp, app)
	return b
}

// Capabilities returns the server capability map, creating it on first use.
func (b *Builder) Capabilities() Capabilities {
	v, _ := b.props.LoadOrStore(PropertyCapabilities, Capabilities{})
	if caps, ok := v.(Capabilities); ok {
		return caps
	}

	if m, ok := v.(map[string]any); ok {
		return Capabilities(m)
	}

	return nil
}

// Use appends a middleware registration and returns the builder.
//
// The middleware must be one of MiddlewareFunc, Middleware, InlineFunc,
// HandlerMiddlewareFunc, ContextMiddlewareFunc or Constructor (or the
// equivalent unnamed function types). Only a Constructor accepts args; they
// are passed to it on every Build. Registrations are not validated here:
// unsupported types are reported by Build.
func (b *Builder) Use(middleware any, args ...any) *Builder {
	return b.UseNamed(middlewareName(middleware), middleware, args...)
}

// UseNamed is like Use with an explicit diagnostic name.
func (b *Builder) UseNamed(name string, middleware any, args ...any) *Builder {
	b.entries = append(b.entries, entry{
		kind:       KindUse,
		name:       name,
		middleware: middleware,
		args:       args,
	})

	return b
}

// Run registers app as a terminal stage. Stages registered after it are
// never reached.
func (b *Builder) Run(app owin.AppFunc) *Builder {
	var mw any
	if app != nil {
		mw = MiddlewareFunc(func(owin.AppFunc) owin.AppFunc { return app })
	}

	b.entries = append(b.entries, entry{
		kind:       KindRun,
		name:       middlewareName(app),
		middleware: mw,
	})

	return b
}

// Build composes the registered entries into a handler of the given shape.
//
// Entries are wrapped from the last registered to the first, starting from
// the default app (PropertyDefaultApp) or owin.NotFound. The first registered
// middleware is therefore the outermost one. The registry is not modified,
// so Build may be called repeatedly; every call produces a fresh chain and
// calls constructors again.
func (b *Builder) Build(shape Shape) (any, error) {
	if !shape.valid() {
		return nil, ErrUnsupportedShape
	}

	app, err := b.compose()
	if err != nil {
		return nil, err
	}

	return convert(app, shape)
}

// BuildApp is Build(ShapeAppFunc) with a typed result.
func (b *Builder) BuildApp() (owin.AppFunc, error) {
	return b.compose()
}

func (b *Builder) compose() (owin.AppFunc, error) {
	app, err := b.seed()
	if err != nil {
		return nil, err
	}

	if _, err := b.resolveStages(true); err != nil {
		return nil, err
	}

	for i := len(b.entries) - 1; i >= 0; i-- {
		e := b.entries[i]
		if e.kind == KindStage {
			continue
		}

		next, err := wrap(e.middleware, e.args, app)
		if err != nil {
			return nil, &BuildError{Index: i, Name: e.name, Err: err}
		}

		app = next
	}

	b.Logger().Debug("pipeline built",
		"app", Property[string](b.props, PropertyAppName),
		"entries", len(b.entries),
		"branch", b.parent != nil,
	)

	return app, nil
}

func (b *Builder) seed() (owin.AppFunc, error) {
	v, ok := b.props.Get(PropertyDefaultApp)
	if !ok || v == nil {
		return owin.NotFound, nil
	}

	return asApp(v)
}
