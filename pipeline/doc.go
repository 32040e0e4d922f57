// Package pipeline composes middleware into a single request handler and
// routes requests into branch pipelines by path prefix or predicate.
//
// # Builder
//
// A Builder records middleware in registration order. Build folds the
// registrations from last to first around a terminal handler, so the first
// registered middleware is the outermost one: it sees the request first and
// the response last.
//
//	b := pipeline.NewBuilder()
//	b.Use(pipeline.MiddlewareFunc(func(next owin.AppFunc) owin.AppFunc {
//	    return func(env *owin.Environment) error {
//	        // before
//	        err := next(env)
//	        // after
//	        return err
//	    }
//	}))
//	b.Run(func(env *owin.Environment) error {
//	    env.ResponseStatusCode = http.StatusOK
//	    return nil
//	})
//
//	app, err := b.BuildApp()
//
// The terminal handler is the PropertyDefaultApp property when set, and
// owin.NotFound otherwise. Build can be called any number of times; each call
// produces an independent chain from the same registrations.
//
// # Middleware Forms
//
// Use accepts the following forms:
//
//	MiddlewareFunc         func(next owin.AppFunc) owin.AppFunc
//	Middleware             interface{ Middleware(next owin.AppFunc) owin.AppFunc }
//	InlineFunc             func(env *owin.Environment, next owin.AppFunc) error
//	HandlerMiddlewareFunc  func(next owin.Handler) owin.Handler
//	ContextMiddlewareFunc  func(next owin.ContextAppFunc) owin.ContextAppFunc
//	Constructor            func(next owin.AppFunc, args ...any) (owin.Handler, error)
//
// Registration never fails. A registration of any other type, arguments given
// to a form other than Constructor, or a middleware that returns a nil handler
// make Build return a *BuildError that unwraps to ErrUnsupportedMiddleware,
// ErrUnexpectedArgs or ErrNilHandler.
//
// # Shapes
//
// Build produces an owin.AppFunc, owin.Handler or owin.ContextAppFunc
// depending on the requested Shape.
//
// # Branches
//
// Map installs a single stage that diverts requests whose path starts with a
// prefix at a segment boundary into a separately configured pipeline:
//
//	err := b.Map("/api", func(api *pipeline.Builder) {
//	    api.Use(authMiddleware)
//	    api.Run(apiHandler)
//	})
//
// "/api" matches "/api" and "/api/users" but not "/apis". While the branch
// runs RequestPathBase gains "/api" and RequestPath keeps the remainder; both
// are restored when the branch returns, fails or panics. Requests that do not
// match continue with the stage registered after Map.
//
// MapWhen and MapWhenErr branch on an arbitrary predicate and leave the paths
// untouched.
//
// Branch builders come from New: they share the parent's Properties but not
// its middleware.
//
// # Properties
//
// Properties is shared by a builder and all builders derived from it. Well
// known keys hold the default app, the server capabilities, the application
// name and the *slog.Logger used for configuration diagnostics.
//
// # Stage Markers
//
// UseStageMarker records a lifecycle stage (Authenticate, Authorize,
// PreHandlerExecute, ...) for the middleware registered before it. Markers
// out of lifecycle order are coalesced into the previous stage and logged.
//
// # Describe
//
// Describe returns the registrations, including branches, in a form that can
// be encoded as YAML:
//
//	fmt.Println(b.Describe())
package pipeline
