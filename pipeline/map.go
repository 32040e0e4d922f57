package pipeline

import (
	"fmt"
	"strings"

	"github.com/vitalvas/katana/owin"
)

// MatchPath reports whether path starts with pathMatch at a segment
// boundary and returns the unmatched remainder. The comparison ignores
// case. An empty pathMatch matches every path.
//
//	MatchPath("/api/users", "/api") // "/users", true
//	MatchPath("/api", "/api")       // "", true
//	MatchPath("/api/", "/api")      // "/", true
//	MatchPath("/apis", "/api")      // "", false
func MatchPath(path, pathMatch string) (string, bool) {
	if pathMatch == "" {
		return path, true
	}

	if len(path) < len(pathMatch) || !strings.EqualFold(path[:len(pathMatch)], pathMatch) {
		return "", false
	}

	rest := path[len(pathMatch):]
	if rest != "" && rest[0] != '/' {
		return "", false
	}

	return rest, true
}

// Map registers a branch taken when the request path starts with pathMatch.
//
// pathMatch must be empty or start with "/" and must not end with "/". The
// branch is configured on a builder obtained from New and built immediately,
// so configuration errors surface here. At request time the matched prefix is
// moved from RequestPath to RequestPathBase while the branch runs and both
// are restored afterwards, whether the branch succeeds, fails or panics. An
// empty pathMatch takes the branch for every request without touching the
// paths. Requests that do not match continue with the next stage of this
// builder.
func (b *Builder) Map(pathMatch string, configure func(*Builder)) error {
	if pathMatch != "" && (pathMatch[0] != '/' || strings.HasSuffix(pathMatch, "/")) {
		return fmt.Errorf("%w: %q", ErrInvalidPathMatch, pathMatch)
	}

	if configure == nil {
		return ErrNilConfiguration
	}

	branch, app, err := b.buildBranch(configure)
	if err != nil {
		return fmt.Errorf("pipeline: map %q: %w", pathMatch, err)
	}

	mw := MiddlewareFunc(func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			remaining, ok := MatchPath(env.RequestPath, pathMatch)
			if !ok {
				return next(env)
			}

			if pathMatch == "" {
				return app(env)
			}

			path, pathBase := env.RequestPath, env.RequestPathBase
			defer func() {
				env.RequestPath = path
				env.RequestPathBase = pathBase
			}()

			env.RequestPathBase = pathBase + pathMatch
			env.RequestPath = remaining

			return app(env)
		}
	})

	b.entries = append(b.entries, entry{
		kind:       KindMap,
		name:       "map:" + pathMatch,
		middleware: mw,
		path:       pathMatch,
		branch:     branch,
	})

	b.Logger().Debug("pipeline branch registered", "path", pathMatch, "entries", branch.Len())

	return nil
}

// MapWhen registers a branch taken when predicate returns true. Requests for
// which it returns false continue with the next stage of this builder.
func (b *Builder) MapWhen(predicate func(*owin.Environment) bool, configure func(*Builder)) error {
	if predicate == nil {
		return ErrNilPredicate
	}

	return b.MapWhenErr(func(env *owin.Environment) (bool, error) {
		return predicate(env), nil
	}, configure)
}

// MapWhenErr is like MapWhen for predicates that can fail, for example
// because they block on I/O. A predicate error is returned to the caller
// without running the branch or the next stage.
func (b *Builder) MapWhenErr(predicate func(*owin.Environment) (bool, error), configure func(*Builder)) error {
	if predicate == nil {
		return ErrNilPredicate
	}

	if configure == nil {
		return ErrNilConfiguration
	}

	branch, app, err := b.buildBranch(configure)
	if err != nil {
		return fmt.Errorf("pipeline: map when: %w", err)
	}

	mw := MiddlewareFunc(func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			ok, err := predicate(env)
			if err != nil {
				return err
			}

			if ok {
				return app(env)
			}

			return next(env)
		}
	})

	b.entries = append(b.entries, entry{
		kind:       KindMapWhen,
		name:       "mapwhen:" + middlewareName(predicate),
		middleware: mw,
		branch:     branch,
	})

	b.Logger().Debug("pipeline conditional branch registered", "entries", branch.Len())

	return nil
}

func (b *Builder) buildBranch(configure func(*Builder)) (*Builder, owin.AppFunc, error) {
	branch := b.New()
	configure(branch)

	app, err := branch.BuildApp()
	if err != nil {
		return nil, nil, err
	}

	return branch, app, nil
}
