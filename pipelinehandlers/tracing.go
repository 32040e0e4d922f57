package pipelinehandlers

import (
	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vitalvas/katana/pipelinehandlers"

// TracingConfig configures the Tracing middleware behaviour.
type TracingConfig struct {
	// TracerProvider creates the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// SpanNameFunc overrides the span name. Defaults to
	// "METHOD pathbase+path".
	SpanNameFunc func(env *owin.Environment) string

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// TracingMiddleware returns a middleware that wraps the downstream handlers
// in a server span. The span context replaces env.Context for the duration
// of the call so that downstream handlers create child spans. Errors are
// recorded on the span and 5xx responses mark it as failed.
func TracingMiddleware(cfg TracingConfig) pipeline.MiddlewareFunc {
	provider := cfg.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	tracer := provider.Tracer(tracerName)

	spanName := cfg.SpanNameFunc
	if spanName == nil {
		spanName = defaultSpanName
	}

	extra := cfg.Attributes

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			parent := env.Context
			ctx, span := tracer.Start(env.Ctx(), spanName(env), trace.WithSpanKind(trace.SpanKindServer))
			defer func() {
				span.End()
				env.Context = parent
			}()

			attrs := make([]attribute.KeyValue, 0, 4+len(extra))
			attrs = append(attrs,
				attribute.String("http.request.method", env.RequestMethod),
				attribute.String("url.path", env.RequestPathBase+env.RequestPath),
			)
			if env.RequestScheme != "" {
				attrs = append(attrs, attribute.String("url.scheme", env.RequestScheme))
			}
			if env.RequestID != "" {
				attrs = append(attrs, attribute.String("http.request.id", env.RequestID))
			}
			attrs = append(attrs, extra...)
			span.SetAttributes(attrs...)

			env.Context = ctx

			err := next(env)

			status := env.StatusCode()
			span.SetAttributes(attribute.Int("http.response.status_code", status))

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case status >= 500:
				span.SetStatus(codes.Error, "")
			}

			return err
		}
	}
}

func defaultSpanName(env *owin.Environment) string {
	return env.RequestMethod + " " + env.RequestPathBase + env.RequestPath
}
