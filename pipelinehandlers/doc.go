// Package pipelinehandlers provides middleware for pipeline builders.
//
// Every middleware is created from a configuration struct. Constructors that
// can reject their configuration return the error up front, so invalid
// settings fail while the pipeline is being assembled rather than per
// request.
//
// # Recovery Middleware
//
// RecoveryMiddleware turns panics in downstream handlers into 500 Internal
// Server Error responses. With HandleErrors it does the same for returned
// errors. Register it first so that it sees faults from every later stage,
// including branches:
//
//	b := pipeline.NewBuilder()
//	b.Use(pipelinehandlers.RecoveryMiddleware(pipelinehandlers.RecoveryConfig{
//	    HandleErrors: true,
//	    LogFunc: func(env *owin.Environment, err any) {
//	        slog.Error("request failed", "path", env.RequestPath, "error", err)
//	    },
//	}))
//
// # Basic Auth Middleware
//
// BasicAuthMiddleware implements HTTP Basic Authentication per RFC 7617.
// Credentials can be validated via a dynamic callback or a static map.
// Static credential comparison uses constant-time comparison to prevent
// timing attacks. It is typically registered inside a Map branch:
//
//	mw, err := pipelinehandlers.BasicAuthMiddleware(pipelinehandlers.BasicAuthConfig{
//	    Realm: "Admin",
//	    Credentials: map[string]string{
//	        "admin": "secret",
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = b.Map("/admin", func(admin *pipeline.Builder) {
//	    admin.Use(mw)
//	    admin.Run(adminApp)
//	})
//
// # Proxy Headers Middleware
//
// ProxyHeadersMiddleware applies X-Forwarded-* headers from trusted peers.
// Hosts store the peer address under KeyRemoteIPAddress before invoking the
// pipeline. X-Forwarded-Prefix is prepended to RequestPathBase, so branches
// registered with Map see the externally visible base path:
//
//	env.Set(pipelinehandlers.KeyRemoteIPAddress, r.RemoteAddr)
//
// # Observability
//
// AccessLogMiddleware writes one log/slog record per request,
// MetricsMiddleware records Prometheus request counters and latency
// histograms, and TracingMiddleware wraps each request in an OpenTelemetry
// server span whose context is visible to downstream handlers through
// env.Ctx():
//
//	metrics, err := pipelinehandlers.MetricsMiddleware(pipelinehandlers.MetricsConfig{
//	    Registerer: registry,
//	    Namespace:  "app",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b.Use(pipelinehandlers.TracingMiddleware(pipelinehandlers.TracingConfig{}))
//	b.Use(metrics)
//	b.Use(pipelinehandlers.AccessLogMiddleware(pipelinehandlers.AccessLogConfig{}))
package pipelinehandlers
