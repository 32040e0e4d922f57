package pipelinehandlers

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitalvas/katana/owin"
	"github.com/vitalvas/katana/pipeline"
)

// MetricsConfig configures the Metrics middleware behaviour.
type MetricsConfig struct {
	// Registerer receives the collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// Namespace and Subsystem prefix the metric names.
	Namespace string
	Subsystem string

	// Buckets are the request duration histogram buckets in seconds.
	// Defaults to prometheus.DefBuckets.
	Buckets []float64

	// ConstLabels are attached to every series, for example the name of
	// the branch the middleware is registered in.
	ConstLabels prometheus.Labels
}

// MetricsMiddleware returns a middleware that records a requests_total
// counter and a request_duration_seconds histogram, both labelled by method
// and status code. A request that ends in an error is recorded with status
// "error".
//
// It returns the registration error when the collectors cannot be
// registered, for example because they already are.
func MetricsMiddleware(cfg MetricsConfig) (pipeline.MiddlewareFunc, error) {
	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "requests_total",
		Help:        "Total number of requests processed by the pipeline.",
		ConstLabels: cfg.ConstLabels,
	}, []string{"method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   cfg.Namespace,
		Subsystem:   cfg.Subsystem,
		Name:        "request_duration_seconds",
		Help:        "Time spent processing requests in the pipeline.",
		Buckets:     buckets,
		ConstLabels: cfg.ConstLabels,
	}, []string{"method", "status"})

	if err := registerer.Register(requests); err != nil {
		return nil, err
	}

	if err := registerer.Register(duration); err != nil {
		registerer.Unregister(requests)
		return nil, err
	}

	return func(next owin.AppFunc) owin.AppFunc {
		return func(env *owin.Environment) error {
			start := time.Now()
			method := env.RequestMethod

			err := next(env)

			status := "error"
			if err == nil {
				status = strconv.Itoa(env.StatusCode())
			}

			requests.WithLabelValues(method, status).Inc()
			duration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())

			return err
		}
	}, nil
}
