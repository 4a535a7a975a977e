package watch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts watch-mode work for Prometheus scraping. All fields are
// registered on a private registry so tests and embedders never collide
// with the global one.
type Metrics struct {
	registry    *prometheus.Registry
	reoptimized prometheus.Counter
	tokensSaved prometheus.Counter
	duration    prometheus.Histogram
}

// NewMetrics creates the watch metrics set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reoptimized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "semtrim",
			Subsystem: "watch",
			Name:      "files_reoptimized_total",
			Help:      "Files re-optimized after a change.",
		}),
		tokensSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "semtrim",
			Subsystem: "watch",
			Name:      "tokens_saved_total",
			Help:      "Tokens removed across re-optimizations.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semtrim",
			Subsystem: "watch",
			Name:      "optimize_duration_seconds",
			Help:      "Time spent re-optimizing one file.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.reoptimized, m.tokensSaved, m.duration)
	return m
}

// Observe records one re-optimization. Negative savings count as zero:
// a file can only grow when a previous marker was edited by hand, and
// the counter must stay monotonic.
func (m *Metrics) Observe(saved int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reoptimized.Inc()
	if saved > 0 {
		m.tokensSaved.Add(float64(saved))
	}
	m.duration.Observe(elapsed.Seconds())
}

// Handler returns the scrape handler for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until the context is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
