// Package metrics owns the prometheus registry and every counter the
// pipeline increments. The registry is constructed explicitly and passed to
// components at startup; nothing in this package is process-global.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the pipeline counters around one owned registry.
type Metrics struct {
	registry *prometheus.Registry

	Messages      *prometheus.CounterVec
	Malformed     *prometheus.CounterVec
	Reconnects    *prometheus.CounterVec
	QueueDropped  prometheus.Counter
	SinkDropped   prometheus.Counter
	Opportunities prometheus.Counter
	SimTrades     prometheus.Counter
}

// New creates a Metrics with a fresh registry and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_messages_total",
			Help: "book-affecting messages parsed per exchange",
		}, []string{"exchange"}),
		Malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_malformed_total",
			Help: "messages dropped due to malformed payloads per exchange",
		}, []string{"exchange"}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_reconnects_total",
			Help: "reconnect attempts per exchange",
		}, []string{"exchange"}),
		QueueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "normalization_queue_dropped_total",
			Help: "updates shed because the normalization queue was full",
		}),
		SinkDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sink_dropped_total",
			Help: "opportunities shed because the sink dispatcher was full",
		}),
		Opportunities: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opportunities_detected_total",
			Help: "arbitrage opportunities above threshold",
		}),
		SimTrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simulated_trades_total",
			Help: "trades executed by the simulator",
		}),
	}

	m.registry.MustRegister(
		m.Messages, m.Malformed, m.Reconnects,
		m.QueueDropped, m.SinkDropped, m.Opportunities, m.SimTrades,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the owned registry for the HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Serve runs a /metrics HTTP endpoint on the given port until ctx is
// cancelled.
func (m *Metrics) Serve(ctx context.Context, port int, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("metrics server listening", slog.Int("port", port))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}
