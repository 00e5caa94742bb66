package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	toolCalls       *prometheus.CounterVec
	connectAttempts *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_requests_total",
			Help: "JSON-RPC requests handled, by method and outcome.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcp_request_duration_seconds",
			Help:    "Time spent handling a JSON-RPC request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "Tool invocations, by tool and outcome.",
		}, []string{"tool", "status"}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_db_connect_attempts_total",
			Help: "Database connection attempts, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(m.requests, m.requestDuration, m.toolCalls, m.connectAttempts)
	return m
}

func (m *Metrics) observeRequest(method string, start time.Time, failed bool) {
	if m == nil {
		return
	}
	switch method {
	case "initialize", "ping", "tools/list", "tools/call":
	default:
		method = "unknown"
	}
	m.requests.WithLabelValues(method, statusLabel(failed)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, statusLabel(failed)).Inc()
}

func (m *Metrics) observeConnect(result string) {
	if m == nil {
		return
	}
	m.connectAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func statusLabel(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}

// serveMetrics exposes /metrics on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, m *Metrics, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
