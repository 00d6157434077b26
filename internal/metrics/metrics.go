// Package metrics defines the Prometheus instrumentation surface described
// in spec §6, and the small HTTP server that exposes it alongside a
// liveness probe.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DropReason is a syslog_messages_dropped_total{reason} label value.
type DropReason string

const (
	DropReasonFilter     DropReason = "filter"
	DropReasonNoMatch    DropReason = "no_match"
	DropReasonParseError DropReason = "parse_error"
	DropReasonSendFailed DropReason = "send_failed"
)

// Registry bundles every metric the relay emits, registered against a
// private prometheus.Registry so repeated construction (as happens in
// tests) never collides with the global default registry.
type Registry struct {
	reg *prometheus.Registry

	MessagesReceived   *prometheus.CounterVec
	MessagesForwarded  *prometheus.CounterVec
	MessagesDropped    *prometheus.CounterVec
	ParseErrors        *prometheus.CounterVec
	DestinationUp      *prometheus.GaugeVec
	ActiveConnections  *prometheus.GaugeVec
	ProcessingLatency  *prometheus.HistogramVec
}

// New builds and registers the full metric set.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		reg: reg,
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syslog_messages_received_total",
			Help: "Total syslog messages accepted by an input listener.",
		}, []string{"protocol", "facility", "severity"}),
		MessagesForwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syslog_messages_forwarded_total",
			Help: "Total messages successfully handed to a destination sender.",
		}, []string{"destination"}),
		MessagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syslog_messages_dropped_total",
			Help: "Total messages dropped, by reason.",
		}, []string{"reason"}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syslog_messages_parse_errors_total",
			Help: "Total messages that failed to parse, by ingress protocol.",
		}, []string{"protocol"}),
		DestinationUp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "syslog_destination_up",
			Help: "Whether a TCP destination's connection is currently up (1) or not (0).",
		}, []string{"destination"}),
		ActiveConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "syslog_active_connections",
			Help: "Current accepted TCP connections, by input.",
		}, []string{"input"}),
		ProcessingLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "syslog_processing_latency_seconds",
			Help:    "Router evaluation time per record.",
			Buckets: prometheus.DefBuckets,
		}, []string{"filter"}),
	}
	return r
}

// Server exposes /metrics and /health over HTTP (spec §6).
type Server struct {
	httpServer *http.Server
	running    func() bool
}

// NewServer builds an observation endpoint server bound to addr. running is
// polled on every /health request; it should report whether the pipeline
// supervisor is currently active.
func NewServer(addr string, reg *Registry, running func() bool) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.reg, promhttp.HandlerOpts{}))

	s := &Server{running: running}
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.running != nil && !s.running() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("NOT RUNNING"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ListenAndServe starts the HTTP server. It blocks until the server stops
// and returns a non-nil error unless the stop was triggered by Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("observation endpoint: listen %s: %w", s.httpServer.Addr, err)
	}
	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
