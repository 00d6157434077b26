package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunseba/syslog-forwarder/internal/ingress"
	"github.com/brunseba/syslog-forwarder/internal/metrics"
)

// DefaultShutdownGrace is used when a configuration snapshot leaves the
// service's shutdown grace period unset.
const DefaultShutdownGrace = 5 * time.Second

// Supervisor starts a Pipeline's listeners and the observation endpoint,
// then runs until Stop is called, implementing the ordered shutdown from
// spec §4.7.
type Supervisor struct {
	pipeline *Pipeline
	logger   *slog.Logger

	udpListeners []*ingress.UDPListener
	tcpListeners []*ingress.TCPListener

	obsServer *metrics.Server

	listenCtx    context.Context
	cancelListen context.CancelFunc
	group        *errgroup.Group

	draining      atomic.Bool
	running       atomic.Bool
	shutdownGrace time.Duration

	mu sync.Mutex
}

// NewSupervisor builds the ingress side of p and an observation endpoint,
// ready to Start.
func NewSupervisor(p *Pipeline, logger *slog.Logger) (*Supervisor, error) {
	s := &Supervisor{pipeline: p, logger: logger}

	grace := secondsToDuration(p.snapshot.Service.ShutdownGraceSeconds)
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	s.shutdownGrace = grace

	for _, in := range p.snapshot.Inputs {
		switch in.Protocol {
		case "udp":
			l, err := ingress.NewUDPListener(in.Name, in.Address, s.handlerFor(), logger)
			if err != nil {
				return nil, fmt.Errorf("pipeline: input %q: %w", in.Name, err)
			}
			s.udpListeners = append(s.udpListeners, l)
		case "tcp":
			inputName := in.Name
			opts := ingress.TCPListenerOptions{
				MaxMessageSize: in.MaxMessageSize,
				ConnGauge: func(delta int) {
					p.metrics.ActiveConnections.WithLabelValues(inputName).Add(float64(delta))
				},
			}
			l, err := ingress.NewTCPListener(in.Name, in.Address, s.handlerFor(), opts, logger)
			if err != nil {
				return nil, fmt.Errorf("pipeline: input %q: %w", in.Name, err)
			}
			s.tcpListeners = append(s.tcpListeners, l)
		default:
			return nil, fmt.Errorf("pipeline: input %q: unknown protocol %q", in.Name, in.Protocol)
		}
	}

	if p.snapshot.Service.ObservationAddress != "" {
		s.obsServer = metrics.NewServer(p.snapshot.Service.ObservationAddress, p.metrics, s.running.Load)
	}

	return s, nil
}

func (s *Supervisor) handlerFor() ingress.Handler {
	return func(data []byte, protocol string) {
		s.pipeline.process(s.listenCtx, data, protocol, &s.draining)
	}
}

// Start launches every listener and the observation endpoint. It returns
// immediately; use Stop to shut down.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	s.listenCtx, s.cancelListen = context.WithCancel(ctx)
	group, _ := errgroup.WithContext(context.Background())
	s.group = group
	s.mu.Unlock()

	for _, l := range s.udpListeners {
		l := l
		group.Go(func() error {
			err := l.Run(s.listenCtx)
			if err != nil {
				s.cancelListen()
			}
			return err
		})
	}
	for _, l := range s.tcpListeners {
		l := l
		group.Go(func() error {
			err := l.Run(s.listenCtx)
			if err != nil {
				s.cancelListen()
			}
			return err
		})
	}

	s.running.Store(true)

	if s.obsServer != nil {
		go func() {
			if err := s.obsServer.ListenAndServe(); err != nil {
				s.logger.Error("observation endpoint stopped unexpectedly", "err", err)
			}
		}()
	}
}

// Stop executes the ordered shutdown from spec §4.7: stop accepting new
// work, drain in-flight records with a best-effort single emission
// attempt, close TCP senders and listener sockets, then stop the
// observation endpoint. Every step always runs: waiting for the listeners
// to drain is bounded by the shutdown grace period, and stopping the
// observation endpoint is bounded by a second grace period of its own.
func (s *Supervisor) Stop() {
	s.draining.Store(true)
	s.running.Store(false)

	s.cancelListen()

	done := make(chan struct{})
	var groupErr error
	go func() {
		groupErr = s.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		if groupErr != nil {
			s.logger.Error("a listener stopped unexpectedly before shutdown", "err", groupErr)
		}
	case <-time.After(s.shutdownGrace):
		s.logger.Warn("shutdown grace period elapsed before listeners drained")
	}

	for _, dest := range s.pipeline.destinations {
		if dest.tcp != nil {
			_ = dest.tcp.Close()
		}
		if dest.udp != nil {
			_ = dest.udp.Close()
		}
	}

	for _, l := range s.udpListeners {
		_ = l.Close()
	}
	for _, l := range s.tcpListeners {
		_ = l.Close()
	}

	if s.obsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
		defer cancel()
		if err := s.obsServer.Shutdown(ctx); err != nil {
			s.logger.Warn("observation endpoint shutdown error", "err", err)
		}
	}
}

// Running reports whether the supervisor is currently accepting work.
func (s *Supervisor) Running() bool {
	return s.running.Load()
}
