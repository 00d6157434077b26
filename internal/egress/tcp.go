package egress

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// senderState is the TCP sender's connection state (spec §4.6).
type senderState int

const (
	stateDisconnected senderState = iota
	stateBackoff
	stateConnected
)

// TCPSenderOptions configures retry and connection timing for a TCPSender.
type TCPSenderOptions struct {
	MaxAttempts  int           // per-message retry ceiling, default 3
	BackoffBase  time.Duration // default 500ms
	BackoffCap   time.Duration // default 30s
	DialTimeout  time.Duration // default 5s
	WriteTimeout time.Duration // default 5s
}

func (o TCPSenderOptions) withDefaults() TCPSenderOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 500 * time.Millisecond
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 30 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	return o
}

// TCPSender owns a single connection to one destination and retries each
// message up to MaxAttempts times with exponential backoff between
// attempts. Send may be called from several goroutines: each write is
// serialized by a mutex, and a caller's Send returns only once its frame is
// written or given up on, so the order of one caller's messages is
// preserved (spec §4.6). No order is kept between different callers.
type TCPSender struct {
	Name string
	id   uuid.UUID

	addr string
	opts TCPSenderOptions

	logger *slog.Logger

	mu    sync.Mutex
	state senderState
	conn  net.Conn

	// upGauge, when non-nil, is set to 1 when connected and 0 otherwise
	// (the destination_up gauge).
	upGauge func(up bool)
}

// NewTCPSender builds a sender for addr. It does not connect eagerly; the
// first Send triggers the initial connect attempt.
func NewTCPSender(name, addr string, opts TCPSenderOptions, upGauge func(up bool), logger *slog.Logger) *TCPSender {
	id := uuid.New()
	return &TCPSender{
		Name:    name,
		id:      id,
		addr:    addr,
		opts:    opts.withDefaults(),
		upGauge: upGauge,
		logger:  logger.With("component", "egress.tcp", "destination", name, "instance", id),
		state:   stateDisconnected,
	}
}

// Send frames data with non-transparent (LF) framing, escaping any raw
// newline already present in the body (spec §4.6), and retries the write up
// to MaxAttempts times with exponential backoff. ctx cancellation aborts a
// pending backoff wait immediately.
func (s *TCPSender) Send(ctx context.Context, data []byte) error {
	frame := frameNonTransparent(data)

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if err := s.sendOnce(frame); err != nil {
			lastErr = err
			s.transitionToBackoff()
			if attempt == s.opts.MaxAttempts {
				break
			}
			wait := backoffDuration(s.opts.BackoffBase, s.opts.BackoffCap, attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("egress: destination %q: %w", s.Name, lastErr)
}

// SendOnce makes exactly one send attempt with no retry and no backoff
// wait, for best-effort delivery during pipeline shutdown drain (spec §4.7
// step 2: "no new retries").
func (s *TCPSender) SendOnce(data []byte) error {
	if err := s.sendOnce(frameNonTransparent(data)); err != nil {
		s.transitionToBackoff()
		return fmt.Errorf("egress: destination %q: %w", s.Name, err)
	}
	return nil
}

func (s *TCPSender) sendOnce(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := net.DialTimeout("tcp", s.addr, s.opts.DialTimeout)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		s.conn = conn
		s.setStateLocked(stateConnected)
	}

	if s.opts.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
	if _, err := s.conn.Write(frame); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		s.setStateLocked(stateDisconnected)
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *TCPSender) transitionToBackoff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStateLocked(stateBackoff)
}

func (s *TCPSender) setStateLocked(state senderState) {
	s.state = state
	if s.upGauge != nil {
		s.upGauge(state == stateConnected)
	}
}

// Close half-closes the write side and releases the connection (spec §4.7
// step 3: close TCP senders before listener sockets).
func (s *TCPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	var err error
	if tcpConn, ok := s.conn.(*net.TCPConn); ok {
		err = tcpConn.CloseWrite()
	}
	closeErr := s.conn.Close()
	s.conn = nil
	s.setStateLocked(stateDisconnected)
	if err != nil {
		return err
	}
	return closeErr
}

func backoffDuration(base, capDuration time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= capDuration {
			return capDuration
		}
	}
	return d
}

// frameNonTransparent appends a terminating LF, escaping any raw LF already
// present in data to a space (spec §4.6, edge case list).
func frameNonTransparent(data []byte) []byte {
	escaped := bytes.ReplaceAll(data, []byte{'\n'}, []byte{' '})
	out := make([]byte, 0, len(escaped)+1)
	out = append(out, escaped...)
	out = append(out, '\n')
	return out
}
