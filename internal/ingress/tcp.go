package ingress

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TCPListener binds one TCP socket. Each accepted connection runs its own
// read loop extracting RFC 6587 frames (spec §4.5); a framing error closes
// only that connection.
type TCPListener struct {
	Name           string
	id             uuid.UUID
	addr           string
	ln             net.Listener
	handle         Handler
	maxMessageSize int
	logger         *slog.Logger

	connGauge func(delta int)

	wg sync.WaitGroup
}

// TCPListenerOptions configures a TCPListener.
type TCPListenerOptions struct {
	MaxMessageSize int // default 64 KiB if zero
	// ConnGauge, when non-nil, is called with +1 on connection accept and
	// -1 on connection close, for the active_connections gauge.
	ConnGauge func(delta int)
}

// NewTCPListener binds addr and returns a listener ready to Run.
func NewTCPListener(name, addr string, handle Handler, opts TCPListenerOptions, logger *slog.Logger) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	maxSize := opts.MaxMessageSize
	if maxSize == 0 {
		maxSize = 64 * 1024
	}
	id := uuid.New()
	return &TCPListener{
		Name:           name,
		id:             id,
		addr:           addr,
		ln:             ln,
		handle:         handle,
		maxMessageSize: maxSize,
		connGauge:      opts.ConnGauge,
		logger:         logger.With("component", "ingress.tcp", "input", name, "instance", id),
	}, nil
}

// Run accepts connections until ctx is cancelled or the listener is closed.
// It returns once every spawned connection handler has exited. A nil return
// means an orderly shutdown; a non-nil return means the listener socket
// itself died outside of that shutdown path.
func (l *TCPListener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = l.ln.Close()
	}()

	var runErr error
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				runErr = err
				break
			}
			l.logger.Warn("accept error", "err", err)
			continue
		}
		l.wg.Add(1)
		if l.connGauge != nil {
			l.connGauge(1)
		}
		go l.handleConn(ctx, conn)
	}
	l.wg.Wait()
	return runErr
}

func (l *TCPListener) handleConn(ctx context.Context, conn net.Conn) {
	defer l.wg.Done()
	defer conn.Close()
	if l.connGauge != nil {
		defer l.connGauge(-1)
	}

	remote := conn.RemoteAddr()
	l.logger.Debug("connection accepted", "remote", remote)

	go func() {
		<-ctx.Done()
		_ = conn.SetDeadline(time.Now())
	}()

	reader := bufio.NewReader(conn)
	for {
		frame, err := readFrame(reader, l.maxMessageSize)
		if err != nil {
			if !isBenignConnClose(err) {
				l.logger.Debug("framing error, closing connection", "remote", remote, "err", err)
			}
			return
		}
		l.handle(frame, "tcp")
	}
}

func isBenignConnClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Close closes the underlying listener immediately.
func (l *TCPListener) Close() error {
	return l.ln.Close()
}

// LocalAddr returns the bound listener address, useful when Address was
// configured with an ephemeral port (":0").
func (l *TCPListener) LocalAddr() string {
	return l.ln.Addr().String()
}
