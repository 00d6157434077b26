package ingress

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/google/uuid"
)

// maxUDPRead caps the per-datagram read buffer (spec §4.5: oversize
// datagrams beyond 64 KiB are accepted as-is if the kernel delivered them,
// so the buffer is sized generously above the typical path MTU ceiling).
const maxUDPRead = 64 * 1024

// Handler receives one fully-framed message from an input, tagged with the
// protocol it arrived on.
type Handler func(data []byte, protocol string)

// UDPListener binds one UDP socket and hands each datagram, unparsed, to a
// Handler. There is no framing state: spec §4.5 treats each datagram as
// exactly one message.
type UDPListener struct {
	Name   string
	id     uuid.UUID
	addr   string
	conn   *net.UDPConn
	handle Handler
	logger *slog.Logger
}

// NewUDPListener binds addr and returns a listener ready to Run.
func NewUDPListener(name, addr string, handle Handler, logger *slog.Logger) (*UDPListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	return &UDPListener{
		Name:   name,
		id:     id,
		addr:   addr,
		conn:   conn,
		handle: handle,
		logger: logger.With("component", "ingress.udp", "input", name, "instance", id),
	}, nil
}

// Run reads datagrams until ctx is cancelled or the socket is closed. It
// returns nil on an orderly shutdown (ctx cancelled) and a non-nil error if
// the socket died for any other reason, so a caller running several
// listeners under an errgroup.Group learns about a dead listener instead of
// it silently going quiet.
func (l *UDPListener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = l.conn.Close()
	}()

	buf := make([]byte, maxUDPRead)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			l.logger.Warn("udp read error", "err", err)
			continue
		}
		if n == 0 {
			// A zero-length datagram parses to a parse error (spec §8),
			// not a crash; hand it straight to the caller.
			l.handle(nil, "udp")
			continue
		}
		msg := make([]byte, n)
		copy(msg, buf[:n])
		l.handle(msg, "udp")
	}
}

// Close closes the underlying socket immediately.
func (l *UDPListener) Close() error {
	return l.conn.Close()
}

// LocalAddr returns the bound socket address, useful when Address was
// configured with an ephemeral port (":0").
func (l *UDPListener) LocalAddr() string {
	return l.conn.LocalAddr().String()
}
