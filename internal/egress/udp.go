// Package egress implements the per-destination senders described in spec
// §4.6: a one-shot UDP sender and a reconnecting, retrying TCP sender.
package egress

import (
	"log/slog"
	"net"

	"github.com/google/uuid"
)

// UDPSender sends one datagram per message with no retry; UDP loss is
// accepted semantics (spec §4.6).
type UDPSender struct {
	Name   string
	id     uuid.UUID
	conn   *net.UDPConn
	logger *slog.Logger
}

// NewUDPSender resolves addr and opens a connected UDP socket for sending.
func NewUDPSender(name, addr string, logger *slog.Logger) (*UDPSender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	return &UDPSender{
		Name:   name,
		id:     id,
		conn:   conn,
		logger: logger.With("component", "egress.udp", "destination", name, "instance", id),
	}, nil
}

// Send writes one datagram. A failure is logged here at warn level and
// returned for the caller to count; Send never retries.
func (s *UDPSender) Send(data []byte) error {
	_, err := s.conn.Write(data)
	if err != nil {
		s.logger.Warn("udp send failed", "err", err)
	}
	return err
}

// Close closes the underlying socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
