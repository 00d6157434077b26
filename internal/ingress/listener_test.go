package ingress

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/brunseba/syslog-forwarder/internal/logging"
)

func TestUDPListenerDeliversDatagrams(t *testing.T) {
	var mu sync.Mutex
	var received [][]byte

	l, err := NewUDPListener("test", "127.0.0.1:0", func(data []byte, protocol string) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, data)
	}, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	conn, err := net.Dial("udp", l.conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("<14>hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || string(received[0]) != "<14>hello" {
		t.Fatalf("unexpected received data: %v", received)
	}
}

func TestTCPListenerDeliversFrames(t *testing.T) {
	var mu sync.Mutex
	var received []string

	l, err := NewTCPListener("test", "127.0.0.1:0", func(data []byte, protocol string) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(data))
	}, TCPListenerOptions{}, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	defer cancel()

	conn, err := net.Dial("tcp", l.ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := conn.Write([]byte("<14>first\n<14>second\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(received)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	conn.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 || received[0] != "<14>first" || received[1] != "<14>second" {
		t.Fatalf("unexpected received frames: %v", received)
	}
}

func TestTCPListenerTracksConnectionGauge(t *testing.T) {
	var mu sync.Mutex
	delta := 0

	l, err := NewTCPListener("test", "127.0.0.1:0", func(data []byte, protocol string) {}, TCPListenerOptions{
		ConnGauge: func(d int) {
			mu.Lock()
			defer mu.Unlock()
			delta += d
		},
	}, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	conn, err := net.Dial("tcp", l.ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		d := delta
		mu.Unlock()
		if d == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()
	cancel()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if delta != 0 {
		t.Fatalf("expected connection gauge delta to return to 0, got %d", delta)
	}
}
