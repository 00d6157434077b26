package egress

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/brunseba/syslog-forwarder/internal/logging"
)

func TestBackoffDurationFollowsExponentialFormula(t *testing.T) {
	base := 100 * time.Millisecond
	cap := 10 * time.Second

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
	}
	for _, c := range cases {
		got := backoffDuration(base, cap, c.attempt)
		if got != c.want {
			t.Errorf("backoffDuration(attempt=%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoffDurationCaps(t *testing.T) {
	got := backoffDuration(1*time.Second, 3*time.Second, 10)
	if got != 3*time.Second {
		t.Errorf("expected capped backoff, got %v", got)
	}
}

func TestFrameNonTransparentEscapesEmbeddedNewline(t *testing.T) {
	out := frameNonTransparent([]byte("hello\nworld"))
	if string(out) != "hello world\n" {
		t.Fatalf("unexpected frame: %q", out)
	}
}

func TestTCPSenderDeliversAndReportsUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var mu sync.Mutex
	var lines []string
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					mu.Lock()
					lines = append(lines, scanner.Text())
					mu.Unlock()
				}
			}()
		}
	}()

	var upMu sync.Mutex
	upStates := []bool{}
	sender := NewTCPSender("primary", ln.Addr().String(), TCPSenderOptions{
		MaxAttempts: 2,
		BackoffBase: 10 * time.Millisecond,
	}, func(up bool) {
		upMu.Lock()
		upStates = append(upStates, up)
		upMu.Unlock()
	}, logging.Discard())
	defer sender.Close()

	ctx := context.Background()
	if err := sender.Send(ctx, []byte("<14>hello")); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(lines)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || lines[0] != "<14>hello" {
		t.Fatalf("unexpected received lines: %v", lines)
	}

	upMu.Lock()
	defer upMu.Unlock()
	if len(upStates) == 0 || !upStates[len(upStates)-1] {
		t.Fatalf("expected destination_up to be true after a successful send, got %v", upStates)
	}
}

func TestTCPSenderExhaustsRetriesAndReturnsError(t *testing.T) {
	sender := NewTCPSender("unreachable", "127.0.0.1:1", TCPSenderOptions{
		MaxAttempts: 2,
		BackoffBase: 5 * time.Millisecond,
		DialTimeout: 100 * time.Millisecond,
	}, nil, logging.Discard())
	defer sender.Close()

	err := sender.Send(context.Background(), []byte("hello"))
	if err == nil {
		t.Fatal("expected an error after exhausting retries against an unreachable destination")
	}
}

func TestTCPSenderSendRespectsContextCancellation(t *testing.T) {
	sender := NewTCPSender("unreachable", "127.0.0.1:1", TCPSenderOptions{
		MaxAttempts: 5,
		BackoffBase: 5 * time.Second,
		DialTimeout: 50 * time.Millisecond,
	}, nil, logging.Discard())
	defer sender.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := sender.Send(ctx, []byte("hello"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("Send did not return promptly after context cancellation, took %v", time.Since(start))
	}
}
