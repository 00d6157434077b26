package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	if Default(nil).Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Default(nil) should discard")
	}

	var buf bytes.Buffer
	original := slog.New(slog.NewTextHandler(&buf, nil))
	if Default(original) != original {
		t.Error("Default should pass through a non-nil logger")
	}
}

func TestComponentFilterHandler(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	filter := NewComponentFilterHandler(base, slog.LevelInfo)
	logger := slog.New(filter)

	egress := logger.With("component", "egress.tcp")
	router := logger.With("component", "router")

	egress.Debug("backoff entered")
	router.Debug("rule evaluated")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged at default level, got %q", buf.String())
	}

	filter.SetLevel("egress.tcp", slog.LevelDebug)

	egress.Debug("backoff entered")
	router.Debug("rule evaluated")

	out := buf.String()
	if !strings.Contains(out, "backoff entered") {
		t.Errorf("expected egress debug log, got %q", out)
	}
	if strings.Contains(out, "rule evaluated") {
		t.Errorf("router debug log should still be filtered, got %q", out)
	}
	if filter.Level("egress.tcp") != slog.LevelDebug {
		t.Errorf("Level() did not reflect SetLevel()")
	}
	if filter.Level("router") != slog.LevelInfo {
		t.Errorf("Level() should fall back to default for unconfigured components")
	}
}
