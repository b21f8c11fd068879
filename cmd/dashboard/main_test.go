package main

import (
	"log/slog"
	"testing"

	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlogBridgeRoutesThroughZapCore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := slog.New(zapslog.NewHandler(core))

	logger.Info("bridge check", "component", "dashboard")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "bridge check" {
		t.Errorf("message = %q, want %q", entry.Message, "bridge check")
	}
}
