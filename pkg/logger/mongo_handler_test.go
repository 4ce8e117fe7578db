package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiHandlerFansOutToEverySink(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	log := slog.New(multi)
	log.Info("export finished", "profile", "weekly", "rows", 3)

	for name, out := range map[string]string{"text": a.String(), "json": b.String()} {
		if !strings.Contains(out, "export finished") || !strings.Contains(out, "weekly") {
			t.Fatalf("%s sink missing record: %q", name, out)
		}
	}
}

func TestMultiHandlerSkipsDisabledSinks(t *testing.T) {
	var quiet, chatty bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&chatty, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	if !multi.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected INFO to be enabled while any sink accepts it")
	}

	slog.New(multi).Info("row rejected", "line", 7)

	if quiet.Len() != 0 {
		t.Fatalf("error-only sink received an info record: %q", quiet.String())
	}
	if !strings.Contains(chatty.String(), "row rejected") {
		t.Fatalf("debug sink missing record: %q", chatty.String())
	}
}

func TestMultiHandlerWithAttrsReachesEverySink(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	slog.New(multi).With("request_id", "a1b2c3d4").Info("lookup")

	for name, out := range map[string]string{"a": a.String(), "b": b.String()} {
		if !strings.Contains(out, "request_id=a1b2c3d4") {
			t.Fatalf("sink %s missing attr: %q", name, out)
		}
	}
}
