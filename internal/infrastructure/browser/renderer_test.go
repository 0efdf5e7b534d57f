package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

func TestRendererAvailableWithConfiguredBinary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := filepath.Join(dir, "chromium")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}

	if err := NewRenderer(Config{Bin: bin}, nil).Available(); err != nil {
		t.Fatalf("expected configured binary to be available: %v", err)
	}
	if err := NewRenderer(Config{Bin: filepath.Join(dir, "missing")}, nil).Available(); err == nil {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if err := NewRenderer(Config{Bin: dir}, nil).Available(); err == nil {
		t.Fatalf("a directory is not a browser")
	}
}

func TestRenderWithoutBrowserIsUnavailable(t *testing.T) {
	t.Parallel()

	r := NewRenderer(Config{Bin: filepath.Join(t.TempDir(), "missing")}, nil)
	_, err := r.Render(context.Background(), "https://www.topps.com/", usecase.RenderOptions{})
	if !errors.Is(err, usecase.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestNewRendererDefaults(t *testing.T) {
	t.Parallel()

	r := NewRenderer(Config{SettleDelay: -time.Second}, nil)
	if r.cfg.UserAgent != defaultUserAgent || r.cfg.PageTimeout != defaultPageTimeout {
		t.Fatalf("unexpected defaults: %+v", r.cfg)
	}
	if r.cfg.SettleDelay != 0 || r.cfg.ScrollAttempts != defaultScrollAttempts {
		t.Fatalf("unexpected scroll defaults: %+v", r.cfg)
	}
	if d := DefaultConfig(); !d.Headless || d.SettleDelay != defaultSettleDelay {
		t.Fatalf("unexpected default config: %+v", d)
	}
}

func TestScreenshotPath(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 9, 7, 0, 3, 0, time.UTC)
	if got := ScreenshotPath("/tmp/debug", "archive 0/page", at); got != "/tmp/debug/archive-0-page-20250609T070003.png" {
		t.Fatalf("unexpected path: %s", got)
	}
	if got := ScreenshotPath("/tmp/debug", "", at); got != "/tmp/debug/page-20250609T070003.png" {
		t.Fatalf("unexpected fallback path: %s", got)
	}
}
