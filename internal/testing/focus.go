package testing

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Alia5/keypipe/firmware"
	srvfocus "github.com/Alia5/keypipe/internal/server/focus"
	pfocus "github.com/Alia5/keypipe/plugin/focus"
)

// StartFocus runs fw on a background loop and serves p over TCP. fw must
// have p among its plugins. Everything stops when the test ends.
func StartFocus(t testing.TB, fw *firmware.Context, p *pfocus.Plugin, cfg srvfocus.ServerConfig) string {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	srv, err := srvfocus.New(p, cfg, slog.Default())
	if err != nil {
		t.Fatalf("focus server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("focus server start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()

	t.Cleanup(func() {
		srv.Close()
		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("firmware loop: %v", err)
		}
	})
	return srv.Addr().String()
}
