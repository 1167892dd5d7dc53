package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/nut"
	"github.com/nerrad567/ups-monitor/internal/nut/nuttest"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("UPSMON_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("UPSMON_CONFIG", "/etc/upsmonitor.yaml")
	if got := getConfigPath(); got != "/etc/upsmonitor.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}

// TestRun_NUTDown starts the whole service against an unreachable upsd and
// checks that it keeps serving until the context ends.
func TestRun_NUTDown(t *testing.T) {
	dir := t.TempDir()
	port := freePort(t)
	t.Setenv("UPSMON_CONFIG", writeConfig(t, fmt.Sprintf(`
nut:
  host: "127.0.0.1"
  port: 1
  connect_timeout: 1
database:
  path: %q
  wal_mode: true
api:
  host: "127.0.0.1"
  port: %d
scheduler:
  log_interval: "1h"
  broadcast_interval: "1h"
logging:
  level: "error"
  format: "text"
`, filepath.Join(dir, "ups.db"), port)))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/status", port)
	var body string
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				t.Fatalf("read status: %v", readErr)
			}
			body = string(data)
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if !strings.Contains(body, "NUT connection error") {
		t.Errorf("status body = %s, want connection error", body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() = %v, want nil on shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestRun_DatabaseUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UPSMON_CONFIG", writeConfig(t, fmt.Sprintf(`
database:
  path: %q
logging:
  level: "error"
`, filepath.Join(blocker, "sub", "ups.db"))))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the database cannot be created")
	}
}

func TestProbeNUT(t *testing.T) {
	tests := []struct {
		name string
		srv  *nuttest.Server
	}{
		{"reachable", &nuttest.Server{Devices: map[string]map[string]string{"ups1": {}}}},
		{"unreachable", &nuttest.Server{DialErr: nut.ErrConnectionFailed}},
		{"listing rejected", &nuttest.Server{ListErr: &nut.ProtocolError{Command: "LIST UPS", Code: "ACCESS-DENIED"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probeNUT(context.Background(), tt.srv.Dialer(), "test:3493", logging.Discard())
			if tt.srv.DialErr == nil && tt.srv.Closes() != 1 {
				t.Errorf("probe session closes = %d, want 1", tt.srv.Closes())
			}
		})
	}
}
