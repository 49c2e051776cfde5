package cadenceboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/cadenceboard/telemetry"
	"github.com/jpalmerr/cadenceboard/widget"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// freePort returns a port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}

// startBoard runs b in the background and returns its base URL. The board is
// stopped when the test ends.
func startBoard(t *testing.T, b *Board) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Start() returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Start() did not return after context cancellation")
		}
	})

	base := fmt.Sprintf("http://127.0.0.1:%d", b.Port())
	waitFor(t, 3*time.Second, func() bool {
		resp, err := http.Get(base + "/api/status")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	})
	return base
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func fetchData(t *testing.T, base string) telemetry.DataResponse {
	t.Helper()
	resp, err := http.Get(base + "/api/data")
	if err != nil {
		t.Fatalf("GET /api/data: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var data telemetry.DataResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		t.Fatalf("decode /api/data: %v", err)
	}
	return data
}

func post(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	b, err := New(WithPort(freePort(t)), WithInMemoryStore(), WithLogger(testLogger()),
		WithResetFile(filepath.Join(t.TempDir(), "reset.flag")))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
		// expected: still blocking
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	b, err := New(WithPort(freePort(t)), WithInMemoryStore(), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return with already-cancelled context")
	}
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	b, err := New(WithPort(ln.Addr().(*net.TCPAddr).Port), WithInMemoryStore(), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = b.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to start HTTP server") {
		t.Errorf("Start() error = %v, want HTTP server error", err)
	}
}

func TestStart_PulsesBecomeSnapshots(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "log", "cycling_data.json")

	b, err := New(
		WithPort(freePort(t)),
		WithDataFile(dataFile),
		WithResetFile(filepath.Join(dir, "cycling_reset.flag")),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	base := startBoard(t, b)

	for i := 0; i < 3; i++ {
		if code := post(t, base+"/api/pulse"); code != http.StatusNoContent {
			t.Fatalf("POST /api/pulse status = %d, want 204", code)
		}
	}
	b.Pulse()

	waitFor(t, 3*time.Second, func() bool {
		return fetchData(t, base).Num == 4
	})

	data := fetchData(t, base)
	if !data.IsFresh {
		t.Errorf("is_fresh = false right after a tick: %+v", data)
	}
	if _, err := os.Stat(dataFile); err != nil {
		t.Errorf("data file not written: %v", err)
	}
}

func TestStart_RestoresSession(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "cycling_data.json")
	saved := `{"speed":0,"distance":0.45,"elapsed_time":"00:10:00","calories":6.5,"cadence":0,"num":100,"last_update":"2024-01-05T13:04:05.000000"}`
	if err := os.WriteFile(dataFile, []byte(saved), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := New(
		WithPort(freePort(t)),
		WithDataFile(dataFile),
		WithResetFile(filepath.Join(dir, "cycling_reset.flag")),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	base := startBoard(t, b)

	b.Pulse()
	waitFor(t, 3*time.Second, func() bool {
		return fetchData(t, base).Num == 101
	})
}

func TestStart_ResetEndToEnd(t *testing.T) {
	dir := t.TempDir()
	resetFile := filepath.Join(dir, "cycling_reset.flag")

	b, err := New(
		WithPort(freePort(t)),
		WithInMemoryStore(),
		WithResetFile(resetFile),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	base := startBoard(t, b)

	for i := 0; i < 10; i++ {
		b.Pulse()
	}
	waitFor(t, 3*time.Second, func() bool {
		return fetchData(t, base).Num == 10
	})

	if code := post(t, base+"/api/reset"); code != http.StatusOK {
		t.Fatalf("POST /api/reset status = %d, want 200", code)
	}

	waitFor(t, 3*time.Second, func() bool {
		return fetchData(t, base).Num == 0
	})
	if _, err := os.Stat(resetFile); !os.IsNotExist(err) {
		t.Error("reset flag should be consumed")
	}
}

// TestStart_WidgetEndToEnd drives the board with the polling widget, the
// way the dashboard page does.
func TestStart_WidgetEndToEnd(t *testing.T) {
	b, err := New(
		WithPort(freePort(t)),
		WithInMemoryStore(),
		WithResetFile(filepath.Join(t.TempDir(), "cycling_reset.flag")),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	base := startBoard(t, b)

	display := widget.NewMemoryDisplay()
	var alerts strings.Builder
	w, err := widget.New(base, display, widget.AutoDialog{Answer: true, Out: &alerts},
		widget.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("widget.New() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.UpdateData(ctx); err != nil {
		t.Fatalf("UpdateData() error = %v", err)
	}
	if got, _ := display.Text(widget.ElementStatus); got != widget.StatusOnline {
		t.Errorf("status = %q, want %q", got, widget.StatusOnline)
	}
	if got, _ := display.Text(widget.ElementCadence); got != "0.0" {
		t.Errorf("cadence = %q, want 0.0", got)
	}

	if err := w.ResetSession(ctx); err != nil {
		t.Fatalf("ResetSession() error = %v", err)
	}
	if !strings.Contains(alerts.String(), widget.ResetSuccessMessage) {
		t.Errorf("alerts = %q, want success message", alerts.String())
	}
}
