package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/pi-shutdown/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Chip:         "gpiochip0",
		PinIndicator: 23,
		PinTrigger:   24,
		DryRun:       true,
		PowerOffCmd:  "poweroff",
		HTTPAddr:     ":8080",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetPhase(status.PhaseArmed, time.Now())

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Phase != "ARMED" {
		t.Errorf("Phase: got %q, want ARMED", sj.Status.Phase)
	}
	if !sj.Status.Armed {
		t.Error("expected Armed=true")
	}
	if sj.Status.Config.PinTrigger != 24 {
		t.Errorf("Config.PinTrigger: got %d, want 24", sj.Status.Config.PinTrigger)
	}
	if !sj.Status.Config.DryRun {
		t.Error("expected Config.DryRun=true")
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Phase != "STARTING" {
		t.Errorf("initial phase: got %q, want STARTING", sj.Status.Phase)
	}

	tr.SetPhase(status.PhaseTriggered, time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC))
	tr.SetMQTTConnected(true)

	sj = getJSON(t, ts.URL+"/index.json")
	if sj.Status.Phase != "TRIGGERED" {
		t.Errorf("phase: got %q, want TRIGGERED", sj.Status.Phase)
	}
	if sj.Status.TriggeredAt != "2026-01-01T01:00:00Z" {
		t.Errorf("TriggeredAt: got %q", sj.Status.TriggeredAt)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestTextEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetPhase(status.PhaseArmed, time.Now())

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q, want text/plain", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"phase: ARMED", "indicator: gpiochip0:23", "trigger: gpiochip0:24", "dry_run: true"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestServeAndShutdown(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	srv := New(":0", tr)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/index.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-errCh; err != http.ErrServerClosed {
		t.Errorf("Serve: got %v, want ErrServerClosed", err)
	}
}
