package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTopicSystem(t *testing.T) {
	if got := TopicSystem("pi-media"); got != "power/shutdown/pi-media/system" {
		t.Errorf("TopicSystem: got %q", got)
	}
	if got := TopicSystem(""); got != "power/shutdown/unknown/system" {
		t.Errorf("TopicSystem(empty): got %q", got)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     EventShutdown,
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.System.Timestamp)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Event:     EventOffline,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"system":{"timestamp":"2026-01-01T00:00:00Z","event":"OFFLINE"}}`
	if string(payload) != want {
		t.Errorf("payload:\n got %s\nwant %s", payload, want)
	}
}

func TestFormatSystemPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 6, 1, 14, 0, 0, 0, loc),
		Event:     EventStartup,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Timestamp != "2026-06-01T12:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.System.Timestamp)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"phase":"ARMED"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: EventStartup, RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Event: EventStartup})
	f.PublishSystem(SystemEvent{Event: EventShutdown, Reason: "POWEROFF"})

	names := f.EventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "SHUTDOWN" {
		t.Errorf("EventNames: got %v", names)
	}
	if len(f.SystemPayloads) != 2 {
		t.Errorf("expected 2 payloads, got %d", len(f.SystemPayloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("broker down")

	if err := f.PublishSystem(SystemEvent{Event: EventStartup}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 0 {
		t.Errorf("failed publish should not be recorded, got %d", len(f.SystemEvents))
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.PublishSystem(SystemEvent{Event: EventStartup})
	f.Close()

	f.Reset()

	if len(f.SystemEvents) != 0 || f.Closed || f.Connected {
		t.Errorf("Reset left state behind: %+v", f)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishSystem(SystemEvent{Event: EventStartup}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if (Nop{}).IsConnected() {
		t.Error("Nop should never report connected")
	}
}
