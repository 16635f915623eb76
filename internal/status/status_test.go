package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func testTracker() *Tracker {
	return NewTracker(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), Config{
		Broker:           "tcp://localhost:1883",
		TopicPrefix:      "energy/heating/relay",
		HTTPAddr:         ":80",
		HeartbeatSeconds: 900,
	})
}

func TestTrackerUpdateOutputs(t *testing.T) {
	tr := testTracker()

	outputs := []OutputStatus{
		{Name: "ch", Power: 0.5, State: "ON", OnCount: 3, OffCount: 2},
		{Name: "hw", Power: 0, State: "OFF"},
	}
	tr.UpdateOutputs(outputs)

	// Mutating the caller's slice must not leak into the tracker.
	outputs[0].State = "OFF"

	snap := tr.Snapshot()
	if len(snap.Outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(snap.Outputs))
	}
	if snap.Outputs[0].State != "ON" {
		t.Errorf("output 0 state: got %q, want ON (tracker must copy)", snap.Outputs[0].State)
	}
	if snap.Outputs[1].Name != "hw" {
		t.Errorf("output 1 name: got %q", snap.Outputs[1].Name)
	}
}

func TestTrackerSnapshotIsolation(t *testing.T) {
	tr := testTracker()
	tr.UpdateOutputs([]OutputStatus{{Name: "ch", State: "ON"}})

	snap := tr.Snapshot()
	snap.Outputs[0].State = "OFF"

	if tr.Snapshot().Outputs[0].State != "ON" {
		t.Error("mutating a snapshot leaked into the tracker")
	}
}

func TestTrackerCommandCounts(t *testing.T) {
	tr := testTracker()
	tr.CommandAccepted()
	tr.CommandAccepted()
	tr.CommandRejected()

	snap := tr.Snapshot()
	if snap.Commands.Accepted != 2 || snap.Commands.Rejected != 1 {
		t.Errorf("commands: got %+v, want {2 1}", snap.Commands)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := testTracker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.UpdateOutputs([]OutputStatus{{Name: "ch", State: "ON"}})
				tr.CommandAccepted()
				tr.SetMQTTConnected(true)
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	if got := tr.Snapshot().Commands.Accepted; got != 800 {
		t.Errorf("accepted: got %d, want 800", got)
	}
}

func TestFormatJSON(t *testing.T) {
	tr := testTracker()
	tr.UpdateOutputs([]OutputStatus{
		{Name: "ch", Power: 0.25, State: "ON", Stale: true, OnCount: 1},
		{Name: "hw"},
	})
	tr.SetMQTTConnected(true)

	var decoded StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	inner := decoded.Status
	if inner.Event != "" {
		t.Errorf("web JSON should carry no event, got %q", inner.Event)
	}
	if len(inner.Outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(inner.Outputs))
	}
	if inner.Outputs[0].State != "ON" || inner.Outputs[0].Power != 0.25 || !inner.Outputs[0].Stale {
		t.Errorf("output 0: got %+v", inner.Outputs[0])
	}
	if inner.Outputs[1].State != "UNKNOWN" {
		t.Errorf("unset state should render UNKNOWN, got %q", inner.Outputs[1].State)
	}
	if !inner.MQTT.Connected || inner.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("mqtt: got %+v", inner.MQTT)
	}
	if inner.Config.TopicPrefix != "energy/heating/relay" {
		t.Errorf("config: got %+v", inner.Config)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := testTracker()
	tr.UpdateOutputs([]OutputStatus{{Name: "ch", State: "OFF"}})

	var decoded StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", decoded.Status.Event)
	}
	if decoded.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", decoded.Status.Reason)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	if got := snap.Uptime(); got != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", got)
	}
}
