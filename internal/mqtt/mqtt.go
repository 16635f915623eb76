// Package mqtt provides the MQTT command and event path with abstraction
// for testing. Commands arrive on per-output set topics; state changes,
// acknowledgements and system lifecycle events are published back.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTopicPrefix is the root of the relay topic tree.
const DefaultTopicPrefix = "energy/heating/relay"

// CommandFilter returns the subscription filter matching every output's set
// topic: <prefix>/<index>/set.
func CommandFilter(prefix string) string {
	return prefix + "/+/set"
}

// StateTopic returns the retained state topic for one output.
func StateTopic(prefix string, index int) string {
	return fmt.Sprintf("%s/%d/state", prefix, index)
}

// AckTopic returns the acknowledgement topic for one output.
func AckTopic(prefix string, index int) string {
	return fmt.Sprintf("%s/%d/ack", prefix, index)
}

// SystemTopic returns the topic for system lifecycle events.
func SystemTopic(prefix string) string {
	return prefix + "/system"
}

// Command is a parsed power request for one output.
type Command struct {
	Index int
	Power float64
}

// ParseCommand extracts a Command from a set-topic publish. The index comes
// from the topic, the power from the payload as a decimal string. Range
// checking of the index and clamping of the power are the dispatcher's job;
// this only rejects messages that are not well-formed.
func ParseCommand(prefix, topic string, payload []byte) (Command, error) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return Command{}, fmt.Errorf("topic %q outside prefix %q", topic, prefix)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "set" {
		return Command{}, fmt.Errorf("unexpected command topic %q", topic)
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		return Command{}, fmt.Errorf("output index %q: %w", parts[0], err)
	}
	power, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return Command{}, fmt.Errorf("power value %q: %w", payload, err)
	}
	return Command{Index: index, Power: power}, nil
}

// Publisher publishes relay events to MQTT.
type Publisher interface {
	// PublishState sends a retained state change for one output.
	// Returns error if publishing fails (should not crash the process).
	PublishState(change StateChange) error

	// PublishAck echoes an accepted power request for observability.
	PublishAck(ack Ack) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// StateChange describes one output's new physical state.
type StateChange struct {
	Timestamp time.Time
	Index     int
	On        bool
	Power     float64 // requested power in effect
}

// Ack echoes an accepted set request back to the command source.
type Ack struct {
	Timestamp time.Time
	Index     int
	Power     float64 // the value as received, before clamping
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// StatePayload is the JSON envelope for a state change.
type StatePayload struct {
	Relay RelayPayload `json:"relay"`
}

// RelayPayload contains the state change details.
type RelayPayload struct {
	Timestamp string  `json:"timestamp"`
	Index     int     `json:"index"`
	State     string  `json:"state"`
	Power     float64 `json:"power"`
}

// FormatStatePayload creates the JSON payload for a state change.
func FormatStatePayload(change StateChange) ([]byte, error) {
	state := "OFF"
	if change.On {
		state = "ON"
	}
	payload := StatePayload{
		Relay: RelayPayload{
			Timestamp: change.Timestamp.UTC().Format(time.RFC3339),
			Index:     change.Index,
			State:     state,
			Power:     change.Power,
		},
	}
	return json.Marshal(payload)
}

// AckPayload is the JSON envelope for an acknowledgement.
type AckPayload struct {
	Ack AckInner `json:"ack"`
}

// AckInner contains the acknowledgement details.
type AckInner struct {
	Timestamp string  `json:"timestamp"`
	Index     int     `json:"index"`
	Power     float64 `json:"power"`
}

// FormatAckPayload creates the JSON payload for an acknowledgement.
func FormatAckPayload(ack Ack) ([]byte, error) {
	payload := AckPayload{
		Ack: AckInner{
			Timestamp: ack.Timestamp.UTC().Format(time.RFC3339),
			Index:     ack.Index,
			Power:     ack.Power,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
