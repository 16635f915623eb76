package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Outputs       []OutputJSON `json:"outputs"`
	Commands      CommandsJSON `json:"commands"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// OutputJSON is the JSON representation of one relay output.
type OutputJSON struct {
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Power    float64 `json:"power"`
	Stale    bool    `json:"stale"`
	OnCount  int     `json:"on_count"`
	OffCount int     `json:"off_count"`
}

// CommandsJSON is the JSON representation of command counts.
type CommandsJSON struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker           string `json:"broker"`
	TopicPrefix      string `json:"topic_prefix"`
	HTTPAddr         string `json:"http_addr"`
	HeartbeatSeconds int    `json:"heartbeat_seconds"`
}

func buildInner(snap Snapshot) StatusInner {
	outputs := make([]OutputJSON, len(snap.Outputs))
	for i, out := range snap.Outputs {
		state := out.State
		if state == "" {
			state = "UNKNOWN"
		}
		outputs[i] = OutputJSON{
			Name:     out.Name,
			State:    state,
			Power:    out.Power,
			Stale:    out.Stale,
			OnCount:  out.OnCount,
			OffCount: out.OffCount,
		}
	}

	return StatusInner{
		Outputs: outputs,
		Commands: CommandsJSON{
			Accepted: snap.Commands.Accepted,
			Rejected: snap.Commands.Rejected,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Broker:           snap.Config.Broker,
			TopicPrefix:      snap.Config.TopicPrefix,
			HTTPAddr:         snap.Config.HTTPAddr,
			HeartbeatSeconds: snap.Config.HeartbeatSeconds,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
