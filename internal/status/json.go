package status

import (
	"encoding/json"
	"math"
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
	SessionID     string       `json:"session_id"`
	State         string       `json:"state"`
	Candles       string       `json:"candles"`
	Blowing       bool         `json:"blowing"`
	MicReady      bool         `json:"mic_ready"`
	LowBand       float64      `json:"low_band"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Blows        int `json:"blows"`
	Extinguished int `json:"extinguished"`
	Celebrations int `json:"celebrations"`
	Resets       int `json:"resets"`
	MicFailures  int `json:"mic_failures"`
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
	FrameMs       int64   `json:"frame_ms"`
	Threshold     float64 `json:"threshold"`
	SustainFrames int     `json:"sustain_frames"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	Source        string  `json:"source"`
	Candles       int     `json:"candles"`
	Broker        string  `json:"broker"`
	HTTPPort      string  `json:"http_port"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		SessionID:     snap.SessionID,
		State:         orUnknown(string(snap.State)),
		Candles:       orUnknown(string(snap.Candles)),
		Blowing:       snap.Blowing,
		MicReady:      snap.MicReady,
		LowBand:       math.Round(snap.LowBand*10) / 10,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Blows:        snap.Counts.Blows,
			Extinguished: snap.Counts.Extinguished,
			Celebrations: snap.Counts.Celebrations,
			Resets:       snap.Counts.Resets,
			MicFailures:  snap.Counts.MicFailures,
		},
		Config: ConfigJSON{
			FrameMs:       snap.Config.FrameMs,
			Threshold:     snap.Config.Threshold,
			SustainFrames: snap.Config.SustainFrames,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Source:        snap.Config.Source,
			Candles:       snap.Config.Candles,
			Broker:        snap.Config.Broker,
			HTTPPort:      snap.Config.HTTPPort,
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
