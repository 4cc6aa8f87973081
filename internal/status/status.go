// Package status provides a thread-safe status tracker for the blowout daemon.
// It is written by the frame loop and read by HTTP handlers and MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/blowout/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	FrameMs       int64
	Threshold     float64
	SustainFrames int
	HeartbeatMs   int64
	Source        string
	Candles       int
	Broker        string
	HTTPPort      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	SessionID     string
	State         logic.State
	Candles       logic.CandleState
	Blowing       bool
	MicReady      bool
	LowBand       float64
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Session is the per-frame state copied into the tracker.
type Session struct {
	ID       string
	State    logic.State
	Candles  logic.CandleState
	Blowing  bool
	MicReady bool
	LowBand  float64
	Counts   logic.EventCounts
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the session state. Called from runLoop on every frame.
func (t *Tracker) Update(s Session) {
	t.mu.Lock()
	t.snap.SessionID = s.ID
	t.snap.State = s.State
	t.snap.Candles = s.Candles
	t.snap.Blowing = s.Blowing
	t.snap.MicReady = s.MicReady
	t.snap.LowBand = s.LowBand
	t.snap.Counts = s.Counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
