// Package logic contains the pure decision logic for the cake session.
// This package has NO external dependencies (no audio devices, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State is the lifecycle state of a cake session.
type State string

const (
	StateAwaitingMicPermission   State = "AWAITING_MIC_PERMISSION"
	StateListening               State = "LISTENING"
	StateListeningDisabled       State = "LISTENING_DISABLED"
	StateBlowPending             State = "BLOW_PENDING"
	StateCandlesExtinguished     State = "CANDLES_EXTINGUISHED"
	StateCelebrating             State = "CELEBRATING"
	StateCelebratingBackgrounded State = "CELEBRATING_BACKGROUNDED"
)

// CandleState is shared by every candle on the cake; they always change together.
type CandleState string

const (
	CandlesLit          CandleState = "LIT"
	CandlesExtinguished CandleState = "EXTINGUISHED"
)

// Candles returns the candle state implied by s.
// Backgrounded celebration is a variant of Celebrating: the scene persists.
func (s State) Candles() CandleState {
	switch s {
	case StateCandlesExtinguished, StateCelebrating, StateCelebratingBackgrounded:
		return CandlesExtinguished
	}
	return CandlesLit
}

// Trigger is an input to the lifecycle machine.
type Trigger string

const (
	TriggerGrant        Trigger = "GRANT"
	TriggerDeny         Trigger = "DENY"
	TriggerMicReady     Trigger = "MIC_READY"
	TriggerMicFailed    Trigger = "MIC_FAILED"
	TriggerMicLost      Trigger = "MIC_LOST"
	TriggerBlow         Trigger = "BLOW"
	TriggerReset        Trigger = "RESET"
	TriggerCloseOverlay Trigger = "CLOSE_OVERLAY"
	TriggerTick         Trigger = "TICK"
)

// EventType names a lifecycle transition to be published.
type EventType string

const (
	EventMicGranted          EventType = "MIC_GRANTED"
	EventMicDenied           EventType = "MIC_DENIED"
	EventMicReady            EventType = "MIC_READY"
	EventMicFailed           EventType = "MIC_FAILED"
	EventMicLost             EventType = "MIC_LOST"
	EventBlowDetected        EventType = "BLOW_DETECTED"
	EventCandlesExtinguished EventType = "CANDLES_EXTINGUISHED"
	EventCelebrating         EventType = "CELEBRATING"
	EventOverlayClosed       EventType = "OVERLAY_CLOSED"
	EventReset               EventType = "RESET"
)

// Effect is a side effect the owner of the machine must carry out.
type Effect string

const (
	EffectAcquireMic      Effect = "ACQUIRE_MIC"
	EffectReleaseMic      Effect = "RELEASE_MIC"
	EffectResetClassifier Effect = "RESET_CLASSIFIER"
	EffectSpawnConfetti   Effect = "SPAWN_CONFETTI"
	EffectClearConfetti   Effect = "CLEAR_CONFETTI"
	EffectShowCelebration Effect = "SHOW_CELEBRATION"
	EffectHideCelebration Effect = "HIDE_CELEBRATION"
	EffectStartMusic      Effect = "START_MUSIC"
	EffectStopMusic       Effect = "STOP_MUSIC"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      State
	To        State
	Candles   CandleState
	Effects   []Effect
}

// Has reports whether the event carries effect e.
func (e Event) Has(effect Effect) bool {
	for _, x := range e.Effects {
		if x == effect {
			return true
		}
	}
	return false
}

// EventCounts tracks the number of notable events since startup.
type EventCounts struct {
	Blows        int
	Extinguished int
	Celebrations int
	Resets       int
	MicFailures  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
