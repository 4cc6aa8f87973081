package logic

import "time"

// Default lifecycle delays.
const (
	DefaultSettleDelay      = 300 * time.Millisecond
	DefaultCelebrationDelay = 3 * time.Second
)

// Timing holds the lifecycle delays.
type Timing struct {
	// SettleDelay separates blow detection from the candles going out.
	SettleDelay time.Duration
	// CelebrationDelay separates the candles going out from the celebration.
	CelebrationDelay time.Duration
}

// DefaultTiming returns the default delays.
func DefaultTiming() Timing {
	return Timing{
		SettleDelay:      DefaultSettleDelay,
		CelebrationDelay: DefaultCelebrationDelay,
	}
}

// Machine is the cake lifecycle state machine. Every state change goes
// through Fire, whether it comes from the classifier, a timer or the user.
type Machine struct {
	timing        Timing
	state         State
	micReady      bool
	settleAt      time.Time
	celebrateAt   time.Time
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMachine creates a machine in StateAwaitingMicPermission.
// The startTime is used for calculating uptime in heartbeat events.
func NewMachine(timing Timing, startTime time.Time) *Machine {
	if timing.SettleDelay < 0 {
		timing.SettleDelay = 0
	}
	if timing.CelebrationDelay < 0 {
		timing.CelebrationDelay = 0
	}
	return &Machine{
		timing:        timing,
		state:         StateAwaitingMicPermission,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// Candles returns the current candle state.
func (m *Machine) Candles() CandleState {
	return m.state.Candles()
}

// MicReady reports whether a microphone is attached to the session.
func (m *Machine) MicReady() bool {
	return m.micReady
}

// Listening reports whether classifier output should be fed to the machine.
func (m *Machine) Listening() bool {
	return m.state == StateListening && m.micReady
}

// EventCounts returns a copy of the event counters.
func (m *Machine) EventCounts() EventCounts {
	return m.eventCounts
}

// Fire applies a trigger at time now and returns the resulting events.
// Triggers that do not apply to the current state are ignored.
func (m *Machine) Fire(trigger Trigger, now time.Time) []Event {
	from := m.state

	switch trigger {
	case TriggerGrant:
		if from != StateAwaitingMicPermission && from != StateListeningDisabled {
			return nil
		}
		return m.transition(now, EventMicGranted, StateListening, EffectAcquireMic)

	case TriggerDeny:
		if from != StateAwaitingMicPermission {
			return nil
		}
		return m.transition(now, EventMicDenied, StateListeningDisabled, EffectStartMusic)

	case TriggerMicReady:
		if from != StateListening || m.micReady {
			return nil
		}
		m.micReady = true
		return m.transition(now, EventMicReady, StateListening, EffectResetClassifier)

	case TriggerMicFailed:
		if from != StateListening || m.micReady {
			return nil
		}
		m.eventCounts.MicFailures++
		return m.transition(now, EventMicFailed, StateListeningDisabled, EffectReleaseMic)

	case TriggerMicLost:
		if !m.micReady {
			return nil
		}
		m.micReady = false
		m.eventCounts.MicFailures++
		switch from {
		case StateListening, StateBlowPending:
			m.settleAt = time.Time{}
			return m.transition(now, EventMicLost, StateListeningDisabled, EffectReleaseMic)
		default:
			// Candles are already out; the scene stays as it is until reset.
			return m.transition(now, EventMicLost, from, EffectReleaseMic)
		}

	case TriggerBlow:
		if from != StateListening {
			return nil
		}
		m.eventCounts.Blows++
		m.settleAt = now.Add(m.timing.SettleDelay)
		return m.transition(now, EventBlowDetected, StateBlowPending)

	case TriggerReset:
		return m.reset(now)

	case TriggerCloseOverlay:
		if from != StateCelebrating {
			return nil
		}
		return m.transition(now, EventOverlayClosed, StateCelebratingBackgrounded, EffectHideCelebration)

	case TriggerTick:
		return m.advance(now)
	}

	return nil
}

// advance fires any timer whose deadline has passed.
func (m *Machine) advance(now time.Time) []Event {
	switch m.state {
	case StateBlowPending:
		if now.Before(m.settleAt) {
			return nil
		}
		m.settleAt = time.Time{}
		m.celebrateAt = now.Add(m.timing.CelebrationDelay)
		m.eventCounts.Extinguished++
		events := m.transition(now, EventCandlesExtinguished, StateCandlesExtinguished, EffectSpawnConfetti)
		// A zero celebration delay celebrates on the same tick.
		return append(events, m.advance(now)...)

	case StateCandlesExtinguished:
		if now.Before(m.celebrateAt) {
			return nil
		}
		m.celebrateAt = time.Time{}
		m.eventCounts.Celebrations++
		return m.transition(now, EventCelebrating, StateCelebrating, EffectShowCelebration, EffectStartMusic)
	}
	return nil
}

func (m *Machine) reset(now time.Time) []Event {
	from := m.state
	if from == StateAwaitingMicPermission {
		// Nothing has been lit or spawned yet.
		return nil
	}

	to := StateListening
	if !m.micReady {
		to = StateListeningDisabled
	}
	if from == StateListening && !m.micReady {
		// Acquisition still in flight; stay where we are.
		to = StateListening
	}

	effects := []Effect{EffectResetClassifier, EffectClearConfetti}
	if from == StateCelebrating || from == StateCelebratingBackgrounded {
		effects = append(effects, EffectHideCelebration, EffectStopMusic)
	}

	m.settleAt = time.Time{}
	m.celebrateAt = time.Time{}
	m.eventCounts.Resets++
	return m.transition(now, EventReset, to, effects...)
}

func (m *Machine) transition(now time.Time, typ EventType, to State, effects ...Effect) []Event {
	from := m.state
	m.state = to
	return []Event{{
		Timestamp: now,
		Type:      typ,
		From:      from,
		To:        to,
		Candles:   to.Candles(),
		Effects:   effects,
	}}
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
