package logic

import (
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// listeningMachine returns a machine with a granted, attached microphone.
func listeningMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine(DefaultTiming(), t0)
	m.Fire(TriggerGrant, t0)
	m.Fire(TriggerMicReady, t0)
	if !m.Listening() {
		t.Fatalf("setup: expected listening, got %s (mic ready %v)", m.State(), m.MicReady())
	}
	return m
}

func TestNewMachine(t *testing.T) {
	m := NewMachine(DefaultTiming(), t0)
	if m.State() != StateAwaitingMicPermission {
		t.Errorf("initial state: got %s", m.State())
	}
	if m.Candles() != CandlesLit {
		t.Errorf("initial candles: got %s", m.Candles())
	}
	if m.MicReady() {
		t.Error("mic should not be ready initially")
	}
}

func TestGrantRequestsAcquisition(t *testing.T) {
	m := NewMachine(DefaultTiming(), t0)
	events := m.Fire(TriggerGrant, t0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventMicGranted {
		t.Errorf("type: got %s", e.Type)
	}
	if e.From != StateAwaitingMicPermission || e.To != StateListening {
		t.Errorf("transition: got %s -> %s", e.From, e.To)
	}
	if !e.Has(EffectAcquireMic) {
		t.Errorf("expected ACQUIRE_MIC effect, got %v", e.Effects)
	}
	if m.Listening() {
		t.Error("should not feed classifier before mic is ready")
	}
}

func TestDenyDisablesListening(t *testing.T) {
	m := NewMachine(DefaultTiming(), t0)
	events := m.Fire(TriggerDeny, t0)
	if len(events) != 1 || events[0].To != StateListeningDisabled {
		t.Fatalf("expected transition to LISTENING_DISABLED, got %+v", events)
	}
	if !events[0].Has(EffectStartMusic) {
		t.Error("denying the mic should start background music")
	}

	// Blows are ignored while disabled.
	if got := m.Fire(TriggerBlow, t0); got != nil {
		t.Errorf("expected blow to be ignored, got %+v", got)
	}
	if m.Candles() != CandlesLit {
		t.Error("candles must stay lit while disabled")
	}
}

func TestAcquireFailureDisablesListening(t *testing.T) {
	m := NewMachine(DefaultTiming(), t0)
	m.Fire(TriggerGrant, t0)
	events := m.Fire(TriggerMicFailed, t0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventMicFailed || events[0].To != StateListeningDisabled {
		t.Errorf("got %s -> %s", events[0].Type, events[0].To)
	}
	if m.EventCounts().MicFailures != 1 {
		t.Errorf("MicFailures: got %d", m.EventCounts().MicFailures)
	}

	// The host may prompt again.
	events = m.Fire(TriggerGrant, t0.Add(time.Second))
	if len(events) != 1 || !events[0].Has(EffectAcquireMic) {
		t.Errorf("expected re-grant to request acquisition, got %+v", events)
	}
}

func TestBlowSettlesThenExtinguishesThenCelebrates(t *testing.T) {
	m := listeningMachine(t)

	events := m.Fire(TriggerBlow, t0)
	if len(events) != 1 || events[0].Type != EventBlowDetected {
		t.Fatalf("expected BLOW_DETECTED, got %+v", events)
	}
	if m.State() != StateBlowPending {
		t.Fatalf("state: got %s", m.State())
	}
	if m.Candles() != CandlesLit {
		t.Error("candles stay lit while the blow settles")
	}

	// Before the settle delay
	if got := m.Fire(TriggerTick, t0.Add(299*time.Millisecond)); got != nil {
		t.Errorf("expected no events before settle delay, got %+v", got)
	}

	events = m.Fire(TriggerTick, t0.Add(300*time.Millisecond))
	if len(events) != 1 {
		t.Fatalf("expected 1 event at settle delay, got %d", len(events))
	}
	if events[0].Type != EventCandlesExtinguished || !events[0].Has(EffectSpawnConfetti) {
		t.Errorf("got %+v", events[0])
	}
	if m.Candles() != CandlesExtinguished {
		t.Error("candles should be out")
	}

	// Celebration after the celebration delay
	if got := m.Fire(TriggerTick, t0.Add(3299*time.Millisecond)); got != nil {
		t.Errorf("expected no events before celebration delay, got %+v", got)
	}
	events = m.Fire(TriggerTick, t0.Add(3300*time.Millisecond))
	if len(events) != 1 || events[0].Type != EventCelebrating {
		t.Fatalf("expected CELEBRATING, got %+v", events)
	}
	if !events[0].Has(EffectShowCelebration) || !events[0].Has(EffectStartMusic) {
		t.Errorf("missing celebration effects: %v", events[0].Effects)
	}

	counts := m.EventCounts()
	if counts.Blows != 1 || counts.Extinguished != 1 || counts.Celebrations != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestZeroDelaysCompleteOnOneTick(t *testing.T) {
	m := NewMachine(Timing{}, t0)
	m.Fire(TriggerGrant, t0)
	m.Fire(TriggerMicReady, t0)
	m.Fire(TriggerBlow, t0)

	events := m.Fire(TriggerTick, t0)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventCandlesExtinguished || events[1].Type != EventCelebrating {
		t.Errorf("got %s, %s", events[0].Type, events[1].Type)
	}
}

func TestBlowIgnoredOutsideListening(t *testing.T) {
	m := listeningMachine(t)
	m.Fire(TriggerBlow, t0)
	if got := m.Fire(TriggerBlow, t0.Add(10*time.Millisecond)); got != nil {
		t.Errorf("second blow while pending should be ignored, got %+v", got)
	}
	if m.EventCounts().Blows != 1 {
		t.Errorf("Blows: got %d, want 1", m.EventCounts().Blows)
	}
}

func TestCloseOverlayBackgroundsCelebration(t *testing.T) {
	m := NewMachine(Timing{}, t0)
	m.Fire(TriggerGrant, t0)
	m.Fire(TriggerMicReady, t0)
	m.Fire(TriggerBlow, t0)
	m.Fire(TriggerTick, t0)

	events := m.Fire(TriggerCloseOverlay, t0)
	if len(events) != 1 || events[0].To != StateCelebratingBackgrounded {
		t.Fatalf("expected backgrounded celebration, got %+v", events)
	}
	if !events[0].Has(EffectHideCelebration) {
		t.Error("expected HIDE_CELEBRATION")
	}
	if m.Candles() != CandlesExtinguished {
		t.Error("scene persists with candles out after overlay closes")
	}
	if got := m.Fire(TriggerCloseOverlay, t0); got != nil {
		t.Errorf("closing twice should be a no-op, got %+v", got)
	}
}

func TestResetFromCelebration(t *testing.T) {
	m := NewMachine(Timing{}, t0)
	m.Fire(TriggerGrant, t0)
	m.Fire(TriggerMicReady, t0)
	m.Fire(TriggerBlow, t0)
	m.Fire(TriggerTick, t0)

	events := m.Fire(TriggerReset, t0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventReset || e.To != StateListening || e.Candles != CandlesLit {
		t.Errorf("got %+v", e)
	}
	for _, want := range []Effect{EffectResetClassifier, EffectClearConfetti, EffectHideCelebration, EffectStopMusic} {
		if !e.Has(want) {
			t.Errorf("missing effect %s", want)
		}
	}
}

func TestResetDuringSettleCancelsExtinguish(t *testing.T) {
	m := listeningMachine(t)
	m.Fire(TriggerBlow, t0)
	m.Fire(TriggerReset, t0.Add(100*time.Millisecond))

	if m.State() != StateListening {
		t.Fatalf("state: got %s", m.State())
	}
	if got := m.Fire(TriggerTick, t0.Add(time.Second)); got != nil {
		t.Errorf("pending extinguish should have been cancelled, got %+v", got)
	}
	if m.Candles() != CandlesLit {
		t.Error("candles should be lit")
	}
}

func TestMicLostWhileListening(t *testing.T) {
	m := listeningMachine(t)
	events := m.Fire(TriggerMicLost, t0)
	if len(events) != 1 || events[0].To != StateListeningDisabled || !events[0].Has(EffectReleaseMic) {
		t.Fatalf("got %+v", events)
	}
	if m.MicReady() {
		t.Error("mic should no longer be ready")
	}

	// Reset keeps the disabled variant.
	events = m.Fire(TriggerReset, t0)
	if len(events) != 1 || events[0].To != StateListeningDisabled {
		t.Errorf("got %+v", events)
	}
}

func TestMicLostAfterExtinguishKeepsScene(t *testing.T) {
	m := listeningMachine(t)
	m.Fire(TriggerBlow, t0)
	m.Fire(TriggerTick, t0.Add(time.Second))

	events := m.Fire(TriggerMicLost, t0.Add(time.Second))
	if len(events) != 1 || events[0].To != StateCandlesExtinguished {
		t.Fatalf("got %+v", events)
	}
	// Celebration still follows.
	events = m.Fire(TriggerTick, t0.Add(5*time.Second))
	if len(events) != 1 || events[0].Type != EventCelebrating {
		t.Fatalf("expected celebration, got %+v", events)
	}
	events = m.Fire(TriggerReset, t0.Add(6*time.Second))
	if events[0].To != StateListeningDisabled {
		t.Errorf("reset without mic should land in LISTENING_DISABLED, got %s", events[0].To)
	}
}

func TestResetWhileAwaitingPermissionIsNoop(t *testing.T) {
	m := NewMachine(DefaultTiming(), t0)
	if got := m.Fire(TriggerReset, t0); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if m.State() != StateAwaitingMicPermission {
		t.Errorf("state: got %s", m.State())
	}
}

func TestResetWhileAcquiringStaysListening(t *testing.T) {
	m := NewMachine(DefaultTiming(), t0)
	m.Fire(TriggerGrant, t0)
	events := m.Fire(TriggerReset, t0)
	if len(events) != 1 || events[0].To != StateListening {
		t.Fatalf("got %+v", events)
	}
	if got := m.Fire(TriggerMicReady, t0); len(got) != 1 {
		t.Errorf("late mic ready should still attach, got %+v", got)
	}
}

// TestCandleInvariantRandomSequences drives the machine with random trigger
// sequences and checks that candles are out exactly in the extinguished and
// celebrating states.
func TestCandleInvariantRandomSequences(t *testing.T) {
	triggers := []Trigger{
		TriggerGrant, TriggerDeny, TriggerMicReady, TriggerMicFailed, TriggerMicLost,
		TriggerBlow, TriggerReset, TriggerCloseOverlay, TriggerTick, TriggerTick, TriggerTick,
	}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		m := NewMachine(DefaultTiming(), t0)
		now := t0
		for step := 0; step < 300; step++ {
			now = now.Add(time.Duration(rng.Intn(400)) * time.Millisecond)
			tr := triggers[rng.Intn(len(triggers))]
			for _, e := range m.Fire(tr, now) {
				if e.Candles != e.To.Candles() {
					t.Fatalf("run %d step %d: event candles %s disagree with state %s", run, step, e.Candles, e.To)
				}
			}

			out := m.Candles() == CandlesExtinguished
			s := m.State()
			wantOut := s == StateCandlesExtinguished || s == StateCelebrating || s == StateCelebratingBackgrounded
			if out != wantOut {
				t.Fatalf("run %d step %d: state %s with candles %s", run, step, s, m.Candles())
			}
		}
	}
}

// TestResetConfluence checks that reset from any reachable state leaves the
// candles lit and never spawns confetti.
func TestResetConfluence(t *testing.T) {
	paths := map[string][]Trigger{
		"awaiting":     nil,
		"disabled":     {TriggerDeny},
		"acquiring":    {TriggerGrant},
		"listening":    {TriggerGrant, TriggerMicReady},
		"pending":      {TriggerGrant, TriggerMicReady, TriggerBlow},
		"extinguished": {TriggerGrant, TriggerMicReady, TriggerBlow, TriggerTick},
		"celebrating":  {TriggerGrant, TriggerMicReady, TriggerBlow, TriggerTick, TriggerTick},
		"backgrounded": {TriggerGrant, TriggerMicReady, TriggerBlow, TriggerTick, TriggerTick, TriggerCloseOverlay},
	}

	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			m := NewMachine(Timing{SettleDelay: time.Second, CelebrationDelay: time.Second}, t0)
			now := t0
			for _, tr := range path {
				now = now.Add(time.Second)
				m.Fire(tr, now)
			}
			for _, e := range m.Fire(TriggerReset, now) {
				if e.Has(EffectSpawnConfetti) {
					t.Error("reset must not spawn confetti")
				}
				if len(path) > 0 && !e.Has(EffectClearConfetti) {
					t.Error("reset must clear confetti")
				}
			}
			if m.Candles() != CandlesLit {
				t.Errorf("candles after reset: got %s (state %s)", m.Candles(), m.State())
			}
		})
	}
}

func TestCheckHeartbeat(t *testing.T) {
	m := NewMachine(DefaultTiming(), t0)

	if hb := m.CheckHeartbeat(t0.Add(time.Minute), 0); hb != nil {
		t.Error("heartbeat should be disabled with zero interval")
	}
	if hb := m.CheckHeartbeat(t0.Add(30*time.Second), time.Minute); hb != nil {
		t.Error("heartbeat should not fire before interval")
	}

	hb := m.CheckHeartbeat(t0.Add(time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("Uptime: got %v", hb.Uptime)
	}
	if hb := m.CheckHeartbeat(t0.Add(90*time.Second), time.Minute); hb != nil {
		t.Error("heartbeat interval should restart after firing")
	}
}
