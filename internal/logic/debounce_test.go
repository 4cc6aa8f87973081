package logic

import (
	"testing"
	"time"
)

// baselinedDebouncer returns a debouncer with an established released baseline.
func baselinedDebouncer(t *testing.T) *Debouncer {
	t.Helper()
	d := NewDebouncer(50 * time.Millisecond)
	d.Process(false, t0)
	d.Process(false, t0.Add(50*time.Millisecond))
	if !d.IsBaselined() {
		t.Fatal("setup: debouncer should be baselined")
	}
	return d
}

func TestDebouncerBaseline(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	if d.Process(false, t0) {
		t.Error("no press during baseline")
	}
	if d.IsBaselined() {
		t.Error("should not be baselined after first sample")
	}
	d.Process(false, t0.Add(40*time.Millisecond))
	if d.IsBaselined() {
		t.Error("should not be baselined before debounce period")
	}
	d.Process(false, t0.Add(50*time.Millisecond))
	if !d.IsBaselined() {
		t.Error("should be baselined after debounce period")
	}
}

func TestDebouncerHeldAtStartupDoesNotFire(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	for i := 0; i < 10; i++ {
		if d.Process(true, t0.Add(time.Duration(i)*20*time.Millisecond)) {
			t.Fatalf("sample %d: button held at startup must not fire", i)
		}
	}
	if !d.Pressed() {
		t.Error("expected stable pressed level")
	}
}

func TestDebouncerBaselineResetOnChange(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	d.Process(true, t0)
	d.Process(false, t0.Add(20*time.Millisecond))
	d.Process(false, t0.Add(50*time.Millisecond))
	if d.IsBaselined() {
		t.Error("baseline timer should restart when level changes")
	}
	d.Process(false, t0.Add(70*time.Millisecond))
	if !d.IsBaselined() {
		t.Error("should be baselined 50ms after the change")
	}
	if d.Pressed() {
		t.Error("expected released baseline")
	}
}

func TestDebouncerPress(t *testing.T) {
	d := baselinedDebouncer(t)
	now := t0.Add(time.Second)

	if d.Process(true, now) {
		t.Error("press must wait for debounce")
	}
	if d.Process(true, now.Add(40*time.Millisecond)) {
		t.Error("press must wait for debounce")
	}
	if !d.Process(true, now.Add(50*time.Millisecond)) {
		t.Fatal("expected press after debounce")
	}
	if d.Process(true, now.Add(100*time.Millisecond)) {
		t.Error("holding the button must not repeat")
	}

	// Release does not count as a press.
	d.Process(false, now.Add(200*time.Millisecond))
	if d.Process(false, now.Add(250*time.Millisecond)) {
		t.Error("release must not report a press")
	}
	if d.Presses() != 1 {
		t.Errorf("Presses: got %d, want 1", d.Presses())
	}
}

func TestDebouncerIgnoresBounce(t *testing.T) {
	d := baselinedDebouncer(t)
	now := t0.Add(time.Second)

	levels := []bool{true, false, true, false, true, false}
	for i, lvl := range levels {
		if d.Process(lvl, now.Add(time.Duration(i)*10*time.Millisecond)) {
			t.Fatalf("sample %d: bounce must not register", i)
		}
	}
	if d.Presses() != 0 {
		t.Errorf("Presses: got %d, want 0", d.Presses())
	}
}
