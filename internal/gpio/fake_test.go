package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeReaderRead(t *testing.T) {
	samples := []Sample{
		{Reset: true, Close: false},
		{Reset: false, Close: true},
		{Reset: true, Close: true},
	}

	f := NewFakeReader(samples)

	for i, want := range append(samples, samples[2]) {
		r, c, err := f.Read()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if r != want.Reset || c != want.Close {
			t.Errorf("read %d: expected (%v, %v), got (%v, %v)", i, want.Reset, want.Close, r, c)
		}
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	if _, _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{{Reset: true}})
	f.ReadError = errors.New("simulated error")

	_, _, err := f.Read()
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderCloseAndRewind(t *testing.T) {
	f := NewFakeReader([]Sample{{Reset: true}, {Close: true}})

	f.Read()
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Rewind()
	if f.Closed {
		t.Error("Rewind should clear Closed")
	}
	r, c, _ := f.Read()
	if !r || c {
		t.Errorf("after rewind: expected (true, false), got (%v, %v)", r, c)
	}
}

// script expands (level, count) runs into samples.
func script(runs ...struct {
	s Sample
	n int
}) []Sample {
	var out []Sample
	for _, r := range runs {
		for i := 0; i < r.n; i++ {
			out = append(out, r.s)
		}
	}
	return out
}

func TestButtonsDebouncedPress(t *testing.T) {
	type run = struct {
		s Sample
		n int
	}
	// 50ms frames, 100ms debounce.
	samples := script(
		run{Sample{}, 4},             // baseline: released
		run{Sample{Reset: true}, 1},  // bounce
		run{Sample{}, 1},
		run{Sample{Reset: true}, 4},  // real press
		run{Sample{}, 4},             // release
		run{Sample{Close: true}, 4},  // close press
		run{Sample{}, 4},
	)
	b := NewButtons(NewFakeReader(samples), 100*time.Millisecond)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var resets, closes int
	for i := range samples {
		p, err := b.Poll(start.Add(time.Duration(i) * 50 * time.Millisecond))
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if p.Reset {
			resets++
		}
		if p.Close {
			closes++
		}
	}

	if !b.Ready() {
		t.Error("buttons should be baselined")
	}
	if resets != 1 {
		t.Errorf("reset presses: got %d, want 1", resets)
	}
	if closes != 1 {
		t.Errorf("close presses: got %d, want 1", closes)
	}
}

func TestButtonsHeldAtStartupDoNotFire(t *testing.T) {
	samples := []Sample{{Reset: true, Close: true}}
	b := NewButtons(NewFakeReader(samples), 100*time.Millisecond)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		p, err := b.Poll(start.Add(time.Duration(i) * 50 * time.Millisecond))
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if p.Any() {
			t.Fatalf("poll %d: held button must not fire", i)
		}
	}
}

func TestButtonsReadError(t *testing.T) {
	f := NewFakeReader([]Sample{{}})
	f.ReadError = errors.New("line gone")
	b := NewButtons(f, time.Millisecond)

	if _, err := b.Poll(time.Now()); err == nil {
		t.Error("expected error")
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("Close should close the reader")
	}
}
