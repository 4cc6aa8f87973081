package logic

import "time"

// ButtonState tracks debounce state for a single push button.
type ButtonState struct {
	// Current stable (debounced) level
	Stable bool
	// Pending level during debounce
	Pending bool
	// Whether a pending level is being observed
	HasPending bool
	// Time when pending level was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Debouncer detects debounced presses of a push button.
// No press is reported until a baseline level has been held for the
// debounce duration, so a button held at startup does not fire.
type Debouncer struct {
	debounceDuration time.Duration
	btn              ButtonState
	presses          int
}

// NewDebouncer creates a debouncer with the given debounce duration.
func NewDebouncer(debounceDuration time.Duration) *Debouncer {
	return &Debouncer{debounceDuration: debounceDuration}
}

// Process takes a new sample and reports whether it completes a press
// (a debounced released-to-pressed transition).
func (d *Debouncer) Process(pressed bool, now time.Time) bool {
	b := &d.btn

	// First time seeing this button
	if !b.Baselined {
		if !b.HasPending || b.Pending != pressed {
			// Start observing, or level changed during baseline: restart
			b.Pending = pressed
			b.HasPending = true
			b.PendingSince = now
			return false
		}

		if now.Sub(b.PendingSince) >= d.debounceDuration {
			b.Stable = pressed
			b.Baselined = true
			b.HasPending = false
		}
		return false
	}

	// Already baselined - detect transitions
	if pressed == b.Stable {
		b.HasPending = false
		return false
	}

	if !b.HasPending || b.Pending != pressed {
		b.Pending = pressed
		b.HasPending = true
		b.PendingSince = now
		return false
	}

	if now.Sub(b.PendingSince) < d.debounceDuration {
		return false
	}

	b.Stable = pressed
	b.HasPending = false
	if pressed {
		d.presses++
		return true
	}
	return false
}

// IsBaselined returns whether the debouncer has established a baseline.
func (d *Debouncer) IsBaselined() bool {
	return d.btn.Baselined
}

// Pressed returns the current debounced level.
func (d *Debouncer) Pressed() bool {
	return d.btn.Stable
}

// Presses returns the number of presses reported since creation.
func (d *Debouncer) Presses() int {
	return d.presses
}
