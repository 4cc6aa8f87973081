package gpio

import (
	"fmt"
	"time"

	"github.com/sweeney/blowout/internal/logic"
)

// Presses reports which buttons completed a debounced press.
type Presses struct {
	Reset bool
	Close bool
}

// Any reports whether either button was pressed.
func (p Presses) Any() bool {
	return p.Reset || p.Close
}

// Buttons debounces the two buttons of a Reader.
// It is driven from the frame loop and is not safe for concurrent use.
type Buttons struct {
	reader Reader
	reset  *logic.Debouncer
	close  *logic.Debouncer
}

// NewButtons wraps r with a debouncer per button.
func NewButtons(r Reader, debounce time.Duration) *Buttons {
	return &Buttons{
		reader: r,
		reset:  logic.NewDebouncer(debounce),
		close:  logic.NewDebouncer(debounce),
	}
}

// Poll samples both buttons at time now.
func (b *Buttons) Poll(now time.Time) (Presses, error) {
	resetLevel, closeLevel, err := b.reader.Read()
	if err != nil {
		return Presses{}, fmt.Errorf("read buttons: %w", err)
	}
	return Presses{
		Reset: b.reset.Process(resetLevel, now),
		Close: b.close.Process(closeLevel, now),
	}, nil
}

// Ready reports whether both buttons have a stable baseline.
func (b *Buttons) Ready() bool {
	return b.reset.IsBaselined() && b.close.IsBaselined()
}

// Close releases the underlying reader.
func (b *Buttons) Close() error {
	return b.reader.Close()
}
