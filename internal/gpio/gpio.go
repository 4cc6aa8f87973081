// Package gpio reads the cake's physical push buttons.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads GPIO input states.
type Reader interface {
	// Read returns the logical levels of the reset and close buttons.
	// The buttons are active-low: raw 0 = pressed.
	// Returns (resetPressed, closePressed, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinReset = 26 // relight the candles
	DefaultPinClose = 16 // close the celebration overlay
)
