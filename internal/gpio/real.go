//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads GPIO from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip      *gpiocdev.Chip
	resetLine *gpiocdev.Line
	closeLine *gpiocdev.Line
}

// NewRealReader creates a reader for two buttons wired between the given
// pins and ground.
func NewRealReader(pinReset, pinClose int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons short to ground; the pull-up holds the line high when released.
	resetLine, err := chip.RequestLine(pinReset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request reset pin %d: %w", pinReset, err)
	}

	closeLine, err := chip.RequestLine(pinClose, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		resetLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request close pin %d: %w", pinClose, err)
	}

	return &RealReader{
		chip:      chip,
		resetLine: resetLine,
		closeLine: closeLine,
	}, nil
}

// Read returns the logical button levels. Raw 0 = pressed.
func (r *RealReader) Read() (bool, bool, error) {
	resetRaw, err := r.resetLine.Value()
	if err != nil {
		return false, false, fmt.Errorf("read reset pin: %w", err)
	}

	closeRaw, err := r.closeLine.Value()
	if err != nil {
		return false, false, fmt.Errorf("read close pin: %w", err)
	}

	return resetRaw == 0, closeRaw == 0, nil
}

// Close releases GPIO resources.
// Pins go back to input with pull-down, the Raspberry Pi boot default,
// before the lines are released.
func (r *RealReader) Close() error {
	var errs []error

	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{
		{"reset", r.resetLine},
		{"close", r.closeLine},
	} {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
