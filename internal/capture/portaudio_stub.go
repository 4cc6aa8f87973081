//go:build !cgo

package capture

import (
	"context"
	"fmt"
)

// PortAudioSource is a stub for builds without cgo. Open always fails.
type PortAudioSource struct{}

// NewPortAudioSource returns a stub source.
func NewPortAudioSource(sampleRate, frameSize int, deviceName string) *PortAudioSource {
	return &PortAudioSource{}
}

// Open returns ErrDeviceUnavailable.
func (p *PortAudioSource) Open(ctx context.Context) error {
	return fmt.Errorf("%w: built without cgo", ErrDeviceUnavailable)
}

// Read returns ErrStreamEnded.
func (p *PortAudioSource) Read(buf []float32) (int, error) {
	return 0, ErrStreamEnded
}

// Close does nothing.
func (p *PortAudioSource) Close() error {
	return nil
}
