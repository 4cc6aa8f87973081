// Package capture turns a live (or recorded) audio input into per-frame
// frequency magnitude buffers.
//
// A Manager opens a Source, runs it on its own goroutine through an
// Analyser, and hands the newest spectrum to the render thread through a
// lock-free triple buffer. The render thread polls with Sample and never
// blocks on the audio side.
package capture

import (
	"context"
	"errors"
)

// Defaults matching the analyser configuration the classifier was tuned for.
const (
	DefaultFFTSize     = 1024
	DefaultBlockSize   = 512
	DefaultSampleRate  = 44100
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

var (
	// ErrPermissionDenied means the user or platform refused microphone access.
	ErrPermissionDenied = errors.New("capture: microphone permission denied")

	// ErrDeviceUnavailable means no usable input device could be opened.
	ErrDeviceUnavailable = errors.New("capture: input device unavailable")

	// ErrStreamEnded is returned by Sample once the source has stopped
	// producing audio (device unplugged, file exhausted).
	ErrStreamEnded = errors.New("capture: stream ended")

	// ErrReleased is returned when a released handle is sampled.
	ErrReleased = errors.New("capture: handle released")
)

// Frame is one byte-magnitude spectrum, one value per frequency bin, low
// frequencies first. 0 is silence (at or below the minimum decibel level)
// and 255 is at or above the maximum decibel level.
type Frame []uint8

// Source produces mono float32 PCM samples in [-1, 1].
type Source interface {
	// Open prepares the device. It may block on negotiation with the
	// platform and should give up when ctx is cancelled.
	Open(ctx context.Context) error

	// Read fills buf with the next block of samples and returns how many
	// were written. It returns io.EOF once the stream has ended. Read must
	// return within roughly one block duration.
	Read(buf []float32) (int, error)

	// Close releases the device.
	Close() error
}

// SourceFactory creates a fresh, unopened Source for each acquisition.
type SourceFactory func() Source

// Config holds analyser and block parameters.
type Config struct {
	FFTSize     int
	BlockSize   int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// DefaultConfig returns the analyser defaults.
func DefaultConfig() Config {
	return Config{
		FFTSize:     DefaultFFTSize,
		BlockSize:   DefaultBlockSize,
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
	}
}

// Normalize replaces invalid settings with defaults. A block size larger
// than the FFT window is shrunk to half the window.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.FFTSize < 32 || c.FFTSize&(c.FFTSize-1) != 0 {
		c.FFTSize = d.FFTSize
	}
	if c.BlockSize <= 0 || c.BlockSize > c.FFTSize {
		c.BlockSize = c.FFTSize / 2
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		c.Smoothing = d.Smoothing
	}
	if c.MaxDecibels <= c.MinDecibels {
		c.MinDecibels = d.MinDecibels
		c.MaxDecibels = d.MaxDecibels
	}
	return c
}

// Bins returns the number of frequency bins per frame.
func (c Config) Bins() int {
	return c.Normalize().FFTSize / 2
}
