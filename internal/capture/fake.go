package capture

import (
	"context"
	"io"
	"sync"
	"time"
)

// FakeSource is a test double that plays scripted sample blocks.
type FakeSource struct {
	// Blocks contains scripted sample blocks. Each call to Read consumes
	// the next block (truncated to the caller's buffer).
	Blocks [][]float32

	// Loop repeats Blocks forever instead of ending the stream.
	Loop bool

	// Interval, if set, is slept before every Read to emulate a device.
	Interval time.Duration

	// OpenError, if set, is returned by Open.
	OpenError error

	// OpenDelay blocks Open until it elapses or the context is cancelled.
	OpenDelay time.Duration

	// ReadError, if set, is returned once Blocks are exhausted instead of io.EOF.
	ReadError error

	mu     sync.Mutex
	index  int
	opened bool
	closed bool
	reads  int
}

// NewFakeSource creates a FakeSource with the given blocks.
func NewFakeSource(blocks ...[]float32) *FakeSource {
	return &FakeSource{Blocks: blocks}
}

// Open marks the source as opened or returns the scripted error.
func (f *FakeSource) Open(ctx context.Context) error {
	if f.OpenDelay > 0 {
		t := time.NewTimer(f.OpenDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.OpenError != nil {
		return f.OpenError
	}
	f.mu.Lock()
	f.opened = true
	f.mu.Unlock()
	return nil
}

// Read copies the next scripted block into buf.
func (f *FakeSource) Read(buf []float32) (int, error) {
	if f.Interval > 0 {
		time.Sleep(f.Interval)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++

	if f.index >= len(f.Blocks) {
		if !f.Loop || len(f.Blocks) == 0 {
			if f.ReadError != nil {
				return 0, f.ReadError
			}
			return 0, io.EOF
		}
		f.index = 0
	}

	n := copy(buf, f.Blocks[f.index])
	f.index++
	return n, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Opened reports whether Open succeeded.
func (f *FakeSource) Opened() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Closed reports whether Close was called.
func (f *FakeSource) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reads returns the number of Read calls.
func (f *FakeSource) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Noise returns n samples of deterministic broadband noise with the given
// peak amplitude. Useful for emulating a blow into the microphone.
func Noise(n int, amplitude float32, seed uint32) []float32 {
	out := make([]float32, n)
	x := seed | 1
	for i := range out {
		// xorshift32
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = amplitude * (float32(x)/float32(1<<32)*2 - 1)
	}
	return out
}

// Silence returns n zero samples.
func Silence(n int) []float32 {
	return make([]float32, n)
}
