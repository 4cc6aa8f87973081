package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cwbudde/wav"
)

// WAVSource replays a WAV file as if it were a microphone. Multi-channel
// files are mixed down to mono.
type WAVSource struct {
	Path string

	// Realtime paces reads to the file's sample rate. When false the file
	// is delivered as fast as it is read.
	Realtime bool

	// Loop restarts the file at the end instead of ending the stream.
	Loop bool

	samples    []float32
	sampleRate int
	pos        int
	next       time.Time
}

// NewWAVSource creates a source for the file at path.
func NewWAVSource(path string, realtime bool) *WAVSource {
	return &WAVSource{Path: path, Realtime: realtime}
}

// Open decodes the whole file.
func (w *WAVSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	samples, rate, err := readWAVMono(w.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	w.samples = samples
	w.sampleRate = rate
	w.pos = 0
	w.next = time.Time{}
	return nil
}

// SampleRate returns the file's sample rate once opened.
func (w *WAVSource) SampleRate() int {
	return w.sampleRate
}

// Read copies the next block of samples into buf.
func (w *WAVSource) Read(buf []float32) (int, error) {
	if w.pos >= len(w.samples) {
		if !w.Loop || len(w.samples) == 0 {
			return 0, io.EOF
		}
		w.pos = 0
	}

	n := copy(buf, w.samples[w.pos:])
	w.pos += n

	if w.Realtime && w.sampleRate > 0 {
		w.pace(n)
	}
	return n, nil
}

// pace sleeps until the wall clock has caught up with the samples delivered.
func (w *WAVSource) pace(n int) {
	now := time.Now()
	if w.next.IsZero() {
		w.next = now
	}
	w.next = w.next.Add(time.Duration(n) * time.Second / time.Duration(w.sampleRate))
	if d := w.next.Sub(now); d > 0 {
		time.Sleep(d)
	}
}

// Close drops the decoded samples.
func (w *WAVSource) Close() error {
	w.samples = nil
	return nil
}

func readWAVMono(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	if buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("invalid wav sample-rate: %d", buf.Format.SampleRate)
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += buf.Data[i*ch+c]
		}
		out[i] = sum / float32(ch)
	}
	return out, buf.Format.SampleRate, nil
}
