package capture

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

func writeMonoWAV(t *testing.T, data []float32, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blow.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	return path
}

func TestWAVSourceReadsWholeFile(t *testing.T) {
	data := Noise(3000, 0.5, 11)
	path := writeMonoWAV(t, data, 8000)

	src := NewWAVSource(path, false)
	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 8000 {
		t.Errorf("SampleRate: got %d, want 8000", src.SampleRate())
	}

	buf := make([]float32, 512)
	total := 0
	for {
		n, err := src.Read(buf)
		total += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if total > len(data) {
			t.Fatalf("read more samples than written: %d", total)
		}
	}
	if total != len(data) {
		t.Errorf("samples: got %d, want %d", total, len(data))
	}
}

func TestWAVSourceLoop(t *testing.T) {
	path := writeMonoWAV(t, Noise(100, 0.5, 3), 8000)
	src := NewWAVSource(path, false)
	src.Loop = true
	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	buf := make([]float32, 64)
	for i := 0; i < 10; i++ {
		if _, err := src.Read(buf); err != nil {
			t.Fatalf("read %d: looping source must not end: %v", i, err)
		}
	}
}

func TestWAVSourceRealtimePacing(t *testing.T) {
	// 800 samples at 8 kHz is 100ms of audio.
	path := writeMonoWAV(t, Silence(800), 8000)
	src := NewWAVSource(path, true)
	if err := src.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	start := time.Now()
	buf := make([]float32, 200)
	for {
		if _, err := src.Read(buf); err != nil {
			break
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("realtime playback finished too fast: %v", elapsed)
	}
}

func TestWAVSourceInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewWAVSource(path, false)
	if err := src.Open(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("got %v, want ErrDeviceUnavailable", err)
	}

	missing := NewWAVSource(filepath.Join(t.TempDir(), "missing.wav"), false)
	if err := missing.Open(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("missing file: got %v, want ErrDeviceUnavailable", err)
	}
}

func TestManagerWithWAVSourceEnds(t *testing.T) {
	path := writeMonoWAV(t, Noise(4096, 0.8, 5), 44100)
	m := NewManager(func() Source { return NewWAVSource(path, false) }, DefaultConfig())

	h, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer m.Release(h)

	ended := waitFor(t, 2*time.Second, func() bool {
		_, err := m.Sample(h)
		return errors.Is(err, ErrStreamEnded)
	})
	if !ended {
		t.Error("expected ErrStreamEnded at end of file")
	}
}
