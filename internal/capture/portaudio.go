//go:build cgo

package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource reads the system microphone through PortAudio.
type PortAudioSource struct {
	sampleRate float64
	frameSize  int
	deviceName string // empty = default input

	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []float32
	inited bool
}

// NewPortAudioSource creates a source capturing mono audio at sampleRate
// in blocks of frameSize samples. deviceName selects an input device by
// case-insensitive substring; empty uses the system default.
func NewPortAudioSource(sampleRate, frameSize int, deviceName string) *PortAudioSource {
	return &PortAudioSource{
		sampleRate: float64(sampleRate),
		frameSize:  frameSize,
		deviceName: deviceName,
		buffer:     make([]float32, frameSize),
	}
}

// Open initializes PortAudio and starts an input-only stream.
func (p *PortAudioSource) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialize portaudio: %v", ErrDeviceUnavailable, err)
	}
	p.inited = true

	if err := ctx.Err(); err != nil {
		p.terminate()
		return err
	}

	dev, err := p.findDevice()
	if err != nil {
		p.terminate()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.Output.Device = nil
	params.Output.Channels = 0
	params.SampleRate = p.sampleRate
	params.FramesPerBuffer = p.frameSize

	stream, err := portaudio.OpenStream(params, p.buffer)
	if err != nil {
		p.terminate()
		return fmt.Errorf("%w: open capture stream: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		p.terminate()
		return fmt.Errorf("%w: start capture: %v", ErrDeviceUnavailable, err)
	}
	p.stream = stream
	return nil
}

func (p *PortAudioSource) findDevice() (*portaudio.DeviceInfo, error) {
	if p.deviceName != "" {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("list devices: %w", err)
		}
		want := strings.ToLower(p.deviceName)
		for _, d := range devices {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), want) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("no input device matching %q", p.deviceName)
	}
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("no input device: %w", err)
	}
	return dev, nil
}

// Read blocks until one buffer of audio has been captured.
func (p *PortAudioSource) Read(buf []float32) (int, error) {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()
	if stream == nil {
		return 0, ErrStreamEnded
	}
	if err := stream.Read(); err != nil {
		return 0, fmt.Errorf("read frame: %w", err)
	}
	return copy(buf, p.buffer), nil
}

// Close stops the stream and terminates PortAudio.
func (p *PortAudioSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop stream: %w", err))
		}
		if err := p.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", err))
		}
		p.stream = nil
	}
	if err := p.terminate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (p *PortAudioSource) terminate() error {
	if !p.inited {
		return nil
	}
	p.inited = false
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("terminate portaudio: %w", err)
	}
	return nil
}
