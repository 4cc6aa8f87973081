package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
)

// Manager acquires audio sources and runs their capture goroutines.
type Manager struct {
	factory SourceFactory
	cfg     Config

	// pending counts opens abandoned by a cancelled Acquire that have not
	// yet returned and closed their source.
	pending sync.WaitGroup
}

// NewManager creates a manager that opens sources built by factory.
func NewManager(factory SourceFactory, cfg Config) *Manager {
	return &Manager{factory: factory, cfg: cfg.Normalize()}
}

// Config returns the normalized analyser configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Handle is an acquired audio stream. It must be released with
// Manager.Release on every exit path.
type Handle struct {
	src    Source
	tb     *tripleBuffer
	cancel context.CancelFunc
	done   chan struct{}

	ended    atomic.Bool
	endErr   error // written before ended is set
	frame    Frame
	released bool
	mu       sync.Mutex
}

// Acquire opens a new source and starts capturing. It blocks while the
// source negotiates with the device and returns ctx.Err() if ctx is
// cancelled first. A source that finishes opening after cancellation is
// closed immediately.
//
// Failures are reported as ErrPermissionDenied or ErrDeviceUnavailable.
func (m *Manager) Acquire(ctx context.Context) (*Handle, error) {
	if m.factory == nil {
		return nil, fmt.Errorf("no audio source configured: %w", ErrDeviceUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := m.factory()
	opened := make(chan error, 1)
	go func() {
		opened <- src.Open(ctx)
	}()

	select {
	case err := <-opened:
		if err != nil {
			return nil, classifyOpenError(err)
		}
	case <-ctx.Done():
		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			if err := <-opened; err == nil {
				if cerr := src.Close(); cerr != nil {
					log.Printf("capture: close after cancelled acquire: %v", cerr)
				}
			}
		}()
		return nil, ctx.Err()
	}

	analyser, err := NewAnalyser(m.cfg)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		src:    src,
		tb:     newTripleBuffer(analyser.Bins()),
		cancel: cancel,
		done:   make(chan struct{}),
		frame:  make(Frame, analyser.Bins()),
	}
	go h.run(runCtx, analyser, m.cfg.BlockSize)
	return h, nil
}

// Wait blocks until every source abandoned by a cancelled Acquire has
// finished opening and been closed. Call it after all Acquire calls have
// returned.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// classifyOpenError makes sure every open failure matches one of the
// capture sentinels.
func classifyOpenError(err error) error {
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}

// run is the capture goroutine. It keeps a sliding window of the last
// FFTSize samples and publishes a new spectrum after every block.
func (h *Handle) run(ctx context.Context, a *Analyser, blockSize int) {
	defer close(h.done)

	n := a.Config().FFTSize
	history := make([]float32, n)
	block := make([]float32, blockSize)
	filled := 0

	for ctx.Err() == nil {
		got, err := h.src.Read(block)
		if got > 0 {
			if got >= n {
				copy(history, block[got-n:got])
			} else {
				copy(history, history[got:])
				copy(history[n-got:], block[:got])
			}
			if filled < n {
				filled += got
			}
			a.Analyse(history[n-min(filled, n):], h.tb.writable())
			h.tb.publish()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("capture: read: %v", err)
			}
			h.endErr = err
			h.ended.Store(true)
			return
		}
	}
}

// Sample returns the most recent spectrum without blocking. Before the
// first block has been analysed it returns an all-zero frame. The returned
// slice belongs to the handle and is overwritten by the next call.
//
// Once the source has ended, Sample returns the last frame together with
// ErrStreamEnded.
func (m *Manager) Sample(h *Handle) (Frame, error) {
	if h == nil {
		return nil, ErrReleased
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrReleased
	}

	ended := h.ended.Load()
	latest, _ := h.tb.latest()
	copy(h.frame, latest)
	if ended {
		return h.frame, fmt.Errorf("%w: %v", ErrStreamEnded, h.endErr)
	}
	return h.frame, nil
}

// Release stops the capture goroutine and closes the source. It waits for
// the goroutine to exit and is safe to call more than once.
func (m *Manager) Release(h *Handle) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	h.mu.Unlock()

	h.cancel()
	<-h.done
	if err := h.src.Close(); err != nil {
		return fmt.Errorf("close source: %w", err)
	}
	return nil
}
