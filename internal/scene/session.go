// Package scene runs one birthday-cake session: it owns the per-frame tick
// that samples the microphone, drives the lifecycle machine, animates the
// decorations and the confetti, and produces a render-ready Scene.
//
// All state is confined to the goroutine calling Tick. Other goroutines
// talk to the session only through Post. Microphone acquisition runs on
// its own goroutine and its outcome is fed back as a lifecycle trigger on
// a later tick.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/blowout/internal/anim"
	"github.com/sweeney/blowout/internal/cake"
	"github.com/sweeney/blowout/internal/capture"
	"github.com/sweeney/blowout/internal/logic"
	"github.com/sweeney/blowout/internal/particle"
)

// ErrClosed is returned by Tick after Close.
var ErrClosed = errors.New("scene: session closed")

// intentQueueSize bounds the number of intents waiting for the next tick.
const intentQueueSize = 16

// Audio is the microphone side of a session. *capture.Manager implements it.
type Audio interface {
	Acquire(ctx context.Context) (*capture.Handle, error)
	Sample(h *capture.Handle) (capture.Frame, error)
	Release(h *capture.Handle) error
}

// Options configures a session.
type Options struct {
	Cake       cake.Config
	Classifier logic.ClassifierConfig
	Timing     logic.Timing
	Particles  particle.Config
	Seed       uint64

	// AcquireTimeout bounds microphone negotiation. Zero waits forever.
	AcquireTimeout time.Duration
}

// DefaultOptions returns the stock cake with default tuning.
func DefaultOptions() Options {
	return Options{
		Cake:       cake.Default(),
		Classifier: logic.DefaultClassifierConfig(),
		Timing:     logic.DefaultTiming(),
		Particles:  particle.DefaultConfig(),
		Seed:       1,
	}
}

type acquireResult struct {
	gen    int
	handle *capture.Handle
	err    error
}

// Session is one cake, from permission prompt to celebration.
type Session struct {
	id    string
	opts  Options
	audio Audio

	machine    *logic.Machine
	classifier *logic.Classifier
	sched      *anim.Scheduler
	layout     *anim.Layout
	look       Look
	confetti   *particle.System

	intents chan Intent

	acquireGen    int
	acquireCancel context.CancelFunc
	acquireWG     sync.WaitGroup
	acquired      chan acquireResult
	handle        *capture.Handle

	events   []logic.Event
	lastTick time.Time
	overlay  bool
	music    bool
	closed   bool
}

// New creates a session in the awaiting-permission state. audio may be nil
// for a session without a microphone.
func New(opts Options, audio Audio, now time.Time) *Session {
	if audio == nil {
		audio = capture.NewManager(nil, capture.DefaultConfig())
	}
	opts.Cake = opts.Cake.Normalize()

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	layout := anim.NewLayout(opts.Cake, rng)
	sched := anim.NewScheduler(anim.NewClock())
	layout.Register(sched)

	return &Session{
		id:         uuid.New().String(),
		opts:       opts,
		audio:      audio,
		machine:    logic.NewMachine(opts.Timing, now),
		classifier: logic.NewClassifier(opts.Classifier),
		sched:      sched,
		layout:     layout,
		look:       newLook(opts.Cake),
		confetti:   particle.New(opts.Particles, rng),
		intents:    make(chan Intent, intentQueueSize),
		acquired:   make(chan acquireResult, 8),
		lastTick:   now,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Cake returns the normalized cake configuration.
func (s *Session) Cake() cake.Config {
	return s.opts.Cake
}

// Machine exposes the lifecycle machine to the frame loop, for heartbeats.
func (s *Session) Machine() *logic.Machine {
	return s.machine
}

// Post queues a user intent for the next tick. It never blocks and is safe
// to call from any goroutine. It returns false if the queue is full.
func (s *Session) Post(in Intent) bool {
	select {
	case s.intents <- in:
		return true
	default:
		log.Printf("scene: intent queue full, dropping %s", in)
		return false
	}
}

// Tick runs one frame at time now and returns the scene to render together
// with the lifecycle events that happened during the frame.
//
// The only error is fatal: the session is closed or the confetti budget
// was exhausted.
func (s *Session) Tick(now time.Time) (Scene, []logic.Event, error) {
	if s.closed {
		return Scene{}, nil, ErrClosed
	}

	dt := now.Sub(s.lastTick)
	if dt < 0 {
		dt = 0
	}
	s.lastTick = now
	s.events = nil

	s.confetti.Tick(dt)
	snaps := s.sched.Tick(dt)

	steps := []func(time.Time) error{s.drainIntents, s.drainAcquired, s.listen}
	for _, step := range steps {
		if err := step(now); err != nil {
			return Scene{}, s.events, err
		}
	}
	if _, err := s.fire(logic.TriggerTick, now); err != nil {
		return Scene{}, s.events, err
	}

	return s.build(now, snaps), s.events, nil
}

// fire sends a trigger through the lifecycle machine, records the
// resulting events and applies their effects.
func (s *Session) fire(tr logic.Trigger, now time.Time) ([]logic.Event, error) {
	evs := s.machine.Fire(tr, now)
	s.events = append(s.events, evs...)
	return evs, s.apply(evs)
}

func (s *Session) drainIntents(now time.Time) error {
	for {
		select {
		case in := <-s.intents:
			tr, ok := in.Trigger()
			if !ok {
				log.Printf("scene: ignoring unknown intent %q", in)
				continue
			}
			if _, err := s.fire(tr, now); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Session) drainAcquired(now time.Time) error {
	for {
		select {
		case r := <-s.acquired:
			if err := s.handleAcquired(r, now); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Session) handleAcquired(r acquireResult, now time.Time) error {
	if r.gen != s.acquireGen {
		s.releaseHandle(r.handle)
		return nil
	}
	s.acquireCancel = nil

	if r.err != nil {
		log.Printf("capture: acquire failed: %v", r.err)
		_, err := s.fire(logic.TriggerMicFailed, now)
		return err
	}

	s.handle = r.handle
	evs, err := s.fire(logic.TriggerMicReady, now)
	if err != nil {
		return err
	}
	if len(evs) == 0 {
		// The session moved on while the device was opening.
		s.releaseHandle(s.handle)
		s.handle = nil
		return nil
	}
	log.Printf("capture: microphone ready")
	return nil
}

// listen samples the microphone and feeds the classifier.
func (s *Session) listen(now time.Time) error {
	if s.handle == nil || !s.machine.MicReady() {
		return nil
	}

	frame, err := s.audio.Sample(s.handle)
	if err != nil {
		if errors.Is(err, capture.ErrStreamEnded) || errors.Is(err, capture.ErrReleased) {
			log.Printf("capture: stream lost: %v", err)
			s.classifier.Stop()
			_, ferr := s.fire(logic.TriggerMicLost, now)
			return ferr
		}
		log.Printf("capture: sample: %v", err)
		return nil
	}

	if s.classifier.Process(frame) {
		if _, err := s.fire(logic.TriggerBlow, now); err != nil {
			return err
		}
	}
	return nil
}

// apply performs the side effects carried by events, in order.
func (s *Session) apply(events []logic.Event) error {
	for _, ev := range events {
		for _, eff := range ev.Effects {
			switch eff {
			case logic.EffectAcquireMic:
				s.startAcquire()
			case logic.EffectReleaseMic:
				s.cancelAcquire()
				s.releaseHandle(s.handle)
				s.handle = nil
			case logic.EffectResetClassifier:
				s.classifier.Reset()
			case logic.EffectSpawnConfetti:
				if err := s.confetti.SpawnBurst(); err != nil {
					return fmt.Errorf("spawn confetti: %w", err)
				}
			case logic.EffectClearConfetti:
				s.confetti.Clear()
			case logic.EffectShowCelebration:
				s.overlay = true
			case logic.EffectHideCelebration:
				s.overlay = false
			case logic.EffectStartMusic:
				s.music = true
			case logic.EffectStopMusic:
				s.music = false
			}
		}
	}
	return nil
}

// startAcquire begins microphone negotiation on its own goroutine.
func (s *Session) startAcquire() {
	s.cancelAcquire()
	s.acquireGen++
	gen := s.acquireGen

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.opts.AcquireTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.opts.AcquireTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	s.acquireCancel = cancel

	s.acquireWG.Add(1)
	go func() {
		defer s.acquireWG.Done()
		defer cancel()
		h, err := s.audio.Acquire(ctx)
		s.acquired <- acquireResult{gen: gen, handle: h, err: err}
	}()
}

func (s *Session) cancelAcquire() {
	if s.acquireCancel != nil {
		s.acquireCancel()
		s.acquireCancel = nil
		// Results from the cancelled attempt are discarded when drained.
		s.acquireGen++
	}
}

func (s *Session) releaseHandle(h *capture.Handle) {
	if h == nil {
		return
	}
	if err := s.audio.Release(h); err != nil {
		log.Printf("capture: release: %v", err)
	}
}

// Close cancels any pending acquisition and releases the microphone. It
// waits for the acquisition goroutine, so no audio resource outlives the
// session. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.acquireCancel != nil {
		s.acquireCancel()
		s.acquireCancel = nil
	}
	s.acquireWG.Wait()
	s.discardAcquired()
	if w, ok := s.audio.(interface{ Wait() }); ok {
		// A device open that ignored cancellation is still closed before we return.
		w.Wait()
	}

	s.confetti.Clear()
	if s.handle != nil {
		h := s.handle
		s.handle = nil
		if err := s.audio.Release(h); err != nil {
			return fmt.Errorf("release microphone: %w", err)
		}
	}
	return nil
}

// discardAcquired releases every handle still waiting in the result queue.
func (s *Session) discardAcquired() {
	for {
		select {
		case r := <-s.acquired:
			s.releaseHandle(r.handle)
		default:
			return
		}
	}
}
