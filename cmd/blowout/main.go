// Command blowout runs a virtual birthday cake whose candles go out when
// someone blows into the microphone. It serves the scene over HTTP and
// publishes lifecycle events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/blowout/internal/cake"
	"github.com/sweeney/blowout/internal/capture"
	"github.com/sweeney/blowout/internal/gpio"
	"github.com/sweeney/blowout/internal/logic"
	"github.com/sweeney/blowout/internal/mqtt"
	"github.com/sweeney/blowout/internal/particle"
	"github.com/sweeney/blowout/internal/scene"
	"github.com/sweeney/blowout/internal/status"
	"github.com/sweeney/blowout/internal/web"
)

type config struct {
	fps            int
	threshold      float64
	sustain        int
	lowBand        float64
	settle         time.Duration
	celebrate      time.Duration
	confettiCount  int
	confettiLife   time.Duration
	width, height  float64
	source         string
	wavPath        string
	realtime       bool
	sampleRate     int
	device         string
	fftSize        int
	smoothing      float64
	acquireTimeout time.Duration
	cakePath       string
	candles        int
	message        string
	preset         int
	seed           uint64
	grant          bool
	broker         string
	clientID       string
	heartbeat      time.Duration
	httpAddr       string
	buttons        bool
	pinReset       int
	pinClose       int
	debounce       time.Duration
}

func main() {
	var cfg config
	flag.IntVar(&cfg.fps, "fps", 60, "Frame rate")
	flag.Float64Var(&cfg.threshold, "threshold", logic.DefaultThreshold, "Low-band magnitude (0-255) a frame must exceed to count as blowing")
	flag.IntVar(&cfg.sustain, "sustain", logic.DefaultSustainFrames, "Consecutive loud frames required for a blow")
	flag.Float64Var(&cfg.lowBand, "low-band", logic.DefaultLowBandFraction, "Fraction of the lowest frequency bins averaged")
	flag.DurationVar(&cfg.settle, "settle", logic.DefaultSettleDelay, "Delay between blow detection and the candles going out")
	flag.DurationVar(&cfg.celebrate, "celebrate-delay", logic.DefaultCelebrationDelay, "Delay between the candles going out and the celebration")
	flag.IntVar(&cfg.confettiCount, "confetti", particle.DefaultConfig().Count, "Confetti particles per burst")
	flag.DurationVar(&cfg.confettiLife, "confetti-lifetime", particle.DefaultConfig().Lifetime, "Maximum confetti lifetime")
	flag.Float64Var(&cfg.width, "width", particle.DefaultConfig().Width, "Viewport width in pixels")
	flag.Float64Var(&cfg.height, "height", particle.DefaultConfig().Height, "Viewport height in pixels")
	flag.StringVar(&cfg.source, "source", "portaudio", "Audio source: portaudio, wav or none")
	flag.StringVar(&cfg.wavPath, "wav", "", "WAV file for -source wav")
	flag.BoolVar(&cfg.realtime, "realtime", true, "Pace WAV playback at its sample rate")
	flag.IntVar(&cfg.sampleRate, "sample-rate", capture.DefaultSampleRate, "Microphone sample rate")
	flag.StringVar(&cfg.device, "device", "", "Input device name (empty for the default device)")
	flag.IntVar(&cfg.fftSize, "fft", capture.DefaultFFTSize, "FFT size (power of two)")
	flag.Float64Var(&cfg.smoothing, "smoothing", capture.DefaultSmoothing, "Spectrum smoothing constant in [0,1)")
	flag.DurationVar(&cfg.acquireTimeout, "acquire-timeout", 10*time.Second, "Give up opening the microphone after this long (0 waits forever)")
	flag.StringVar(&cfg.cakePath, "cake", "", "Cake JSON file (empty for the default cake)")
	flag.IntVar(&cfg.candles, "candles", -1, "Override the candle count (-1 keeps the cake's)")
	flag.StringVar(&cfg.message, "message", "", "Override the cake message")
	flag.IntVar(&cfg.preset, "preset", 0, "Apply a message styling preset (1-3, 0 keeps the cake's)")
	flag.Uint64Var(&cfg.seed, "seed", uint64(time.Now().UnixNano()), "Random seed for decorations and confetti")
	flag.BoolVar(&cfg.grant, "grant", false, "Grant microphone access at startup")
	flag.StringVar(&cfg.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&cfg.clientID, "client-id", "blowout", "MQTT client ID")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":8080", "HTTP address (empty to disable)")
	flag.BoolVar(&cfg.buttons, "buttons", false, "Read reset/close buttons from GPIO")
	flag.IntVar(&cfg.pinReset, "pin-reset", gpio.DefaultPinReset, "BCM pin number for the reset button")
	flag.IntVar(&cfg.pinClose, "pin-close", gpio.DefaultPinClose, "BCM pin number for the close button")
	flag.DurationVar(&cfg.debounce, "debounce", 50*time.Millisecond, "Button debounce duration")

	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadCake reads the cake file, if any, and applies command-line overrides.
func loadCake(cfg config) (cake.Config, error) {
	c := cake.Default()
	if cfg.cakePath != "" {
		var err error
		if c, err = cake.Load(cfg.cakePath); err != nil {
			return cake.Config{}, err
		}
	}
	if cfg.candles >= 0 {
		c.CandleCount = cfg.candles
	}
	if cfg.message != "" {
		c.Message = strings.ReplaceAll(cfg.message, `\n`, "\n")
	}
	if cfg.preset != 0 {
		if cfg.preset < 0 || cfg.preset > len(cake.Presets) {
			return cake.Config{}, fmt.Errorf("unknown preset %d (have 1-%d)", cfg.preset, len(cake.Presets))
		}
		c = c.ApplyPreset(cake.Presets[cfg.preset-1])
	}
	return c.Normalize(), nil
}

// sourceFactory builds the capture source selected by -source. blockSize
// must match the analyser's so every captured sample is analysed.
func sourceFactory(cfg config, blockSize int) (capture.SourceFactory, error) {
	switch cfg.source {
	case "portaudio":
		return func() capture.Source {
			return capture.NewPortAudioSource(cfg.sampleRate, blockSize, cfg.device)
		}, nil
	case "wav":
		if cfg.wavPath == "" {
			return nil, errors.New("-source wav requires -wav")
		}
		return func() capture.Source {
			return capture.NewWAVSource(cfg.wavPath, cfg.realtime)
		}, nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown source %q", cfg.source)
}

// captureConfig returns the normalized analyser settings for the flags.
func captureConfig(cfg config) capture.Config {
	c := capture.DefaultConfig()
	c.FFTSize = cfg.fftSize
	c.Smoothing = cfg.smoothing
	return c.Normalize()
}

func sessionOptions(cfg config, c cake.Config) scene.Options {
	opts := scene.DefaultOptions()
	opts.Cake = c
	opts.Seed = cfg.seed
	opts.AcquireTimeout = cfg.acquireTimeout
	opts.Classifier = logic.ClassifierConfig{
		Threshold:       cfg.threshold,
		SustainFrames:   cfg.sustain,
		LowBandFraction: cfg.lowBand,
	}
	opts.Timing = logic.Timing{
		SettleDelay:      cfg.settle,
		CelebrationDelay: cfg.celebrate,
	}
	opts.Particles.Count = cfg.confettiCount
	opts.Particles.Lifetime = cfg.confettiLife
	opts.Particles.Width = cfg.width
	opts.Particles.Height = cfg.height
	return opts
}

func run(cfg config) error {
	if cfg.fps <= 0 {
		return fmt.Errorf("invalid -fps %d", cfg.fps)
	}
	c, err := loadCake(cfg)
	if err != nil {
		return fmt.Errorf("load cake: %w", err)
	}
	capCfg := captureConfig(cfg)
	factory, err := sourceFactory(cfg, capCfg.BlockSize)
	if err != nil {
		return err
	}
	manager := capture.NewManager(factory, capCfg)

	session := scene.New(sessionOptions(cfg, c), manager, time.Now())
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("close session: %v", err)
		}
	}()

	frame := time.Second / time.Duration(cfg.fps)
	tracker := status.NewTracker(time.Now(), status.Config{
		FrameMs:       frame.Milliseconds(),
		Threshold:     cfg.threshold,
		SustainFrames: cfg.sustain,
		HeartbeatMs:   cfg.heartbeat.Milliseconds(),
		Source:        cfg.source,
		Candles:       c.CandleCount,
		Broker:        cfg.broker,
		HTTPPort:      cfg.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.broker != "" {
		p := mqtt.NewRealPublisher(cfg.broker, cfg.clientID)
		defer p.Close()
		publisher, mqttStatus = p, p

		// Published (or buffered until the broker is reachable) with a full status snapshot.
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := p.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	scenes := web.NewSceneStore()
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, scenes, session)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", cfg.httpAddr)
	}

	var buttons *gpio.Buttons
	if cfg.buttons {
		r, err := gpio.NewRealReader(cfg.pinReset, cfg.pinClose)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		buttons = gpio.NewButtons(r, cfg.debounce)
		defer buttons.Close()
	}

	if cfg.grant {
		session.Post(scene.IntentGrant)
	}

	log.Printf("started: session=%s candles=%d source=%s threshold=%.0f sustain=%d fps=%d",
		session.ID(), c.CandleCount, cfg.source, cfg.threshold, cfg.sustain, cfg.fps)

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		session:    session,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		scenes:     scenes,
		buttons:    buttons,
		heartbeat:  cfg.heartbeat,
	}
	return runLoop(l, time.Now, ticker.C, sigCh)
}

// loop holds everything the frame loop drives. Any field but session may be nil.
type loop struct {
	session    *scene.Session
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	scenes     *web.SceneStore
	buttons    *gpio.Buttons
	heartbeat  time.Duration

	buttonsReady bool
}

func runLoop(l *loop, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			l.publishSystem(now(), "SHUTDOWN", signalName, true)
			return nil

		case <-tick:
			t := now()
			l.pollButtons(t)

			sc, events, err := l.session.Tick(t)
			l.publishEvents(events)
			if err != nil {
				l.publishSystem(t, "SHUTDOWN", "FATAL", true)
				return fmt.Errorf("frame: %w", err)
			}

			l.updateStatus(sc)
			if l.scenes != nil {
				l.scenes.Store(sc)
			}

			if hb := l.session.Machine().CheckHeartbeat(t, l.heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v blows=%d extinguished=%d celebrations=%d resets=%d mic_failures=%d",
					hb.Uptime, hb.Counts.Blows, hb.Counts.Extinguished, hb.Counts.Celebrations, hb.Counts.Resets, hb.Counts.MicFailures)
				if l.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
				}
				l.publishSystem(hb.Timestamp, "HEARTBEAT", "", false)
			}
		}
	}
}

func (l *loop) pollButtons(t time.Time) {
	if l.buttons == nil {
		return
	}
	p, err := l.buttons.Poll(t)
	if err != nil {
		log.Printf("gpio read error: %v", err)
		return
	}
	if !l.buttonsReady && l.buttons.Ready() {
		l.buttonsReady = true
		log.Printf("buttons ready")
	}
	if !p.Any() {
		return
	}
	if p.Reset {
		log.Printf("button: reset")
		l.session.Post(scene.IntentReset)
	}
	if p.Close {
		log.Printf("button: close")
		l.session.Post(scene.IntentClose)
	}
}

func (l *loop) publishEvents(events []logic.Event) {
	for _, event := range events {
		log.Printf("event: %s (%s -> %s, candles=%s)", event.Type, event.From, event.To, event.Candles)
		if l.publisher == nil {
			continue
		}
		if err := l.publisher.Publish(l.session.ID(), event); err != nil {
			// Don't crash on publish failure
			log.Printf("publish error: %v", err)
		}
	}
}

func (l *loop) updateStatus(sc scene.Scene) {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(status.Session{
		ID:       sc.SessionID,
		State:    sc.State,
		Candles:  sc.Candles,
		Blowing:  sc.Blowing,
		MicReady: sc.MicReady,
		LowBand:  sc.LowBand,
		Counts:   l.session.Machine().EventCounts(),
	})
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// publishSystem sends a system event carrying a full status snapshot.
func (l *loop) publishSystem(t time.Time, name, reason string, retained bool) {
	if l.publisher == nil {
		return
	}
	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     name,
		Reason:    reason,
		Retained:  retained,
	}
	if l.tracker != nil {
		if l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), name, reason)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish %s event: %v", strings.ToLower(name), err)
	} else if name != "HEARTBEAT" {
		log.Printf("published %s event", strings.ToLower(name))
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
