// Package particle implements the confetti burst shown when the candles go
// out: a bounded 2D particle simulation in screen pixels that empties
// itself within a fixed lifetime.
package particle

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrParticleBudget is returned when a spawn would exceed MaxParticles.
// It is the only error the scene cannot recover from.
var ErrParticleBudget = errors.New("particle: budget exhausted")

// Palette is the confetti color set.
var Palette = []string{"#FF9EAA", "#FFD6A5", "#FFFEC4", "#CBFFA9", "#A0C4FF", "#D0AAFF"}

// Spawn parameter ranges, in pixels, pixels per second and degrees per second.
const (
	SpawnTop     = -120.0
	SpawnBottom  = -20.0
	MaxDriftX    = 187.5
	MinFallSpeed = 187.5
	MaxFallSpeed = 500.0
	MaxSpin      = 312.5
	MinSize      = 5.0
	MaxSize      = 15.0
)

// Config sizes the simulation.
type Config struct {
	Width        float64       // viewport width in pixels
	Height       float64       // viewport height in pixels
	Margin       float64       // particles below Height+Margin are removed
	Lifetime     time.Duration // hard ceiling after the last spawn
	Count        int           // particles per burst
	MaxParticles int
}

// DefaultConfig returns a 1280×720 viewport, 100 particles per burst and
// a five second lifetime.
func DefaultConfig() Config {
	return Config{
		Width:        1280,
		Height:       720,
		Margin:       50,
		Lifetime:     5 * time.Second,
		Count:        100,
		MaxParticles: 10000,
	}
}

// Particle is one piece of confetti.
type Particle struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Rotation float64 `json:"rotation"`
	Spin     float64 `json:"spin"`
	Size     float64 `json:"size"`
	Color    string  `json:"color"`
}

// System is the confetti simulation. It is not safe for concurrent use;
// it is driven from the frame loop.
type System struct {
	cfg       Config
	rng       *rand.Rand
	particles []Particle
	age       time.Duration
	nextID    int
}

// New creates an empty system. Randomized spawn parameters come from rng.
func New(cfg Config, rng *rand.Rand) *System {
	d := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = d.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = d.Height
	}
	if cfg.Margin < 0 {
		cfg.Margin = d.Margin
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = d.Lifetime
	}
	if cfg.Count <= 0 {
		cfg.Count = d.Count
	}
	if cfg.MaxParticles <= 0 {
		cfg.MaxParticles = d.MaxParticles
	}
	return &System{cfg: cfg, rng: rng}
}

// Config returns the effective configuration.
func (s *System) Config() Config {
	return s.cfg
}

// Spawn adds count particles above the viewport and restarts the lifetime
// ceiling. Nothing is spawned if the budget would be exceeded.
func (s *System) Spawn(count int) error {
	if count <= 0 {
		return nil
	}
	if len(s.particles)+count > s.cfg.MaxParticles {
		return fmt.Errorf("spawn %d with %d live: %w", count, len(s.particles), ErrParticleBudget)
	}

	for i := 0; i < count; i++ {
		s.particles = append(s.particles, Particle{
			ID:       s.nextID,
			X:        s.rng.Float64() * s.cfg.Width,
			Y:        SpawnBottom - s.rng.Float64()*(SpawnBottom-SpawnTop),
			VX:       (s.rng.Float64()*2 - 1) * MaxDriftX,
			VY:       MinFallSpeed + s.rng.Float64()*(MaxFallSpeed-MinFallSpeed),
			Rotation: s.rng.Float64() * 360,
			Spin:     (s.rng.Float64()*2 - 1) * MaxSpin,
			Size:     MinSize + s.rng.Float64()*(MaxSize-MinSize),
			Color:    Palette[s.rng.IntN(len(Palette))],
		})
		s.nextID++
	}
	s.age = 0
	return nil
}

// SpawnBurst spawns the configured burst size.
func (s *System) SpawnBurst() error {
	return s.Spawn(s.cfg.Count)
}

// Tick integrates every particle over dt and retires those that have
// fallen out of view. Once the lifetime ceiling has passed since the last
// spawn the system is cleared. A zero or negative dt changes nothing.
func (s *System) Tick(dt time.Duration) {
	if dt <= 0 || len(s.particles) == 0 {
		return
	}
	s.age += dt
	if s.age >= s.cfg.Lifetime {
		s.Clear()
		return
	}

	sec := dt.Seconds()
	floor := s.cfg.Height + s.cfg.Margin
	live := s.particles[:0]
	for _, p := range s.particles {
		p.X += p.VX * sec
		p.Y += p.VY * sec
		p.Rotation = math.Mod(p.Rotation+p.Spin*sec, 360)
		if p.Y < floor {
			live = append(live, p)
		}
	}
	s.particles = live
}

// Clear removes every particle.
func (s *System) Clear() {
	s.particles = s.particles[:0]
	s.age = 0
}

// Len returns the number of live particles.
func (s *System) Len() int {
	return len(s.particles)
}

// Active reports whether any particle is live.
func (s *System) Active() bool {
	return len(s.particles) > 0
}

// Age returns the time since the last spawn while particles are live.
func (s *System) Age() time.Duration {
	return s.age
}

// Particles returns a copy of the live particles.
func (s *System) Particles() []Particle {
	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	return out
}
