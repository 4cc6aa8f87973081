package particle

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"
)

const frame = 16 * time.Millisecond

func newSystem(t *testing.T) *System {
	t.Helper()
	return New(DefaultConfig(), rand.New(rand.NewPCG(1, 2)))
}

func TestSpawnRanges(t *testing.T) {
	s := newSystem(t)
	if err := s.Spawn(500); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if s.Len() != 500 {
		t.Fatalf("Len: got %d, want 500", s.Len())
	}

	palette := make(map[string]bool)
	for _, c := range Palette {
		palette[c] = true
	}
	for _, p := range s.Particles() {
		if p.X < 0 || p.X > 1280 {
			t.Fatalf("particle %d: x %v outside viewport", p.ID, p.X)
		}
		if p.Y < SpawnTop || p.Y > SpawnBottom {
			t.Fatalf("particle %d: y %v outside spawn band", p.ID, p.Y)
		}
		if p.VY < MinFallSpeed || p.VY > MaxFallSpeed {
			t.Fatalf("particle %d: vy %v", p.ID, p.VY)
		}
		if p.VX < -MaxDriftX || p.VX > MaxDriftX {
			t.Fatalf("particle %d: vx %v", p.ID, p.VX)
		}
		if p.Spin < -MaxSpin || p.Spin > MaxSpin {
			t.Fatalf("particle %d: spin %v", p.ID, p.Spin)
		}
		if p.Size < MinSize || p.Size > MaxSize {
			t.Fatalf("particle %d: size %v", p.ID, p.Size)
		}
		if !palette[p.Color] {
			t.Fatalf("particle %d: color %q not in palette", p.ID, p.Color)
		}
	}
}

func TestSpawnBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxParticles = 150
	s := New(cfg, rand.New(rand.NewPCG(1, 2)))

	if err := s.Spawn(100); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	err := s.Spawn(100)
	if !errors.Is(err, ErrParticleBudget) {
		t.Fatalf("got %v, want ErrParticleBudget", err)
	}
	if s.Len() != 100 {
		t.Errorf("failed spawn must not add particles, got %d", s.Len())
	}
	if err := s.Spawn(0); err != nil {
		t.Errorf("Spawn(0): %v", err)
	}
}

func TestTickZeroIsIdempotent(t *testing.T) {
	s := newSystem(t)
	s.SpawnBurst()
	s.Tick(frame)

	before := s.Particles()
	age := s.Age()
	for i := 0; i < 10; i++ {
		s.Tick(0)
	}
	if !reflect.DeepEqual(before, s.Particles()) {
		t.Error("zero dt must not move particles")
	}
	if s.Age() != age {
		t.Error("zero dt must not age the system")
	}
}

func TestTickMovesDown(t *testing.T) {
	s := newSystem(t)
	s.SpawnBurst()

	for step := 0; step < 50 && s.Active(); step++ {
		before := make(map[int]float64)
		for _, p := range s.Particles() {
			before[p.ID] = p.Y
		}
		s.Tick(frame)
		for _, p := range s.Particles() {
			if p.Y <= before[p.ID] {
				t.Fatalf("step %d particle %d: y %v did not increase from %v", step, p.ID, p.Y, before[p.ID])
			}
		}
	}
}

func TestTickScalesWithElapsedTime(t *testing.T) {
	a := newSystem(t)
	b := newSystem(t)
	a.SpawnBurst()
	b.SpawnBurst()

	a.Tick(32 * time.Millisecond)
	b.Tick(16 * time.Millisecond)
	b.Tick(16 * time.Millisecond)

	pa, pb := a.Particles(), b.Particles()
	if len(pa) != len(pb) {
		t.Fatalf("lengths differ: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if d := pa[i].Y - pb[i].Y; d > 1e-9 || d < -1e-9 {
			t.Fatalf("particle %d: one 32ms step gave y=%v, two 16ms steps gave %v", i, pa[i].Y, pb[i].Y)
		}
	}
}

func TestTerminatesWithinLifetime(t *testing.T) {
	for _, dt := range []time.Duration{time.Millisecond, frame, 100 * time.Millisecond, time.Second} {
		s := newSystem(t)
		s.SpawnBurst()
		var elapsed time.Duration
		for s.Active() {
			s.Tick(dt)
			elapsed += dt
			if elapsed > 5*time.Second+dt {
				t.Fatalf("dt=%v: system still active after %v", dt, elapsed)
			}
		}
	}
}

func TestLifetimeCeilingClearsSlowParticles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Height = 1e9
	s := New(cfg, rand.New(rand.NewPCG(5, 6)))
	s.SpawnBurst()

	s.Tick(4999 * time.Millisecond)
	if !s.Active() {
		t.Fatal("particles should still be falling through a tall viewport")
	}
	s.Tick(time.Millisecond)
	if s.Active() {
		t.Error("lifetime ceiling should clear the system")
	}
}

func TestClear(t *testing.T) {
	s := newSystem(t)
	s.SpawnBurst()
	s.Clear()
	if s.Active() || s.Len() != 0 {
		t.Error("Clear should empty the system")
	}
	if err := s.SpawnBurst(); err != nil {
		t.Fatalf("spawn after clear: %v", err)
	}
	if s.Len() != 100 {
		t.Errorf("Len: got %d", s.Len())
	}
}

func TestNewFillsDefaults(t *testing.T) {
	s := New(Config{}, rand.New(rand.NewPCG(1, 1)))
	cfg := s.Config()
	if cfg.Width != 1280 || cfg.Height != 720 || cfg.Lifetime != 5*time.Second || cfg.MaxParticles != 10000 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
