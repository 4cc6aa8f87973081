// Package anim drives the continuous decorative motion of the cake scene.
//
// Every entity is a pure function of elapsed time and the parameters it
// was created with. Randomized parameters are drawn once at construction
// and stored on the entity, so evaluating the same entity at the same time
// always yields the same pose.
package anim

import (
	"math"
	"time"
)

// Kind identifies the type of an animated entity.
type Kind string

const (
	KindFlame     Kind = "flame"
	KindBalloon   Kind = "balloon"
	KindSparkle   Kind = "sparkle"
	KindText      Kind = "text"
	KindStreamers Kind = "streamers"
	KindSpotlight Kind = "spotlight"
	KindFrames    Kind = "frames"
)

// Vec3 is a point or vector in scene units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Uniform returns a vector with all components equal to s.
func Uniform(s float64) Vec3 {
	return Vec3{s, s, s}
}

// Pose is the transform of one renderable part.
type Pose struct {
	Position  Vec3    `json:"position"`
	Rotation  Vec3    `json:"rotation"`
	Scale     Vec3    `json:"scale"`
	Intensity float64 `json:"intensity,omitempty"`
}

// Entity is an animated object in the scene.
type Entity interface {
	Kind() Kind

	// Evaluate returns the poses of the entity's parts at elapsed time t
	// (seconds). It must not read or modify any other entity.
	Evaluate(t float64) []Pose
}

// Snapshot is the evaluated state of one entity.
type Snapshot struct {
	Kind  Kind   `json:"kind"`
	Index int    `json:"index"`
	Parts []Pose `json:"parts"`
}

// Clock is a monotonic elapsed-time clock advanced by the frame loop.
// It is independent of wall-clock time so it can be paused and driven
// deterministically in tests.
type Clock struct {
	elapsed time.Duration
	paused  bool
}

// NewClock returns a clock at zero.
func NewClock() *Clock {
	return &Clock{}
}

// Advance moves the clock forward by dt. Negative steps and steps taken
// while paused are ignored.
func (c *Clock) Advance(dt time.Duration) {
	if c.paused || dt <= 0 {
		return
	}
	c.elapsed += dt
}

// Elapsed returns the total elapsed time.
func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Seconds returns the elapsed time in seconds.
func (c *Clock) Seconds() float64 {
	return c.elapsed.Seconds()
}

// Pause stops the clock.
func (c *Clock) Pause() {
	c.paused = true
}

// Resume restarts a paused clock.
func (c *Clock) Resume() {
	c.paused = false
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	return c.paused
}

// Scheduler holds the scene's entities and evaluates them once per frame.
type Scheduler struct {
	clock    *Clock
	entities []Entity
}

// NewScheduler creates a scheduler driven by clock.
func NewScheduler(clock *Clock) *Scheduler {
	if clock == nil {
		clock = NewClock()
	}
	return &Scheduler{clock: clock}
}

// Add registers entities.
func (s *Scheduler) Add(entities ...Entity) {
	s.entities = append(s.entities, entities...)
}

// Len returns the number of registered entities.
func (s *Scheduler) Len() int {
	return len(s.entities)
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() *Clock {
	return s.clock
}

// Tick advances the clock by dt and evaluates every entity.
func (s *Scheduler) Tick(dt time.Duration) []Snapshot {
	s.clock.Advance(dt)
	return s.Evaluate()
}

// Evaluate returns the entity poses at the current clock time without
// advancing it. Entities are numbered per kind in registration order.
func (s *Scheduler) Evaluate() []Snapshot {
	t := s.clock.Seconds()
	counts := make(map[Kind]int)
	out := make([]Snapshot, len(s.entities))
	for i, e := range s.entities {
		k := e.Kind()
		out[i] = Snapshot{Kind: k, Index: counts[k], Parts: e.Evaluate(t)}
		counts[k]++
	}
	return out
}

// clampHorizontal pulls p back onto the circle of radius r around the
// origin of the XZ plane when it lies outside it.
func clampHorizontal(p Vec3, r float64) Vec3 {
	d := math.Hypot(p.X, p.Z)
	if d <= r || d == 0 {
		return p
	}
	angle := math.Atan2(p.Z, p.X)
	p.X = math.Cos(angle) * r
	p.Z = math.Sin(angle) * r
	return p
}

// clampOffset limits the distance between p and rest to r.
func clampOffset(p, rest Vec3, r float64) Vec3 {
	off := p.Sub(rest)
	d := off.Len()
	if d <= r || d == 0 {
		return p
	}
	return rest.Add(off.Scale(r / d))
}
