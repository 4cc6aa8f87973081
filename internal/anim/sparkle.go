package anim

import (
	"math"
	"math/rand/v2"
)

// SparkleColors is the sparkle palette, cycled by index.
var SparkleColors = []string{"#FFD700", "#FF90E8", "#64FFDA", "#00BFFF"}

// Sparkle orbits the message text. Positions are relative to the text.
type Sparkle struct {
	Rest   Vec3
	Index  int
	Radius float64 // orbit radius; positions are clamped to 0.7 of it
	Color  string
}

// Kind returns KindSparkle.
func (s *Sparkle) Kind() Kind { return KindSparkle }

// Evaluate returns the single sparkle pose at time t.
func (s *Sparkle) Evaluate(t float64) []Pose {
	i := float64(s.Index)
	p := Vec3{
		X: s.Rest.X + 0.02*(math.Cos(0.5*i)-math.Cos(3*t+0.5*i)),
		Y: math.Sin(t*2+i) * 0.03,
		Z: s.Rest.Z + 0.03*(math.Sin(2*t+0.5*i)-math.Sin(0.5*i)),
	}
	p = clampHorizontal(p, s.Radius*0.7)
	return []Pose{{
		Position: p,
		Rotation: Vec3{Z: math.Mod(t*(0.5+i*0.05), 2*math.Pi)},
		Scale:    Uniform(0.8 + math.Sin(t*3+i)*0.2),
	}}
}

// SparkleCount returns how many sparkles decorate a message given the
// balloon count.
func SparkleCount(balloons int) int {
	return min(balloons+8, 28)
}

// NewSparkles scatters count sparkles around the text at 0.3..0.8 of radius.
func NewSparkles(count int, radius float64, rng *rand.Rand) []*Sparkle {
	if count <= 0 {
		return nil
	}
	out := make([]*Sparkle, count)
	for i := range out {
		angle := float64(i) / float64(count) * math.Pi * 2
		dist := (0.3 + rng.Float64()*0.5) * radius
		out[i] = &Sparkle{
			Rest: Vec3{
				X: math.Cos(angle) * dist,
				Y: (rng.Float64() - 0.5) * 0.4,
				Z: math.Sin(angle) * dist,
			},
			Index:  i,
			Radius: radius,
			Color:  SparkleColors[i%len(SparkleColors)],
		}
	}
	return out
}
