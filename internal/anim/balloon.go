package anim

import (
	"math"
	"math/rand/v2"
)

// DefaultBalloonClamp is the furthest a balloon may float from its rest
// position.
const DefaultBalloonClamp = 0.1

// BalloonColors is the balloon palette, cycled by index.
var BalloonColors = []string{"#FF5252", "#FFD740", "#64FFDA", "#448AFF", "#E040FB", "#FF6E40"}

// Balloon floats gently around its rest position.
type Balloon struct {
	Rest        Vec3
	Phase       float64 // per-balloon phase, the balloon's index
	Color       string
	Metallic    bool
	ClampRadius float64
}

// Kind returns KindBalloon.
func (b *Balloon) Kind() Kind { return KindBalloon }

// Evaluate returns the single balloon pose at time t.
//
// The float is the closed form of a drift whose per-second rate is a
// low-frequency sine, so the offset is bounded. It is clamped to
// ClampRadius all the same.
func (b *Balloon) Evaluate(t float64) []Pose {
	i := b.Phase
	off := Vec3{
		X: 0.0375 * (math.Cos(2*i) - math.Cos(0.8*t+2*i)),
		Y: 0.048 * (math.Cos(i) - math.Cos(t+i)),
		Z: 0.0375 * (math.Sin(0.8*t+2*i) - math.Sin(2*i)),
	}
	pos := clampOffset(b.Rest.Add(off), b.Rest, b.ClampRadius)
	return []Pose{{
		Position: pos,
		Rotation: Vec3{Z: math.Sin(t*0.5+i) * 0.04},
		Scale:    Uniform(1),
	}}
}

// NewBalloons lays out between 6 and 12 balloons on a semicircle above the
// cake. center is the message group origin and radius the top-layer radius.
func NewBalloons(count int, center Vec3, radius float64, rng *rand.Rand) []*Balloon {
	n := min(max(count, 6), 12)
	out := make([]*Balloon, n)
	for i := range out {
		angle := float64(i) / float64(n-1) * math.Pi
		rest := Vec3{
			X: math.Sin(angle)*radius*0.8 + (rng.Float64()-0.5)*0.2,
			Y: math.Cos(angle)*radius*0.5 + 1 + (rng.Float64()-0.5)*0.2,
		}
		out[i] = &Balloon{
			Rest:        center.Add(rest),
			Phase:       float64(i),
			Color:       BalloonColors[i%len(BalloonColors)],
			Metallic:    rng.Float64() > 0.6,
			ClampRadius: DefaultBalloonClamp,
		}
	}
	return out
}
