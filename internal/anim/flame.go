package anim

import (
	"math"
	"math/rand/v2"
)

// Flame part offsets above the wick, in scene units.
const (
	flameOuterY = 0.02
	flameInnerY = 0.01
	flameCoreY  = -0.01
	flameSmokeY = 0.1
)

// Flame is a candle flame made of an outer teardrop, a middle layer, a
// bright core, a wisp of smoke and a ring of sparks.
//
// Parts returned by Evaluate, in order: outer, inner, core, smoke, sparks.
type Flame struct {
	Rest Vec3

	BaseIntensity float64 // 0.8..1.0
	FlickerSpeed  float64 // 2..4 rad/s
	SizeVariation float64 // 0.05..0.15
	WindOffset    float64 // 0..2π
}

// NewFlame creates a flame at rest with randomized flicker parameters.
func NewFlame(rest Vec3, rng *rand.Rand) *Flame {
	return &Flame{
		Rest:          rest,
		BaseIntensity: rng.Float64()*0.2 + 0.8,
		FlickerSpeed:  rng.Float64()*2 + 2,
		SizeVariation: rng.Float64()*0.1 + 0.05,
		WindOffset:    rng.Float64() * math.Pi * 2,
	}
}

// Kind returns KindFlame.
func (f *Flame) Kind() Kind { return KindFlame }

// Evaluate returns the flame parts at time t.
func (f *Flame) Evaluate(t float64) []Pose {
	sp, sv := f.FlickerSpeed, f.SizeVariation

	flicker1 := math.Sin(t*sp) * sv
	flicker2 := math.Sin(t*sp*1.3+1) * sv * 0.7
	flicker3 := math.Sin(t*sp*0.7+2) * sv * 0.5
	wind := math.Sin(t*0.8+f.WindOffset) * 0.15

	outer := Pose{
		Position: f.Rest.Add(Vec3{X: math.Sin(t*1.5) * 0.01, Y: flameOuterY}),
		Rotation: Vec3{Z: wind + math.Sin(t*2.1)*0.08},
		Scale: Vec3{
			X: f.BaseIntensity + flicker1 + flicker2*0.5,
			Y: 1 + flicker1*0.8 + flicker3,
			Z: f.BaseIntensity + flicker2,
		},
		Intensity: 1.5,
	}

	innerFlicker := math.Sin(t*sp*1.5+0.5) * sv * 0.8
	inner := Pose{
		Position:  f.Rest.Add(Vec3{Y: flameInnerY}),
		Rotation:  Vec3{Z: math.Cos(t*1.2+f.WindOffset) * 0.1},
		Scale:     Vec3{X: 1 + innerFlicker, Y: 1 + innerFlicker*1.2, Z: 1 + innerFlicker*0.6},
		Intensity: 2,
	}

	coreFlicker := math.Sin(t*sp*2.5) * 0.3
	core := Pose{
		Position:  f.Rest.Add(Vec3{Y: flameCoreY}),
		Scale:     Uniform(1 + coreFlicker),
		Intensity: 3 + coreFlicker*2,
	}

	smoke := Pose{
		Position: f.Rest.Add(Vec3{Y: flameSmokeY + math.Sin(t*0.5)*0.02}),
		Rotation: Vec3{Y: math.Mod(t*0.3, 2*math.Pi)},
		Scale:    Uniform(0.8 + math.Sin(t*0.8)*0.2),
	}

	sparks := Pose{
		Position:  f.Rest.Add(Vec3{Y: math.Sin(t*4) * 0.01}),
		Rotation:  Vec3{Y: math.Mod(t*2, 2*math.Pi)},
		Scale:     Uniform(1),
		Intensity: 2,
	}

	return []Pose{outer, inner, core, smoke, sparks}
}

// CandlePositions returns the wick positions of count candles arranged in
// a ring of 0.7·radius centred on center.
func CandlePositions(center Vec3, radius float64, count int) []Vec3 {
	if count <= 0 {
		return nil
	}
	out := make([]Vec3, count)
	step := 2 * math.Pi / float64(count)
	dist := radius * 0.7
	for i := range out {
		a := float64(i) * step
		out[i] = center.Add(Vec3{X: math.Sin(a) * dist, Z: math.Cos(a) * dist})
	}
	return out
}
