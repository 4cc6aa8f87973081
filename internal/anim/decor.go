package anim

import "math"

// Decor is one of the room's swaying decorations. Its motion depends only
// on its kind and rest position.
type Decor struct {
	kind Kind
	Rest Vec3
}

// NewText returns the floating message text anchored at rest.
func NewText(rest Vec3) *Decor { return &Decor{kind: KindText, Rest: rest} }

// NewStreamers returns the ring of hanging streamers.
func NewStreamers() *Decor { return &Decor{kind: KindStreamers} }

// NewSpotlight returns the spotlight above the cake.
func NewSpotlight() *Decor { return &Decor{kind: KindSpotlight, Rest: Vec3{Y: 6, Z: 3}} }

// NewFrames returns the group of picture frames on the walls.
func NewFrames() *Decor { return &Decor{kind: KindFrames} }

// Kind returns the decoration kind.
func (d *Decor) Kind() Kind { return d.kind }

// Evaluate returns the decoration pose at time t.
func (d *Decor) Evaluate(t float64) []Pose {
	p := Pose{Position: d.Rest, Scale: Uniform(1)}
	switch d.kind {
	case KindText:
		p.Position.Y += 0.8 + math.Sin(t*1.5)*0.05
		p.Rotation.Y = math.Sin(t*0.5) * 0.1
	case KindStreamers:
		p.Rotation.Y = math.Sin(t*0.5) * 0.1
	case KindSpotlight:
		p.Position.X = math.Sin(t*0.5) * 0.5
		p.Position.Z = math.Cos(t*0.5) * 0.5
	case KindFrames:
		p.Rotation.Y = math.Sin(t*0.3) * 0.02
	}
	return []Pose{p}
}
