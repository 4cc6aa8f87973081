package anim

import (
	"math/rand/v2"

	"github.com/sweeney/blowout/internal/cake"
)

// Offsets of the candle ring and message group above the top layer.
const (
	CandleBaseOffset   = 0.3
	FlameOffset        = 0.45
	MessageGroupOffset = 1.5
)

// Layout is the animated content of a cake scene.
type Layout struct {
	Candles  []Vec3
	Flames   []*Flame
	Balloons []*Balloon
	Sparkles []*Sparkle
	Text     *Decor
}

// NewLayout builds the animated entities for cfg. All randomized
// parameters are drawn from rng.
func NewLayout(cfg cake.Config, rng *rand.Rand) *Layout {
	top := cfg.TopLayer()
	ringCenter := Vec3{Y: top.Y + CandleBaseOffset}
	messageCenter := Vec3{Y: top.Y + MessageGroupOffset}

	l := &Layout{
		Candles: CandlePositions(ringCenter, top.Radius, cfg.CandleCount),
		Text:    NewText(messageCenter),
	}
	for _, c := range l.Candles {
		l.Flames = append(l.Flames, NewFlame(c.Add(Vec3{Y: FlameOffset}), rng))
	}
	l.Balloons = NewBalloons(cfg.BalloonCount, messageCenter, top.Radius, rng)
	l.Sparkles = NewSparkles(SparkleCount(len(l.Balloons)), top.Radius*0.6, rng)
	return l
}

// Register adds every entity of the layout, plus the room decorations, to s.
func (l *Layout) Register(s *Scheduler) {
	for _, f := range l.Flames {
		s.Add(f)
	}
	for _, b := range l.Balloons {
		s.Add(b)
	}
	for _, sp := range l.Sparkles {
		s.Add(sp)
	}
	s.Add(l.Text, NewStreamers(), NewSpotlight(), NewFrames())
}
