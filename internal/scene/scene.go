package scene

import (
	"time"

	"github.com/sweeney/blowout/internal/anim"
	"github.com/sweeney/blowout/internal/cake"
	"github.com/sweeney/blowout/internal/logic"
	"github.com/sweeney/blowout/internal/particle"
)

// Scene is the render-ready description of one frame. It shares only
// read-only data with the session and may be handed to other goroutines.
type Scene struct {
	SessionID string            `json:"sessionId"`
	Timestamp time.Time         `json:"timestamp"`
	Elapsed   float64           `json:"elapsed"`
	State     logic.State       `json:"state"`
	Candles   logic.CandleState `json:"candles"`
	Blowing   bool              `json:"blowing"`
	LowBand   float64           `json:"lowBand"`
	MicReady  bool              `json:"micReady"`
	Overlay   bool              `json:"overlay"`
	Music     bool              `json:"music"`
	Ambient   float64           `json:"ambient"`

	Cake     cake.Config         `json:"cake"`
	Look     Look                `json:"look"`
	Flames   []Flame             `json:"flames"`
	Decor    []anim.Snapshot     `json:"decor"`
	Confetti []particle.Particle `json:"confetti"`
}

// Flame is one candle. Parts is empty and Intensity zero once the candles
// are out.
type Flame struct {
	Wick      anim.Vec3   `json:"wick"`
	Lit       bool        `json:"lit"`
	Intensity float64     `json:"intensity"`
	Parts     []anim.Pose `json:"parts,omitempty"`
}

// Look is the cake appearance derived from its configuration.
type Look struct {
	Sponge string       `json:"sponge"`
	Lines  []string     `json:"lines"`
	Layers []cake.Layer `json:"layers"`
}

func newLook(c cake.Config) Look {
	return Look{
		Sponge: c.SpongeColor(),
		Lines:  c.MessageLines(),
		Layers: c.LayerGeometry(),
	}
}

// Ambient light levels. The room dims when the candles go out.
const (
	AmbientLit = 0.6
	AmbientOut = 0.3
)

// coreIndex is the position of the bright core among a flame's parts.
const coreIndex = 2

func (s *Session) build(now time.Time, snaps []anim.Snapshot) Scene {
	lit := s.machine.Candles() == logic.CandlesLit

	sc := Scene{
		SessionID: s.id,
		Timestamp: now,
		Elapsed:   s.sched.Clock().Seconds(),
		State:     s.machine.State(),
		Candles:   s.machine.Candles(),
		Blowing:   s.machine.MicReady() && s.classifier.Blowing(),
		LowBand:   s.classifier.LastMean(),
		MicReady:  s.machine.MicReady(),
		Overlay:   s.overlay,
		Music:     s.music,
		Ambient:   AmbientOut,
		Cake:      s.opts.Cake,
		Look:      s.look,
		Flames:    make([]Flame, len(s.layout.Candles)),
		Confetti:  s.confetti.Particles(),
	}

	if lit {
		sc.Ambient = AmbientLit
	}
	for i, wick := range s.layout.Candles {
		sc.Flames[i] = Flame{Wick: wick}
	}
	for _, snap := range snaps {
		if snap.Kind != anim.KindFlame {
			sc.Decor = append(sc.Decor, snap)
			continue
		}
		if !lit || snap.Index >= len(sc.Flames) {
			continue
		}
		f := &sc.Flames[snap.Index]
		f.Lit = true
		f.Parts = snap.Parts
		if len(snap.Parts) > coreIndex {
			f.Intensity = snap.Parts[coreIndex].Intensity
		}
	}
	return sc
}
