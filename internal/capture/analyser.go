package capture

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyser converts a block of time-domain samples into a byte spectrum.
//
// Each call windows the most recent FFTSize samples with a Blackman window,
// takes the real FFT, scales magnitudes by 1/N, blends them with the
// previous result (exponential smoothing) and maps the decibel value from
// [MinDecibels, MaxDecibels] linearly onto 0..255.
//
// An Analyser is not safe for concurrent use.
type Analyser struct {
	cfg      Config
	forward  func(dst []complex128, src []float64)
	win      []float64
	buf      []float64
	spec     []complex128
	smoothed []float64
}

// NewAnalyser creates an analyser for the given configuration.
func NewAnalyser(cfg Config) (*Analyser, error) {
	cfg = cfg.Normalize()
	n := cfg.FFTSize

	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	win := make([]float64, n)
	for i := range win {
		win[i] = 1
	}
	win = window.Blackman(win)

	return &Analyser{
		cfg: cfg,
		forward: func(dst []complex128, src []float64) {
			plan.Forward(dst, src)
		},
		win:      win,
		buf:      make([]float64, n),
		spec:     make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
	}, nil
}

// Config returns the normalized configuration.
func (a *Analyser) Config() Config {
	return a.cfg
}

// Bins returns the number of bins written by Analyse.
func (a *Analyser) Bins() int {
	return len(a.smoothed)
}

// Analyse writes the spectrum of samples into out, which must have at
// least Bins() elements. samples shorter than FFTSize are treated as
// zero-padded at the front (the oldest end).
func (a *Analyser) Analyse(samples []float32, out Frame) {
	n := len(a.buf)
	offset := n - len(samples)
	for i := 0; i < n; i++ {
		j := i - offset
		var v float64
		if j >= 0 && j < len(samples) {
			v = float64(samples[j])
		}
		a.buf[i] = v * a.win[i]
	}

	a.forward(a.spec, a.buf)

	tau := a.cfg.Smoothing
	scale := 255 / (a.cfg.MaxDecibels - a.cfg.MinDecibels)
	for k := range a.smoothed {
		mag := cmplx.Abs(a.spec[k]) / float64(n)
		s := tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s

		db := 20 * math.Log10(s)
		out[k] = toByte(scale * (db - a.cfg.MinDecibels))
	}
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
