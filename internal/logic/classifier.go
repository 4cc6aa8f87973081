package logic

// Default classifier tuning. These were tuned by ear against laptop
// microphones and are exposed as flags by the daemon.
const (
	DefaultThreshold       = 140.0
	DefaultSustainFrames   = 5
	DefaultLowBandFraction = 0.1
)

// ClassifierConfig holds the blow detection parameters.
type ClassifierConfig struct {
	// Threshold is the low-band mean magnitude (0-255 scale) a frame must exceed.
	Threshold float64
	// SustainFrames is the number of consecutive frames above threshold
	// required before a blow is reported.
	SustainFrames int
	// LowBandFraction is the share of the lowest frequency bins averaged.
	LowBandFraction float64
}

// DefaultClassifierConfig returns the default tuning.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Threshold:       DefaultThreshold,
		SustainFrames:   DefaultSustainFrames,
		LowBandFraction: DefaultLowBandFraction,
	}
}

func (c ClassifierConfig) normalized() ClassifierConfig {
	if c.SustainFrames < 1 {
		c.SustainFrames = 1
	}
	if c.LowBandFraction <= 0 || c.LowBandFraction > 1 {
		c.LowBandFraction = DefaultLowBandFraction
	}
	return c
}

// Classifier decides from a stream of frequency frames whether the user is blowing.
// A blow is reported once per sustained episode: the consecutive counter must
// drop back to zero before another blow can be reported.
type Classifier struct {
	cfg         ClassifierConfig
	consecutive int
	fired       bool
	stopped     bool
	episodes    int
	lastMean    float64
}

// NewClassifier creates a classifier with the given parameters.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg.normalized()}
}

// Config returns the effective parameters.
func (c *Classifier) Config() ClassifierConfig {
	return c.cfg
}

// Process consumes one frame and reports whether a blow was detected on it.
// It returns true exactly once per episode, on the frame where the counter
// first reaches SustainFrames.
func (c *Classifier) Process(frame []uint8) bool {
	if c.stopped {
		return false
	}

	mean := LowBandMean(frame, c.cfg.LowBandFraction)
	c.lastMean = mean

	if mean <= c.cfg.Threshold {
		c.consecutive = 0
		c.fired = false
		return false
	}

	c.consecutive++
	if c.consecutive >= c.cfg.SustainFrames && !c.fired {
		c.fired = true
		c.episodes++
		return true
	}
	return false
}

// Blowing reports whether the current episode has reached the sustain count.
func (c *Classifier) Blowing() bool {
	return !c.stopped && c.fired
}

// Consecutive returns the current count of consecutive above-threshold frames.
func (c *Classifier) Consecutive() int {
	return c.consecutive
}

// LastMean returns the low-band mean of the most recent frame.
func (c *Classifier) LastMean() float64 {
	return c.lastMean
}

// Episodes returns the number of blows reported since creation.
func (c *Classifier) Episodes() int {
	return c.episodes
}

// Reset clears the episode state. A stopped classifier is re-armed.
func (c *Classifier) Reset() {
	c.consecutive = 0
	c.fired = false
	c.stopped = false
	c.lastMean = 0
}

// Stop makes the classifier inert until the next Reset. Used when the
// input stream ends mid-session.
func (c *Classifier) Stop() {
	c.stopped = true
	c.consecutive = 0
	c.fired = false
}

// Stopped reports whether Stop has been called since the last Reset.
func (c *Classifier) Stopped() bool {
	return c.stopped
}

// LowBandMean returns the arithmetic mean of the lowest fraction of bins.
// At least one bin is always averaged; an empty frame yields 0.
func LowBandMean(frame []uint8, fraction float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	n := int(float64(len(frame)) * fraction)
	if n < 1 {
		n = 1
	}
	if n > len(frame) {
		n = len(frame)
	}

	sum := 0
	for _, v := range frame[:n] {
		sum += int(v)
	}
	return float64(sum) / float64(n)
}
