// Package cake defines the cake appearance configuration supplied by the host.
// Out-of-range values are clamped to the nearest valid bound rather than rejected.
package cake

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Limits on configuration values.
const (
	MinLayers       = 1
	MaxLayers       = 5
	MinCandles      = 0
	MaxCandles      = 70
	MaxMessageLines = 3
	MinBalloons     = 6
	MaxBalloons     = 12
	MaxLineWidth    = 0.1
)

// Flavors, shapes and toppings understood by the renderer.
var (
	Flavors  = []string{"vanilla", "chocolate", "redvelvet", "strawberry", "lemon"}
	Shapes   = []string{"round", "square", "star"}
	Toppings = []string{"sprinkles", "fruit", "chocolate", "flowers", "none"}
)

// flavorColors maps flavor to sponge color.
var flavorColors = map[string]string{
	"chocolate":  "#5D4037",
	"redvelvet":  "#C62828",
	"strawberry": "#F8BBD0",
	"lemon":      "#FFF59D",
	"vanilla":    "#FFECB3",
}

// Config is the cake appearance. It is read-only once handed to a session.
type Config struct {
	Flavor       string  `json:"flavor"`
	Layers       int     `json:"layers"`
	Shape        string  `json:"shape"`
	Color        string  `json:"color"`
	Message      string  `json:"message"`
	CandleCount  int     `json:"candleCount"`
	Topping      string  `json:"topping"`
	MessageColor string  `json:"messageColor"`
	OutlineColor string  `json:"outlineColor"`
	OutlineWidth float64 `json:"outlineWidth"`
	StrokeColor  string  `json:"strokeColor"`
	StrokeWidth  float64 `json:"strokeWidth"`
	BalloonCount int     `json:"balloonCount"`
}

// Default returns the configuration of the stock birthday cake.
func Default() Config {
	return Config{
		Flavor:       "vanilla",
		Layers:       2,
		Shape:        "round",
		Color:        "#FF9EAA",
		Message:      "Happy Birthday",
		CandleCount:  25,
		Topping:      "none",
		MessageColor: "#FFFFFF",
		OutlineColor: "#5C2E91",
		OutlineWidth: 0.02,
		StrokeColor:  "#FF90E8",
		StrokeWidth:  0.01,
		BalloonCount: 12,
	}
}

// TextPreset is a named message styling.
type TextPreset struct {
	Name         string
	TextColor    string
	OutlineColor string
	OutlineWidth float64
	StrokeColor  string
	StrokeWidth  float64
}

// Presets are the message stylings offered by the designer.
var Presets = []TextPreset{
	{Name: "Preset 1", TextColor: "#FFFFFF", OutlineColor: "#FF5252", OutlineWidth: 0.04, StrokeColor: "#FF90E8", StrokeWidth: 0.01},
	{Name: "Preset 2", TextColor: "#FFEB3B", OutlineColor: "#448AFF", OutlineWidth: 0.03, StrokeColor: "#8E24AA", StrokeWidth: 0.008},
	{Name: "Preset 3", TextColor: "#4CAF50", OutlineColor: "#FFC107", OutlineWidth: 0.05, StrokeColor: "#FF5722", StrokeWidth: 0.012},
}

// ApplyPreset returns a copy of c with the preset's text styling.
func (c Config) ApplyPreset(p TextPreset) Config {
	c.MessageColor = p.TextColor
	c.OutlineColor = p.OutlineColor
	c.OutlineWidth = p.OutlineWidth
	c.StrokeColor = p.StrokeColor
	c.StrokeWidth = p.StrokeWidth
	return c
}

// Normalize returns a copy of c with every field clamped or defaulted
// into its valid range.
func (c Config) Normalize() Config {
	d := Default()

	c.Flavor = oneOf(strings.ToLower(c.Flavor), Flavors, d.Flavor)
	c.Shape = oneOf(strings.ToLower(c.Shape), Shapes, d.Shape)
	c.Topping = oneOf(strings.ToLower(c.Topping), Toppings, d.Topping)
	c.Layers = clampInt(c.Layers, MinLayers, MaxLayers)
	c.CandleCount = clampInt(c.CandleCount, MinCandles, MaxCandles)
	c.BalloonCount = clampInt(c.BalloonCount, MinBalloons, MaxBalloons)
	c.Message = clampLines(c.Message, MaxMessageLines)
	c.OutlineWidth = clampFloat(c.OutlineWidth, 0, MaxLineWidth)
	c.StrokeWidth = clampFloat(c.StrokeWidth, 0, MaxLineWidth)

	if c.Color == "" {
		c.Color = d.Color
	}
	if c.MessageColor == "" {
		c.MessageColor = d.MessageColor
	}
	if c.OutlineColor == "" {
		c.OutlineColor = d.OutlineColor
	}
	if c.StrokeColor == "" {
		c.StrokeColor = d.StrokeColor
	}
	return c
}

// Load reads a JSON configuration file. Missing fields take their default
// values and the result is normalized.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read cake config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON configuration. Missing fields take their default
// values and the result is normalized.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse cake config: %w", err)
	}
	return c.Normalize(), nil
}

// SpongeColor returns the sponge color for the configured flavor.
func (c Config) SpongeColor() string {
	if col, ok := flavorColors[c.Flavor]; ok {
		return col
	}
	return flavorColors["vanilla"]
}

// MessageLines returns the message split into display lines.
func (c Config) MessageLines() []string {
	if c.Message == "" {
		return nil
	}
	return strings.Split(c.Message, "\n")
}

// Layer describes one tier of the cake.
type Layer struct {
	Radius float64 `json:"radius"`
	Y      float64 `json:"y"`
}

// Geometry constants of the scene, in scene units.
const (
	MaxRadius   = 1.5
	LayerHeight = 0.5
	TableY      = -1.0
)

// LayerGeometry returns the tiers of the cake, bottom first.
func (c Config) LayerGeometry() []Layer {
	n := clampInt(c.Layers, MinLayers, MaxLayers)
	out := make([]Layer, n)
	for i := range out {
		out[i] = Layer{
			Radius: MaxRadius * (1 - float64(i)*0.15),
			Y:      float64(i)*LayerHeight + TableY,
		}
	}
	return out
}

// TopLayer returns the highest tier.
func (c Config) TopLayer() Layer {
	layers := c.LayerGeometry()
	return layers[len(layers)-1]
}

func oneOf(v string, allowed []string, fallback string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampLines keeps at most n lines of s.
func clampLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}
