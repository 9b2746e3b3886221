package imop

import (
	"fmt"
	"math"
)

// BlendMode is a separable blend mode. The empty mode is Normal.
type BlendMode string

const (
	Normal   BlendMode = ""
	Darken   BlendMode = "darken"
	Lighten  BlendMode = "lighten"
	Multiply BlendMode = "multiply"
	Screen   BlendMode = "screen"
	Overlay  BlendMode = "overlay"
)

// ParseBlendMode accepts the mode names, with "normal" as an alias of Normal.
func ParseBlendMode(s string) (BlendMode, error) {
	switch m := BlendMode(s); m {
	case Normal, Darken, Lighten, Multiply, Screen, Overlay:
		return m, nil
	case "normal":
		return Normal, nil
	}
	return Normal, fmt.Errorf("imop: unsupported blend mode %q", s)
}

// apply mixes the backdrop color cb with the source color cs.
func (m BlendMode) apply(cb, cs float64) float64 {
	switch m {
	case Darken:
		return math.Min(cb, cs)
	case Lighten:
		return math.Max(cb, cs)
	case Multiply:
		return cb * cs
	case Screen:
		return cb + cs - cb*cs
	case Overlay:
		if cb <= 0.5 {
			return 2 * cb * cs
		}
		return 1 - 2*(1-cb)*(1-cs)
	}
	return cs
}

// Blend holds the currently active blend mode.
type Blend struct {
	mode BlendMode
}

// NewBlend initializes a new Blend in Normal mode.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (b *Blend) Set(mode BlendMode) error {
	m, err := ParseBlendMode(string(mode))
	if err != nil {
		return err
	}
	b.mode = m
	return nil
}

// Get returns the currently active blend mode.
func (b *Blend) Get() BlendMode {
	return b.mode
}
