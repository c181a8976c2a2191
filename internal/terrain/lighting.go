package terrain

import (
	"math"

	"region-maptile/internal/mathutil"
)

// LightConfig holds the parameters for slope shading.
type LightConfig struct {
	LightDir mathutil.Vec3
	Ambient  float64
	Direct   float64
	Max      float64 // upper bound on the shade
}

// DefaultLightConfig lights the map from the north-west, high in the sky.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir: mathutil.Vec3{-1, 1, 2}.Normalize(),
		Ambient:  0.45,
		Direct:   0.70,
		Max:      1.15,
	}
}

// ComputeShade returns the lighting scalar for a surface normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	ndl := normal.Dot(lc.LightDir)
	if ndl < 0 {
		ndl = 0
	}
	return math.Min(lc.Ambient+ndl*lc.Direct, lc.Max)
}

// FlatShade is the shade of a horizontal surface.
func (lc *LightConfig) FlatShade() float64 {
	return lc.ComputeShade(mathutil.Vec3{0, 0, 1})
}

func clamp255(v float64) uint8 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
