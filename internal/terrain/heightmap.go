// Package terrain renders the ground layer of a region map tile.
package terrain

import (
	"math"

	"region-maptile/internal/mathutil"
)

// Heightmap is a row-major grid of terrain heights in meters, one sample
// per meter. Row 0 is world Y = 0.
type Heightmap struct {
	width  int
	height int
	data   []float64
}

// NewHeightmap allocates a zero-height map.
func NewHeightmap(w, h int) *Heightmap {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Heightmap{width: w, height: h, data: make([]float64, w*h)}
}

// Flat returns a heightmap where every sample is z.
func Flat(w, h int, z float64) *Heightmap {
	hm := NewHeightmap(w, h)
	for i := range hm.data {
		hm.data[i] = z
	}
	return hm
}

// Width is the grid width in samples.
func (hm *Heightmap) Width() int { return hm.width }

// Height is the grid height in samples.
func (hm *Heightmap) Height() int { return hm.height }

// At returns the raw sample at (x, y), clamped to the grid edge.
func (hm *Heightmap) At(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= hm.width {
		x = hm.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= hm.height {
		y = hm.height - 1
	}
	return hm.data[y*hm.width+x]
}

// Set writes the sample at (x, y). Out-of-range writes are ignored.
func (hm *Heightmap) Set(x, y int, z float64) {
	if x < 0 || y < 0 || x >= hm.width || y >= hm.height {
		return
	}
	hm.data[y*hm.width+x] = z
}

// Sample returns the height at world (x, y), truncating to the containing
// sample. Non-finite coordinates sample the origin.
func (hm *Heightmap) Sample(x, y float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		y = 0
	}
	return hm.At(int(x), int(y))
}

// Normal estimates the surface normal at (x, y) from central differences.
func (hm *Heightmap) Normal(x, y int) mathutil.Vec3 {
	dx := (hm.At(x+1, y) - hm.At(x-1, y)) * 0.5
	dy := (hm.At(x, y+1) - hm.At(x, y-1)) * 0.5
	return mathutil.Vec3{-dx, -dy, 1}.Normalize()
}
