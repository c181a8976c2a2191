package maptile

import (
	"math"

	"region-maptile/internal/raster"
	"region-maptile/internal/scene"
)

// DefaultFaceColor is used for faces whose color cannot be read.
const DefaultFaceColor = raster.Black

// FaceColor returns the solid map color of one texture face of a part.
// It never panics: out-of-range faces and missing texture data yield
// DefaultFaceColor.
func FaceColor(part *scene.Part, face int) raster.ARGB {
	if face < 0 || face >= scene.MaxFaces {
		return DefaultFaceColor
	}
	if part == nil || part.Shape == nil {
		return DefaultFaceColor
	}
	tf := part.Shape.Textures.Face(face)
	if tf == nil {
		return DefaultFaceColor
	}
	// TODO: derive the color from the texture image as well as the tint.
	return raster.RGB(channel(tf.RGBA.R), channel(tf.RGBA.G), channel(tf.RGBA.B))
}

// channel converts a normalized component to 0-255, truncating.
func channel(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	c := v * 255
	if c <= 0 {
		return 0
	}
	if c >= 255 {
		return 255
	}
	return uint8(int(c))
}
