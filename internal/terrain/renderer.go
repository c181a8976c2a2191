package terrain

import (
	"region-maptile/internal/raster"
	"region-maptile/internal/texture"
)

// Renderer paints the terrain layer into a tile buffer.
type Renderer interface {
	Render(buf *raster.PixelBuffer)
}

// Options configures both terrain renderers.
type Options struct {
	RegionSize  float64
	WaterHeight float64

	// Elevation band for textured terrain layers.
	StartHeight float64
	HeightRange float64
	Textures    [4]string

	Light LightConfig
}

// DefaultOptions matches a standard 256m region with water at 20m.
func DefaultOptions() Options {
	return Options{
		RegionSize:  256,
		WaterHeight: 20,
		StartHeight: 10,
		HeightRange: 60,
		Light:       DefaultLightConfig(),
	}
}

// NewRenderer returns the textured renderer when textured is set, else the
// shaded one. textures may be nil when textured is false.
func NewRenderer(textured bool, hm *Heightmap, opts Options, textures texture.Resolver) Renderer {
	if opts.RegionSize <= 0 {
		opts.RegionSize = 256
	}
	if textured {
		return NewTexturedRenderer(hm, opts, textures)
	}
	return NewShadedRenderer(hm, opts)
}

// worldSample maps pixel (px, py) to the heightmap sample under its centre.
// Image row 0 is the north edge (highest world Y).
func worldSample(px, py, bufHeight int, regionSize float64) (float64, float64) {
	s := float64(bufHeight) / regionSize
	return (float64(px) + 0.5) / s, (float64(bufHeight-py) - 0.5) / s
}

type colorStop struct {
	at      float64
	r, g, b float64
}

// gradient interpolates linearly between ascending stops.
type gradient []colorStop

func (gr gradient) at(v float64) (float64, float64, float64) {
	if v <= gr[0].at {
		return gr[0].r, gr[0].g, gr[0].b
	}
	for i := 1; i < len(gr); i++ {
		if v < gr[i].at {
			a, b := gr[i-1], gr[i]
			t := (v - a.at) / (b.at - a.at)
			return a.r + (b.r-a.r)*t, a.g + (b.g-a.g)*t, a.b + (b.b-a.b)*t
		}
	}
	last := gr[len(gr)-1]
	return last.r, last.g, last.b
}

var waterGradient = gradient{
	{0, 0x3a, 0x6e, 0xa5},
	{30, 0x0a, 0x1e, 0x46},
}

func shadeRGB(r, g, b, shade float64) raster.ARGB {
	return raster.RGB(clamp255(r*shade), clamp255(g*shade), clamp255(b*shade))
}

func waterColor(depth float64) raster.ARGB {
	r, g, b := waterGradient.at(depth)
	return raster.RGB(clamp255(r), clamp255(g), clamp255(b))
}
