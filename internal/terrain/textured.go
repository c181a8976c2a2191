package terrain

import (
	"image"
	"math"
	"sync"

	"region-maptile/internal/raster"
	"region-maptile/internal/texture"
)

// Fallback layer colors used when a layer texture is not available,
// ordered low to high elevation.
var defaultLayerColors = [4]raster.ARGB{
	raster.RGB(164, 136, 117), // dirt
	raster.RGB(65, 87, 47),    // grass
	raster.RGB(157, 145, 131), // mountain
	raster.RGB(125, 128, 130), // rock
}

// TexturedRenderer blends four elevation layers, each either a texture
// stretched over the tile or a flat color.
type TexturedRenderer struct {
	hm       *Heightmap
	opts     Options
	textures texture.Resolver

	mu     sync.Mutex
	scaled map[int][4]*image.NRGBA // keyed by tile size
}

func NewTexturedRenderer(hm *Heightmap, opts Options, textures texture.Resolver) *TexturedRenderer {
	if opts.HeightRange <= 0 {
		opts.HeightRange = 1
	}
	return &TexturedRenderer{
		hm:       hm,
		opts:     opts,
		textures: textures,
		scaled:   make(map[int][4]*image.NRGBA),
	}
}

// layers returns the layer textures scaled to w×h, nil where missing.
func (r *TexturedRenderer) layers(w, h int) [4]*image.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := w<<16 | h
	if l, ok := r.scaled[key]; ok {
		return l
	}
	var l [4]*image.NRGBA
	if r.textures != nil {
		for i, path := range r.opts.Textures {
			if img := r.textures.Resolve(path); img != nil {
				l[i] = texture.ScaleTo(img, w, h)
			}
		}
	}
	r.scaled[key] = l
	return l
}

func layerRGB(layers *[4]*image.NRGBA, i, px, py int) (float64, float64, float64) {
	if img := layers[i]; img != nil {
		o := img.PixOffset(px, py)
		return float64(img.Pix[o]), float64(img.Pix[o+1]), float64(img.Pix[o+2])
	}
	_, cr, cg, cb := defaultLayerColors[i].Channels()
	return float64(cr), float64(cg), float64(cb)
}

func (r *TexturedRenderer) Render(buf *raster.PixelBuffer) {
	w, h := buf.Width(), buf.Height()
	pix := buf.Pix()
	if pix == nil {
		return
	}
	layers := r.layers(w, h)
	flat := r.opts.Light.FlatShade()
	if flat <= 0 {
		flat = 1
	}

	for py := 0; py < h; py++ {
		rowOff := py * w
		for px := 0; px < w; px++ {
			wx, wy := worldSample(px, py, h, r.opts.RegionSize)
			z := r.hm.Sample(wx, wy)
			if z < r.opts.WaterHeight {
				pix[rowOff+px] = uint32(waterColor(r.opts.WaterHeight - z))
				continue
			}

			pos := (z - r.opts.StartHeight) / r.opts.HeightRange * 3
			pos = math.Max(0, math.Min(3, pos))
			i := int(pos)
			frac := pos - float64(i)
			if i >= 3 {
				i, frac = 2, 1
			}
			r0, g0, b0 := layerRGB(&layers, i, px, py)
			r1, g1, b1 := layerRGB(&layers, i+1, px, py)
			cr := r0 + (r1-r0)*frac
			cg := g0 + (g1-g0)*frac
			cb := b0 + (b1-b0)*frac

			shade := r.opts.Light.ComputeShade(r.hm.Normal(int(wx), int(wy))) / flat
			pix[rowOff+px] = uint32(shadeRGB(cr, cg, cb, shade))
		}
	}
}
