package terrain

import "region-maptile/internal/raster"

var landGradient = gradient{
	{0, 0xc2, 0xb2, 0x80},
	{2, 0x4c, 0x8a, 0x3c},
	{30, 0x2e, 0x5e, 0x2a},
	{60, 0x7a, 0x6e, 0x5a},
	{120, 0xe0, 0xe0, 0xe0},
}

// ShadedRenderer colors terrain by elevation and shades it by slope.
type ShadedRenderer struct {
	hm   *Heightmap
	opts Options
}

func NewShadedRenderer(hm *Heightmap, opts Options) *ShadedRenderer {
	return &ShadedRenderer{hm: hm, opts: opts}
}

func (r *ShadedRenderer) Render(buf *raster.PixelBuffer) {
	w, h := buf.Width(), buf.Height()
	pix := buf.Pix()
	if pix == nil {
		return
	}
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
			cr, cg, cb := landGradient.at(z - r.opts.WaterHeight)
			shade := r.opts.Light.ComputeShade(r.hm.Normal(int(wx), int(wy))) / flat
			pix[rowOff+px] = uint32(shadeRGB(cr, cg, cb, shade))
		}
	}
}
