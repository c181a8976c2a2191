package raster

import "image"

// ARGB is a packed 32-bit pixel, 0xAARRGGBB.
type ARGB uint32

// RGB returns an opaque color.
func RGB(r, g, b uint8) ARGB {
	return 0xff000000 | ARGB(r)<<16 | ARGB(g)<<8 | ARGB(b)
}

// Channels unpacks the color.
func (c ARGB) Channels() (a, r, g, b uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Black is opaque black.
const Black ARGB = 0xff000000

// PixelBuffer holds the rendering target as one flat row-major slice of
// ARGB pixels. It has a single owner and is not safe for concurrent use.
type PixelBuffer struct {
	width    int
	height   int
	pix      []uint32 // len = width*height
	released bool
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
// Negative dimensions are treated as zero.
func NewPixelBuffer(w, h int) *PixelBuffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &PixelBuffer{
		width:  w,
		height: h,
		pix:    make([]uint32, w*h),
	}
}

// Width is the buffer width in pixels.
func (b *PixelBuffer) Width() int { return b.width }

// Height is the buffer height in pixels.
func (b *PixelBuffer) Height() int { return b.height }

// Bounds returns the pixel rectangle (0,0)-(w,h).
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// Pix exposes the pixel array for direct writes. Index is y*Width()+x.
// Returns nil after Release.
func (b *PixelBuffer) Pix() []uint32 {
	return b.pix
}

// At returns the pixel at (x, y), or 0 outside the buffer.
func (b *PixelBuffer) At(x, y int) ARGB {
	if x < 0 || y < 0 || x >= b.width || y >= b.height || b.pix == nil {
		return 0
	}
	return ARGB(b.pix[y*b.width+x])
}

// Set writes one pixel. Out-of-range coordinates are ignored.
func (b *PixelBuffer) Set(x, y int, c ARGB) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height || b.pix == nil {
		return
	}
	b.pix[y*b.width+x] = uint32(c)
}

// Clear fills the whole buffer with c.
func (b *PixelBuffer) Clear(c ARGB) {
	for i := range b.pix {
		b.pix[i] = uint32(c)
	}
}

// FillSpan writes c to pixels [x0, x1) of row y, clipped to the buffer.
func (b *PixelBuffer) FillSpan(y, x0, x1 int, c ARGB) {
	if y < 0 || y >= b.height || b.pix == nil {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > b.width {
		x1 = b.width
	}
	if x0 >= x1 {
		return
	}
	row := b.pix[y*b.width+x0 : y*b.width+x1]
	v := uint32(c)
	for i := range row {
		row[i] = v
	}
}

// Release drops the pixel storage. Calling it again is a no-op.
func (b *PixelBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.pix = nil
}

// Released reports whether Release has been called.
func (b *PixelBuffer) Released() bool {
	return b.released
}

// ToNRGBA copies the pixels into a new image for encoders that take an
// image.Image.
func (b *PixelBuffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(b.Bounds())
	if b.pix == nil {
		return img
	}
	for i, p := range b.pix {
		o := i * 4
		img.Pix[o] = uint8(p >> 16)
		img.Pix[o+1] = uint8(p >> 8)
		img.Pix[o+2] = uint8(p)
		img.Pix[o+3] = uint8(p >> 24)
	}
	return img
}
