package encode

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/HugoSmits86/nativewebp"

	"region-maptile/internal/raster"
)

// WebP encodes lossless WebP.
type WebP struct{}

func (WebP) Format() string { return "webp" }
func (WebP) Ext() string    { return ".webp" }

func (WebP) Encode(buf *raster.PixelBuffer) ([]byte, error) {
	if err := checkBuffer(buf); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := nativewebp.Encode(&out, buf.ToNRGBA(), nil); err != nil {
		return nil, fmt.Errorf("encode: webp: %w", err)
	}
	return out.Bytes(), nil
}

// PNG encodes a PNG image.
type PNG struct{}

func (PNG) Format() string { return "png" }
func (PNG) Ext() string    { return ".png" }

func (PNG) Encode(buf *raster.PixelBuffer) ([]byte, error) {
	if err := checkBuffer(buf); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&out, buf.ToNRGBA()); err != nil {
		return nil, fmt.Errorf("encode: png: %w", err)
	}
	return out.Bytes(), nil
}
