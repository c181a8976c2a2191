// Package encode turns a finished tile buffer into image bytes.
package encode

import (
	"errors"
	"fmt"
	"strings"

	"region-maptile/internal/raster"
)

// ErrReleased is returned when asked to encode a released buffer.
var ErrReleased = errors.New("encode: buffer already released")

// Encoder produces the wire form of a tile. Encode must not retain buf.
type Encoder interface {
	Encode(buf *raster.PixelBuffer) ([]byte, error)
	Format() string
	Ext() string
}

// ByName returns the encoder for a configured format name.
func ByName(name string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "webp":
		return WebP{}, nil
	case "png":
		return PNG{}, nil
	case "zraw":
		return ZRaw{}, nil
	default:
		return nil, fmt.Errorf("encode: unknown format %q", name)
	}
}

func checkBuffer(buf *raster.PixelBuffer) error {
	if buf == nil || buf.Released() {
		return ErrReleased
	}
	if buf.Width() == 0 || buf.Height() == 0 {
		return fmt.Errorf("encode: empty buffer %dx%d", buf.Width(), buf.Height())
	}
	return nil
}
