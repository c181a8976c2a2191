package encode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"region-maptile/internal/raster"
)

// zrawMagic prefixes every ZRaw tile.
var zrawMagic = [4]byte{'M', 'T', 'Z', '1'}

const zrawHeaderLen = 12

// ErrBadZRaw is returned for input that is not a ZRaw tile.
var ErrBadZRaw = errors.New("encode: not a zraw tile")

// ZRaw stores the raw ARGB pixels (little-endian) behind a 12-byte header
// (magic, width, height as uint32 LE), compressed with zstd.
type ZRaw struct{}

func (ZRaw) Format() string { return "zraw" }
func (ZRaw) Ext() string    { return ".zraw" }

func (ZRaw) Encode(buf *raster.PixelBuffer) ([]byte, error) {
	if err := checkBuffer(buf); err != nil {
		return nil, err
	}
	pix := buf.Pix()
	raw := make([]byte, zrawHeaderLen+len(pix)*4)
	copy(raw, zrawMagic[:])
	binary.LittleEndian.PutUint32(raw[4:], uint32(buf.Width()))
	binary.LittleEndian.PutUint32(raw[8:], uint32(buf.Height()))
	for i, p := range pix {
		binary.LittleEndian.PutUint32(raw[zrawHeaderLen+i*4:], p)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("encode: zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// DecodeZRaw restores a buffer written by ZRaw.
func DecodeZRaw(data []byte) (*raster.PixelBuffer, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("encode: zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("encode: zstd decode: %w", err)
	}
	if len(raw) < zrawHeaderLen || [4]byte(raw[:4]) != zrawMagic {
		return nil, ErrBadZRaw
	}
	w32 := binary.LittleEndian.Uint32(raw[4:])
	h32 := binary.LittleEndian.Uint32(raw[8:])
	body := uint64(len(raw) - zrawHeaderLen)
	if w32 == 0 || h32 == 0 || body%4 != 0 || uint64(w32)*uint64(h32) != body/4 {
		return nil, fmt.Errorf("%w: size %dx%d does not match %d bytes", ErrBadZRaw, w32, h32, body)
	}
	w, h := int(w32), int(h32)

	buf := raster.NewPixelBuffer(w, h)
	pix := buf.Pix()
	for i := range pix {
		pix[i] = binary.LittleEndian.Uint32(raw[zrawHeaderLen+i*4:])
	}
	return buf, nil
}
