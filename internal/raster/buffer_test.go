package raster

import "testing"

func TestNewPixelBuffer(t *testing.T) {
	b := NewPixelBuffer(256, 128)
	if b.Width() != 256 || b.Height() != 128 {
		t.Fatalf("size = %dx%d, want 256x128", b.Width(), b.Height())
	}
	if len(b.Pix()) != 256*128 {
		t.Fatalf("len(Pix) = %d, want %d", len(b.Pix()), 256*128)
	}
	for i, p := range b.Pix() {
		if p != 0 {
			t.Fatalf("pixel %d = %#x, want 0", i, p)
		}
	}
}

func TestPixelBufferSetAt(t *testing.T) {
	b := NewPixelBuffer(4, 4)
	c := RGB(10, 20, 30)
	b.Set(1, 2, c)
	if got := b.At(1, 2); got != c {
		t.Errorf("At(1,2) = %#x, want %#x", got, c)
	}
	if got := b.Pix()[2*4+1]; ARGB(got) != c {
		t.Errorf("Pix index mismatch: %#x", got)
	}

	// out of range writes are ignored
	b.Set(-1, 0, c)
	b.Set(4, 0, c)
	b.Set(0, 4, c)
	if got := b.At(-1, 0); got != 0 {
		t.Errorf("At(-1,0) = %#x, want 0", got)
	}
}

func TestPixelBufferFillSpanClips(t *testing.T) {
	b := NewPixelBuffer(8, 2)
	c := RGB(1, 2, 3)
	b.FillSpan(1, -3, 3, c)
	b.FillSpan(1, 6, 20, c)
	b.FillSpan(5, 0, 8, c)

	for x := 0; x < 8; x++ {
		want := ARGB(0)
		if x < 3 || x >= 6 {
			want = c
		}
		if got := b.At(x, 1); got != want {
			t.Errorf("At(%d,1) = %#x, want %#x", x, got, want)
		}
		if got := b.At(x, 0); got != 0 {
			t.Errorf("row 0 touched at x=%d", x)
		}
	}
}

func TestPixelBufferReleaseTwice(t *testing.T) {
	b := NewPixelBuffer(16, 16)
	b.Release()
	b.Release()

	if !b.Released() {
		t.Error("expected Released() after Release")
	}
	if b.Pix() != nil {
		t.Error("expected nil pixels after Release")
	}
	// writes after release are no-ops
	b.Set(0, 0, Black)
	b.FillSpan(0, 0, 16, Black)
	FillPolygon(b, []Point{{0, 0}, {10, 0}, {10, 10}}, Black)
}

func TestToNRGBA(t *testing.T) {
	b := NewPixelBuffer(2, 1)
	b.Set(1, 0, ARGB(0x80112233))
	img := b.ToNRGBA()

	want := []uint8{0, 0, 0, 0, 0x11, 0x22, 0x33, 0x80}
	for i, v := range want {
		if img.Pix[i] != v {
			t.Errorf("Pix[%d] = %#x, want %#x", i, img.Pix[i], v)
		}
	}
}

func TestRGBChannels(t *testing.T) {
	a, r, g, b := RGB(200, 100, 50).Channels()
	if a != 255 || r != 200 || g != 100 || b != 50 {
		t.Errorf("Channels = %d %d %d %d", a, r, g, b)
	}
}
