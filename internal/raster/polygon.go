package raster

import (
	"math"
	"sort"
)

// Point is an integer image-space coordinate.
type Point struct {
	X, Y int
}

// FillPolygon paints the interior of the closed polygon pts with c,
// overwriting the destination. No blending and no anti-aliasing: a pixel
// is painted when its centre lies inside the polygon (even-odd rule).
// Polygons with fewer than three points paint nothing.
func FillPolygon(buf *PixelBuffer, pts []Point, c ARGB) {
	n := len(pts)
	if n < 3 || buf.Pix() == nil {
		return
	}

	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > buf.Height() {
		maxY = buf.Height()
	}

	// Quads need at most 4 crossings per row; larger polygons grow the slice.
	var xsBuf [8]float64
	for y := minY; y < maxY; y++ {
		yc := float64(y) + 0.5
		xs := xsBuf[:0]
		for i := 0; i < n; i++ {
			a := pts[i]
			b := pts[(i+1)%n]
			ay, by := float64(a.Y), float64(b.Y)
			if (ay <= yc) == (by <= yc) {
				continue
			}
			t := (yc - ay) / (by - ay)
			xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
		}
		if len(xs) < 2 {
			continue
		}
		if len(xs) == 2 {
			if xs[0] > xs[1] {
				xs[0], xs[1] = xs[1], xs[0]
			}
		} else {
			sort.Float64s(xs)
		}
		for i := 0; i+1 < len(xs); i += 2 {
			// pixel x is inside when xs[i] <= x+0.5 < xs[i+1]
			x0 := int(math.Ceil(xs[i] - 0.5))
			x1 := int(math.Ceil(xs[i+1] - 0.5))
			buf.FillSpan(y, x0, x1, c)
		}
	}
}
