// Package maptile draws the object-volume layer of a region map tile and
// runs the tile pipeline from terrain to encoded bytes.
package maptile

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"region-maptile/internal/mathutil"
	"region-maptile/internal/raster"
	"region-maptile/internal/scene"
)

// DefaultRegionSize is the edge length of a region in meters.
const DefaultRegionSize = 256.0

// MaxHeightAboveGround is the height above terrain at which parts stop
// being drawn.
const MaxHeightAboveGround = 256.0

// HeightFunc returns the terrain height at world (x, y).
type HeightFunc func(x, y float64) float64

// OBB is the eight world-space corners of a part's oriented bounding box.
//
// Vertex pattern:
//
//	# XYZ
//	0 --+
//	1 +-+
//	2 +++
//	3 -++
//	4 ---
//	5 +--
//	6 ++-
//	7 -+-
type OBB [8]mathutil.Vec3

var obbSigns = [8]mathutil.Vec3{
	{-1, -1, 1},
	{1, -1, 1},
	{1, 1, 1},
	{-1, 1, 1},
	{-1, -1, -1},
	{1, -1, -1},
	{1, 1, -1},
	{-1, 1, -1},
}

// BuildOBB rotates the half-extent corners of scale by rot and translates
// them to pos.
func BuildOBB(pos mathutil.Vec3, rot mathutil.Quat, scale mathutil.Vec3) OBB {
	half := scale.Scale(0.5)
	var obb OBB
	for i, s := range obbSigns {
		obb[i] = pos.Add(mathutil.Rotate(half.Mul(s), rot))
	}
	return obb
}

// SortKey is the highest Z of the box.
func SortKey(obb *OBB) float64 {
	z := obb[0][2]
	for _, v := range obb[1:] {
		if v[2] > z {
			z = v[2]
		}
	}
	return z
}

// Cross2D is the Z component of (Q-P)×(R-P) on the XY plane. Positive
// means P,Q,R wind counter-clockwise seen from above.
func Cross2D(p, q, r mathutil.Vec3) float64 {
	return (q[0]-p[0])*(r[1]-p[1]) - (q[1]-p[1])*(r[0]-p[0])
}

// obbFace is one box face: the three corners used for the facing test and
// the quad in winding order. The index into obbFaces is the texture face.
type obbFace struct {
	test [3]int
	quad [4]int
}

var obbFaces = [6]obbFace{
	{test: [3]int{0, 1, 3}, quad: [4]int{0, 1, 2, 3}},
	{test: [3]int{4, 5, 0}, quad: [4]int{4, 5, 1, 0}},
	{test: [3]int{5, 6, 1}, quad: [4]int{5, 6, 2, 1}},
	{test: [3]int{6, 7, 2}, quad: [4]int{6, 7, 3, 2}},
	{test: [3]int{7, 4, 3}, quad: [4]int{7, 4, 0, 3}},
	{test: [3]int{7, 6, 4}, quad: [4]int{7, 6, 5, 4}},
}

// FacesUp reports, per face index, whether the face points up.
func FacesUp(obb *OBB) [6]bool {
	var up [6]bool
	for i, f := range obbFaces {
		up[i] = Cross2D(obb[f.test[0]], obb[f.test[1]], obb[f.test[2]]) > 0
	}
	return up
}

// Project maps a world vertex to image space. Image Y grows downward.
func Project(v mathutil.Vec3, scaleFactor float64, bufHeight int) raster.Point {
	return raster.Point{
		X: int(math.Round(v[0] * scaleFactor)),
		Y: bufHeight - int(math.Round(v[1]*scaleFactor)),
	}
}

// Face is one upward face ready to be filled.
type Face struct {
	Index   int
	Color   raster.ARGB
	Points  [4]raster.Point
	SortKey float64
}

// Reason says why a part was left off the map.
type Reason int

const (
	Drawn Reason = iota
	ReasonNoShape
	ReasonFlags
	ReasonTooSmall
	ReasonFoliage
	ReasonNonFinite
	ReasonOutOfRegion
	ReasonTooHigh
	numReasons
)

var reasonNames = [numReasons]string{
	"drawn",
	"no_shape",
	"temp_or_phys",
	"too_small",
	"foliage",
	"non_finite",
	"out_of_region",
	"too_high",
}

func (r Reason) String() string {
	if r < 0 || r >= numReasons {
		return "unknown"
	}
	return reasonNames[r]
}

const excludedFlags = scene.FlagPhysics | scene.FlagTemporary | scene.FlagTemporaryOnRez

// Exclude reports whether a part is unfit for the map and why. Height is
// sampled at the truncated world X,Y.
func Exclude(part *scene.Part, regionSize float64, height HeightFunc) (Reason, bool) {
	if part == nil || part.Shape == nil || part.Shape.Textures == nil || part.Shape.Textures.Default == nil {
		return ReasonNoShape, true
	}
	if part.HasFlags(excludedFlags) {
		return ReasonFlags, true
	}
	// Draw only if the part is over 1 meter in all directions.
	if part.Scale[0] <= 1 || part.Scale[1] <= 1 || part.Scale[2] <= 1 {
		return ReasonTooSmall, true
	}
	// No useful tree representation from a box.
	switch part.Shape.PCode {
	case scene.PCodeTree, scene.PCodeNewTree, scene.PCodeGrass:
		return ReasonFoliage, true
	}

	pos := part.WorldPosition()
	if math.IsNaN(pos[0]) || math.IsNaN(pos[1]) || math.IsInf(pos[0], 0) || math.IsInf(pos[1], 0) {
		return ReasonNonFinite, true
	}
	// REVISIT: parts centred outside the region can still overlap into it.
	if pos[0] < 0 || pos[0] >= regionSize || pos[1] < 0 || pos[1] >= regionSize {
		return ReasonOutOfRegion, true
	}
	if height != nil && pos[2] >= height(math.Trunc(pos[0]), math.Trunc(pos[1]))+MaxHeightAboveGround {
		return ReasonTooHigh, true
	}
	return Drawn, false
}

// Stats summarizes one render pass.
type Stats struct {
	Entities int
	Parts    int
	Drawn    int
	Faces    int
	Skipped  [numReasons]int
	Elapsed  time.Duration
}

// SkippedTotal is the number of parts excluded for any reason.
func (s *Stats) SkippedTotal() int {
	n := 0
	for i, c := range s.Skipped {
		if Reason(i) != Drawn {
			n += c
		}
	}
	return n
}

// VolumeRenderer draws upward-facing OBB faces of every eligible part,
// lowest box top first.
type VolumeRenderer struct {
	RegionSize float64
	log        *zap.Logger
}

// NewVolumeRenderer returns a renderer for regions of the given size.
// A non-positive size means DefaultRegionSize; a nil logger is silent.
func NewVolumeRenderer(regionSize float64, log *zap.Logger) *VolumeRenderer {
	if regionSize <= 0 || math.IsNaN(regionSize) {
		regionSize = DefaultRegionSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VolumeRenderer{RegionSize: regionSize, log: log}
}

// CollectFaces returns every upward face of every eligible part in the
// snapshot, sorted by ascending sort key. Ties keep snapshot order.
func (r *VolumeRenderer) CollectFaces(snap *scene.Snapshot, bufHeight int, height HeightFunc, stats *Stats) []Face {
	if stats == nil {
		stats = &Stats{}
	}
	if snap == nil {
		return nil
	}
	scaleFactor := float64(bufHeight) / r.RegionSize

	var faces []Face
	for _, e := range snap.Entities {
		stats.Entities++
		// Only entities with parts can be drawn.
		holder, ok := e.(scene.PartHolder)
		if !ok {
			continue
		}
		for _, part := range holder.Parts() {
			stats.Parts++
			if reason, skip := Exclude(part, r.RegionSize, height); skip {
				stats.Skipped[reason]++
				continue
			}
			stats.Drawn++

			obb := BuildOBB(part.WorldPosition(), part.WorldRotation(), part.Scale)
			key := SortKey(&obb)
			up := FacesUp(&obb)
			for i, f := range obbFaces {
				if !up[i] {
					continue
				}
				face := Face{Index: i, Color: FaceColor(part, i), SortKey: key}
				for k, vi := range f.quad {
					face.Points[k] = Project(obb[vi], scaleFactor, bufHeight)
				}
				faces = append(faces, face)
			}
		}
	}

	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].SortKey < faces[j].SortKey
	})
	stats.Faces = len(faces)
	return faces
}

// Render draws the snapshot's object volumes onto buf. It never fails;
// unusable parts are counted in the returned stats and skipped.
func (r *VolumeRenderer) Render(snap *scene.Snapshot, buf *raster.PixelBuffer, height HeightFunc) Stats {
	start := time.Now()
	r.log.Info("generating map tile object volumes")

	var stats Stats
	faces := r.CollectFaces(snap, buf.Height(), height, &stats)
	for i := range faces {
		raster.FillPolygon(buf, faces[i].Points[:], faces[i].Color)
	}

	stats.Elapsed = time.Since(start)
	r.log.Info("object volumes drawn",
		zap.Int("entities", stats.Entities),
		zap.Int("parts", stats.Parts),
		zap.Int("drawn", stats.Drawn),
		zap.Int("skipped", stats.SkippedTotal()),
		zap.Int("faces", stats.Faces),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return stats
}
