// Package snapshotio reads and writes region snapshots as JSON files,
// optionally zstd-compressed, for offline map tile rendering.
package snapshotio

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"region-maptile/internal/mathutil"
	"region-maptile/internal/scene"
	"region-maptile/internal/terrain"
)

// Version is the snapshot file format version.
const Version = 1

// ErrInvalid is returned for files that do not match the snapshot schema.
var ErrInvalid = errors.New("snapshotio: invalid snapshot")

//go:embed snapshot.schema.json
var schemaSource string

const schemaURL = "https://region-maptile.invalid/schemas/snapshot.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString(schemaURL, schemaSource)
})

// File is the on-disk form of one region snapshot.
type File struct {
	Version  int       `json:"version"`
	TakenAt  time.Time `json:"taken_at,omitzero"`
	Region   Region    `json:"region"`
	Terrain  Terrain   `json:"terrain"`
	Entities []Entity  `json:"entities"`
}

// Region locates the snapshot on the grid. Size is the edge in meters.
type Region struct {
	X    int     `json:"x"`
	Y    int     `json:"y"`
	Size float64 `json:"size,omitempty"`
}

// Terrain is either a flat height or a row-major grid of Width×Height
// samples, row 0 at world Y = 0.
type Terrain struct {
	Flat    *float64  `json:"flat,omitempty"`
	Width   int       `json:"width,omitempty"`
	Height  int       `json:"height,omitempty"`
	Heights []float64 `json:"heights,omitempty"`
}

// Entity is an object group or an avatar.
type Entity struct {
	Type     string     `json:"type"`
	ID       string     `json:"id"`
	Name     string     `json:"name,omitempty"`
	Position [3]float64 `json:"position"`
	Rotation []float64  `json:"rotation,omitempty"`
	Euler    []float64  `json:"euler,omitempty"`
	Parts    []Part     `json:"parts,omitempty"`
}

// Part is one primitive. Rotation is a quaternion (x, y, z, w); Euler is
// degrees and only used when Rotation is absent. A part without color has
// no texture data.
type Part struct {
	LocalID  uint32     `json:"local_id,omitempty"`
	Name     string     `json:"name,omitempty"`
	Offset   [3]float64 `json:"offset"`
	Rotation []float64  `json:"rotation,omitempty"`
	Euler    []float64  `json:"euler,omitempty"`
	Scale    [3]float64 `json:"scale"`
	Flags    []string   `json:"flags,omitempty"`
	PCode    string     `json:"pcode,omitempty"`
	Texture  string     `json:"texture,omitempty"`
	Color    []float64  `json:"color,omitempty"`
	Faces    []Face     `json:"faces,omitempty"`
}

// Face overrides one texture face.
type Face struct {
	Face    int       `json:"face"`
	Texture string    `json:"texture,omitempty"`
	Color   []float64 `json:"color"`
}

const (
	TypeObject = "object"
	TypeAvatar = "avatar"
)

func isZstd(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zst")
}

// Load reads, validates and decodes a snapshot file. Paths ending in .zst
// are zstd-decompressed first.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshotio: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if isZstd(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("snapshotio: zstd %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshotio: read %s: %w", path, err)
	}

	file, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Decode validates raw JSON against the snapshot schema and decodes it.
func Decode(data []byte) (*File, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("snapshotio: compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if t := file.Terrain; t.Heights != nil && len(t.Heights) != t.Width*t.Height {
		return nil, fmt.Errorf("%w: terrain has %d heights, want %d", ErrInvalid, len(t.Heights), t.Width*t.Height)
	}
	return &file, nil
}

// Save writes file as indented JSON, zstd-compressed when path ends in
// .zst. Parent directories are created.
func Save(path string, file *File) error {
	if file.Version == 0 {
		file.Version = Version
	}
	if file.Entities == nil {
		file.Entities = []Entity{}
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshotio: marshal: %w", err)
	}

	if isZstd(path) {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("snapshotio: zstd: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return fmt.Errorf("snapshotio: zstd: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("snapshotio: zstd: %w", err)
		}
		data = buf.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshotio: mkdir %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshotio: write %s: %w", path, err)
	}
	return nil
}

// RegionSize is the region edge in meters, 256 when unset.
func (f *File) RegionSize() float64 {
	if f.Region.Size > 0 {
		return f.Region.Size
	}
	return 256
}

// Heightmap builds the region terrain. Files without a grid get a flat map
// covering the region at Terrain.Flat (zero when absent).
func (f *File) Heightmap() *terrain.Heightmap {
	t := f.Terrain
	if len(t.Heights) > 0 && len(t.Heights) == t.Width*t.Height {
		hm := terrain.NewHeightmap(t.Width, t.Height)
		for y := 0; y < t.Height; y++ {
			for x := 0; x < t.Width; x++ {
				hm.Set(x, y, t.Heights[y*t.Width+x])
			}
		}
		return hm
	}
	z := 0.0
	if t.Flat != nil {
		z = *t.Flat
	}
	n := int(f.RegionSize())
	return terrain.Flat(n, n, z)
}

// Snapshot converts the file into a scene snapshot. Unknown flag or pcode
// names are errors.
func (f *File) Snapshot() (*scene.Snapshot, error) {
	snap := &scene.Snapshot{TakenAt: f.TakenAt}
	for i := range f.Entities {
		e := &f.Entities[i]
		switch e.Type {
		case TypeAvatar:
			snap.Entities = append(snap.Entities, &scene.Avatar{
				ID:       e.ID,
				Name:     e.Name,
				Position: mathutil.Vec3(e.Position),
			})
		case TypeObject:
			g := scene.NewObjectGroup(e.ID, mathutil.Vec3(e.Position), rotation(e.Rotation, e.Euler))
			for j := range e.Parts {
				p, err := e.Parts[j].toScene()
				if err != nil {
					return nil, fmt.Errorf("entity %s part %d: %w", e.ID, j, err)
				}
				g.AddPart(p)
			}
			snap.Entities = append(snap.Entities, g)
		default:
			return nil, fmt.Errorf("%w: entity %s has type %q", ErrInvalid, e.ID, e.Type)
		}
	}
	return snap, nil
}

func (p *Part) toScene() (*scene.Part, error) {
	flags, err := ParseFlags(p.Flags)
	if err != nil {
		return nil, err
	}
	pcode, err := ParsePCode(p.PCode)
	if err != nil {
		return nil, err
	}

	part := &scene.Part{
		LocalID:        p.LocalID,
		Name:           p.Name,
		OffsetPosition: mathutil.Vec3(p.Offset),
		RotationOffset: rotation(p.Rotation, p.Euler),
		Scale:          mathutil.Vec3(p.Scale),
		Flags:          flags,
		Shape:          &scene.Shape{PCode: pcode},
	}
	if p.Color == nil {
		return part, nil
	}

	te := &scene.TextureEntry{Default: &scene.TextureFace{TextureID: p.Texture, RGBA: color(p.Color)}}
	for _, fc := range p.Faces {
		if fc.Face < 0 || fc.Face >= scene.MaxFaces {
			return nil, fmt.Errorf("%w: face %d out of range", ErrInvalid, fc.Face)
		}
		te.Faces[fc.Face] = &scene.TextureFace{TextureID: fc.Texture, RGBA: color(fc.Color)}
	}
	part.Shape.Textures = te
	return part, nil
}

func rotation(quat, euler []float64) mathutil.Quat {
	switch {
	case len(quat) == 4:
		return mathutil.Quat{quat[0], quat[1], quat[2], quat[3]}.Normalize()
	case len(euler) == 3:
		return mathutil.EulerToQuat(
			mathutil.Deg2Rad(euler[0]),
			mathutil.Deg2Rad(euler[1]),
			mathutil.Deg2Rad(euler[2]),
		)
	}
	return mathutil.QuatIdentity()
}

// color reads r,g,b[,a]; a missing alpha is opaque.
func color(c []float64) scene.RGBA {
	out := scene.RGBA{A: 1}
	if len(c) > 0 {
		out.R = c[0]
	}
	if len(c) > 1 {
		out.G = c[1]
	}
	if len(c) > 2 {
		out.B = c[2]
	}
	if len(c) > 3 {
		out.A = c[3]
	}
	return out
}
