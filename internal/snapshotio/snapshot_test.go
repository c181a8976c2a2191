package snapshotio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"region-maptile/internal/mathutil"
	"region-maptile/internal/scene"
	"region-maptile/internal/terrain"
)

const sampleJSON = `{
  "version": 1,
  "region": {"x": 1000, "y": 1001},
  "terrain": {"flat": 21},
  "entities": [
    {"type": "avatar", "id": "av1", "name": "Visitor", "position": [10, 10, 22]},
    {
      "type": "object", "id": "house", "position": [128, 128, 25], "euler": [0, 0, 90],
      "parts": [
        {"scale": [10, 8, 4], "color": [0.5, 0.25, 0], "faces": [{"face": 0, "color": [1, 1, 1]}]},
        {"offset": [0, 0, 3], "scale": [2, 2, 2], "flags": ["physics"], "color": [1, 0, 0]},
        {"scale": [5, 5, 5], "pcode": "tree", "color": [0, 1, 0]}
      ]
    }
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSample(t *testing.T) {
	f, err := Load(writeFile(t, "region.json", sampleJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Region.X != 1000 || f.Region.Y != 1001 || f.RegionSize() != 256 {
		t.Errorf("region = %+v", f.Region)
	}

	snap, err := f.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Entities) != 2 {
		t.Fatalf("got %d entities", len(snap.Entities))
	}
	if _, ok := snap.Entities[0].(*scene.Avatar); !ok {
		t.Errorf("entity 0 is %T, want avatar", snap.Entities[0])
	}
	g, ok := snap.Entities[1].(*scene.ObjectGroup)
	if !ok {
		t.Fatalf("entity 1 is %T, want object group", snap.Entities[1])
	}
	parts := g.Parts()
	if len(parts) != 3 {
		t.Fatalf("got %d parts", len(parts))
	}
	if parts[0].Shape.Textures.Face(0).RGBA != (scene.RGBA{R: 1, G: 1, B: 1, A: 1}) {
		t.Errorf("face 0 override = %+v", parts[0].Shape.Textures.Face(0).RGBA)
	}
	if parts[0].Shape.Textures.Face(3).RGBA.G != 0.25 {
		t.Errorf("face 3 should use the default color")
	}
	if !parts[1].HasFlags(scene.FlagPhysics) {
		t.Error("part 1 should carry the physics flag")
	}
	if parts[2].Shape.PCode != scene.PCodeTree {
		t.Errorf("part 2 pcode = %d", parts[2].Shape.PCode)
	}

	// yaw leaves a vertical offset alone
	if p := parts[1].WorldPosition(); !near(p, mathutil.Vec3{128, 128, 28}) {
		t.Errorf("part 1 world position = %v", p)
	}
	if got := f.Heightmap().Sample(50, 50); got != 21 {
		t.Errorf("flat terrain = %v, want 21", got)
	}
}

func near(a, b mathutil.Vec3) bool {
	return a.Sub(b).Len() < 1e-9
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"version":`},
		{"wrong version", `{"version": 2, "region": {"x": 0, "y": 0}, "entities": []}`},
		{"missing region", `{"version": 1, "entities": []}`},
		{"bad entity type", `{"version": 1, "region": {"x": 0, "y": 0}, "entities": [{"type": "ghost", "id": "g"}]}`},
		{"short scale", `{"version": 1, "region": {"x": 0, "y": 0}, "entities": [{"type": "object", "id": "o", "parts": [{"scale": [1, 2]}]}]}`},
		{"unknown flag", `{"version": 1, "region": {"x": 0, "y": 0}, "entities": [{"type": "object", "id": "o", "parts": [{"scale": [2, 2, 2], "flags": ["sticky"]}]}]}`},
		{"face out of range", `{"version": 1, "region": {"x": 0, "y": 0}, "entities": [{"type": "object", "id": "o", "parts": [{"scale": [2, 2, 2], "color": [1, 1, 1], "faces": [{"face": 32, "color": [0, 0, 0]}]}]}]}`},
		{"grid size mismatch", `{"version": 1, "region": {"x": 0, "y": 0}, "terrain": {"width": 2, "height": 2, "heights": [1, 2, 3]}, "entities": []}`},
		{"grid without size", `{"version": 1, "region": {"x": 0, "y": 0}, "terrain": {"heights": [1]}, "entities": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Decode error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("expected a plain open error, got %v", err)
	}
}

func TestHeightmapGrid(t *testing.T) {
	f, err := Decode([]byte(`{"version": 1, "region": {"x": 0, "y": 0}, "terrain": {"width": 2, "height": 2, "heights": [1, 2, 3, 4]}, "entities": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	hm := f.Heightmap()
	if hm.At(1, 0) != 2 || hm.At(0, 1) != 3 {
		t.Errorf("grid not row-major: (1,0)=%v (0,1)=%v", hm.At(1, 0), hm.At(0, 1))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	hm := terrain.Flat(4, 4, 12)
	part := &scene.Part{
		Name:  "root",
		Scale: mathutil.Vec3{3, 3, 3},
		Flags: scene.FlagPhantom,
		Shape: &scene.Shape{
			PCode: scene.PCodePrimitive,
			Textures: &scene.TextureEntry{
				Default: &scene.TextureFace{TextureID: "wood", RGBA: scene.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}},
			},
		},
	}
	part.Shape.Textures.Faces[2] = &scene.TextureFace{RGBA: scene.RGBA{B: 1, A: 1}}
	rot := mathutil.QuatFromAxisAngle(mathutil.Vec3{0, 0, 1}, 0.5)
	s := scene.New()
	s.Add(scene.NewObjectGroup("box", mathutil.Vec3{20, 30, 40}, rot, part))
	s.Add(&scene.Avatar{ID: "me", Position: mathutil.Vec3{1, 2, 3}})

	for _, name := range []string{"region.json", "region.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)
			if err := Save(path, FromSnapshot(Region{X: 7, Y: 8}, s.Snapshot(), hm)); err != nil {
				t.Fatalf("Save: %v", err)
			}
			f, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if f.Region.X != 7 || f.Heightmap().At(3, 3) != 12 {
				t.Errorf("region/terrain lost: %+v", f.Region)
			}
			snap, err := f.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			g := snap.Entities[0].(*scene.ObjectGroup)
			p := g.Parts()[0]
			if !p.HasFlags(scene.FlagPhantom) || p.Name != "root" {
				t.Errorf("part lost fields: %+v", p)
			}
			if p.Shape.Textures.Default.TextureID != "wood" || p.Shape.Textures.Face(2).RGBA.B != 1 {
				t.Errorf("textures lost: %+v", p.Shape.Textures)
			}
			for i := range rot {
				if math.Abs(g.Rotation[i]-rot[i]) > 1e-9 {
					t.Errorf("rotation = %v, want %v", g.Rotation, rot)
					break
				}
			}
		})
	}
}

func TestZstdFileIsCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json.zst")
	if err := Save(path, &File{Region: Region{X: 1, Y: 1}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// zstd frame magic
	if len(raw) < 4 || raw[0] != 0x28 || raw[1] != 0xb5 || raw[2] != 0x2f || raw[3] != 0xfd {
		t.Errorf("file does not start with a zstd frame: % x", raw[:min(len(raw), 4)])
	}
}

func TestNames(t *testing.T) {
	f, err := ParseFlags([]string{"temporary", "physics"})
	if err != nil || f != scene.FlagTemporary|scene.FlagPhysics {
		t.Errorf("ParseFlags = %#x, %v", f, err)
	}
	if names := FlagNames(f); len(names) != 2 || names[0] != "physics" || names[1] != "temporary" {
		t.Errorf("FlagNames = %v", names)
	}
	if _, err := ParsePCode("shrub"); err == nil {
		t.Error("expected unknown pcode error")
	}
	if p, _ := ParsePCode(""); p != scene.PCodePrimitive {
		t.Errorf("empty pcode = %d, want primitive", p)
	}
	if PCodeName(scene.PCodeNewTree) != "new_tree" {
		t.Errorf("PCodeName(new tree) = %s", PCodeName(scene.PCodeNewTree))
	}
}
