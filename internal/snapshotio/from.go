package snapshotio

import (
	"region-maptile/internal/scene"
	"region-maptile/internal/terrain"
)

// FromSnapshot converts a scene snapshot into file form. hm may be nil for
// flat ground at zero.
func FromSnapshot(region Region, snap *scene.Snapshot, hm *terrain.Heightmap) *File {
	f := &File{Version: Version, Region: region}
	if snap == nil {
		return f
	}
	f.TakenAt = snap.TakenAt

	if hm != nil {
		f.Terrain = Terrain{Width: hm.Width(), Height: hm.Height(), Heights: make([]float64, 0, hm.Width()*hm.Height())}
		for y := 0; y < hm.Height(); y++ {
			for x := 0; x < hm.Width(); x++ {
				f.Terrain.Heights = append(f.Terrain.Heights, hm.At(x, y))
			}
		}
	}

	for _, e := range snap.Entities {
		switch v := e.(type) {
		case *scene.Avatar:
			f.Entities = append(f.Entities, Entity{
				Type:     TypeAvatar,
				ID:       v.ID,
				Name:     v.Name,
				Position: v.Position,
			})
		case *scene.ObjectGroup:
			ent := Entity{
				Type:     TypeObject,
				ID:       v.ID,
				Position: v.Position,
				Rotation: v.Rotation[:],
			}
			for _, p := range v.Parts() {
				if p == nil {
					continue
				}
				ent.Parts = append(ent.Parts, partFromScene(p))
			}
			f.Entities = append(f.Entities, ent)
		}
	}
	return f
}

func partFromScene(p *scene.Part) Part {
	rot := p.RotationOffset
	out := Part{
		LocalID:  p.LocalID,
		Name:     p.Name,
		Offset:   p.OffsetPosition,
		Rotation: rot[:],
		Scale:    p.Scale,
		Flags:    FlagNames(p.Flags),
	}
	if p.Shape == nil {
		return out
	}
	out.PCode = PCodeName(p.Shape.PCode)

	te := p.Shape.Textures
	if te == nil || te.Default == nil {
		return out
	}
	out.Texture = te.Default.TextureID
	out.Color = rgba(te.Default.RGBA)
	for i, fc := range te.Faces {
		if fc != nil {
			out.Faces = append(out.Faces, Face{Face: i, Texture: fc.TextureID, Color: rgba(fc.RGBA)})
		}
	}
	return out
}

func rgba(c scene.RGBA) []float64 {
	return []float64{c.R, c.G, c.B, c.A}
}
