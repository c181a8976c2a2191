// Package scene models the live set of in-world entities and the
// point-in-time snapshots taken from it for map rendering.
package scene

import "region-maptile/internal/mathutil"

// MaxFaces is the number of addressable texture faces on a part.
const MaxFaces = 32

// PrimFlags is the per-part flag bitmask.
type PrimFlags uint32

const (
	FlagPhysics        PrimFlags = 0x00000001
	FlagTemporary      PrimFlags = 0x40000000
	FlagTemporaryOnRez PrimFlags = 0x20000000
	FlagPhantom        PrimFlags = 0x00000400
)

// PCode is the primitive type code.
type PCode uint8

const (
	PCodeNone      PCode = 0
	PCodePrimitive PCode = 9
	PCodeAvatar    PCode = 47
	PCodeGrass     PCode = 95
	PCodeNewTree   PCode = 111
	PCodeParticle  PCode = 143
	PCodeTree      PCode = 255
)

// RGBA is a normalized color; channels are nominally in [0,1] but come from
// user data and are not guaranteed to be.
type RGBA struct {
	R, G, B, A float64
}

// TextureFace is the per-face texture parameters needed for the map.
type TextureFace struct {
	TextureID string
	RGBA      RGBA
}

// TextureEntry holds a default face plus optional per-face overrides.
type TextureEntry struct {
	Default *TextureFace
	Faces   [MaxFaces]*TextureFace
}

// Face returns the face override for i, or the default face.
// Out-of-range indices yield the default face.
func (te *TextureEntry) Face(i int) *TextureFace {
	if te == nil {
		return nil
	}
	if i >= 0 && i < MaxFaces && te.Faces[i] != nil {
		return te.Faces[i]
	}
	return te.Default
}

func (te *TextureEntry) clone() *TextureEntry {
	if te == nil {
		return nil
	}
	out := &TextureEntry{}
	if te.Default != nil {
		d := *te.Default
		out.Default = &d
	}
	for i, f := range te.Faces {
		if f != nil {
			c := *f
			out.Faces[i] = &c
		}
	}
	return out
}

// Shape is the primitive shape description.
type Shape struct {
	PCode    PCode
	Textures *TextureEntry
}

func (s *Shape) clone() *Shape {
	if s == nil {
		return nil
	}
	return &Shape{PCode: s.PCode, Textures: s.Textures.clone()}
}

// Part is one primitive of an object group. Offset and RotationOffset are
// relative to the group.
type Part struct {
	LocalID        uint32
	Name           string
	OffsetPosition mathutil.Vec3
	RotationOffset mathutil.Quat
	Scale          mathutil.Vec3
	Flags          PrimFlags
	Shape          *Shape

	group *ObjectGroup
}

// Group returns the owning group, or nil for a detached part.
func (p *Part) Group() *ObjectGroup {
	return p.group
}

// WorldPosition is the group position plus the rotated part offset.
func (p *Part) WorldPosition() mathutil.Vec3 {
	if p.group == nil {
		return p.OffsetPosition
	}
	return p.group.Position.Add(mathutil.Rotate(p.OffsetPosition, p.group.Rotation))
}

// WorldRotation is the group rotation composed with the part's own.
func (p *Part) WorldRotation() mathutil.Quat {
	local := p.RotationOffset
	if local == (mathutil.Quat{}) {
		local = mathutil.QuatIdentity()
	}
	if p.group == nil {
		return local
	}
	return p.group.Rotation.Mul(local)
}

// HasFlags reports whether any of f is set.
func (p *Part) HasFlags(f PrimFlags) bool {
	return p.Flags&f != 0
}

// Entity is anything tracked by a Scene.
type Entity interface {
	EntityID() string
}

// PartHolder is implemented by entities that own renderable parts.
type PartHolder interface {
	Entity
	Parts() []*Part
}

// ObjectGroup is a linked set of parts. Parts[0] is the root.
type ObjectGroup struct {
	ID       string
	Position mathutil.Vec3
	Rotation mathutil.Quat
	parts    []*Part
}

// NewObjectGroup creates a group and attaches parts to it.
func NewObjectGroup(id string, pos mathutil.Vec3, rot mathutil.Quat, parts ...*Part) *ObjectGroup {
	if rot == (mathutil.Quat{}) {
		rot = mathutil.QuatIdentity()
	}
	g := &ObjectGroup{ID: id, Position: pos, Rotation: rot}
	for _, p := range parts {
		g.AddPart(p)
	}
	return g
}

func (g *ObjectGroup) EntityID() string { return g.ID }

// Parts returns the group's parts, root first.
func (g *ObjectGroup) Parts() []*Part { return g.parts }

// AddPart attaches p to the group. A nil part is kept as a hole so that
// part indices stay stable.
func (g *ObjectGroup) AddPart(p *Part) {
	if p != nil {
		p.group = g
	}
	g.parts = append(g.parts, p)
}

func (g *ObjectGroup) clone() *ObjectGroup {
	out := &ObjectGroup{ID: g.ID, Position: g.Position, Rotation: g.Rotation}
	out.parts = make([]*Part, 0, len(g.parts))
	for _, p := range g.parts {
		if p == nil {
			out.parts = append(out.parts, nil)
			continue
		}
		c := *p
		c.Shape = p.Shape.clone()
		c.group = out
		out.parts = append(out.parts, &c)
	}
	return out
}

// Avatar is a non-renderable presence in the scene.
type Avatar struct {
	ID       string
	Name     string
	Position mathutil.Vec3
}

func (a *Avatar) EntityID() string { return a.ID }
