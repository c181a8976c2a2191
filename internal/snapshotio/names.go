package snapshotio

import (
	"fmt"
	"sort"

	"region-maptile/internal/scene"
)

var flagNames = map[string]scene.PrimFlags{
	"physics":          scene.FlagPhysics,
	"temporary":        scene.FlagTemporary,
	"temporary_on_rez": scene.FlagTemporaryOnRez,
	"phantom":          scene.FlagPhantom,
}

var pcodeNames = map[string]scene.PCode{
	"none":      scene.PCodeNone,
	"primitive": scene.PCodePrimitive,
	"avatar":    scene.PCodeAvatar,
	"grass":     scene.PCodeGrass,
	"new_tree":  scene.PCodeNewTree,
	"particle":  scene.PCodeParticle,
	"tree":      scene.PCodeTree,
}

// ParseFlags ORs together the named flags.
func ParseFlags(names []string) (scene.PrimFlags, error) {
	var f scene.PrimFlags
	for _, n := range names {
		v, ok := flagNames[n]
		if !ok {
			return 0, fmt.Errorf("snapshotio: unknown flag %q", n)
		}
		f |= v
	}
	return f, nil
}

// FlagNames lists the known flags set in f, sorted.
func FlagNames(f scene.PrimFlags) []string {
	var out []string
	for n, v := range flagNames {
		if f&v != 0 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// ParsePCode maps a PCode name to its value. The empty name is a primitive.
func ParsePCode(name string) (scene.PCode, error) {
	if name == "" {
		return scene.PCodePrimitive, nil
	}
	v, ok := pcodeNames[name]
	if !ok {
		return 0, fmt.Errorf("snapshotio: unknown pcode %q", name)
	}
	return v, nil
}

// PCodeName is the inverse of ParsePCode. Unknown codes come back as their
// decimal value.
func PCodeName(p scene.PCode) string {
	for n, v := range pcodeNames {
		if v == p {
			return n
		}
	}
	return fmt.Sprintf("%d", p)
}
