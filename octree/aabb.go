package octree

import "fmt"

// UVec3 is an unsigned integer position or extent inside a tree.
type UVec3 struct {
	X, Y, Z uint32
}

// IVec3 is a signed integer position or offset in world space.
type IVec3 struct {
	X, Y, Z int32
}

func (v UVec3) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

func (v IVec3) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// Add returns v+d. Components wrap around on underflow.
func (v UVec3) Add(d IVec3) UVec3 {
	return UVec3{
		X: uint32(int64(v.X) + int64(d.X)),
		Y: uint32(int64(v.Y) + int64(d.Y)),
		Z: uint32(int64(v.Z) + int64(d.Z)),
	}
}

// offsetFrom returns v-o per axis. The result never wraps.
func (v IVec3) offsetFrom(o IVec3) (x, y, z int64) {
	return int64(v.X) - int64(o.X), int64(v.Y) - int64(o.Y), int64(v.Z) - int64(o.Z)
}

// mask returns v with every component and-ed with m.
func (v UVec3) mask(m uint32) UVec3 {
	return UVec3{X: v.X & m, Y: v.Y & m, Z: v.Z & m}
}

// Box is an axis-aligned box with inclusive Min and Max corners.
type Box struct {
	Min, Max UVec3
}

// BoxAt returns the box of edge length size starting at min. size must be >= 1.
func BoxAt(min UVec3, size uint32) Box {
	return Box{
		Min: min,
		Max: UVec3{X: min.X + size - 1, Y: min.Y + size - 1, Z: min.Z + size - 1},
	}
}

// Contains reports whether p lies inside b on every axis.
func (b Box) Contains(p UVec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
