package codec

import "github.com/voxelsplace/svo/octree"

// MaxAxisBits is the widest coordinate a 64-bit Morton code can interleave.
const MaxAxisBits = 21

// Morton3D64 interleaves the low 21 bits of x, y and z into a Morton code with
// x in bit 0. Nearby positions get nearby codes, and sorting by code visits
// every octant of a tree before moving to the next one.
func Morton3D64(x, y, z uint32) uint64 {
	return spread3(uint64(x)) | spread3(uint64(y))<<1 | spread3(uint64(z))<<2
}

// MortonDecode3D64 is the inverse of Morton3D64.
func MortonDecode3D64(code uint64) (x, y, z uint32) {
	return uint32(gather3(code)), uint32(gather3(code >> 1)), uint32(gather3(code >> 2))
}

// MortonOf returns the Morton code of p.
func MortonOf(p octree.UVec3) uint64 { return Morton3D64(p.X, p.Y, p.Z) }

// PosOf returns the position encoded by a Morton code.
func PosOf(code uint64) octree.UVec3 {
	x, y, z := MortonDecode3D64(code)
	return octree.UVec3{X: x, Y: y, Z: z}
}

// spread3 moves bit i of the low 21 bits of v to bit 3i.
func spread3(v uint64) uint64 {
	v &= 0x1FFFFF
	v = (v | v<<32) & 0x1F00000000FFFF
	v = (v | v<<16) & 0x1F0000FF0000FF
	v = (v | v<<8) & 0x100F00F00F00F00F
	v = (v | v<<4) & 0x10C30C30C30C30C3
	v = (v | v<<2) & 0x1249249249249249
	return v
}

// gather3 collects every third bit of v, starting at bit 0.
func gather3(v uint64) uint64 {
	v &= 0x1249249249249249
	v = (v ^ v>>2) & 0x10C30C30C30C30C3
	v = (v ^ v>>4) & 0x100F00F00F00F00F
	v = (v ^ v>>8) & 0x1F0000FF0000FF
	v = (v ^ v>>16) & 0x1F00000000FFFF
	v = (v ^ v>>32) & 0x1FFFFF
	return v
}
