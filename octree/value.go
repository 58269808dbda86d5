package octree

import "fmt"

// MaxVoxelID is the largest voxel id a Value can hold.
const MaxVoxelID = 1<<31 - 1

// Value is one entry of a Node: either a leaf carrying a voxel id or a pointer
// to another node in the pool. The payload sits in the upper 31 bits, bit 0 is
// the tag (0 = leaf, 1 = pointer).
type Value uint32

// Leaf returns the leaf value for voxel id. id must not exceed MaxVoxelID.
func Leaf(id uint32) Value { return Value(id << 1) }

// Pointer returns a value pointing at pool slot idx.
func Pointer(idx uint32) Value { return Value(idx<<1 | 1) }

// IsVoxel reports whether v is a leaf.
func (v Value) IsVoxel() bool { return v&1 == 0 }

// IsPointer reports whether v points at another node.
func (v Value) IsPointer() bool { return v&1 == 1 }

// VoxelID returns the voxel id of a leaf value.
func (v Value) VoxelID() (uint32, bool) {
	if v.IsVoxel() {
		return v.payload(), true
	}
	return 0, false
}

// PointerIndex returns the pool slot a pointer value references.
func (v Value) PointerIndex() (uint32, bool) {
	if v.IsPointer() {
		return v.payload(), true
	}
	return 0, false
}

func (v Value) payload() uint32 { return uint32(v) >> 1 }

func (v Value) String() string {
	if v.IsPointer() {
		return fmt.Sprintf("->%d", v.payload())
	}
	return fmt.Sprintf("voxel(%d)", v.payload())
}
