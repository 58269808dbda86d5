package octree

import "encoding/binary"

// Node is one branching level of the tree: a 2x2x2 block of values. The entry
// for the child at (x,y,z), each 0 or 1, is stored at x | y<<1 | z<<2.
type Node [8]Value

// emptyNode is the all-zero node every tree starts from.
var emptyNode Node

func filledNode(v Value) Node {
	return Node{v, v, v, v, v, v, v, v}
}

func childIndex(q UVec3) int {
	return int(q.X | q.Y<<1 | q.Z<<2)
}

// Value returns the entry for the child at quadrant q (each axis 0 or 1).
func (n *Node) Value(q UVec3) Value { return n[childIndex(q)] }

// uniform returns the shared leaf value if all eight entries are the same leaf.
func (n *Node) uniform() (Value, bool) {
	v := n[0]
	if v.IsPointer() {
		return 0, false
	}
	for _, o := range n[1:] {
		if o != v {
			return 0, false
		}
	}
	return v, true
}

// appendBytes appends the little endian encoding of n to dst.
func (n *Node) appendBytes(dst []byte) []byte {
	for _, v := range n {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}
