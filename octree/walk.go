package octree

import (
	"fmt"
	"math"
	"math/bits"
)

// Region is a cube of voxels sharing one id.
type Region struct {
	Min  UVec3
	Size uint32
	ID   uint32
}

// Volume returns the number of voxels in r, saturating at math.MaxUint64.
func (r Region) Volume() uint64 {
	s := uint64(r.Size)
	// s <= 2^31, so s*s fits
	hi, v := bits.Mul64(s*s, s)
	if hi != 0 {
		return math.MaxUint64
	}
	return v
}

// Walk calls fn for every maximal homogeneous region of the tree, empty ones
// included, in child order. It stops as soon as fn returns false.
func (t *Octree) Walk(fn func(Region) bool) {
	t.walk(t.entry, UVec3{}, t.quadrantSize, fn)
}

func (t *Octree) walk(idx uint32, min UVec3, quadrantSize uint32, fn func(Region) bool) bool {
	n := t.pool.nodes[idx]
	for i, v := range n {
		corner := UVec3{
			X: min.X + uint32(i&1)*quadrantSize,
			Y: min.Y + uint32(i>>1&1)*quadrantSize,
			Z: min.Z + uint32(i>>2&1)*quadrantSize,
		}
		if child, ok := v.PointerIndex(); ok {
			if !t.walk(child, corner, quadrantSize/2, fn) {
				return false
			}
			continue
		}
		if !fn(Region{Min: corner, Size: quadrantSize, ID: v.payload()}) {
			return false
		}
	}
	return true
}

// CountVoxels returns the number of non-empty voxels, saturating at
// math.MaxUint64.
func (t *Octree) CountVoxels() uint64 {
	var n uint64
	t.Walk(func(r Region) bool {
		if r.ID == 0 {
			return true
		}
		var carry uint64
		n, carry = bits.Add64(n, r.Volume(), 0)
		if carry != 0 {
			n = math.MaxUint64
			return false
		}
		return true
	})
	return n
}

// ExportNodes returns the nodes reachable from the root in post-order with
// pointers renumbered to positions in the returned slice. Shared subtrees
// appear once and the root is last.
func (t *Octree) ExportNodes() []Node {
	remap := make(map[uint32]uint32, t.pool.Live())
	out := make([]Node, 0, t.pool.Live())
	var visit func(idx uint32) uint32
	visit = func(idx uint32) uint32 {
		if r, ok := remap[idx]; ok {
			return r
		}
		n := t.pool.nodes[idx]
		for i, v := range n {
			if child, ok := v.PointerIndex(); ok {
				n[i] = Pointer(visit(child))
			}
		}
		r := uint32(len(out))
		out = append(out, n)
		remap[idx] = r
		return r
	}
	visit(t.entry)
	return out
}

// Import builds a tree from a node list as returned by ExportNodes. Pointers
// may only reference earlier nodes, the last node is the root and no pointer
// may reach below unit voxels. Uniform non-root nodes are folded into their
// parents.
func Import(size uint32, nodes []Node, opts ...Option) (*Octree, error) {
	t, err := New(size, opts...)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrInvalidNodes)
	}
	pool := t.pool
	// the empty root is not needed; its slot is reused
	pool.Release(t.entry)

	root := len(nodes) - 1
	// folded[i] is the value parents store for node i
	folded := make([]Value, len(nodes))
	height := make([]int, len(nodes))
	var held []uint32
	release := func() {
		for _, idx := range held {
			pool.Release(idx)
		}
	}
	for i, n := range nodes {
		h := 1
		for j, v := range n {
			child, ok := v.PointerIndex()
			if !ok {
				continue
			}
			if child >= uint32(i) {
				release()
				return nil, fmt.Errorf("%w: node %d points forward to %d", ErrInvalidNodes, i, child)
			}
			n[j] = folded[child]
			if folded[child].IsPointer() && height[child]+1 > h {
				h = height[child] + 1
			}
		}
		if h > t.Depth() {
			release()
			return nil, fmt.Errorf("%w: node %d is %d levels deep, tree allows %d", ErrInvalidNodes, i, h, t.Depth())
		}
		height[i] = h
		if u, ok := n.uniform(); ok && i != root {
			folded[i] = u
			continue
		}
		idx := pool.GetOrInsert(n)
		held = append(held, idx)
		folded[i] = Pointer(idx)
	}
	t.entry, _ = folded[root].PointerIndex()
	// the last held reference is the entry's
	held = held[:len(held)-1]
	release()
	t.logger.WithField("action", "octree_import").
		WithField("nodes", len(nodes)).
		WithField("live_nodes", pool.Live()).
		Debug("tree imported")
	return t, nil
}
