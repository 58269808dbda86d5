package octree

import (
	"fmt"
	"math/bits"
)

// cursorState is a traversal position: the node the cursor is on, the chain
// of nodes above it and the voxel position it is anchored at.
type cursorState struct {
	// pool slots from the root down to the parent of idx
	parents []uint32
	idx     uint32
	pos     UVec3
	// edge length of the children of idx
	quadrantSize uint32
}

func newCursorState(entry uint32, pos UVec3, quadrantSize uint32) cursorState {
	return cursorState{
		parents:      make([]uint32, 0, bits.TrailingZeros32(quadrantSize)+1),
		idx:          entry,
		pos:          pos,
		quadrantSize: quadrantSize,
	}
}

// quadrantOf returns the child, 0 or 1 per axis, that local falls into.
// local must be smaller than 2*quadrantSize on every axis.
func quadrantOf(local UVec3, quadrantSize uint32) UVec3 {
	shift := bits.TrailingZeros32(quadrantSize)
	return UVec3{X: local.X >> shift, Y: local.Y >> shift, Z: local.Z >> shift}
}

func (s *cursorState) quadrant() UVec3 {
	return quadrantOf(s.pos.mask(s.quadrantSize*2-1), s.quadrantSize)
}

func (s *cursorState) depth() int { return len(s.parents) }

func (s *cursorState) value(p *Pool) Value {
	return p.nodes[s.idx].Value(s.quadrant())
}

func (s *cursorState) moveToLeaf(p *Pool) {
	for {
		child, ok := s.value(p).PointerIndex()
		if !ok {
			return
		}
		s.moveToChild(child)
	}
}

func (s *cursorState) moveToChild(idx uint32) {
	s.parents = append(s.parents, s.idx)
	s.idx = idx
	s.quadrantSize /= 2
}

func (s *cursorState) moveToParent() {
	s.quadrantSize *= 2
	last := len(s.parents) - 1
	s.idx = s.parents[last]
	s.parents = s.parents[:last]
}

// subtreeBox returns the box covered by the current node when it contains p.
func (s *cursorState) subtreeBox(p UVec3) Box {
	span := s.quadrantSize * 2
	return BoxAt(p.mask(^(span - 1)), span)
}

// moveBy shifts pos by d and climbs until the current node covers the new
// position. It never descends. The root is never left, even when the new
// position lies outside of the tree.
func (s *cursorState) moveBy(d IVec3) {
	from := s.pos
	s.pos = s.pos.Add(d)
	for len(s.parents) > 0 && !s.subtreeBox(from).Contains(s.pos) {
		s.moveToParent()
	}
}

// Cursor reads a tree. It stays valid until the tree is written to.
type Cursor struct {
	tree  *Octree
	state cursorState
}

// IsLeaf reports whether the value under the cursor is a voxel.
func (c *Cursor) IsLeaf() bool { return c.Value().IsVoxel() }

// Value returns the entry of the current node covering the cursor position.
// The position must lie inside the tree.
func (c *Cursor) Value() Value { return c.state.value(c.tree.pool) }

// MoveToLeaf descends until the value under the cursor is a voxel.
func (c *Cursor) MoveToLeaf() *Cursor {
	c.state.moveToLeaf(c.tree.pool)
	return c
}

// MoveBy moves the cursor position by d, climbing as far as needed. Call
// MoveToLeaf to descend again.
func (c *Cursor) MoveBy(d IVec3) { c.state.moveBy(d) }

// Pos returns the cursor position.
func (c *Cursor) Pos() UVec3 { return c.state.pos }

// QuadrantSize returns the edge length of the region Value describes.
func (c *Cursor) QuadrantSize() uint32 { return c.state.quadrantSize }

// Depth returns the number of nodes above the current one.
func (c *Cursor) Depth() int { return c.state.depth() }

// InBounds reports whether the cursor position lies inside the tree.
func (c *Cursor) InBounds() bool { return c.tree.inBounds(c.state.pos) }

// CursorMut reads and writes a tree. While a CursorMut is in use nothing else
// may touch the tree.
type CursorMut struct {
	tree  *Octree
	state cursorState
	// bit d is set when the node at depth d is a copy made by the write in
	// progress; the cursor holds one reference on each such copy
	owned uint64
	// new slot per depth, filled while a write is propagated
	path []uint32
}

func newCursorMut(t *Octree, pos UVec3) *CursorMut {
	return &CursorMut{
		tree:  t,
		state: newCursorState(t.entry, pos, t.quadrantSize),
		path:  make([]uint32, t.Depth()+1),
	}
}

// IsLeaf reports whether the value under the cursor is a voxel.
func (c *CursorMut) IsLeaf() bool { return c.Value().IsVoxel() }

// Value returns the entry of the current node covering the cursor position.
func (c *CursorMut) Value() Value { return c.state.value(c.tree.pool) }

// MoveToLeaf descends until the value under the cursor is a voxel.
func (c *CursorMut) MoveToLeaf() { c.state.moveToLeaf(c.tree.pool) }

// MoveBy moves the cursor position by d, climbing as far as needed.
func (c *CursorMut) MoveBy(d IVec3) { c.state.moveBy(d) }

// Pos returns the cursor position.
func (c *CursorMut) Pos() UVec3 { return c.state.pos }

// QuadrantSize returns the edge length of the region Value describes.
func (c *CursorMut) QuadrantSize() uint32 { return c.state.quadrantSize }

// Depth returns the number of nodes above the current one.
func (c *CursorMut) Depth() int { return c.state.depth() }

// SetVoxel writes id at the cursor position. Afterwards the cursor sits on
// the deepest node of the rewritten path that still exists.
func (c *CursorMut) SetVoxel(id uint32) error {
	if id > MaxVoxelID {
		return fmt.Errorf("%w: %d", ErrInvalidVoxelID, id)
	}
	if err := c.tree.checkPos(c.state.pos); err != nil {
		return err
	}
	c.setVoxel(id)
	return nil
}

// setVoxel writes id and reports whether anything changed.
func (c *CursorMut) setVoxel(id uint32) bool {
	c.MoveToLeaf()
	if c.Value() == Leaf(id) {
		return false
	}
	for c.state.quadrantSize > 1 {
		c.splitQuadrant()
	}
	c.replace(Leaf(id))
	c.propagate()
	return true
}

// splitQuadrant replaces the leaf under the cursor by a pointer to a node
// holding that leaf eight times, then descends into it.
func (c *CursorMut) splitQuadrant() {
	invariant(c.state.quadrantSize > 1, "cannot split a quadrant of size 1 at %v", c.state.pos)
	v := c.Value()
	invariant(v.IsVoxel(), "quadrant at %v is already split", c.state.pos)

	pool := c.tree.pool
	child := pool.GetOrInsert(filledNode(v))
	c.replace(Pointer(child))
	pool.Release(child)
	c.state.moveToChild(child)
}

// replace swaps the current node for a copy whose entry under the cursor is v.
func (c *CursorMut) replace(v Value) {
	pool := c.tree.pool
	depth := c.state.depth()
	n := pool.nodes[c.state.idx]
	n[childIndex(c.state.quadrant())] = v
	idx := pool.GetOrInsert(n)
	if c.owned&(1<<depth) != 0 {
		pool.Release(c.state.idx)
	}
	c.state.idx = idx
	c.owned |= 1 << depth
}

// propagate links the rewritten node into copies of every ancestor, installs
// the new root and restores the cursor path.
func (c *CursorMut) propagate() {
	pool := c.tree.pool
	depth := c.state.depth()
	// deepest depth still linked into the new tree
	top := depth
	for d := depth; d > 0; d-- {
		child := c.state.idx
		c.path[d] = child
		c.state.moveToParent()
		v := Pointer(child)
		if u, ok := pool.nodes[child].uniform(); ok {
			v = u
			top = d - 1
		}
		c.replace(v)
		pool.Release(child)
	}
	old := c.tree.entry
	c.tree.entry = c.state.idx
	c.owned = 0
	pool.Release(old)

	for d := 1; d <= top; d++ {
		c.state.moveToChild(c.path[d])
	}
}
