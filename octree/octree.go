package octree

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/sirupsen/logrus"
)

// Octree stores a voxel id for every position of a cube with edge length
// 2*QuadrantSize().
type Octree struct {
	// half the edge length of the whole tree
	quadrantSize uint32
	// world-space corner with the smallest coordinates
	position IVec3
	// pool slot of the root node; holds one reference
	entry  uint32
	pool   *Pool
	logger logrus.FieldLogger
}

// Option configures an Octree.
type Option func(*Octree)

// WithLogger sets the logger used for window and maintenance events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Octree) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithPosition sets the initial world-space origin. Nothing is cleared.
func WithPosition(pos IVec3) Option {
	return func(t *Octree) { t.position = pos }
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// New creates an empty tree with edge length size, which must be a power of
// two and at least 2.
func New(size uint32, opts ...Option) (*Octree, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d is not a power of two >= 2", ErrInvalidSize, size)
	}
	t := &Octree{
		quadrantSize: size / 2,
		entry:        0,
		pool:         NewPool(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = discardLogger()
	}
	return t, nil
}

// Size returns the edge length of the tree.
func (t *Octree) Size() uint32 { return t.quadrantSize * 2 }

// QuadrantSize returns the edge length of the root's children.
func (t *Octree) QuadrantSize() uint32 { return t.quadrantSize }

// Depth returns the number of branching levels from the root to a unit voxel.
func (t *Octree) Depth() int { return bits.TrailingZeros32(t.quadrantSize) + 1 }

// Pool exposes the node arena for inspection.
func (t *Octree) Pool() *Pool { return t.pool }

// Entry returns the pool slot of the root node.
func (t *Octree) Entry() uint32 { return t.entry }

func (t *Octree) inBounds(p UVec3) bool {
	s := t.Size()
	return p.X < s && p.Y < s && p.Z < s
}

func (t *Octree) checkPos(p UVec3) error {
	if !t.inBounds(p) {
		return fmt.Errorf("%w: %v in tree of size %d", ErrOutOfRange, p, t.Size())
	}
	return nil
}

// SetVoxel writes voxel id at pos.
func (t *Octree) SetVoxel(pos UVec3, id uint32) error {
	c, err := t.CursorMut(pos)
	if err != nil {
		return err
	}
	return c.SetVoxel(id)
}

// Voxel returns the voxel id at pos.
func (t *Octree) Voxel(pos UVec3) (uint32, error) {
	c, err := t.Cursor(pos)
	if err != nil {
		return 0, err
	}
	id, _ := c.MoveToLeaf().Value().VoxelID()
	return id, nil
}

// Cursor returns a read cursor at pos, positioned on the root.
func (t *Octree) Cursor(pos UVec3) (*Cursor, error) {
	if err := t.checkPos(pos); err != nil {
		return nil, err
	}
	return &Cursor{tree: t, state: newCursorState(t.entry, pos, t.quadrantSize)}, nil
}

// CursorMut returns a write cursor at pos, positioned on the root. The cursor
// needs exclusive access to the tree for as long as it is used.
func (t *Octree) CursorMut(pos UVec3) (*CursorMut, error) {
	if err := t.checkPos(pos); err != nil {
		return nil, err
	}
	return newCursorMut(t, pos), nil
}

// Position returns the world-space origin of the tree.
func (t *Octree) Position() IVec3 { return t.position }

// Clear resets every voxel to 0.
func (t *Octree) Clear() {
	old := t.entry
	t.entry = t.pool.GetOrInsert(emptyNode)
	t.pool.Release(old)
	t.logger.WithField("action", "octree_clear").
		WithField("live_nodes", t.pool.Live()).
		Debug("octree cleared")
}

// Stats describes the node arena of a tree.
type Stats struct {
	// Nodes is the arena length, free slots included.
	Nodes int
	// Live is the number of slots holding a node.
	Live int
	// Free lists the free slot ranges in ascending order.
	Free []Range
}

// Stats returns a snapshot of the arena usage.
func (t *Octree) Stats() Stats {
	return Stats{
		Nodes: t.pool.Len(),
		Live:  t.pool.Live(),
		Free:  t.pool.FreeRanges(),
	}
}
