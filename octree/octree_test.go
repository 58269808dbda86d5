package octree

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, size uint32) *Octree {
	t.Helper()
	tree, err := New(size)
	require.NoError(t, err)
	return tree
}

func voxelAt(t *testing.T, tree *Octree, p UVec3) uint32 {
	t.Helper()
	id, err := tree.Voxel(p)
	require.NoError(t, err)
	return id
}

func TestNewRejectsInvalidSizes(t *testing.T) {
	for _, size := range []uint32{0, 1, 3, 6, 12, 100} {
		_, err := New(size)
		assert.True(t, errors.Is(err, ErrInvalidSize), "size %d: %v", size, err)
	}
	for _, size := range []uint32{2, 4, 16, 1024} {
		tree, err := New(size)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, size, tree.Size())
		assert.Equal(t, size/2, tree.QuadrantSize())
		assert.Equal(t, IVec3{}, tree.Position())
		assert.NoError(t, tree.Check())
	}
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 1, newTree(t, 2).Depth())
	assert.Equal(t, 4, newTree(t, 16).Depth())
}

func TestSetVoxelScenario16(t *testing.T) {
	tree := newTree(t, 16)
	require.NoError(t, tree.SetVoxel(UVec3{8, 8, 8}, 1))

	c, err := tree.Cursor(UVec3{8, 8, 8})
	require.NoError(t, err)
	v := c.MoveToLeaf().Value()
	assert.True(t, v.IsVoxel())
	id, ok := v.VoxelID()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), id)
	assert.Equal(t, uint32(1), c.QuadrantSize())

	c, err = tree.Cursor(UVec3{9, 8, 8})
	require.NoError(t, err)
	v = c.MoveToLeaf().Value()
	assert.True(t, v.IsVoxel())
	id, _ = v.VoxelID()
	assert.Equal(t, uint32(0), id)
	assert.NoError(t, tree.Check())
}

func TestSetVoxelScenarioMinimalTree(t *testing.T) {
	tree := newTree(t, 2)
	require.NoError(t, tree.SetVoxel(UVec3{0, 0, 0}, 5))
	require.NoError(t, tree.SetVoxel(UVec3{1, 1, 1}, 7))

	assert.Equal(t, uint32(5), voxelAt(t, tree, UVec3{0, 0, 0}))
	assert.Equal(t, uint32(7), voxelAt(t, tree, UVec3{1, 1, 1}))
	assert.Equal(t, uint32(0), voxelAt(t, tree, UVec3{1, 0, 0}))

	assert.Equal(t, 1, tree.Stats().Live, "the root is the only node")
	root := tree.Pool().Node(tree.Entry())
	for _, v := range root {
		assert.True(t, v.IsVoxel())
	}
	assert.NoError(t, tree.Check())
}

func TestSetVoxelValidatesArguments(t *testing.T) {
	tree := newTree(t, 8)
	err := tree.SetVoxel(UVec3{8, 0, 0}, 1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	err = tree.SetVoxel(UVec3{0, 0, 0}, MaxVoxelID+1)
	assert.True(t, errors.Is(err, ErrInvalidVoxelID))
	require.NoError(t, tree.SetVoxel(UVec3{7, 7, 7}, MaxVoxelID))
	assert.Equal(t, uint32(MaxVoxelID), voxelAt(t, tree, UVec3{7, 7, 7}))

	_, err = tree.Cursor(UVec3{0, 9, 0})
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = tree.CursorMut(UVec3{0, 0, 8})
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestRoundTripAndIsolation(t *testing.T) {
	tree := newTree(t, 32)
	rng := rand.New(rand.NewSource(7))
	ref := make(map[UVec3]uint32)
	for i := 0; i < 400; i++ {
		p := UVec3{uint32(rng.Intn(32)), uint32(rng.Intn(32)), uint32(rng.Intn(32))}
		q := UVec3{uint32(rng.Intn(32)), uint32(rng.Intn(32)), uint32(rng.Intn(32))}
		id := uint32(rng.Intn(4))
		before := voxelAt(t, tree, q)

		require.NoError(t, tree.SetVoxel(p, id))
		ref[p] = id

		assert.Equal(t, id, voxelAt(t, tree, p))
		if q != p {
			assert.Equal(t, before, voxelAt(t, tree, q), "write to %v changed %v", p, q)
		}
	}
	require.NoError(t, tree.Check())
	for p, id := range ref {
		assert.Equal(t, id, voxelAt(t, tree, p), "voxel %v", p)
	}
}

func TestSetVoxelIsIdempotent(t *testing.T) {
	tree := newTree(t, 16)
	p := UVec3{3, 9, 12}
	require.NoError(t, tree.SetVoxel(p, 4))
	before := tree.Stats()

	require.NoError(t, tree.SetVoxel(p, 4))
	assert.Equal(t, before, tree.Stats())

	// writing the value a homogeneous region already holds allocates nothing
	require.NoError(t, tree.SetVoxel(UVec3{0, 0, 0}, 0))
	assert.Equal(t, before, tree.Stats())
}

func fillCube(t *testing.T, tree *Octree, min UVec3, edge uint32) {
	t.Helper()
	var id uint32
	for x := uint32(0); x < edge; x++ {
		for y := uint32(0); y < edge; y++ {
			for z := uint32(0); z < edge; z++ {
				id++
				require.NoError(t, tree.SetVoxel(UVec3{min.X + x, min.Y + y, min.Z + z}, id%5+1))
			}
		}
	}
}

func TestStructuralSharing(t *testing.T) {
	single := newTree(t, 16)
	fillCube(t, single, UVec3{0, 0, 0}, 4)
	perCube := single.Stats().Live

	double := newTree(t, 16)
	fillCube(t, double, UVec3{0, 0, 0}, 4)
	fillCube(t, double, UVec3{8, 8, 8}, 4)
	require.NoError(t, double.Check())

	assert.Less(t, double.Stats().Live, 2*perCube)
	a := double.Pool().Node(double.Entry())
	idxA, okA := a[0].PointerIndex()
	idxB, okB := a[7].PointerIndex()
	require.True(t, okA && okB)
	assert.Equal(t, idxA, idxB, "identical octants share one slot")
}

func TestReclamationOnFreshTree(t *testing.T) {
	tree := newTree(t, 16)
	before := tree.Stats()

	p := UVec3{5, 11, 2}
	require.NoError(t, tree.SetVoxel(p, 9))
	require.NotEqual(t, before.Live, tree.Stats().Live)
	require.NoError(t, tree.SetVoxel(p, 0))

	assert.Equal(t, before, tree.Stats())
	assert.NoError(t, tree.Check())
}

func TestReclamationOnPopulatedTree(t *testing.T) {
	tree := newTree(t, 32)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		p := UVec3{uint32(rng.Intn(32)), uint32(rng.Intn(32)), uint32(rng.Intn(32))}
		require.NoError(t, tree.SetVoxel(p, uint32(rng.Intn(3))))
	}
	live := tree.Stats().Live
	exported := tree.ExportNodes()

	for i := 0; i < 50; i++ {
		p := UVec3{uint32(rng.Intn(32)), uint32(rng.Intn(32)), uint32(rng.Intn(32))}
		prev := voxelAt(t, tree, p)
		require.NoError(t, tree.SetVoxel(p, prev+7))
		require.NoError(t, tree.SetVoxel(p, prev))
		assert.Equal(t, live, tree.Stats().Live, "round trip at %v leaked nodes", p)
	}
	assert.Equal(t, exported, tree.ExportNodes(), "content is canonical")
	assert.NoError(t, tree.Check())
}

func TestFillingOctantCollapsesIt(t *testing.T) {
	tree := newTree(t, 8)
	for x := uint32(4); x < 8; x++ {
		for y := uint32(0); y < 4; y++ {
			for z := uint32(0); z < 4; z++ {
				require.NoError(t, tree.SetVoxel(UVec3{x, y, z}, 3))
			}
		}
	}
	require.NoError(t, tree.Check())
	assert.Equal(t, 1, tree.Stats().Live)
	root := tree.Pool().Node(tree.Entry())
	assert.Equal(t, Leaf(3), root.Value(UVec3{1, 0, 0}))
	assert.Equal(t, uint64(64), tree.CountVoxels())
}

func TestCursorMutWritesInSequence(t *testing.T) {
	tree := newTree(t, 16)
	c, err := tree.CursorMut(UVec3{2, 2, 2})
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		require.NoError(t, c.SetVoxel(uint32(i+1)))
		c.MoveBy(IVec3{Z: 1})
	}
	require.NoError(t, tree.Check())
	for i := 0; i < 6; i++ {
		assert.Equal(t, uint32(i+1), voxelAt(t, tree, UVec3{2, 2, uint32(2 + i)}))
	}
	assert.Equal(t, uint32(0), voxelAt(t, tree, UVec3{2, 2, 8}))
}

func TestCursorMutStaysOnLivePath(t *testing.T) {
	tree := newTree(t, 16)
	c, err := tree.CursorMut(UVec3{1, 1, 1})
	require.NoError(t, err)
	require.NoError(t, c.SetVoxel(5))
	assert.Equal(t, tree.Depth()-1, c.Depth())
	assert.Equal(t, Leaf(5), c.Value())

	require.NoError(t, c.SetVoxel(0))
	assert.Equal(t, 0, c.Depth(), "collapsed path leaves the cursor on the root")
	assert.Equal(t, Leaf(0), c.Value())
	assert.NoError(t, tree.Check())
}

func TestCursorSweepMatchesVoxel(t *testing.T) {
	tree := newTree(t, 16)
	fillRandom(t, tree, 17)
	size := tree.Size()

	c, err := tree.Cursor(UVec3{})
	require.NoError(t, err)
	for x := uint32(0); x < size; x++ {
		for y := uint32(0); y < size; y++ {
			for z := uint32(0); z < size; z++ {
				require.Equal(t, UVec3{x, y, z}, c.Pos())
				require.True(t, c.InBounds())
				id, ok := c.MoveToLeaf().Value().VoxelID()
				require.True(t, ok)
				require.Equal(t, voxelAt(t, tree, c.Pos()), id, "voxel %v", c.Pos())
				c.MoveBy(IVec3{Z: 1})
			}
			c.MoveBy(IVec3{Y: 1, Z: -int32(size)})
		}
		c.MoveBy(IVec3{X: 1, Y: -int32(size)})
	}
	assert.False(t, c.InBounds())
}

func TestCursorClimbsToCommonAncestor(t *testing.T) {
	tree := newTree(t, 16)
	require.NoError(t, tree.SetVoxel(UVec3{7, 0, 0}, 3))
	require.NoError(t, tree.SetVoxel(UVec3{8, 0, 0}, 4))

	c, err := tree.Cursor(UVec3{7, 0, 0})
	require.NoError(t, err)
	c.MoveToLeaf()
	assert.Equal(t, 3, c.Depth())
	assert.Equal(t, uint32(1), c.QuadrantSize())

	// 7 and 8 only share the root
	c.MoveBy(IVec3{X: 1})
	assert.Equal(t, 0, c.Depth())
	id, _ := c.MoveToLeaf().Value().VoxelID()
	assert.Equal(t, uint32(4), id)

	// 8 and 9 share the deepest node
	c.MoveBy(IVec3{X: 1})
	assert.Equal(t, 3, c.Depth())
	id, _ = c.MoveToLeaf().Value().VoxelID()
	assert.Equal(t, uint32(0), id)
}

func TestClearResetsTree(t *testing.T) {
	tree := newTree(t, 16)
	fillCube(t, tree, UVec3{3, 3, 3}, 3)
	tree.Clear()
	assert.Equal(t, uint64(0), tree.CountVoxels())
	assert.Equal(t, 1, tree.Stats().Live)
	assert.NoError(t, tree.Check())
}

func TestLoggerReceivesEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	tree, err := New(8, WithLogger(logger))
	require.NoError(t, err)
	tree.Clear()
	assert.Contains(t, buf.String(), "octree_clear")
}
