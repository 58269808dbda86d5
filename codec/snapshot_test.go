package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelsplace/svo/octree"
)

func randomTree(t *testing.T, size uint32, seed int64) *octree.Octree {
	t.Helper()
	tree, err := octree.New(size, octree.WithPosition(octree.IVec3{X: -3, Y: 40, Z: 7}))
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 500; i++ {
		p := octree.UVec3{X: uint32(rng.Intn(int(size))), Y: uint32(rng.Intn(int(size))), Z: uint32(rng.Intn(int(size)))}
		require.NoError(t, tree.SetVoxel(p, uint32(rng.Intn(5))))
	}
	return tree
}

func TestSnapshotRoundTrip(t *testing.T) {
	tree := randomTree(t, 32, 8)
	for _, comp := range []Compression{CompNone, CompZlib, CompZstd} {
		t.Run(comp.String(), func(t *testing.T) {
			data, err := Marshal(tree, comp)
			require.NoError(t, err)
			assert.Equal(t, "SVOT", string(data[:4]))
			assert.Equal(t, byte(comp), data[5])

			got, err := Unmarshal(data)
			require.NoError(t, err)
			require.NoError(t, got.Check())
			assert.Equal(t, tree.Size(), got.Size())
			assert.Equal(t, tree.Position(), got.Position())
			assert.Equal(t, tree.ExportNodes(), got.ExportNodes())
		})
	}
}

func TestSnapshotEmptyTree(t *testing.T) {
	tree, err := octree.New(2)
	require.NoError(t, err)
	data, err := Marshal(tree, CompNone)
	require.NoError(t, err)
	// header, fixed fields, count and one node of eight zero values
	assert.Len(t, data, 6+16+1+8)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Size())
	assert.Equal(t, uint64(0), got.CountVoxels())
}

func TestSnapshotPassesOptions(t *testing.T) {
	data, err := Marshal(randomTree(t, 8, 2), CompZstd)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	got, err := Unmarshal(data, octree.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "octree_import")
	assert.Equal(t, octree.IVec3{X: -3, Y: 40, Z: 7}, got.Position())
}

// selfPointerSnapshot encodes a tree of size 2 whose only node points at
// itself.
func selfPointerSnapshot() []byte {
	b := []byte(snapshotMagic)
	b = append(b, snapshotVersion, byte(CompNone))
	b = append(b, 1, 0, 0, 0)
	b = append(b, make([]byte, 12)...)
	b = append(b, 1)
	b = appendUvarint(b, uint32(octree.Pointer(0)))
	return append(b, make([]byte, 7)...)
}

func TestUnmarshalRejectsCorruptInput(t *testing.T) {
	good, err := Marshal(randomTree(t, 8, 3), CompNone)
	require.NoError(t, err)
	mutate := func(f func([]byte) []byte) []byte {
		return f(append([]byte(nil), good...))
	}

	cases := map[string][]byte{
		"empty":        nil,
		"bad magic":    mutate(func(b []byte) []byte { b[0] = 'X'; return b }),
		"bad version":  mutate(func(b []byte) []byte { b[4] = 9; return b }),
		"bad codec":    mutate(func(b []byte) []byte { b[5] = 7; return b }),
		"bad zlib":     mutate(func(b []byte) []byte { b[5] = byte(CompZlib); return b }),
		"short":        good[:10],
		"bad size":     mutate(func(b []byte) []byte { b[6] = 3; return b }),
		"truncated":    good[:len(good)-1],
		"trailing":     append(append([]byte(nil), good...), 0),
		"self pointer": selfPointerSnapshot(),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal(data)
			assert.True(t, errors.Is(err, ErrCorruptSnapshot), "%v", err)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for s, want := range map[string]Compression{"": CompNone, "none": CompNone, "ZLIB": CompZlib, "zstd": CompZstd} {
		got, err := ParseCompression(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("lz4")
	assert.Error(t, err)
}
