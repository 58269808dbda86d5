package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelsplace/svo/octree"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewTreeMetrics(reg)
	require.NoError(t, err)

	tree, err := octree.New(8)
	require.NoError(t, err)
	require.NoError(t, tree.SetVoxel(octree.UVec3{X: 1, Y: 2, Z: 3}, 4))
	require.NoError(t, tree.SetVoxel(octree.UVec3{X: 6, Y: 6, Z: 6}, 4))
	m.Observe("world", tree)

	stats := tree.Stats()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Voxels.WithLabelValues("world")))
	assert.Equal(t, float64(stats.Live), testutil.ToFloat64(m.LiveNodes.WithLabelValues("world")))
	assert.Equal(t, float64(stats.Nodes), testutil.ToFloat64(m.ArenaSlots.WithLabelValues("world")))
	assert.Equal(t, float64(len(stats.Free)), testutil.ToFloat64(m.FreeRanges.WithLabelValues("world")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Voxels))
}

func TestNilMetricsIgnoreCalls(t *testing.T) {
	var m *TreeMetrics
	tree, err := octree.New(2)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.Observe("x", tree)
	})
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewTreeMetrics(reg)
	require.NoError(t, err)
	_, err = NewTreeMetrics(reg)
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewTreeMetrics(reg)
	require.NoError(t, err)
	tree, err := octree.New(4)
	require.NoError(t, err)
	m.Observe("empty", tree)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))
	assert.Contains(t, buf.String(), `svo_live_nodes{tree="empty"} 1`)
	assert.Contains(t, buf.String(), "# HELP svo_voxels Non-empty voxels")
}
