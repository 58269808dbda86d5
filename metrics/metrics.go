package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/voxelsplace/svo/octree"
)

// TreeMetrics exports the arena usage and content of octrees as gauges
// labelled by tree name. A nil *TreeMetrics ignores every call.
type TreeMetrics struct {
	ArenaSlots *prometheus.GaugeVec
	LiveNodes  *prometheus.GaugeVec
	FreeSlots  *prometheus.GaugeVec
	FreeRanges *prometheus.GaugeVec
	Voxels     *prometheus.GaugeVec
}

// NewTreeMetrics creates the gauges and registers them with reg.
func NewTreeMetrics(reg prometheus.Registerer) (*TreeMetrics, error) {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "svo",
			Name:      name,
			Help:      help,
		}, []string{"tree"})
	}
	m := &TreeMetrics{
		ArenaSlots: gauge("arena_slots", "Node slots in the arena, free ones included"),
		LiveNodes:  gauge("live_nodes", "Arena slots holding a referenced node"),
		FreeSlots:  gauge("free_slots", "Arena slots waiting for reuse"),
		FreeRanges: gauge("free_ranges", "Runs of consecutive free arena slots"),
		Voxels:     gauge("voxels", "Non-empty voxels"),
	}
	for _, c := range []prometheus.Collector{m.ArenaSlots, m.LiveNodes, m.FreeSlots, m.FreeRanges, m.Voxels} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe sets the gauges of tree name from the current state of tree.
func (m *TreeMetrics) Observe(name string, tree *octree.Octree) {
	if m == nil {
		return
	}
	stats := tree.Stats()
	var free uint32
	for _, r := range stats.Free {
		free += r.Len()
	}
	m.ArenaSlots.WithLabelValues(name).Set(float64(stats.Nodes))
	m.LiveNodes.WithLabelValues(name).Set(float64(stats.Live))
	m.FreeSlots.WithLabelValues(name).Set(float64(free))
	m.FreeRanges.WithLabelValues(name).Set(float64(len(stats.Free)))
	m.Voxels.WithLabelValues(name).Set(float64(tree.CountVoxels()))
}

// WriteText writes everything gathered from g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
