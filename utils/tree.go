package utils

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/voxelsplace/svo/api"
	"github.com/voxelsplace/svo/codec"
	"github.com/voxelsplace/svo/metrics"
	"github.com/voxelsplace/svo/octree"
)

// RunNew writes the snapshot of an empty tree of the configured size.
func RunNew(cfg Config, logger logrus.FieldLogger, outPath string) error {
	data, err := api.NewSnapshot(cfg.TreeSize, cfg.Codec())
	if err != nil {
		return err
	}
	return writeFile(logger, outPath, "snapshot", data)
}

// RunShift moves the window of a snapshot by d.
func RunShift(cfg Config, logger logrus.FieldLogger, inPath string, d octree.IVec3, outPath string) error {
	in, err := readFile(inPath, "snapshot")
	if err != nil {
		return err
	}
	out, err := api.Shift(in, d, cfg.Codec(), octree.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("shift %s: %w", inPath, err)
	}
	return writeFile(logger, outPath, "snapshot", out)
}

// RunStats prints a summary of a snapshot to w.
func RunStats(w io.Writer, inPath string) error {
	in, err := readFile(inPath, "snapshot")
	if err != nil {
		return err
	}
	s, err := api.Describe(in)
	if err != nil {
		return fmt.Errorf("describe %s: %w", inPath, err)
	}
	free := 0
	for _, r := range s.Stats.Free {
		free += int(r.Len())
	}
	fmt.Fprintf(w, "size:        %d\n", s.Size)
	fmt.Fprintf(w, "depth:       %d\n", s.Depth)
	fmt.Fprintf(w, "position:    %s\n", s.Position)
	fmt.Fprintf(w, "voxels:      %d\n", s.Voxels)
	fmt.Fprintf(w, "nodes:       %d live / %d slots\n", s.Stats.Live, s.Stats.Nodes)
	fmt.Fprintf(w, "free slots:  %d in %d ranges\n", free, len(s.Stats.Free))
	return nil
}

// RunStatsPrometheus writes the arena and voxel gauges of a snapshot to w in
// the Prometheus text format, labelled with the snapshot path.
func RunStatsPrometheus(w io.Writer, inPath string) error {
	in, err := readFile(inPath, "snapshot")
	if err != nil {
		return err
	}
	tree, err := codec.Unmarshal(in)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}
	reg := prometheus.NewRegistry()
	m, err := metrics.NewTreeMetrics(reg)
	if err != nil {
		return err
	}
	m.Observe(inPath, tree)
	return metrics.WriteText(w, reg)
}
