package utils

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/voxelsplace/svo/codec"
	"github.com/voxelsplace/svo/octree"
)

// maxNoiseSize bounds the position table the shuffle needs.
const maxNoiseSize = 128

// noiseEdits picks round(percentage% of size^3) distinct positions and gives
// each a random id in [1, 63], sorted in Morton order. NaN counts as 0.
func noiseEdits(size uint32, percentage float64, r *rand.Rand) []codec.Edit {
	if math.IsNaN(percentage) {
		percentage = 0
	}
	percentage = min(max(percentage, 0), 100)
	total := int(size * size * size)
	want := min(int(float64(total)*(percentage/100.0)+0.5), total)

	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	// Fisher-Yates over the first want slots only
	for i := 0; i < want; i++ {
		j := i + r.Intn(total-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	edits := make([]codec.Edit, want)
	for k, i := range idx[:want] {
		p := octree.UVec3{
			X: uint32(i) % size,
			Y: uint32(i) / size % size,
			Z: uint32(i) / (size * size),
		}
		edits[k] = codec.Edit{Pos: p, ID: uint32(1 + r.Intn(63))}
	}
	sortMorton(edits)
	return edits
}

func sortMorton(edits []codec.Edit) {
	slices.SortFunc(edits, func(a, b codec.Edit) int {
		return cmp.Compare(codec.MortonOf(a.Pos), codec.MortonOf(b.Pos))
	})
}

// RunNoise writes a tree of the configured size with percentage% of its
// voxels set to random ids. The same seed yields the same tree.
func RunNoise(cfg Config, logger logrus.FieldLogger, percentage float64, seed int64, outPath string) error {
	if math.IsNaN(percentage) || math.IsInf(percentage, 0) {
		return fmt.Errorf("percentage must be a finite number, got %v", percentage)
	}
	if cfg.TreeSize > maxNoiseSize {
		return fmt.Errorf("noise trees are limited to size %d, got %d", maxNoiseSize, cfg.TreeSize)
	}
	tree, err := octree.New(cfg.TreeSize, octree.WithLogger(logger))
	if err != nil {
		return err
	}
	edits := noiseEdits(cfg.TreeSize, percentage, rand.New(rand.NewSource(seed)))
	if err := codec.ApplyEdits(tree, edits); err != nil {
		return err
	}
	logger.WithField("action", "svotool_noise").
		WithField("voxels", len(edits)).
		WithField("live_nodes", tree.Stats().Live).
		Debug("noise generated")
	data, err := codec.Marshal(tree, cfg.Codec())
	if err != nil {
		return err
	}
	return writeFile(logger, outPath, "snapshot", data)
}
