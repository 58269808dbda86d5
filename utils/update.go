package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/voxelsplace/svo/codec"
	"github.com/voxelsplace/svo/octree"
)

// updatesJSON is { "<x>,<y>,<z>": <id>, ... }
type updatesJSON map[string]int64

func parsePos(key string) (octree.UVec3, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 3 {
		return octree.UVec3{}, fmt.Errorf("invalid voxel position '%s'", key)
	}
	var c [3]uint32
	for i, s := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return octree.UVec3{}, fmt.Errorf("invalid voxel position '%s': %w", key, err)
		}
		c[i] = uint32(v)
	}
	return octree.UVec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// jsonEdits turns a JSON updates blob into edits in Morton order. Positions
// outside a tree of edge length size are skipped and counted. Negative ids
// clear.
func jsonEdits(blob []byte, size uint32) ([]codec.Edit, int, error) {
	var up updatesJSON
	if err := json.Unmarshal(blob, &up); err != nil {
		return nil, 0, fmt.Errorf("invalid updates JSON: %w", err)
	}
	edits := make([]codec.Edit, 0, len(up))
	skipped := 0
	for key, id := range up {
		p, err := parsePos(key)
		if err != nil {
			return nil, 0, err
		}
		if p.X >= size || p.Y >= size || p.Z >= size {
			skipped++
			continue
		}
		if id > octree.MaxVoxelID {
			return nil, 0, fmt.Errorf("%w: %d at %s", octree.ErrInvalidVoxelID, id, key)
		}
		edits = append(edits, codec.Edit{Pos: p, ID: uint32(max(id, 0))})
	}
	sortMorton(edits)
	return edits, skipped, nil
}

// RunUpdate applies a JSON updates blob to a snapshot.
func RunUpdate(cfg Config, logger logrus.FieldLogger, jsonUpdates []byte, inPath, outPath string) error {
	in, err := readFile(inPath, "snapshot")
	if err != nil {
		return err
	}
	tree, err := codec.Unmarshal(in, octree.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}
	edits, skipped, err := jsonEdits(jsonUpdates, tree.Size())
	if err != nil {
		return err
	}
	if skipped > 0 {
		logger.WithField("action", "svotool_update").
			WithField("skipped", skipped).
			Warn("updates outside the tree were ignored")
	}
	if err := codec.ApplyEdits(tree, edits); err != nil {
		return err
	}
	out, err := codec.Marshal(tree, cfg.Codec())
	if err != nil {
		return err
	}
	return writeFile(logger, outPath, "snapshot", out)
}
