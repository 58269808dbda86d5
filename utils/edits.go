package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voxelsplace/svo/api"
	"github.com/voxelsplace/svo/octree"
)

// RunApplyEdits applies the edit stream at editsPath to a snapshot.
func RunApplyEdits(cfg Config, logger logrus.FieldLogger, inPath, editsPath, outPath string) error {
	in, err := readFile(inPath, "snapshot")
	if err != nil {
		return err
	}
	edits, err := readFile(editsPath, "edit stream")
	if err != nil {
		return err
	}
	out, err := api.ApplyEdits(in, edits, cfg.Codec(), octree.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("apply %s: %w", editsPath, err)
	}
	return writeFile(logger, outPath, "snapshot", out)
}

// RunExportEdits writes every non-empty voxel of a snapshot as an edit stream.
func RunExportEdits(logger logrus.FieldLogger, inPath, outPath string) error {
	in, err := readFile(inPath, "snapshot")
	if err != nil {
		return err
	}
	out, err := api.ExportEdits(in)
	if err != nil {
		return fmt.Errorf("export %s: %w", inPath, err)
	}
	return writeFile(logger, outPath, "edit stream", out)
}
