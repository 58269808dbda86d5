//go:build !(js && wasm)

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voxelsplace/svo/octree"
	"github.com/voxelsplace/svo/utils"
)

var (
	configPath string
	treeSize   uint32
	noiseSeed  int64
	promFormat bool

	cfg    utils.Config
	logger *logrus.Logger

	rootCmd = &cobra.Command{
		Use:   "svotool",
		Short: "Create, edit and inspect sparse voxel octree snapshots",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = utils.LoadConfig(configPath); err != nil {
				return err
			}
			if cmd.Flags().Changed("size") {
				cfg.TreeSize = treeSize
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			logger, err = cfg.NewLogger()
			return err
		},
		SilenceUsage: true,
	}

	newCmd = &cobra.Command{
		Use:   "new <out.svo>",
		Short: "Write an empty tree of the configured size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.RunNew(cfg, logger, args[0])
		},
	}

	noiseCmd = &cobra.Command{
		Use:   "noise <percentage> <out.svo>",
		Short: "Write a tree with a random fill percentage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			perc, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid percentage %q: %w", args[0], err)
			}
			return utils.RunNoise(cfg, logger, perc, noiseSeed, args[1])
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update <in.svo> <updates.json> <out.svo>",
		Short: `Apply JSON updates of the form {"x,y,z": id}`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			return utils.RunUpdate(cfg, logger, updates, args[0], args[2])
		},
	}

	applyCmd = &cobra.Command{
		Use:   "apply <in.svo> <edits.bin> <out.svo>",
		Short: "Apply an edit stream",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.RunApplyEdits(cfg, logger, args[0], args[1], args[2])
		},
	}

	editsCmd = &cobra.Command{
		Use:   "edits <in.svo> <out.bin>",
		Short: "Export every non-empty voxel as an edit stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return utils.RunExportEdits(logger, args[0], args[1])
		},
	}

	shiftCmd = &cobra.Command{
		Use:   "shift <in.svo> <dx> <dy> <dz> <out.svo>",
		Short: "Move the window of a tree, clearing what leaves it",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d [3]int32
			for i, s := range args[1:4] {
				v, err := strconv.ParseInt(s, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid offset %q: %w", s, err)
				}
				d[i] = int32(v)
			}
			return utils.RunShift(cfg, logger, args[0], octree.IVec3{X: d[0], Y: d[1], Z: d[2]}, args[4])
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats <in.svo>",
		Short: "Print size, position and node usage of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if promFormat {
				return utils.RunStatsPrometheus(cmd.OutOrStdout(), args[0])
			}
			return utils.RunStats(cmd.OutOrStdout(), args[0])
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "svotool.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().Uint32Var(&treeSize, "size", 0, "edge length of new trees, overrides tree_size")
	noiseCmd.Flags().Int64Var(&noiseSeed, "seed", 1, "random seed")
	statsCmd.Flags().BoolVar(&promFormat, "prometheus", false, "print the stats in the Prometheus text format")
	rootCmd.AddCommand(newCmd, noiseCmd, updateCmd, applyCmd, editsCmd, shiftCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
