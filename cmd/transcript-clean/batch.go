// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [sources...]",
	Short: "Extract many exported transcripts into a directory",
	Long: `Batch converts each source transcript into <out-dir>/<name>.md. Sources
whose output already exists are skipped unless --force is given. A failing
source is reported and the batch continues; the command fails at the end if
any source failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("out-dir", "clean", "directory for converted Markdown files")
	batchCmd.Flags().Bool("force", false, "overwrite existing outputs")
	addRewriteFlags(batchCmd)

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := extractConfig(cmd, nil)

	conv, err := newConverter(cmd, cfg)
	if err != nil {
		return err
	}

	result, err := conv.ConvertBatch(cmd.Context(), args, cfg.OutDir, cfg.Force, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("batch interrupted after %d transcript(s): %w", result.Total(), err)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d transcript(s) failed conversion", result.Failed)
	}
	return nil
}
