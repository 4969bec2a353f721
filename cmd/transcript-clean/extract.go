// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/transcript-clean/internal/archive"
	"github.com/pdiddy/transcript-clean/internal/convert"
	"github.com/pdiddy/transcript-clean/internal/transcript"
	"github.com/pdiddy/transcript-clean/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [source]",
	Short: "Extract the conversation from one exported transcript",
	Long: `Extract reads an exported HTML chat transcript, pulls out each user and
assistant turn, and writes them as Markdown under a "# Cleaned Conversation"
title. The destination is overwritten. Without --output the result goes to
<source>_Clean.md next to the source; "-o -" writes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "destination Markdown file (default <source>_Clean.md, - for stdout)")
	addRewriteFlags(extractCmd)
	extractCmd.Flags().Bool("archive", false, "also store the extracted transcript in the archive")
	extractCmd.Flags().String("archive-dir", "archive", "archive directory (used with --archive)")

	rootCmd.AddCommand(extractCmd)
}

// addRewriteFlags registers the flags shared by extract and batch.
func addRewriteFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", string(types.BackendRegex), "assistant rewrite backend: regex or html2md")
	cmd.Flags().Bool("fence-language", false, "label fenced code blocks with their language class")
}

func extractConfig(cmd *cobra.Command, args []string) types.ExtractConfig {
	cfg := types.ExtractConfig{
		Source:        setting(cmd, "source", "extract.source", ""),
		Destination:   setting(cmd, "output", "extract.destination", ""),
		Backend:       types.RewriteBackend(setting(cmd, "backend", "extract.backend", string(types.BackendRegex))),
		FenceLanguage: boolSetting(cmd, "fence-language", "extract.fence_language"),
		OutDir:        setting(cmd, "out-dir", "extract.out_dir", "clean"),
		Force:         boolSetting(cmd, "force", "extract.force"),
	}
	if len(args) > 0 {
		cfg.Source = args[0]
	}
	return cfg
}

// newConverter builds the extraction pipeline selected by cfg.
func newConverter(cmd *cobra.Command, cfg types.ExtractConfig) (*convert.Converter, error) {
	rw, err := transcript.NewRewriter(cfg)
	if err != nil {
		return nil, err
	}
	return convert.NewConverter(transcript.NewExtractor(rw, logger), cmd.OutOrStdout()), nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := extractConfig(cmd, args)
	if cfg.Source == "" {
		return fmt.Errorf("provide a source transcript as an argument or extract.source in the config file")
	}

	conv, err := newConverter(cmd, cfg)
	if err != nil {
		return err
	}

	dst := cfg.Destination
	if dst == "" {
		dst = convert.DefaultDestination(cfg.Source)
	}

	t, err := conv.ConvertFile(cfg.Source, dst)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", cfg.Source, err)
	}
	logger.Info(fmt.Sprintf("Successfully extracted %d messages to %s", len(t.Messages), dst),
		slog.String("source", cfg.Source),
		slog.String("backend", string(cfg.Backend)))

	if !boolSetting(cmd, "archive", "extract.archive") {
		return nil
	}
	store, err := archive.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Save(context.Background(), t); err != nil {
		return fmt.Errorf("archiving %s: %w", t.ID, err)
	}
	logger.Info("archived transcript", slog.String("id", t.ID))
	return nil
}
