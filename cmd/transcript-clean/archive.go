// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/transcript-clean/internal/archive"
	"github.com/pdiddy/transcript-clean/internal/convert"
	"github.com/pdiddy/transcript-clean/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the transcript archive (store, search, export)",
	Long: `Archive keeps extracted conversations in a local SQLite database with a
full-text index over message text. Use subcommands to store transcripts,
search them, or export them.`,
}

// --- store subcommand ---

var archiveStoreCmd = &cobra.Command{
	Use:   "store [sources...]",
	Short: "Extract transcripts and store them in the archive",
	Long: `Store extracts each source transcript and saves its messages in the
archive, replacing any earlier copy of the same transcript.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArchiveStore,
}

func runArchiveStore(cmd *cobra.Command, args []string) error {
	conv, err := newConverter(cmd, extractConfig(cmd, nil))
	if err != nil {
		return err
	}

	store, err := archive.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	ctx := context.Background()
	var stored, failed int
	seen := make(map[string]string, len(args))
	for _, src := range args {
		id := convert.TranscriptID(src)
		if first, ok := seen[id]; ok {
			fmt.Fprintf(w, "failed   %s: duplicate transcript id, also from %s\n", id, first)
			failed++
			continue
		}
		seen[id] = src

		t, err := conv.Read(src)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", id, err)
			failed++
			continue
		}
		replaced, err := store.Save(ctx, t)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", t.ID, err)
			failed++
			continue
		}
		verb := "stored  "
		if replaced {
			verb = "replaced"
		}
		fmt.Fprintf(w, "%s %s (%d messages)\n", verb, t.ID, len(t.Messages))
		stored++
	}

	fmt.Fprintf(w, "\nstored: %d, failed: %d\n", stored, failed)
	if failed > 0 {
		return fmt.Errorf("%d transcript(s) failed archiving", failed)
	}
	return nil
}

// --- search subcommand ---

var archiveSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search archived messages with full-text search and filters",
	Long: `Search matches archived message text with an FTS4 query, optionally
narrowed by role and transcript. Results are listed in conversation order.`,
	RunE: runArchiveSearch,
}

func runArchiveSearch(cmd *cobra.Command, args []string) error {
	store, err := archive.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --role, or --transcript")
	}
	if opts.Role != "" && !opts.Role.Valid() {
		return fmt.Errorf("unknown role %q: use user or assistant", opts.Role)
	}

	results, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []archive.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-4s  %-9s  %s\n", "Transcript", "Pos", "Role", "Text")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range results {
		id := r.TranscriptID
		if len(id) > 20 {
			id = id[:17] + "..."
		}
		text := strings.Join(strings.Fields(r.Text), " ")
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-4d  %-9s  %s\n", id, r.Position, r.Role, text)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived transcripts to YAML or JSON",
	Long: `Export writes archived transcripts with their messages as YAML or JSON.
Supports the same filters as search for partial exports.`,
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) (err error) {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	if !types.ExportFormat(format).Valid() {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	store, err := archive.NewStore(archiveConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	toFile := output != "" && output != convert.Stdout
	if toFile {
		f, createErr := os.Create(output)
		if createErr != nil {
			return &convert.IOError{Op: "write", Path: output, Err: createErr}
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = &convert.IOError{Op: "write", Path: output, Err: cerr}
			}
			if err != nil {
				os.Remove(output)
			}
		}()
		w = f
	}

	opts := queryOptsFromFlags(cmd, args)
	if err := store.Export(context.Background(), types.ExportFormat(format), opts, w); err != nil {
		return err
	}
	if toFile {
		logger.Info("exported archive", slog.String("path", output), slog.String("format", format))
	}
	return nil
}

// --- shared helpers ---

func archiveConfig(cmd *cobra.Command) types.ArchiveConfig {
	maxResults := viper.GetInt("archive.max_results")
	if f := cmd.Flags().Lookup("max-results"); f != nil && (f.Changed || maxResults == 0) {
		maxResults, _ = strconv.Atoi(f.Value.String())
	}
	return types.ArchiveConfig{
		Dir:        setting(cmd, "archive-dir", "archive.dir", "archive"),
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) archive.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	role, _ := cmd.Flags().GetString("role")
	transcriptID, _ := cmd.Flags().GetString("transcript")
	limit, _ := cmd.Flags().GetInt("limit")

	return archive.QueryOptions{
		Query:        queryText,
		Role:         types.Role(role),
		TranscriptID: transcriptID,
		MaxResults:   limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("archive-dir", "archive", "archive directory (contains transcripts.db)")
	archiveCmd.PersistentFlags().Int("max-results", 20, "maximum number of search results")

	// Store flags.
	addRewriteFlags(archiveStoreCmd)

	// Search flags.
	archiveSearchCmd.Flags().String("query", "", "full-text search query")
	archiveSearchCmd.Flags().String("role", "", "filter by role: user or assistant")
	archiveSearchCmd.Flags().String("transcript", "", "filter by transcript ID")
	archiveSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	archiveExportCmd.Flags().String("format", string(types.ExportYAML), "export format: yaml or json")
	archiveExportCmd.Flags().StringP("output", "o", "", "export file (default stdout)")
	archiveExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	archiveExportCmd.Flags().String("role", "", "filter by role for partial export")
	archiveExportCmd.Flags().String("transcript", "", "filter by transcript ID for partial export")

	// Wire subcommands.
	archiveCmd.AddCommand(archiveStoreCmd)
	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
