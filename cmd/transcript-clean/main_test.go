// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/transcript-clean/internal/archive"
)

const exportHTML = `<html><body>
<div data-message-author-role="user"><div class="whitespace-pre-wrap">Hello</div></div>
<div data-message-author-role="assistant"><div class="markdown prose"><p>Hi there</p></div><div class="z-0 flex"><button>Copy</button></div></div>
</body></html>`

const exportClean = "# Cleaned Conversation\n\n## USER\n\nHello\n\n---\n\n## ASSISTANT\n\nHi there\n\n---\n"

// resetFlags restores every flag to its default so each test starts from a
// clean command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI in-process and returns exit code, stdout, and stderr.
func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	resetFlags(rootCmd)
	viper.Reset()
	t.Cleanup(viper.Reset)

	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeExport(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(exportHTML), 0o644))
	return path
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	src := writeExport(t, dir, "chat.html")
	dst := filepath.Join(dir, "chat.md")

	code, _, stderr := execute(t, "extract", src, "-o", dst)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "Successfully extracted 2 messages to "+dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, exportClean, string(data))
}

func TestExtractDefaultDestination(t *testing.T) {
	dir := t.TempDir()
	src := writeExport(t, dir, "MetaFlutter.md")

	code, _, stderr := execute(t, "extract", src)
	require.Equal(t, 0, code, stderr)

	_, err := os.Stat(filepath.Join(dir, "MetaFlutter_Clean.md"))
	assert.NoError(t, err)
}

func TestExtractStdout(t *testing.T) {
	dir := t.TempDir()
	src := writeExport(t, dir, "chat.html")

	code, stdout, stderr := execute(t, "extract", src, "-o", "-")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, exportClean, stdout)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		args    func(dir string) []string
		wantErr string
	}{
		{
			name: "missing source",
			args: func(dir string) []string {
				return []string{"extract", filepath.Join(dir, "missing.html"), "-o", filepath.Join(dir, "out.md")}
			},
			wantErr: "read",
		},
		{
			name: "unwritable destination",
			args: func(dir string) []string {
				return []string{"extract", writeExport(t, dir, "chat.html"), "-o", dir}
			},
			wantErr: "write",
		},
		{
			name: "no source",
			args: func(dir string) []string {
				return []string{"extract"}
			},
			wantErr: "provide a source transcript",
		},
		{
			name: "unknown backend",
			args: func(dir string) []string {
				return []string{"extract", writeExport(t, dir, "chat.html"), "--backend", "pandoc"}
			},
			wantErr: "unknown rewrite backend",
		},
		{
			name: "bad log level",
			args: func(dir string) []string {
				return []string{"--log-level", "loud", "version"}
			},
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			code, _, stderr := execute(t, tt.args(dir)...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, "command failed")
			assert.Contains(t, stderr, tt.wantErr)
			assert.NotContains(t, stderr, "Successfully extracted")
			_, err := os.Stat(filepath.Join(dir, "out.md"))
			assert.True(t, os.IsNotExist(err), "no output should be written")
		})
	}
}

func TestExtractFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := writeExport(t, dir, "chat.html")
	dst := filepath.Join(dir, "from-config.md")
	cfgPath := filepath.Join(dir, "transcript-clean.yaml")
	cfg := "extract:\n  source: " + src + "\n  destination: " + dst + "\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	code, _, stderr := execute(t, "--config", cfgPath, "extract")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "located role markers")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, exportClean, string(data))
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	a := writeExport(t, dir, "a.html")
	outDir := filepath.Join(dir, "clean")

	code, stdout, _ := execute(t, "batch", a, filepath.Join(dir, "missing.html"), "--out-dir", outDir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "converted: a (2 messages)")
	assert.Contains(t, stdout, "failed:    missing")

	data, err := os.ReadFile(filepath.Join(outDir, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, exportClean, string(data))
}

func TestArchiveStoreSearchExport(t *testing.T) {
	dir := t.TempDir()
	src := writeExport(t, dir, "chat.html")
	archiveDir := filepath.Join(dir, "archive")

	code, stdout, stderr := execute(t, "archive", "store", src, "--archive-dir", archiveDir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "stored   chat (2 messages)")

	code, stdout, stderr = execute(t, "archive", "search", "hello", "--archive-dir", archiveDir, "--json")
	require.Equal(t, 0, code, stderr)
	var results []archive.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "chat", results[0].TranscriptID)
	assert.Equal(t, "Hello", results[0].Text)

	code, stdout, stderr = execute(t, "archive", "search", "--role", "assistant", "--archive-dir", archiveDir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Hi there")
	assert.Contains(t, stdout, "1 results")

	exportPath := filepath.Join(dir, "export.yaml")
	code, _, stderr = execute(t, "archive", "export", "--archive-dir", archiveDir, "-o", exportPath)
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: chat")
	assert.Contains(t, string(data), "text: Hi there")
}

func TestExtractWithArchive(t *testing.T) {
	dir := t.TempDir()
	src := writeExport(t, dir, "chat.html")
	archiveDir := filepath.Join(dir, "archive")

	code, _, stderr := execute(t, "extract", src, "-o", filepath.Join(dir, "chat.md"), "--archive", "--archive-dir", archiveDir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "archived transcript")

	code, stdout, _ := execute(t, "archive", "search", "--transcript", "chat", "--archive-dir", archiveDir)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "2 results")
}

func TestArchiveSearchRequiresQuery(t *testing.T) {
	code, _, stderr := execute(t, "archive", "search", "--archive-dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "query or filter required")
}

func TestArchiveSearchRejectsUnknownRole(t *testing.T) {
	code, _, stderr := execute(t, "archive", "search", "--role", "system", "--archive-dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown role")
}

func TestArchiveStoreRejectsDuplicateID(t *testing.T) {
	dir := t.TempDir()
	first := writeExport(t, filepath.Join(dir, "a"), "chat.html")
	second := writeExport(t, filepath.Join(dir, "b"), "chat.html")

	code, stdout, stderr := execute(t, "archive", "store", first, second, "--archive-dir", filepath.Join(dir, "archive"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "stored   chat (2 messages)")
	assert.Contains(t, stdout, "failed   chat: duplicate transcript id, also from "+first)
	assert.Contains(t, stdout, "stored: 1, failed: 1")
	assert.Contains(t, stderr, "1 transcript(s) failed archiving")
}

func TestArchiveExportRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "out.yaml")

	code, _, stderr := execute(t, "archive", "export", "--format", "xml", "-o", exportPath, "--archive-dir", filepath.Join(dir, "archive"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unsupported format \"xml\"`)
	assert.NoFileExists(t, exportPath)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "transcript-clean dev", strings.TrimSpace(stdout))
}
