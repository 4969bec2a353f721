// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert reads exported chat transcripts from disk, runs them
// through the transcript extractor, and writes the cleaned Markdown.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/transcript-clean/internal/transcript"
	"github.com/pdiddy/transcript-clean/pkg/types"
)

const (
	// cleanSuffix is appended to the source base name for the default
	// destination (MetaFlutter.md -> MetaFlutter_Clean.md).
	cleanSuffix = "_Clean"

	// Stdout as a destination writes the document to the converter's stdout.
	Stdout = "-"
)

// Converter turns transcript files into cleaned Markdown files.
type Converter struct {
	extractor *transcript.Extractor
	stdout    io.Writer
	now       func() time.Time
}

// NewConverter creates a Converter that extracts with ext and writes "-"
// destinations to stdout.
func NewConverter(ext *transcript.Extractor, stdout io.Writer) *Converter {
	if ext == nil {
		ext = transcript.NewExtractor(nil, nil)
	}
	return &Converter{extractor: ext, stdout: stdout, now: time.Now}
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted   int
	Skipped     int
	Failed      int
	Transcripts []types.Transcript
}

// Total returns the total number of sources processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any source failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// TranscriptID derives a transcript identifier from its source path by
// dropping the directory and extension.
func TranscriptID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultDestination returns the output path used when none is configured:
// the source's directory and base name with a _Clean suffix and .md extension.
func DefaultDestination(src string) string {
	return filepath.Join(filepath.Dir(src), TranscriptID(src)+cleanSuffix+".md")
}

// Read loads and extracts a transcript without writing anything. A read or
// decode failure returns an *IOError.
func (c *Converter) Read(src string) (types.Transcript, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return types.Transcript{}, &IOError{Op: "read", Path: src, Err: err}
	}
	if !utf8.Valid(data) {
		return types.Transcript{}, &IOError{Op: "decode", Path: src, Err: ErrInvalidEncoding}
	}

	return types.Transcript{
		ID:          TranscriptID(src),
		SourcePath:  src,
		ExtractedAt: c.now().UTC(),
		Messages:    c.extractor.Extract(string(data)),
	}, nil
}

// ConvertFile reads src, extracts its messages, and writes the rendered
// document to dst, replacing any existing file. An empty dst uses
// DefaultDestination. Nothing is written when src cannot be read.
func (c *Converter) ConvertFile(src, dst string) (types.Transcript, error) {
	t, err := c.Read(src)
	if err != nil {
		return types.Transcript{}, err
	}
	if dst == "" {
		dst = DefaultDestination(src)
	}
	return t, c.write(dst, transcript.Render(t.Messages))
}

func (c *Converter) write(dst, doc string) error {
	if dst == Stdout {
		if _, err := io.WriteString(c.stdout, doc); err != nil {
			return &IOError{Op: "write", Path: dst, Err: err}
		}
		return nil
	}
	if err := os.WriteFile(dst, []byte(doc), 0o644); err != nil {
		return &IOError{Op: "write", Path: dst, Err: err}
	}
	return nil
}

// ConvertBatch converts each source into outDir/<id>.md, printing per-file
// status to w and returning a summary. Sources whose output already exists
// are skipped unless force is set. A failing source does not stop the batch.
// Two sources mapping to the same id would write the same file, so every
// source after the first with that id fails. Cancelling ctx stops the batch
// before the next source; the partial result is returned with ctx.Err().
func (c *Converter) ConvertBatch(ctx context.Context, sources []string, outDir string, force bool, w io.Writer) (BatchResult, error) {
	var result BatchResult

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		for _, src := range sources {
			fmt.Fprintf(w, "failed:    %s (%v)\n", TranscriptID(src), err)
		}
		result.Failed = len(sources)
		return result, nil
	}

	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		id := TranscriptID(src)
		dst := filepath.Join(outDir, id+".md")

		if first, ok := seen[id]; ok {
			fmt.Fprintf(w, "failed:    %s (duplicate transcript id, also from %s)\n", id, first)
			result.Failed++
			continue
		}
		seen[id] = src

		if !force {
			if _, err := os.Stat(dst); err == nil {
				fmt.Fprintf(w, "skipped:   %s (already exists)\n", id)
				result.Skipped++
				continue
			}
		}

		t, err := c.ConvertFile(src, dst)
		if err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", id, err)
			result.Failed++
			continue
		}

		fmt.Fprintf(w, "converted: %s (%d messages)\n", id, len(t.Messages))
		result.Converted++
		result.Transcripts = append(result.Transcripts, t)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, nil
}
