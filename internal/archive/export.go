// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

// Export writes archived transcripts and their messages to w in the given
// format. Filters in opts narrow both the transcripts and the messages
// included; MaxResults is ignored. With no filters the whole archive is
// written.
func (s *Store) Export(ctx context.Context, format types.ExportFormat, opts QueryOptions, w io.Writer) error {
	transcripts, err := s.exportTranscripts(ctx, opts)
	if err != nil {
		return err
	}

	switch format {
	case types.ExportYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(transcripts); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case types.ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(transcripts); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func (s *Store) exportTranscripts(ctx context.Context, opts QueryOptions) ([]types.Transcript, error) {
	transcripts, err := s.Transcripts(ctx, opts.TranscriptID)
	if err != nil {
		return nil, err
	}

	results, err := s.query(ctx, opts, 0)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	byID := make(map[string][]types.Message)
	for _, r := range results {
		byID[r.TranscriptID] = append(byID[r.TranscriptID], r.Message)
	}

	out := make([]types.Transcript, 0, len(transcripts))
	for _, t := range transcripts {
		msgs, ok := byID[t.ID]
		if !ok && !opts.IsEmpty() {
			continue
		}
		if msgs == nil {
			msgs = []types.Message{}
		}
		t.Messages = msgs
		out = append(out, t)
	}
	return out, nil
}
