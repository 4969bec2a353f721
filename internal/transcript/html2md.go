// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

// HTML2MDRewriter converts a prose region with html-to-markdown. It handles
// nested lists and tables that the regex passes flatten, at the cost of
// building a node tree for each region.
type HTML2MDRewriter struct{}

// NewHTML2MDRewriter creates an HTML2MDRewriter.
func NewHTML2MDRewriter() *HTML2MDRewriter {
	return &HTML2MDRewriter{}
}

// Name implements Rewriter.
func (h *HTML2MDRewriter) Name() string { return string(types.BackendHTML2MD) }

// Rewrite implements Rewriter.
func (h *HTML2MDRewriter) Rewrite(region string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(region)
	if err != nil {
		return "", fmt.Errorf("converting prose region to markdown: %w", err)
	}
	return markdown, nil
}
