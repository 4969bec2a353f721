// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"strings"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

// Title is the first line of every rendered document.
const Title = "# Cleaned Conversation"

// Render formats messages as a Markdown document. Each message becomes a
// "## ROLE" block closed by a horizontal rule; blocks are separated by a
// blank line.
func Render(messages []types.Message) string {
	blocks := make([]string, len(messages))
	for i, m := range messages {
		blocks[i] = "## " + m.Role.Header() + "\n\n" + m.Text + "\n\n---\n"
	}
	return Title + "\n\n" + strings.Join(blocks, "\n")
}
