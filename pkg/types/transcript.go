// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Header returns the role name as it appears in rendered Markdown headings.
func (r Role) Header() string {
	return strings.ToUpper(string(r))
}

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Marker is a located role indicator in a source document. Markers are
// discovered left to right, so Offset is strictly increasing across a
// marker list and defines conversation turn order.
type Marker struct {
	Role   Role `json:"role" yaml:"role"`
	Offset int  `json:"offset" yaml:"offset"`
}

// Message is the cleaned text extracted from one segment of a document.
type Message struct {
	// Role is the author of the turn.
	Role Role `json:"role" yaml:"role"`

	// Text is the normalized Markdown-ish content. Never empty for a
	// retained message.
	Text string `json:"text" yaml:"text"`

	// Position is the zero-based index among retained messages.
	Position int `json:"position" yaml:"position"`
}

// Transcript holds the messages extracted from one source document.
type Transcript struct {
	// ID is a slug derived from the source file name (e.g. "MetaFlutter").
	ID string `json:"id" yaml:"id"`

	// SourcePath is the filesystem path the document was read from.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// ExtractedAt is when the extraction ran.
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`

	// Messages lists retained messages in marker order.
	Messages []Message `json:"messages" yaml:"messages"`
}
