// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript extracts conversation turns from an exported HTML chat
// transcript and renders them as Markdown. It works on the flat text with
// pattern search rather than a DOM: role markers split the document into
// segments, and each segment's content region is located by literal tags.
package transcript

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

const (
	// proseOpen starts the assistant's rendered Markdown container. The
	// class list continues past this prefix, so the tag is closed by the
	// first '>' after it.
	proseOpen = `<div class="markdown prose`

	// footerOpen starts the action-button row under an assistant reply.
	// Matched literally; other exporters need their own marker.
	footerOpen = `<div class="z-0 flex`
)

var (
	userContentPattern = regexp.MustCompile(`(?s)<div class="whitespace-pre-wrap">(.*?)</div>`)
	anyTagPattern      = regexp.MustCompile(`<[^>]*>`)
	// Whitespace here includes \v, Unicode spaces and BOM, matching what
	// strings.TrimSpace strips at the document edges.
	blankRunPattern = regexp.MustCompile(`\n[\s\v\p{Z}\x{feff}]*\n`)
)

// Extractor turns a document into an ordered list of messages.
type Extractor struct {
	rewriter Rewriter
	fallback Rewriter
	logger   *slog.Logger
}

// NewExtractor returns an Extractor that rewrites assistant regions with rw.
// A nil rw selects the regex pipeline; a nil logger discards diagnostics.
func NewExtractor(rw Rewriter, logger *slog.Logger) *Extractor {
	if rw == nil {
		rw = NewRegexRewriter(false)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		rewriter: rw,
		fallback: NewRegexRewriter(false),
		logger:   logger,
	}
}

// Extract returns the non-empty messages of doc in marker order. Unexpected
// markup never fails extraction; it only shortens or empties message text.
func (e *Extractor) Extract(doc string) []types.Message {
	markers := LocateMarkers(doc)
	e.logger.Debug("located role markers", slog.Int("count", len(markers)))

	messages := make([]types.Message, 0, len(markers))
	for i, m := range markers {
		seg := Segment(doc, markers, i)

		var raw string
		switch m.Role {
		case types.RoleUser:
			raw = e.userText(seg)
		case types.RoleAssistant:
			raw = e.assistantText(seg)
		}

		text := Normalize(raw)
		if text == "" {
			e.logger.Debug("dropping empty message",
				slog.String("role", string(m.Role)),
				slog.Int("offset", m.Offset))
			continue
		}
		messages = append(messages, types.Message{
			Role:     m.Role,
			Text:     text,
			Position: len(messages),
		})
	}
	return messages
}

// userText returns the first whitespace-pre-wrap block with all tags removed.
func (e *Extractor) userText(seg string) string {
	m := userContentPattern.FindStringSubmatch(seg)
	if m == nil {
		return ""
	}
	return anyTagPattern.ReplaceAllString(m[1], "")
}

// assistantText rewrites the prose region of an assistant segment.
func (e *Extractor) assistantText(seg string) string {
	region, ok := ProseRegion(seg)
	if !ok {
		return ""
	}
	out, err := e.rewriter.Rewrite(region)
	if err != nil {
		e.logger.Warn("rewriter failed, using regex pipeline",
			slog.String("rewriter", e.rewriter.Name()),
			slog.String("error", err.Error()))
		out, _ = e.fallback.Rewrite(region)
	}
	return out
}

// ProseRegion returns the raw HTML of the assistant prose container in seg:
// everything after the container's opening tag, cut at the footer row when
// one follows. It reports false when seg has no prose container.
func ProseRegion(seg string) (string, bool) {
	start := strings.Index(seg, proseOpen)
	if start < 0 {
		return "", false
	}
	body := seg[start:]
	// Without a closing '>' the body starts at the container literal itself.
	body = body[strings.IndexByte(body, '>')+1:]
	if end := strings.Index(body, footerOpen); end >= 0 {
		body = body[:end]
	}
	return body, true
}

// Normalize collapses runs of blank lines into a single blank line and
// trims surrounding whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(blankRunPattern.ReplaceAllString(text, "\n\n"))
}

// Extract runs the default regex pipeline over doc.
func Extract(doc string) []types.Message {
	return NewExtractor(nil, nil).Extract(doc)
}
