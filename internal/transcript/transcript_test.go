// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

// --- document builders ---

func userTurn(text string) string {
	return `<div data-message-author-role="user" data-message-id="u1"><div class="flex">` +
		`<div class="whitespace-pre-wrap">` + text + `</div></div></div>`
}

func assistantTurn(prose string) string {
	return `<div data-message-author-role="assistant" data-message-id="a1">` +
		`<div class="markdown prose w-full break-words dark:prose-invert light">` + prose + `</div>` +
		`<div class="z-0 flex min-h-[46px] justify-start"><button>Copy</button><button>Good response</button></div></div>`
}

func page(turns ...string) string {
	return "<html><head><style>.x{}</style></head><body>" + strings.Join(turns, "\n") + "</body></html>"
}

func TestLocateMarkers(t *testing.T) {
	doc := page(userTurn("one"), assistantTurn("<p>two</p>"), userTurn("three"))
	markers := LocateMarkers(doc)

	require.Len(t, markers, 3)
	assert.Equal(t, types.RoleUser, markers[0].Role)
	assert.Equal(t, types.RoleAssistant, markers[1].Role)
	assert.Equal(t, types.RoleUser, markers[2].Role)
	for i := 1; i < len(markers); i++ {
		assert.Greater(t, markers[i].Offset, markers[i-1].Offset)
	}
	assert.True(t, strings.HasPrefix(doc[markers[1].Offset:], `data-message-author-role="assistant"`))
}

func TestLocateMarkersIgnoresOtherRoles(t *testing.T) {
	doc := `<div data-message-author-role="system">x</div><div data-message-author-role="tool">y</div>`
	assert.Empty(t, LocateMarkers(doc))
}

func TestSegment(t *testing.T) {
	doc := `..data-message-author-role="user"AAA data-message-author-role="assistant"BBB`
	markers := LocateMarkers(doc)
	require.Len(t, markers, 2)

	assert.Equal(t, `data-message-author-role="user"AAA `, Segment(doc, markers, 0))
	assert.Equal(t, `data-message-author-role="assistant"BBB`, Segment(doc, markers, 1))
}

func TestExtractAndRender(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "no markers renders title only",
			doc:  "<html><body><p>nothing to see</p></body></html>",
			want: "# Cleaned Conversation\n\n",
		},
		{
			name: "single user message",
			doc:  page(userTurn("Hello")),
			want: "# Cleaned Conversation\n\n## USER\n\nHello\n\n---\n",
		},
		{
			name: "assistant paragraph",
			doc:  page(assistantTurn("<p>Hi there</p>")),
			want: "# Cleaned Conversation\n\n## ASSISTANT\n\nHi there\n\n---\n",
		},
		{
			name: "conversation keeps turn order",
			doc:  page(userTurn("Question?"), assistantTurn("<p>Answer.</p>"), userTurn("Thanks")),
			want: "# Cleaned Conversation\n\n" +
				"## USER\n\nQuestion?\n\n---\n\n" +
				"## ASSISTANT\n\nAnswer.\n\n---\n\n" +
				"## USER\n\nThanks\n\n---\n",
		},
		{
			name: "assistant without prose region is dropped",
			doc:  page(userTurn("ping"), `<div data-message-author-role="assistant"><div class="result-streaming"></div></div>`),
			want: "# Cleaned Conversation\n\n## USER\n\nping\n\n---\n",
		},
		{
			name: "user without wrapper is dropped",
			doc:  page(`<div data-message-author-role="user"><span>lost</span></div>`, assistantTurn("<p>kept</p>")),
			want: "# Cleaned Conversation\n\n## ASSISTANT\n\nkept\n\n---\n",
		},
		{
			name: "whitespace-only user text is dropped",
			doc:  page(userTurn("  \n\t <br/> ")),
			want: "# Cleaned Conversation\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(Extract(tt.doc)))
		})
	}
}

func TestExtractPositionsAndCount(t *testing.T) {
	doc := page(
		userTurn("a"),
		`<div data-message-author-role="assistant"></div>`,
		userTurn("b"),
		assistantTurn("<p>c</p>"),
	)
	msgs := Extract(doc)

	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, i, m.Position)
	}
	assert.Equal(t, []string{"a", "b", "c"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})
}

func TestUserTextStripsTags(t *testing.T) {
	msgs := Extract(page(userTurn("Hi <b>there</b>,\nsee <a href=\"x\">this</a>")))
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hi there,\nsee this", msgs[0].Text)
}

func TestUserTextSpansLines(t *testing.T) {
	msgs := Extract(page(userTurn("line one\n\n\n\nline two")))
	require.Len(t, msgs, 1)
	assert.Equal(t, "line one\n\nline two", msgs[0].Text)
}

func TestProseRegion(t *testing.T) {
	tests := []struct {
		name   string
		seg    string
		want   string
		wantOK bool
	}{
		{
			name:   "cuts at footer",
			seg:    `x<div class="markdown prose a b"><p>body</p></div><div class="z-0 flex gap"><button>Copy</button></div>`,
			want:   `<p>body</p></div>`,
			wantOK: true,
		},
		{
			name:   "no footer keeps remainder",
			seg:    `<div class="markdown prose"><p>body</p></div></div>`,
			want:   `<p>body</p></div></div>`,
			wantOK: true,
		},
		{
			name:   "footer match is literal",
			seg:    `<div class="markdown prose"><p>body</p><div class="flex z-0">chrome</div>`,
			want:   `<p>body</p><div class="flex z-0">chrome</div>`,
			wantOK: true,
		},
		{
			name:   "unterminated opening tag starts at container",
			seg:    `<div class="markdown prose`,
			want:   `<div class="markdown prose`,
			wantOK: true,
		},
		{
			name: "missing container",
			seg:  `<div class="prose"><p>body</p></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProseRegion(tt.seg)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a\n\n\n\nb", "a\n\nb"},
		{"a\n  \n\t\n b", "a\n\n b"},
		{"\n\n  text  \n\n", "text"},
		{"single\nline\nbreaks", "single\nline\nbreaks"},
		{" \n\t ", ""},
		{"a\n\u00a0\n\n\nb", "a\n\nb"},
		{"a\n\v\n\n\nb", "a\n\nb"},
		{"a\n\u2003\ufeff\n\u2028\nb", "a\n\nb"},
		{"a\u00a0b\nc", "a\u00a0b\nc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

// failingRewriter always errors, to exercise the regex fallback.
type failingRewriter struct{}

func (failingRewriter) Rewrite(string) (string, error) { return "", errors.New("boom") }
func (failingRewriter) Name() string                   { return "failing" }

func TestExtractorFallsBackOnRewriterError(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	e := NewExtractor(failingRewriter{}, logger)
	msgs := e.Extract(page(assistantTurn("<p><strong>still</strong> here</p>")))

	require.Len(t, msgs, 1)
	assert.Equal(t, "**still** here", msgs[0].Text)
	assert.Contains(t, logBuf.String(), "rewriter failed")
	assert.Contains(t, logBuf.String(), "rewriter=failing")
}

func TestExtractorLogsDroppedMessages(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := NewExtractor(nil, logger)
	msgs := e.Extract(page(`<div data-message-author-role="assistant"></div>`))

	assert.Empty(t, msgs)
	assert.Contains(t, logBuf.String(), "count=1")
	assert.Contains(t, logBuf.String(), "dropping empty message")
	assert.Contains(t, logBuf.String(), "role=assistant")
}
