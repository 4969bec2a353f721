// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/transcript-clean/pkg/types"
)

// Rewriter converts the raw HTML of an assistant prose region into
// Markdown-ish text. Different backends (regex, html2md) implement this
// interface.
type Rewriter interface {
	// Rewrite converts region and returns the unnormalized result.
	Rewrite(region string) (string, error)

	// Name returns the backend identifier for logging.
	Name() string
}

// NewRewriter returns the rewriter selected by cfg.Backend. An empty backend
// selects the regex pipeline.
func NewRewriter(cfg types.ExtractConfig) (Rewriter, error) {
	switch cfg.Backend {
	case types.BackendRegex, "":
		return NewRegexRewriter(cfg.FenceLanguage), nil
	case types.BackendHTML2MD:
		return NewHTML2MDRewriter(), nil
	default:
		return nil, fmt.Errorf("unknown rewrite backend %q: use regex or html2md", cfg.Backend)
	}
}

// pass is one global substitution over the whole text.
type pass struct {
	re      *regexp.Regexp
	replace func(groups []string) string
}

func (p pass) apply(s string) string {
	return replaceAllSubmatchFunc(p.re, s, p.replace)
}

// template returns a replacement that wraps the first capture group.
func template(prefix, suffix string) func([]string) string {
	return func(g []string) string { return prefix + g[1] + suffix }
}

// lineContent matches lazily within one line. Carriage returns and the
// Unicode line and paragraph separators end a line as well as \n.
const lineContent = `([^\n\r\x{2028}\x{2029}]*?)`

// singleLine compiles a pattern capturing the text between open and close
// when both sit on the same line.
func singleLine(open, close string) *regexp.Regexp {
	return regexp.MustCompile(open + lineContent + close)
}

var (
	codeBlockPattern = regexp.MustCompile(`<pre[^>]*>[\s\S]*?<code([^>]*)>([\s\S]*?)</code>[\s\S]*?</pre>`)
	languagePattern  = regexp.MustCompile(`class="[^"]*\blanguage-([\w+#.-]+)`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
)

// entities are decoded one at a time in this order, so "&amp;quot;"
// becomes a double quote.
var entities = []struct{ from, to string }{
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&amp;", "&"},
	{"&quot;", `"`},
}

// RegexRewriter applies an ordered sequence of tag substitutions. Each pass
// runs over the output of the previous one; later passes never see tags that
// an earlier pass already consumed.
type RegexRewriter struct {
	passes []pass
}

// NewRegexRewriter builds the substitution pipeline. When fenceLanguage is
// set, fenced code blocks open with the language named by a
// class="language-X" attribute on the <code> element.
func NewRegexRewriter(fenceLanguage bool) *RegexRewriter {
	codeBlock := func(g []string) string {
		lang := ""
		if fenceLanguage {
			if m := languagePattern.FindStringSubmatch(g[1]); m != nil {
				lang = m[1]
			}
		}
		return "\n```" + lang + "\n" + tagPattern.ReplaceAllString(g[2], "") + "\n```\n"
	}

	return &RegexRewriter{passes: []pass{
		{singleLine(`<h3>`, `</h3>`), template("\n### ", "\n")},
		{singleLine(`<h2>`, `</h2>`), template("\n## ", "\n")},
		{singleLine(`<h1>`, `</h1>`), template("\n# ", "\n")},
		{singleLine(`<p[^>]*>`, `</p>`), template("\n", "\n")},
		{singleLine(`<li[^>]*>`, `</li>`), template("\n- ", "")},
		{codeBlockPattern, codeBlock},
		{singleLine(`<strong[^>]*>`, `</strong>`), template("**", "**")},
		{singleLine(`<em[^>]*>`, `</em>`), template("*", "*")},
		{singleLine(`<code[^>]*>`, `</code>`), template("`", "`")},
	}}
}

// Name implements Rewriter.
func (r *RegexRewriter) Name() string { return string(types.BackendRegex) }

// Rewrite implements Rewriter. It never returns an error.
func (r *RegexRewriter) Rewrite(region string) (string, error) {
	s := region
	for _, p := range r.passes {
		s = p.apply(s)
	}
	s = DecodeEntities(s)
	return StripTags(s), nil
}

// DecodeEntities replaces the four basic HTML entities with literal characters.
func DecodeEntities(s string) string {
	for _, e := range entities {
		s = strings.ReplaceAll(s, e.from, e.to)
	}
	return s
}

// StripTags removes anything still in angle-bracket tag form.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// replaceAllSubmatchFunc is regexp.ReplaceAllStringFunc with access to the
// capture groups. Unmatched optional groups are empty strings.
func replaceAllSubmatchFunc(re *regexp.Regexp, s string, fn func([]string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = s[m[2*i]:m[2*i+1]]
			}
		}
		b.WriteString(fn(groups))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
