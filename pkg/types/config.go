package types

// RewriteBackend identifies how an assistant prose region is turned into
// Markdown.
type RewriteBackend string

const (
	// BackendRegex applies the ordered tag substitution passes.
	BackendRegex RewriteBackend = "regex"
	// BackendHTML2MD hands the prose region to html-to-markdown.
	BackendHTML2MD RewriteBackend = "html2md"
)

// ExtractConfig holds settings for the extract and batch commands.
type ExtractConfig struct {
	// Source is the exported HTML transcript to read.
	Source string `json:"source" yaml:"source"`

	// Destination is the Markdown file to write. Empty derives
	// <source>_Clean.md next to the source; "-" writes to stdout.
	Destination string `json:"destination" yaml:"destination"`

	// Backend selects the assistant rewriter: regex or html2md.
	Backend RewriteBackend `json:"backend" yaml:"backend"`

	// FenceLanguage labels fenced code blocks with the language class
	// found on the <code> element, when present.
	FenceLanguage bool `json:"fence_language" yaml:"fence_language"`

	// OutDir is the batch output directory.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// Force overwrites existing batch outputs instead of skipping them.
	Force bool `json:"force" yaml:"force"`
}

// ArchiveConfig holds settings for the transcript archive.
type ArchiveConfig struct {
	// Dir is the directory holding transcripts.db.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ExportFormat selects the archive export encoding.
type ExportFormat string

const (
	ExportYAML ExportFormat = "yaml"
	ExportJSON ExportFormat = "json"
)

// Valid reports whether f names a supported export encoding. The empty
// format selects YAML.
func (f ExportFormat) Valid() bool {
	return f == "" || f == ExportYAML || f == ExportJSON
}
