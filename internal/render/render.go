// Package render converts Markdown files to HTML for the browser view.
package render

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdownExts = map[string]struct{}{
	".md":       {},
	".mdx":      {},
	".markdown": {},
}

// IsMarkdown reports whether ext (with leading dot, any case) names a Markdown file.
func IsMarkdown(ext string) bool {
	_, ok := markdownExts[strings.ToLower(ext)]
	return ok
}

// Renderer turns Markdown into HTML. Raw HTML embedded in the source is
// escaped because file content is untrusted. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with GitHub-flavoured Markdown and class-based
// syntax highlighting for fenced code blocks.
func New() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)}
}

// Render converts src to an HTML fragment.
func (r *Renderer) Render(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}
