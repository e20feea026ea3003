package notes

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

const excerptLength = 160

var sanitizer = bluemonday.UGCPolicy()

// RenderHTML converts note markdown to sanitized HTML.
func RenderHTML(content string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(content))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.Render(doc, renderer)
	return string(sanitizer.SanitizeBytes(rendered))
}

// Excerpt produces a single-line plain-text preview of markdown content,
// truncated to max runes.
func Excerpt(content string, max int) string {
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#>-*+ \t")
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "`", "")
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)
		if b.Len() >= max {
			break
		}
	}
	runes := []rune(b.String())
	if len(runes) > max {
		return strings.TrimSpace(string(runes[:max])) + "…"
	}
	return b.String()
}
