// Package markdown renders blog descriptions to safe HTML.
package markdown

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/itchan-dev/blogfront/shared/logger"
)

var spaceRun = regexp.MustCompile(`\s+`)

type TextProcessor struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func New() *TextProcessor {
	md := goldmark.New(
		// Raw HTML in descriptions is dropped by goldmark and bluemonday both.
		goldmark.WithRendererOptions(html.WithHardWraps()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &TextProcessor{md: md, policy: policy, strict: bluemonday.StrictPolicy()}
}

// Render turns a description into sanitized HTML. Line breaks the author
// typed are kept.
func (tp *TextProcessor) Render(text string) template.HTML {
	rendered, err := tp.renderText(text)
	if err != nil {
		logger.Log.Warn("rendering description", "error", err)
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(tp.policy.Sanitize(rendered))
}

// PlainText strips all markup and collapses whitespace, for excerpts.
func (tp *TextProcessor) PlainText(text string) string {
	rendered, err := tp.renderText(text)
	if err != nil {
		rendered = text
	}
	stripped := tp.strict.Sanitize(rendered)
	// StrictPolicy escapes entities; excerpts are escaped again by templates.
	stripped = htmlUnescaper.Replace(stripped)
	return strings.TrimSpace(spaceRun.ReplaceAllString(stripped, " "))
}

var htmlUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'", "&quot;", `"`)

func (tp *TextProcessor) renderText(text string) (string, error) {
	var buf bytes.Buffer
	if err := tp.md.Convert([]byte(text), &buf); err != nil {
		return text, err
	}
	return strings.TrimSpace(buf.String()), nil
}
