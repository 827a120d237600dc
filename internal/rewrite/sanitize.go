// Package rewrite produces the final short/long description for a posting,
// through an AI call under a strict output contract or a deterministic
// template fallback.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizer is the allowlist policy applied to every HTML fragment before
// storage, from either the AI or the fallback path. Everything outside the
// allowlist is stripped: script/iframe/object/embed/link/style/noscript,
// inline event handlers, and javascript: URIs.
var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"section", "article", "h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "ul", "ol", "li", "dl", "dt", "dd",
		"strong", "em", "b", "i", "u", "small", "span", "div",
		"table", "thead", "tbody", "tr", "th", "td", "blockquote",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.SkipElementsContent("script", "style", "iframe", "object", "embed", "noscript")
	return p
}

// Sanitize returns a safe HTML fragment with no document-level tags.
func Sanitize(html string) string {
	return strings.TrimSpace(sanitizer.Sanitize(stripDocumentTags(html)))
}

var (
	doctypeRe  = regexp.MustCompile(`(?is)<!doctype[^>]*>`)
	headRe     = regexp.MustCompile(`(?is)<head\b.*?</head>`)
	docShellRe = regexp.MustCompile(`(?i)</?(?:html|body)[^>]*>`)
	fenceRe    = regexp.MustCompile("(?s)^```[a-zA-Z]*\n?|\n?```$")
)

// stripDocumentTags removes document-level wrappers a model sometimes
// emits around a fragment, including markdown code fences.
func stripDocumentTags(html string) string {
	html = strings.TrimSpace(html)
	html = fenceRe.ReplaceAllString(html, "")
	html = doctypeRe.ReplaceAllString(html, "")
	html = headRe.ReplaceAllString(html, "")
	html = docShellRe.ReplaceAllString(html, "")
	return strings.TrimSpace(html)
}
