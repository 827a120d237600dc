// Package enrich derives tags, metadata and slugs from raw posting text.
package enrich

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	collapseSpace = regexp.MustCompile(`[ \t\r\f]+`)
	collapseLines = regexp.MustCompile(`\n{3,}`)
	blockBreak    = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|section|tr|br)>|<br\s*/?>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
)

// HTMLToText converts an HTML fragment to plain text, preserving paragraph
// breaks so downstream word truncation and paragraph splitting behave.
func HTMLToText(html string) string {
	if html == "" {
		return ""
	}
	// Turn block boundaries into newlines before parsing, otherwise
	// goquery concatenates adjacent blocks without separation.
	withBreaks := blockBreak.ReplaceAllString(html, "$0\n")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(withBreaks))
	var text string
	if err != nil {
		text = anyTag.ReplaceAllString(withBreaks, " ")
	} else {
		text = doc.Text()
	}
	text = collapseSpace.ReplaceAllString(text, " ")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lines = append(lines, line)
	}
	text = strings.Join(lines, "\n")
	text = collapseLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// TruncateWords returns at most max words of s, appending an ellipsis when
// anything was cut.
func TruncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ") + "…"
}
