package pipeline

import "strings"

// Matcher decides whether an item belongs to the target profession by
// substring matching configured keywords. No tokenization or stemming;
// substring collisions are an accepted trade-off for simplicity.
type Matcher struct {
	keywords []string
}

// NewMatcher builds a Matcher from the configured keyword list. Keywords
// are lowercased and trimmed; empty entries are dropped.
func NewMatcher(keywords []string) *Matcher {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	return &Matcher{keywords: cleaned}
}

// Matches reports whether any keyword occurs in the lowercased
// concatenation of title, company and description.
func (m *Matcher) Matches(title, company, description string) bool {
	haystack := strings.ToLower(title + " " + company + " " + description)
	for _, kw := range m.keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
