package enrich

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLen bounds the stored slug. The guid-derived suffix stays intact;
// the readable prefix is what gets cut.
const maxSlugLen = 120

// Slug builds a unique, URL-safe identifier from title and company. The
// readable part alone is not unique (reposts share title+company), so an
// 8-character digest of the guid is appended.
func Slug(title, company, guid string) string {
	base := Slugify(title + " " + company)
	sum := sha256.Sum256([]byte(guid))
	suffix := hex.EncodeToString(sum[:])[:8]

	if base == "" {
		return "job-" + suffix
	}
	if len(base) > maxSlugLen-9 {
		base = strings.TrimRight(base[:maxSlugLen-9], "-")
	}
	return base + "-" + suffix
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, strips accents, and collapses every non-alphanumeric
// run into a single hyphen.
func Slugify(s string) string {
	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
