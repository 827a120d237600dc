package enrich

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTags caps the tag set stored per job.
const maxTags = 8

// textScanLimit bounds how much converted text the extractor scans, so a
// pathological description cannot dominate a run.
const textScanLimit = 4000

// professionVocab maps a configured profession to the fixed vocabulary
// scanned for that profession. A profession without an entry yields an
// empty vocabulary; that is valid, not an error.
var professionVocab = map[string][]string{
	"caminhoneiro": {
		"cnh e", "cnh d", "cnh c", "carreta", "bitrem", "rodotrem",
		"vanderleia", "truck", "toco", "vuc", "baú", "sider", "graneleiro",
		"basculante", "tanque", "cegonha", "munck", "frota", "carga",
		"descarga", "viagem", "rodoviário", "motorista",
	},
	"cozinheiro": {
		"cozinha", "restaurante", "cardápio", "confeitaria", "padaria",
		"chapa", "churrasqueiro", "saladeiro", "sous chef", "chef",
		"gastronomia", "haccp", "boas práticas",
	},
	"garçom": {
		"salão", "atendimento", "restaurante", "bar", "bandeja",
		"comanda", "eventos", "buffet",
	},
}

// Signal tags appended independently of the vocabulary. Multi-language
// keyword unions; the tag text itself is what gets stored.
var signalRules = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?i)\bremot[oa]\b|\bremote\b|home\s*office|teletrabalho`), "remoto"},
	{regexp.MustCompile(`(?i)full[\s-]?time|tempo\s+integral|per[íi]odo\s+integral|jornada\s+integral`), "tempo integral"},
	{regexp.MustCompile(`(?i)part[\s-]?time|meio\s+per[íi]odo`), "meio período"},
	{regexp.MustCompile(`(?i)\bpermanent\b|efetiv[oa]|\bclt\b`), "efetivo"},
	{regexp.MustCompile(`(?i)\bcontract\b|contrato\s+tempor[áa]rio|\bpj\b|freelan`), "contrato"},
}

// Extractor derives a bounded tag set for a fixed target profession.
type Extractor struct {
	profession string
	vocab      []string
}

// NewExtractor builds an Extractor for the configured profession label.
func NewExtractor(profession string) *Extractor {
	key := strings.ToLower(strings.TrimSpace(profession))
	return &Extractor{
		profession: key,
		vocab:      professionVocab[key],
	}
}

// Extract converts html to text, scans a bounded prefix for vocabulary and
// signal matches, and returns at most 8 unique lowercase tags in
// first-seen order. The configured profession is always included.
func (e *Extractor) Extract(title, company, html string) []string {
	text := boundScanText(strings.ToLower(title + " " + company + " " + HTMLToText(html)))

	var tags []string
	for _, term := range e.vocab {
		if strings.Contains(text, term) {
			tags = append(tags, term)
		}
	}
	for _, rule := range signalRules {
		if rule.re.MatchString(text) {
			tags = append(tags, rule.tag)
		}
	}
	if e.profession != "" {
		tags = append(tags, e.profession)
	}
	return NormalizeTags(tags)
}

// boundScanText caps text at textScanLimit bytes, backing off to a rune
// start so the cut never splits a multi-byte character.
func boundScanText(text string) string {
	if len(text) <= textScanLimit {
		return text
	}
	cut := textScanLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// NormalizeTags lowercases, trims, deduplicates (first occurrence wins)
// and caps the tag list at 8 entries. Empty strings are dropped.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, maxTags)
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	return out
}
