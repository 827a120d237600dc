package rewrite

import (
	"fmt"
	"html"
	"strings"

	"github.com/vagasfeed/ingestor/internal/enrich"
)

// shortWordLimit is the word budget for the short description.
const shortWordLimit = 60

// maxFallbackParagraphs bounds how many source paragraphs the fallback
// carries into the opening section.
const maxFallbackParagraphs = 6

// section is one block of the fixed seven-section skeleton. Both the AI
// contract and the fallback emit these sections in this order.
type section struct {
	key string
}

var sectionOrder = []section{
	{key: "about"},
	{key: "responsibilities"},
	{key: "requirements"},
	{key: "benefits"},
	{key: "compensation"},
	{key: "location_hours"},
	{key: "how_to_apply"},
}

// sectionHeadings holds the translated heading per language. Unknown
// languages fall back to English.
var sectionHeadings = map[string]map[string]string{
	"pt": {
		"about":            "Sobre a vaga",
		"responsibilities": "Responsabilidades",
		"requirements":     "Requisitos",
		"benefits":         "Benefícios",
		"compensation":     "Remuneração",
		"location_hours":   "Local e horário",
		"how_to_apply":     "Como se candidatar",
	},
	"en": {
		"about":            "About the role",
		"responsibilities": "Responsibilities",
		"requirements":     "Requirements",
		"benefits":         "Benefits",
		"compensation":     "Compensation",
		"location_hours":   "Location & hours",
		"how_to_apply":     "How to apply",
	},
}

// sectionFiller is the generic boilerplate used when no real content is
// available for a section.
var sectionFiller = map[string]map[string]string{
	"pt": {
		"about":            "Confira os detalhes da vaga na descrição abaixo.",
		"responsibilities": "As atividades do dia a dia estão descritas no anúncio original.",
		"requirements":     "Os requisitos estão detalhados na descrição da vaga.",
		"benefits":         "Os benefícios são informados pelo empregador durante o processo.",
		"compensation":     "A remuneração é combinada diretamente com o empregador.",
		"location_hours":   "Local de trabalho e horários conforme descrito no anúncio.",
		"how_to_apply":     "Use o link da vaga para se candidatar diretamente com o empregador.",
	},
	"en": {
		"about":            "See the role details in the description below.",
		"responsibilities": "Day-to-day activities are described in the original posting.",
		"requirements":     "Requirements are detailed in the job description.",
		"benefits":         "Benefits are shared by the employer during the process.",
		"compensation":     "Compensation is agreed directly with the employer.",
		"location_hours":   "Workplace and hours as described in the posting.",
		"how_to_apply":     "Use the posting link to apply directly with the employer.",
	},
}

func headings(lang string) (map[string]string, map[string]string) {
	if h, ok := sectionHeadings[lang]; ok {
		return h, sectionFiller[lang]
	}
	return sectionHeadings["en"], sectionFiller["en"]
}

// fallbackContent deterministically rebuilds a posting without the AI:
// source paragraphs (escaped, at most six) fill the opening section, every
// other section carries its boilerplate, and the short description is a
// word-truncated cut of the plain text. Same input, same output.
func fallbackContent(title, company, rawHTML, lang string) (short, htmlOut string) {
	text := enrich.HTMLToText(rawHTML)
	short = enrich.TruncateWords(text, shortWordLimit)

	paragraphs := splitParagraphs(text, maxFallbackParagraphs)
	var about strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&about, "<p>%s</p>", html.EscapeString(p))
	}

	heads, fillers := headings(lang)
	var b strings.Builder
	for i, sec := range sectionOrder {
		b.WriteString("<section>")
		fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(heads[sec.key]))
		if i == 0 && about.Len() > 0 {
			b.WriteString(about.String())
		} else {
			fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(fillers[sec.key]))
		}
		b.WriteString("</section>")
	}
	return short, Sanitize(b.String())
}

// singleSectionFallback wraps a short description in one section, used
// when the AI returned HTML too mangled to store.
func singleSectionFallback(title, short, lang string) string {
	heads, _ := headings(lang)
	return fmt.Sprintf("<section><h2>%s</h2><p>%s</p></section>",
		html.EscapeString(heads["about"]), html.EscapeString(short))
}

func splitParagraphs(text string, max int) []string {
	var out []string
	for _, chunk := range strings.Split(text, "\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		out = append(out, chunk)
		if len(out) == max {
			break
		}
	}
	return out
}
