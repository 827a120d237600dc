package rewrite

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vagasfeed/ingestor/internal/enrich"
	"github.com/vagasfeed/ingestor/internal/pipeline"
)

const systemPromptTemplate = `You rewrite job postings for a %[1]s job board in %[2]s.
Rewrite the posting the user sends into clear, neutral %[2]s aimed at %[1]s candidates.
Answer with EXACTLY three delimited sections, in this order, nothing else:

===DESCRIPTION===
A plain-text summary of the role, at most 60 words.

===HTML===
An HTML fragment with EXACTLY seven <section> blocks, each starting with an
<h2> heading, translated to %[2]s, in this order:
About, Responsibilities, Requirements, Benefits, Compensation, Location & hours, How to apply.
No <html>, <head> or <body> tags, no scripts, no inline styles.

===TAGS===
A JSON array of 3 to 8 lowercase tags relevant to the posting.`

// Rewriter builds the stored description for one posting. AI failures
// never propagate: every path degrades to the deterministic fallback.
type Rewriter struct {
	completer  Completer
	extractor  *enrich.Extractor
	profession string
	language   string
	logger     *zap.Logger
}

// New constructs a Rewriter. completer may be nil when AI is disabled
// globally; Rewrite then always takes the fallback path.
func New(completer Completer, extractor *enrich.Extractor, profession, language string, logger *zap.Logger) *Rewriter {
	if language == "" {
		language = "pt"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{
		completer:  completer,
		extractor:  extractor,
		profession: profession,
		language:   language,
		logger:     logger,
	}
}

// Rewrite produces the final short/long description and tags. UsedAI is
// true only when the model call itself succeeded; a malformed response is
// still recovered field by field.
func (r *Rewriter) Rewrite(ctx context.Context, title, company, html string, useAI bool) pipeline.RewriteResult {
	if !useAI || r.completer == nil {
		return r.fallback(title, company, html)
	}

	raw, err := r.complete(ctx, title, company, html)
	if err != nil {
		r.logger.Warn("ai rewrite failed, using fallback",
			zap.String("title", title), zap.Error(err))
		return r.fallback(title, company, html)
	}
	return r.recover(title, company, html, raw)
}

func (r *Rewriter) fallback(title, company, html string) pipeline.RewriteResult {
	short, htmlOut := fallbackContent(title, company, html, r.language)
	return pipeline.RewriteResult{
		Short:  short,
		HTML:   htmlOut,
		Tags:   r.extractor.Extract(title, company, html),
		UsedAI: false,
	}
}

func (r *Rewriter) complete(ctx context.Context, title, company, html string) (string, error) {
	system := fmt.Sprintf(systemPromptTemplate, r.profession, languageName(r.language))
	user := fmt.Sprintf("Title: %s\nCompany: %s\n\n%s", title, company, enrich.HTMLToText(html))
	return r.completer.Complete(ctx, system, user)
}

// recover maps a successful model answer onto the result, applying the
// documented per-field fallbacks when the contract was not honored.
func (r *Rewriter) recover(title, company, sourceHTML, raw string) pipeline.RewriteResult {
	dec := decodeResponse(raw)

	short := dec.Description
	if short == "" {
		short = enrich.TruncateWords(enrich.HTMLToText(raw), shortWordLimit)
	}

	htmlOut := Sanitize(dec.HTML)
	if len(strings.TrimSpace(htmlOut)) < minPlausibleHTML {
		htmlOut = singleSectionFallback(title, short, r.language)
	}

	tags, err := parseTags(dec.TagsRaw)
	if err != nil {
		r.logger.Debug("ai tags unusable, using extractor",
			zap.String("title", title), zap.Error(err))
		tags = r.extractor.Extract(title, company, sourceHTML)
	}

	return pipeline.RewriteResult{
		Short:  short,
		HTML:   htmlOut,
		Tags:   enrich.NormalizeTags(tags),
		UsedAI: true,
	}
}

func languageName(code string) string {
	switch code {
	case "pt":
		return "Brazilian Portuguese"
	case "es":
		return "Spanish"
	case "en":
		return "English"
	default:
		return code
	}
}

var _ pipeline.Rewriter = (*Rewriter)(nil)
