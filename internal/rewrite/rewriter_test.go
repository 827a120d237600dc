package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vagasfeed/ingestor/internal/enrich"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.calls++
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const sourceHTML = "<p>Vaga para motorista de carreta com CNH E.</p>"

func newTestRewriter(c Completer) *Rewriter {
	return New(c, enrich.NewExtractor("caminhoneiro"), "caminhoneiro", "pt", nil)
}

func TestRewriteAIDisabledUsesFallback(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: validResponse}
	r := newTestRewriter(completer)

	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, false)
	require.False(t, res.UsedAI)
	require.Equal(t, 0, completer.calls)
	require.Equal(t, 7, strings.Count(res.HTML, "<section>"))
	require.NotEmpty(t, res.Short)
	require.Contains(t, res.Tags, "caminhoneiro")
}

func TestRewriteNilCompleterUsesFallback(t *testing.T) {
	t.Parallel()

	r := newTestRewriter(nil)
	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.False(t, res.UsedAI)
}

func TestRewriteWellFormedResponse(t *testing.T) {
	t.Parallel()

	response := `===DESCRIPTION===
Vaga de motorista carreteiro para rotas interestaduais com carreta e CNH E, saída de São Paulo.

===HTML===
<section><h2>Sobre a vaga</h2><p>Motorista de carreta.</p></section>
<section><h2>Responsabilidades</h2><p>Dirigir com segurança.</p></section>
<section><h2>Requisitos</h2><p>CNH E.</p></section>
<section><h2>Benefícios</h2><p>Diárias.</p></section>
<section><h2>Remuneração</h2><p>A combinar.</p></section>
<section><h2>Local e horário</h2><p>São Paulo.</p></section>
<section><h2>Como se candidatar</h2><p>Pelo link.</p></section>

===TAGS===
["caminhoneiro", "carreta", "cnh e"]`

	completer := &fakeCompleter{response: response}
	r := newTestRewriter(completer)

	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.True(t, res.UsedAI)
	require.Equal(t, 1, completer.calls)
	require.True(t, strings.HasPrefix(res.Short, "Vaga de motorista carreteiro"))
	require.Equal(t, 7, strings.Count(res.HTML, "<section>"))
	require.Equal(t, []string{"caminhoneiro", "carreta", "cnh e"}, res.Tags)
}

func TestRewriteCompleterErrorFallsBack(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{err: errors.New("rate limited")}
	r := newTestRewriter(completer)

	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.False(t, res.UsedAI)
	require.Equal(t, 7, strings.Count(res.HTML, "<section>"))
	require.Contains(t, res.Tags, "caminhoneiro")
}

func TestRewriteMalformedResponseRecovered(t *testing.T) {
	t.Parallel()

	// The model answered, so the call counts as AI even though every
	// field needs recovery.
	completer := &fakeCompleter{response: "Aqui está uma descrição da vaga de motorista sem os marcadores combinados."}
	r := newTestRewriter(completer)

	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.True(t, res.UsedAI)
	require.NotEmpty(t, res.Short)
	require.Equal(t, 1, strings.Count(res.HTML, "<section>"))
	require.Contains(t, res.Tags, "caminhoneiro")
}

func TestRewriteMangledHTMLReplaced(t *testing.T) {
	t.Parallel()

	response := `===DESCRIPTION===
Resumo da vaga de motorista.

===HTML===
<p>x</p>

===TAGS===
["carreta"]`

	completer := &fakeCompleter{response: response}
	r := newTestRewriter(completer)

	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.True(t, res.UsedAI)
	require.Equal(t, 1, strings.Count(res.HTML, "<section>"))
	require.Contains(t, res.HTML, "Resumo da vaga de motorista.")
	require.Equal(t, []string{"carreta"}, res.Tags)
}

func TestRewriteBadTagsUseExtractor(t *testing.T) {
	t.Parallel()

	response := `===DESCRIPTION===
Resumo suficientemente longo da vaga de motorista carreteiro interestadual.

===HTML===
<section><h2>Sobre a vaga</h2><p>Motorista de carreta com CNH E para viagens longas.</p></section>

===TAGS===
not json at all`

	completer := &fakeCompleter{response: response}
	r := newTestRewriter(completer)

	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.True(t, res.UsedAI)
	require.Contains(t, res.Tags, "caminhoneiro")
}

func TestRewriteSendsPlainTextToModel(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: validResponse}
	r := newTestRewriter(completer)

	r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.Contains(t, completer.lastUser, "Title: Motorista")
	require.Contains(t, completer.lastUser, "Company: ABC")
	require.NotContains(t, completer.lastUser, "<p>")
}

func TestRewriteSanitizesModelHTML(t *testing.T) {
	t.Parallel()

	response := `===DESCRIPTION===
Resumo da vaga.

===HTML===
<section><h2>Sobre a vaga</h2><script>alert(1)</script><p>Motorista de carreta com CNH E para viagens interestaduais.</p></section>

===TAGS===
["carreta"]`

	completer := &fakeCompleter{response: response}
	r := newTestRewriter(completer)

	res := r.Rewrite(context.Background(), "Motorista", "ABC", sourceHTML, true)
	require.True(t, res.UsedAI)
	require.NotContains(t, res.HTML, "script")
	require.Contains(t, res.HTML, "<h2>Sobre a vaga</h2>")
}
