package feed

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

func collectItems(t *testing.T, xml string) ([]pipeline.RawFeedItem, error) {
	t.Helper()
	a := NewAssembler(strings.NewReader(xml))
	var items []pipeline.RawFeedItem
	for {
		item, err := a.Next()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}

func TestAssemblerTwoItems(t *testing.T) {
	t.Parallel()

	const body = `<?xml version="1.0" encoding="UTF-8"?>
<source>
  <publisher>vagas</publisher>
  <job>
    <title>Motorista Carreteiro</title>
    <company><![CDATA[Transportes ABC]]></company>
    <description><![CDATA[<p>Vaga para <b>caminhoneiro</b> com CNH E</p>]]></description>
    <url>https://example.com/vaga/1</url>
    <referencenumber>ref-1</referencenumber>
    <date_updated>2025-06-02</date_updated>
  </job>
  <job>
    <title>Cozinheiro</title>
    <company>Restaurante Bom Prato</company>
    <description>vaga de cozinha</description>
    <url>https://example.com/vaga/2</url>
    <referencenumber>ref-2</referencenumber>
  </job>
</source>`

	items, err := collectItems(t, body)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "Motorista Carreteiro", items[0].Title)
	require.Equal(t, "Transportes ABC", items[0].Company)
	require.Equal(t, "<p>Vaga para <b>caminhoneiro</b> com CNH E</p>", items[0].Description)
	require.Equal(t, "https://example.com/vaga/1", items[0].Link)
	require.Equal(t, "ref-1", items[0].GUID)
	require.Equal(t, "2025-06-02", items[0].PubDate)

	require.Equal(t, "Cozinheiro", items[1].Title)
	require.Equal(t, "ref-2", items[1].GUID)
}

func TestAssemblerRSSAliases(t *testing.T) {
	t.Parallel()

	const body = `<rss><channel>
  <title>channel title is ignored</title>
  <item>
    <title>Motorista</title>
    <link>https://example.com/vaga/9</link>
    <guid>guid-9</guid>
    <pubDate>Mon, 02 Jun 2025 10:00:00 -0300</pubDate>
  </item>
</channel></rss>`

	items, err := collectItems(t, body)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Motorista", items[0].Title)
	require.Equal(t, "https://example.com/vaga/9", items[0].Link)
	require.Equal(t, "guid-9", items[0].GUID)
	require.Equal(t, "Mon, 02 Jun 2025 10:00:00 -0300", items[0].PubDate)
}

func TestAssemblerFirstGUIDAliasWins(t *testing.T) {
	t.Parallel()

	const body = `<source><job>
  <referencenumber>ref-1</referencenumber>
  <guid>other-guid</guid>
</job></source>`

	items, err := collectItems(t, body)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "ref-1", items[0].GUID)
}

func TestAssemblerEmptyGUIDAliasIsSkipped(t *testing.T) {
	t.Parallel()

	const body = `<source><job>
  <referencenumber></referencenumber>
  <guid>guid-2</guid>
</job></source>`

	items, err := collectItems(t, body)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "guid-2", items[0].GUID)
}

func TestAssemblerNestedUnknownTags(t *testing.T) {
	t.Parallel()

	// Text inside nested unknown elements binds to the innermost tag
	// only; it must never leak into the item fields.
	const body = `<source><job>
  <title>Motorista</title>
  <salary><amount>3000</amount><currency>BRL</currency></salary>
  <company>Transportes ABC</company>
</job></source>`

	items, err := collectItems(t, body)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Motorista", items[0].Title)
	require.Equal(t, "Transportes ABC", items[0].Company)
	require.NotContains(t, items[0].Title, "3000")
}

func TestAssemblerTruncatedStream(t *testing.T) {
	t.Parallel()

	const body = `<source>
  <job><title>Motorista</title><guid>guid-1</guid></job>
  <job><title>Trunc`

	a := NewAssembler(strings.NewReader(body))

	item, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, "guid-1", item.GUID)

	_, err = a.Next()
	var perr *pipeline.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestAssemblerEmptyFeed(t *testing.T) {
	t.Parallel()

	items, err := collectItems(t, `<source></source>`)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestAssemblerTrimsWhitespace(t *testing.T) {
	t.Parallel()

	const body = `<source><job>
  <title>
    Motorista Carreteiro
  </title>
</job></source>`

	items, err := collectItems(t, body)
	require.NoError(t, err)
	require.Equal(t, "Motorista Carreteiro", items[0].Title)
}
