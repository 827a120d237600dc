package feed

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/vagasfeed/ingestor/internal/pipeline"
)

// Feeds alias several tag names onto the same item field. The table is
// keyed by lowercased local element name.
type itemField int

const (
	fieldNone itemField = iota
	fieldTitle
	fieldDescription
	fieldCompany
	fieldLink
	fieldGUID
	fieldPubDate
)

var fieldAliases = map[string]itemField{
	"title":           fieldTitle,
	"description":     fieldDescription,
	"company":         fieldCompany,
	"url":             fieldLink,
	"link":            fieldLink,
	"guid":            fieldGUID,
	"referencenumber": fieldGUID,
	"pubdate":         fieldPubDate,
	"date_updated":    fieldPubDate,
}

// Assembler turns an XML byte stream into a sequence of RawFeedItems. It
// holds at most one in-flight item, so memory stays bounded regardless of
// feed size. Items are recognized by root elements named "job" or "item";
// unknown child tags are skipped but still tracked so text nodes bind to
// the innermost open element only.
type Assembler struct {
	dec *xml.Decoder

	inItem  bool
	current pipeline.RawFeedItem
	// stack of open element names inside the current item, with a text
	// buffer per frame.
	stack []elementFrame
}

type elementFrame struct {
	name string
	text strings.Builder
}

// NewAssembler wraps r in a streaming item assembler.
func NewAssembler(r io.Reader) *Assembler {
	return &Assembler{dec: xml.NewDecoder(r)}
}

// Next returns the next assembled item. It returns io.EOF once the stream
// ends and a *pipeline.ParseError when the XML is malformed; items closed
// before the error point have already been returned by earlier calls.
func (a *Assembler) Next() (pipeline.RawFeedItem, error) {
	for {
		tok, err := a.dec.Token()
		if err != nil {
			if err == io.EOF {
				return pipeline.RawFeedItem{}, io.EOF
			}
			return pipeline.RawFeedItem{}, &pipeline.ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			if !a.inItem {
				if name == "job" || name == "item" {
					a.inItem = true
					a.current = pipeline.RawFeedItem{}
					a.stack = a.stack[:0]
				}
				continue
			}
			a.stack = append(a.stack, elementFrame{name: name})

		case xml.CharData:
			if a.inItem && len(a.stack) > 0 {
				a.stack[len(a.stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if !a.inItem {
				continue
			}
			name := strings.ToLower(t.Name.Local)
			if len(a.stack) == 0 {
				// Closing the item root itself.
				if name == "job" || name == "item" {
					a.inItem = false
					item := a.current
					a.current = pipeline.RawFeedItem{}
					return item, nil
				}
				continue
			}
			top := len(a.stack) - 1
			text := a.stack[top].text.String()
			a.stack = a.stack[:top]
			a.assign(name, text)
		}
	}
}

func (a *Assembler) assign(name, text string) {
	text = strings.TrimSpace(text)
	switch fieldAliases[name] {
	case fieldTitle:
		a.current.Title = text
	case fieldDescription:
		a.current.Description = text
	case fieldCompany:
		a.current.Company = text
	case fieldLink:
		a.current.Link = text
	case fieldGUID:
		// First non-empty value wins; later occurrences are ignored.
		if a.current.GUID == "" && text != "" {
			a.current.GUID = text
		}
	case fieldPubDate:
		a.current.PubDate = text
	}
}

var _ pipeline.ItemSource = (*Assembler)(nil)
