package codec

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// XMLCodec reads and writes documents as XML, one XML element per document
// element with attributes preserved in order.
type XMLCodec struct{}

// NewXMLCodec creates a new XML codec
func NewXMLCodec() *XMLCodec {
	return &XMLCodec{}
}

// Format returns the codec format identifier
func (c *XMLCodec) Format() string {
	return FormatXML
}

// Parse imports a document from XML. Text content, comments and processing
// instructions are ignored.
func (c *XMLCodec) Parse(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)

	var root *Element
	var stack []*Element
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e := NewElement(t.Name.Local)
			for _, a := range t.Attr {
				e.Attrs = append(e.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, e)
			} else if root == nil {
				root = e
			} else {
				return nil, fmt.Errorf("failed to parse XML: multiple root elements")
			}
			stack = append(stack, e)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("failed to parse XML: no root element")
	}
	return root, nil
}

// Export writes a document as indented XML with a declaration header.
func (c *XMLCodec) Export(doc *Element, w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encodeXMLElement(encoder, doc); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}
	if err := encoder.Flush(); err != nil {
		return fmt.Errorf("failed to encode XML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeXMLElement(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range e.Children {
		if err := encodeXMLElement(enc, child); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
