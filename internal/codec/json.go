package codec

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return FormatJSON
}

// Parse imports a document from JSON
func (c *JSONCodec) Parse(r io.Reader) (*Element, error) {
	var tree treeElement
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	doc, err := fromTree(&tree)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc, nil
}

// Export writes a document as indented JSON
func (c *JSONCodec) Export(doc *Element, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(toTree(doc)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
