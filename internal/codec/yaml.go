package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return FormatYAML
}

// Parse imports a document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*Element, error) {
	var tree treeElement
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	doc, err := fromTree(&tree)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc, nil
}

// Export writes a document as YAML
func (c *YAMLCodec) Export(doc *Element, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(toTree(doc)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
