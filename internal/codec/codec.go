package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Document formats.
const (
	FormatXML    = "xml"
	FormatYAML   = "yaml"
	FormatJSON   = "json"
	FormatBinary = "binary"
)

// Importer parses a document from a serialized form.
type Importer interface {
	Parse(r io.Reader) (*Element, error)
	Format() string
}

// Exporter writes a document in a serialized form.
type Exporter interface {
	Export(doc *Element, w io.Writer) error
	Format() string
}

// Codec both imports and exports documents.
type Codec interface {
	Importer
	Exporter
}

// Options tunes codec construction.
type Options struct {
	// Compress enables zstd compression for formats that support it.
	Compress bool
}

// ForFormat returns the codec for a format name.
func ForFormat(format string, opts Options) (Codec, error) {
	switch strings.ToLower(format) {
	case FormatXML, "":
		return NewXMLCodec(), nil
	case FormatYAML, "yml":
		return NewYAMLCodec(), nil
	case FormatJSON:
		return NewJSONCodec(), nil
	case FormatBinary, "ngb":
		return NewBinaryCodec(opts.Compress), nil
	}
	return nil, fmt.Errorf("unsupported document format: %s", format)
}

// FormatForPath infers a document format from a file extension.
func FormatForPath(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".ngb":
		return FormatBinary, true
	}
	return "", false
}

// ForPath returns the codec for a file, falling back to the given format when
// the extension is not recognised.
func ForPath(path, fallback string, opts Options) (Codec, error) {
	if format, ok := FormatForPath(path); ok {
		return ForFormat(format, opts)
	}
	return ForFormat(fallback, opts)
}
