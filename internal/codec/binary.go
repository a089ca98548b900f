package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// BinaryCodec encodes documents as msgpack, optionally zstd compressed.
// Parse detects compression from the stream itself.
type BinaryCodec struct {
	compress bool
}

// NewBinaryCodec creates a binary codec.
func NewBinaryCodec(compress bool) *BinaryCodec {
	return &BinaryCodec{compress: compress}
}

// Format returns the codec format identifier
func (c *BinaryCodec) Format() string {
	return FormatBinary
}

// Parse imports a binary document.
func (c *BinaryCodec) Parse(r io.Reader) (*Element, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read binary document: %w", err)
	}
	return c.Unmarshal(data)
}

// Export writes a binary document.
func (c *BinaryCodec) Export(doc *Element, w io.Writer) error {
	data, err := c.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write binary document: %w", err)
	}
	return nil
}

// Marshal encodes a document to bytes.
func (c *BinaryCodec) Marshal(doc *Element) ([]byte, error) {
	data, err := msgpack.Marshal(toTree(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode msgpack: %w", err)
	}
	if !c.compress {
		return data, nil
	}
	return compressZstd(data)
}

// Unmarshal decodes a document from bytes.
func (c *BinaryCodec) Unmarshal(data []byte) (*Element, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		var err error
		if data, err = decompressZstd(data); err != nil {
			return nil, err
		}
	}

	var tree treeElement
	if err := msgpack.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse msgpack: %w", err)
	}
	doc, err := fromTree(&tree)
	if err != nil {
		return nil, fmt.Errorf("failed to parse msgpack: %w", err)
	}
	return doc, nil
}

func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd: %w", err)
	}
	return out, nil
}
