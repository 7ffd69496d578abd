// Package rw parses the RenderWare binary stream format used by GTA model (.dff)
// and texture dictionary (.txd) files.
//
// A stream is a tree of chunks. Each chunk starts with a 12-byte header (type,
// payload size, library id) followed by its payload. Container chunks hold child
// chunks whose first entry is a Struct carrying the container's own fields.
package rw

import (
	"errors"
	"fmt"
	"os"
)

// ErrMalformedContainer is returned when a chunk header or payload is inconsistent
// with the buffer it was read from.
var ErrMalformedContainer = errors.New("malformed chunk container")

// HeaderSize is the size of a chunk header in bytes.
const HeaderSize = 12

// maxDepth bounds recursion on hostile input. Real files nest at most ~6 levels.
const maxDepth = 32

// Header is the fixed chunk header.
type Header struct {
	Type      Type
	Size      uint32 // Payload size, excluding the header
	LibraryID uint32 // Packed library version and build
}

// Version unpacks the library version from the header.
func (h Header) Version() Version {
	return UnpackVersion(h.LibraryID)
}

// Build returns the library build number (0 for old-style stamps).
func (h Header) Build() uint16 {
	if h.LibraryID&0xFFFF0000 == 0 {
		return 0
	}
	return uint16(h.LibraryID & 0xFFFF)
}

// Chunk is a node of the parsed stream. Children mirror the file exactly,
// including the leading Struct child of containers.
type Chunk struct {
	Header   Header
	Content  Content
	Children []*Chunk
}

// Type returns the chunk type.
func (c *Chunk) Type() Type {
	return c.Header.Type
}

// Version returns the library version stamped on the chunk.
func (c *Chunk) Version() Version {
	return c.Header.Version()
}

// Child returns the first child of the given type, or nil.
func (c *Chunk) Child(t Type) *Chunk {
	for _, child := range c.Children {
		if child.Header.Type == t {
			return child
		}
	}
	return nil
}

// ChildrenOf returns all children of the given type in file order.
func (c *Chunk) ChildrenOf(t Type) []*Chunk {
	var result []*Chunk
	for _, child := range c.Children {
		if child.Header.Type == t {
			result = append(result, child)
		}
	}
	return result
}

// Walk visits the chunk and its descendants depth-first.
// Returning false from fn skips the children of that chunk.
func (c *Chunk) Walk(fn func(c *Chunk, depth int) bool) {
	c.walk(fn, 0)
}

func (c *Chunk) walk(fn func(c *Chunk, depth int) bool, depth int) {
	if !fn(c, depth) {
		return
	}
	for _, child := range c.Children {
		child.walk(fn, depth+1)
	}
}

// Parse parses the chunk at the start of data. Bytes after the chunk are ignored.
func Parse(data []byte) (*Chunk, error) {
	chunk, _, err := parseChunk(data, 0)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// ParseAll parses consecutive top-level chunks until data is exhausted.
// Trailing bytes shorter than a header are treated as padding.
func ParseAll(data []byte) ([]*Chunk, error) {
	var chunks []*Chunk
	offset := 0
	for len(data)-offset >= HeaderSize {
		chunk, n, err := parseChunk(data[offset:], 0)
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %d: %w", offset, err)
		}
		chunks = append(chunks, chunk)
		offset += n
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks in %d bytes", ErrMalformedContainer, len(data))
	}
	return chunks, nil
}

// ParseFile parses the first chunk of a file on disk.
func ParseFile(path string) (*Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk file: %w", err)
	}
	return Parse(data)
}

// parseHeader reads a header and checks its size against the buffer.
func parseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: truncated header (%d bytes)", ErrMalformedContainer, len(data))
	}
	h := Header{
		Type:      Type(le.Uint32(data[0:])),
		Size:      le.Uint32(data[4:]),
		LibraryID: le.Uint32(data[8:]),
	}
	if uint64(h.Size) > uint64(len(data)-HeaderSize) {
		return Header{}, fmt.Errorf("%w: %s size %d overruns %d available bytes",
			ErrMalformedContainer, h.Type, h.Size, len(data)-HeaderSize)
	}
	return h, nil
}

// parseChunk parses one chunk and returns it with the number of bytes consumed.
func parseChunk(data []byte, depth int) (*Chunk, int, error) {
	if depth > maxDepth {
		return nil, 0, fmt.Errorf("%w: nesting deeper than %d", ErrMalformedContainer, maxDepth)
	}

	h, err := parseHeader(data)
	if err != nil {
		return nil, 0, err
	}
	payload := data[HeaderSize : HeaderSize+int(h.Size)]
	chunk := &Chunk{Header: h}

	if !h.Type.IsContainer() {
		chunk.Content, err = decodeLeaf(h, payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", h.Type, err)
		}
		return chunk, HeaderSize + int(h.Size), nil
	}

	offset := 0
	for offset < len(payload) {
		child, n, err := parseChunk(payload[offset:], depth+1)
		if err != nil {
			return nil, 0, fmt.Errorf("%s child %d: %w", h.Type, len(chunk.Children), err)
		}
		chunk.Children = append(chunk.Children, child)
		offset += n
	}

	if len(chunk.Children) == 0 || chunk.Children[0].Header.Type != TypeStruct {
		return nil, 0, fmt.Errorf("%w: %s has no leading struct", ErrMalformedContainer, h.Type)
	}

	body := chunk.Children[0].Content.(*Struct).Data
	chunk.Content, err = decodeContainer(h, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", h.Type, err)
	}

	return chunk, HeaderSize + int(h.Size), nil
}
