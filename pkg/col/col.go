// Package col parses GTA collision files (COL1 records).
package col

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/libertycity/pkg/encoding"
)

// COL format errors.
var (
	ErrInvalidCOLMagic       = errors.New("invalid COL magic")
	ErrUnsupportedCOLVersion = errors.New("unsupported COL version")
	ErrTruncatedCOLData      = errors.New("truncated COL data")
	ErrInvalidFace           = errors.New("face references missing vertex")
)

const (
	magicCOL1 = "COLL"
	nameSize  = 22
)

// Surface describes the material of a collision primitive.
type Surface struct {
	Material   uint8
	Flag       uint8
	Brightness uint8
	Light      uint8
}

// Bounds is the bounding volume of a record.
type Bounds struct {
	Radius float32
	Center [3]float32
	Min    [3]float32
	Max    [3]float32
}

// Sphere is a collision sphere.
type Sphere struct {
	Radius  float32
	Center  [3]float32
	Surface Surface
}

// Box is an axis-aligned collision box.
type Box struct {
	Min     [3]float32
	Max     [3]float32
	Surface Surface
}

// Face is a triangle of the collision mesh.
type Face struct {
	A, B, C uint32
	Surface Surface
}

// Record is the collision model of one object.
type Record struct {
	Name     string
	ModelID  uint16
	Bounds   Bounds
	Spheres  []Sphere
	Boxes    []Box
	Vertices [][3]float32
	Faces    []Face
}

// IsEmpty reports whether the record has no primitives.
func (r *Record) IsEmpty() bool {
	return len(r.Spheres) == 0 && len(r.Boxes) == 0 && len(r.Faces) == 0
}

// Parse parses consecutive COL1 records. Zero padding after the last record is ignored.
func Parse(data []byte) ([]*Record, error) {
	var records []*Record
	offset := 0
	for len(data)-offset >= 8 {
		magic := string(data[offset : offset+4])
		if magic == "\x00\x00\x00\x00" {
			break
		}
		switch magic {
		case magicCOL1:
		case "COL2", "COL3", "COL4":
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedCOLVersion, magic)
		default:
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidCOLMagic, magic, offset)
		}

		size := int(binary.LittleEndian.Uint32(data[offset+4:]))
		body := data[offset+8:]
		if size > len(body) {
			return nil, fmt.Errorf("%w: record at %d declares %d bytes, %d available",
				ErrTruncatedCOLData, offset, size, len(body))
		}

		record, err := parseRecord(body[:size])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, record)
		offset += 8 + size
	}
	return records, nil
}

// ParseFile parses a collision file from disk.
func ParseFile(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Parse(data)
}

func parseRecord(body []byte) (*Record, error) {
	r := bytes.NewReader(body)
	rec := &Record{}

	var name [nameSize]byte
	if err := readAll(r, &name, &rec.ModelID, &rec.Bounds); err != nil {
		return nil, err
	}
	rec.Name = encoding.FixedString(name[:])

	var err error
	if rec.Spheres, err = readSlice[Sphere](r, 20); err != nil {
		return nil, fmt.Errorf("spheres: %w", err)
	}

	// Lines are unused by the game; skip them.
	var lines uint32
	if err := readAll(r, &lines); err != nil {
		return nil, err
	}
	if int64(lines)*24 > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d lines", ErrTruncatedCOLData, lines)
	}
	r.Seek(int64(lines)*24, io.SeekCurrent)

	if rec.Boxes, err = readSlice[Box](r, 28); err != nil {
		return nil, fmt.Errorf("boxes: %w", err)
	}
	if rec.Vertices, err = readSlice[[3]float32](r, 12); err != nil {
		return nil, fmt.Errorf("vertices: %w", err)
	}
	if rec.Faces, err = readSlice[Face](r, 16); err != nil {
		return nil, fmt.Errorf("faces: %w", err)
	}

	for i, f := range rec.Faces {
		n := uint32(len(rec.Vertices))
		if f.A >= n || f.B >= n || f.C >= n {
			return nil, fmt.Errorf("%w: face %d (%d,%d,%d) of %d vertices", ErrInvalidFace, i, f.A, f.B, f.C, n)
		}
	}

	return rec, nil
}

func readAll(r io.Reader, values ...any) error {
	for _, v := range values {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrTruncatedCOLData, err)
		}
	}
	return nil
}

// readSlice reads a u32 count followed by that many fixed-size elements.
func readSlice[T any](r *bytes.Reader, elemSize int) ([]T, error) {
	var count uint32
	if err := readAll(r, &count); err != nil {
		return nil, err
	}
	if int64(count)*int64(elemSize) > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d elements of %d bytes, %d available", ErrTruncatedCOLData, count, elemSize, r.Len())
	}
	items := make([]T, count)
	if err := readAll(r, items); err != nil {
		return nil, err
	}
	return items, nil
}
