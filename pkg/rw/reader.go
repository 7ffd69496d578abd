package rw

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// structReader reads little-endian fields from a struct payload and remembers
// the first failure so decoders can check once at the end.
type structReader struct {
	r   *bytes.Reader
	err error
}

func newStructReader(data []byte) *structReader {
	return &structReader{r: bytes.NewReader(data)}
}

func (s *structReader) read(v any) {
	if s.err != nil {
		return
	}
	if err := binary.Read(s.r, binary.LittleEndian, v); err != nil {
		s.err = fmt.Errorf("%w: truncated struct (%v)", ErrMalformedContainer, err)
	}
}

func (s *structReader) u8() uint8 {
	var v uint8
	s.read(&v)
	return v
}

func (s *structReader) u16() uint16 {
	var v uint16
	s.read(&v)
	return v
}

func (s *structReader) u32() uint32 {
	var v uint32
	s.read(&v)
	return v
}

func (s *structReader) i32() int32 {
	var v int32
	s.read(&v)
	return v
}

func (s *structReader) f32() float32 {
	var v float32
	s.read(&v)
	return v
}

func (s *structReader) bytes(n int) []byte {
	if s.err != nil {
		return nil
	}
	if n < 0 || n > s.r.Len() {
		s.err = fmt.Errorf("%w: need %d bytes, have %d", ErrMalformedContainer, n, s.r.Len())
		return nil
	}
	buf := make([]byte, n)
	s.r.Read(buf)
	return buf
}

// rest returns all unread bytes.
func (s *structReader) rest() []byte {
	if s.err != nil {
		return nil
	}
	return s.bytes(s.r.Len())
}

// count validates an element count against the remaining bytes before allocation.
func (s *structReader) count(n int32, elemSize int) int {
	if s.err != nil {
		return 0
	}
	if n < 0 {
		s.err = fmt.Errorf("%w: negative count %d", ErrMalformedContainer, n)
		return 0
	}
	if int64(n)*int64(elemSize) > int64(s.r.Len()) {
		s.err = fmt.Errorf("%w: count %d of %d-byte elements overruns %d bytes",
			ErrMalformedContainer, n, elemSize, s.r.Len())
		return 0
	}
	return int(n)
}

func (s *structReader) remaining() int {
	return s.r.Len()
}
