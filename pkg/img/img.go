// Package img reads GTA .img archives: the GTA3/VC .img with a sibling .dir
// index, and the single-file VER2 layout used by San Andreas.
package img

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/libertycity/pkg/encoding"
)

// SectorSize is the unit of entry offsets and sizes.
const SectorSize = 2048

const (
	ver2Magic = "VER2"
	entrySize = 32
	nameSize  = 24
)

// Archive errors.
var (
	ErrEntryNotFound    = errors.New("entry not found")
	ErrInvalidDirectory = errors.New("invalid archive directory")
	ErrTruncatedEntry   = errors.New("entry extends past end of archive")
)

// Entry is one directory record.
type Entry struct {
	Name   string
	Offset uint32 // In sectors
	Size   uint32 // In sectors
}

// ByteOffset returns the entry's position in bytes.
func (e Entry) ByteOffset() int64 {
	return int64(e.Offset) * SectorSize
}

// ByteSize returns the entry's sector-aligned length in bytes.
func (e Entry) ByteSize() int64 {
	return int64(e.Size) * SectorSize
}

// Archive is an opened, indexed archive. The index is immutable after Open and
// reads are positional, so one Archive can serve concurrent lookups.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	size    int64
	version int
	entries []Entry
	byName  map[string]int
	byFold  map[string]int
}

// Open opens an archive. A file starting with "VER2" is read as a single-file
// archive; otherwise the index is read from the sibling .dir file.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	var magic [4]byte
	if _, err := file.ReadAt(magic[:], 0); err == nil && string(magic[:]) == ver2Magic {
		archive, err := NewVER2(file, stat.Size())
		if err != nil {
			file.Close()
			return nil, err
		}
		archive.closer = file
		return archive, nil
	}

	dir, err := os.ReadFile(dirPath(path))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	archive, err := NewV1(file, stat.Size(), dir)
	if err != nil {
		file.Close()
		return nil, err
	}
	archive.closer = file
	return archive, nil
}

// dirPath returns the .dir path for an .img path, preferring an upper-case
// extension when the image itself uses one.
func dirPath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if ext == strings.ToUpper(ext) && ext != "" {
		if _, err := os.Stat(base + ".DIR"); err == nil {
			return base + ".DIR"
		}
	}
	return base + ".dir"
}

// NewV1 builds an archive from image data and the contents of its .dir index.
func NewV1(r io.ReaderAt, size int64, dir []byte) (*Archive, error) {
	if len(dir)%entrySize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidDirectory, len(dir), entrySize)
	}

	entries := make([]Entry, 0, len(dir)/entrySize)
	for off := 0; off < len(dir); off += entrySize {
		rec := dir[off : off+entrySize]
		entries = append(entries, Entry{
			Offset: binary.LittleEndian.Uint32(rec[0:]),
			Size:   binary.LittleEndian.Uint32(rec[4:]),
			Name:   encoding.FixedString(rec[8 : 8+nameSize]),
		})
	}
	return newArchive(r, size, 1, entries), nil
}

// NewVER2 builds an archive from a single-file VER2 image.
func NewVER2(r io.ReaderAt, size int64) (*Archive, error) {
	var header [8]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrInvalidDirectory, err)
	}
	if string(header[:4]) != ver2Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidDirectory, header[:4])
	}

	count := int64(binary.LittleEndian.Uint32(header[4:]))
	if 8+count*entrySize > size {
		return nil, fmt.Errorf("%w: %d entries overrun %d bytes", ErrInvalidDirectory, count, size)
	}

	dir := make([]byte, count*entrySize)
	if _, err := r.ReadAt(dir, 8); err != nil {
		return nil, fmt.Errorf("%w: reading entries: %v", ErrInvalidDirectory, err)
	}

	entries := make([]Entry, 0, count)
	for off := 0; off < len(dir); off += entrySize {
		rec := dir[off : off+entrySize]
		// Streaming size takes precedence; the archive size field is usually zero.
		entrySectors := uint32(binary.LittleEndian.Uint16(rec[4:]))
		if entrySectors == 0 {
			entrySectors = uint32(binary.LittleEndian.Uint16(rec[6:]))
		}
		entries = append(entries, Entry{
			Offset: binary.LittleEndian.Uint32(rec[0:]),
			Size:   entrySectors,
			Name:   encoding.FixedString(rec[8 : 8+nameSize]),
		})
	}
	return newArchive(r, size, 2, entries), nil
}

func newArchive(r io.ReaderAt, size int64, version int, entries []Entry) *Archive {
	a := &Archive{
		r:       r,
		size:    size,
		version: version,
		entries: entries,
		byName:  make(map[string]int, len(entries)),
		byFold:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		// First occurrence wins for duplicate names.
		if _, ok := a.byName[e.Name]; !ok {
			a.byName[e.Name] = i
		}
		folded := strings.ToLower(e.Name)
		if _, ok := a.byFold[folded]; !ok {
			a.byFold[folded] = i
		}
	}
	return a
}

// Close closes the underlying file when the archive was opened from disk.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Version returns 1 for .img/.dir pairs and 2 for VER2 archives.
func (a *Archive) Version() int {
	return a.version
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns the directory in file order.
func (a *Archive) Entries() []Entry {
	return append([]Entry(nil), a.entries...)
}

// List returns all entry names, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		result = append(result, e.Name)
	}
	sort.Strings(result)
	return result
}

// Contains checks if an entry exists, ignoring case.
func (a *Archive) Contains(name string) bool {
	_, ok := a.byFold[strings.ToLower(name)]
	return ok
}

// Entry returns the directory record for an exact name.
func (a *Archive) Entry(name string) (Entry, bool) {
	i, ok := a.byName[name]
	if !ok {
		return Entry{}, false
	}
	return a.entries[i], true
}

// Read returns the contents of the entry whose name matches exactly.
func (a *Archive) Read(name string) ([]byte, error) {
	i, ok := a.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return a.read(a.entries[i])
}

// ReadFold returns the contents of an entry, ignoring case.
func (a *Archive) ReadFold(name string) ([]byte, error) {
	i, ok := a.byFold[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return a.read(a.entries[i])
}

func (a *Archive) read(e Entry) ([]byte, error) {
	start, length := e.ByteOffset(), e.ByteSize()
	if start+length > a.size {
		return nil, fmt.Errorf("%w: %s at %d+%d, archive is %d bytes", ErrTruncatedEntry, e.Name, start, length, a.size)
	}
	buf := make([]byte, length)
	if n, err := a.r.ReadAt(buf, start); n < len(buf) {
		return nil, fmt.Errorf("reading %s: %w", e.Name, err)
	}
	return buf, nil
}

// Builder assembles an archive in memory. It is used by tests and by tools
// that repack extracted entries.
type Builder struct {
	entries []Entry
	data    bytes.Buffer
}

// Add appends an entry padded to a whole number of sectors.
func (b *Builder) Add(name string, data []byte) {
	sectors := (len(data) + SectorSize - 1) / SectorSize
	b.entries = append(b.entries, Entry{
		Name:   name,
		Offset: uint32(b.data.Len() / SectorSize),
		Size:   uint32(sectors),
	})
	b.data.Write(data)
	b.data.Write(make([]byte, sectors*SectorSize-len(data)))
}

// V1 returns the .img and .dir contents.
func (b *Builder) V1() (image, dir []byte) {
	var d bytes.Buffer
	for _, e := range b.entries {
		writeEntry(&d, e)
	}
	return append([]byte(nil), b.data.Bytes()...), d.Bytes()
}

// VER2 returns a single-file archive. Entry data starts after the sector-aligned header.
func (b *Builder) VER2() []byte {
	headerSize := 8 + len(b.entries)*entrySize
	headerSectors := (headerSize + SectorSize - 1) / SectorSize

	var out bytes.Buffer
	out.WriteString(ver2Magic)
	binary.Write(&out, binary.LittleEndian, uint32(len(b.entries)))
	for _, e := range b.entries {
		shifted := e
		shifted.Offset += uint32(headerSectors)
		writeEntry(&out, shifted)
	}
	out.Write(make([]byte, headerSectors*SectorSize-headerSize))
	out.Write(b.data.Bytes())
	return out.Bytes()
}

// writeEntry writes a 32-byte record. A u32 size below 0x10000 doubles as the
// VER2 streaming size followed by a zero archive size.
func writeEntry(w *bytes.Buffer, e Entry) {
	binary.Write(w, binary.LittleEndian, e.Offset)
	binary.Write(w, binary.LittleEndian, e.Size)
	w.Write(encoding.PutFixedString(e.Name, nameSize))
}
