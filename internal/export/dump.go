package export

import (
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/Faultbox/libertycity/pkg/col"
	"github.com/Faultbox/libertycity/pkg/defs"
	"github.com/Faultbox/libertycity/pkg/rw"
)

// ErrNotDumpable is returned for files with no known structure.
var ErrNotDumpable = errors.New("no parser for file type")

var dumper = &spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                8,
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// ParseAny parses a game file by its extension: chunk streams, collision
// files and text definition files.
func ParseAny(name string, data []byte) (any, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".dff", ".txd":
		return rw.ParseAll(data)
	case ".col":
		return col.Parse(data)
	case ".ide":
		return defs.ParseIDE(bytes.NewReader(data), name)
	case ".ipl":
		return defs.ParseIPL(bytes.NewReader(data), name)
	case ".dat":
		return defs.ParseDat(bytes.NewReader(data), name)
	}
	return nil, errors.Wrapf(ErrNotDumpable, "%q", name)
}

// Dump writes the parsed structure of a game file as indented text.
func Dump(w io.Writer, name string, data []byte) error {
	v, err := ParseAny(name, data)
	if err != nil {
		return err
	}
	dumper.Fdump(w, v)
	return nil
}
