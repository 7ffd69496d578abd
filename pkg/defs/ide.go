package defs

import (
	"fmt"
	"io"
	"strings"
)

// Object is an objs or tobj definition.
type Object struct {
	ID           uint32
	Model        string
	TXD          string
	MeshCount    int
	DrawDistance [3]float32
	Flags        uint32

	// Timed objects only appear between TimeOn and TimeOff hours.
	Timed   bool
	TimeOn  int
	TimeOff int
}

// IsLOD reports whether the object is a low-detail stand-in.
func (o *Object) IsLOD() bool {
	return o.DrawDistance[0] > 299 || strings.HasPrefix(o.Model, "LOD")
}

// IDE is a parsed item definition file.
type IDE struct {
	Objects map[uint32]*Object
	Ignored map[string]int // Line counts of sections without a parser
	Errors  []*LineError
}

// ParseIDE parses an item definition file. Malformed lines are collected in
// Errors and skipped; only read failures are returned.
func ParseIDE(r io.Reader, file string) (*IDE, error) {
	ide := &IDE{Objects: make(map[uint32]*Object), Ignored: make(map[string]int)}
	handlers := map[string]sectionHandler{
		"objs": func(_ string, words []string) error { return ide.addObject(words, false) },
		"tobj": func(_ string, words []string) error { return ide.addObject(words, true) },
	}
	errs, err := scanSections(r, file, handlers, ide.Ignored)
	ide.Errors = errs
	if err != nil {
		return nil, err
	}
	return ide, nil
}

// addObject parses
//
//	objs: id model txd drawDist flags
//	objs: id model txd meshCount drawDist... flags
//
// tobj lines append timeOn timeOff.
func (ide *IDE) addObject(words []string, timed bool) error {
	extra := 0
	if timed {
		extra = 2
	}
	n := len(words) - extra
	if n < 5 || n > 8 {
		return fmt.Errorf("%w: %d", ErrFieldCount, len(words))
	}

	obj := &Object{Model: words[1], TXD: words[2], Timed: timed}
	num := numbers{words: words}
	obj.ID = num.u32(0)

	switch {
	case n == 5:
		obj.MeshCount = 1
		obj.DrawDistance[0] = num.f32(3)
		obj.Flags = num.u32(4)
	case n >= 6 && n <= 8:
		obj.MeshCount = n - 5
		if declared := num.atoi(3); num.err == nil && declared != obj.MeshCount {
			return fmt.Errorf("%w: declares %d meshes, has %d draw distances", ErrFieldCount, declared, obj.MeshCount)
		}
		for i := 0; i < obj.MeshCount; i++ {
			obj.DrawDistance[i] = num.f32(4 + i)
		}
		obj.Flags = num.u32(4 + obj.MeshCount)
	default:
		return fmt.Errorf("%w: %d", ErrFieldCount, len(words))
	}

	if timed {
		obj.TimeOn = num.atoi(n)
		obj.TimeOff = num.atoi(n + 1)
	}
	if num.err != nil {
		return num.err
	}

	ide.Objects[obj.ID] = obj
	return nil
}
