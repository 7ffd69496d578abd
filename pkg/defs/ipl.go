package defs

import (
	"fmt"
	"io"
)

// Instance is one inst placement.
type Instance struct {
	ID       uint32
	Model    string
	Position [3]float32
	Scale    [3]float32
	Rotation [4]float32 // Quaternion x, y, z, w in file axes
}

// IPL is a parsed item placement file.
type IPL struct {
	Instances []Instance
	Ignored   map[string]int
	Errors    []*LineError
}

// ParseIPL parses an item placement file. Malformed lines are collected in
// Errors and skipped; only read failures are returned.
func ParseIPL(r io.Reader, file string) (*IPL, error) {
	ipl := &IPL{Ignored: make(map[string]int)}
	handlers := map[string]sectionHandler{
		"inst": func(_ string, words []string) error { return ipl.addInstance(words) },
	}
	errs, err := scanSections(r, file, handlers, ipl.Ignored)
	ipl.Errors = errs
	if err != nil {
		return nil, err
	}
	return ipl, nil
}

// addInstance parses: id model posX posY posZ scaleX scaleY scaleZ rotX rotY rotZ rotW
func (ipl *IPL) addInstance(words []string) error {
	if len(words) != 12 {
		return fmt.Errorf("%w: %d", ErrFieldCount, len(words))
	}
	num := numbers{words: words}
	inst := Instance{ID: num.u32(0), Model: words[1]}
	for i := 0; i < 3; i++ {
		inst.Position[i] = num.f32(2 + i)
		inst.Scale[i] = num.f32(5 + i)
	}
	for i := 0; i < 4; i++ {
		inst.Rotation[i] = num.f32(8 + i)
	}
	if num.err != nil {
		return num.err
	}
	ipl.Instances = append(ipl.Instances, inst)
	return nil
}
