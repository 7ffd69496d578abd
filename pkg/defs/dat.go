package defs

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Dat entry kinds.
const (
	KindIDE        = "IDE"
	KindIPL        = "IPL"
	KindMapZone    = "MAPZONE"
	KindColFile    = "COLFILE"
	KindTexDiction = "TEXDICTION"
	KindModelFile  = "MODELFILE"
	KindSplash     = "SPLASH"
)

// DatEntry is one line of gta3.dat.
type DatEntry struct {
	Kind string // Upper-cased keyword
	Path string // Game-relative path with backslashes preserved
	Zone int    // COLFILE zone index
	Line int
}

// Dat is a parsed gta3.dat index.
type Dat struct {
	Entries []DatEntry
	Errors  []*LineError
}

// Paths returns the paths of all entries of a kind in file order.
func (d *Dat) Paths(kind string) []string {
	var result []string
	for _, e := range d.Entries {
		if e.Kind == kind {
			result = append(result, e.Path)
		}
	}
	return result
}

// ParseDat parses a gta3.dat index. Unknown keywords are kept as entries.
func ParseDat(r io.Reader, file string) (*Dat, error) {
	dat := &Dat{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		words := strings.Fields(scanner.Text())
		for i, w := range words {
			if strings.HasPrefix(w, "#") {
				words = words[:i]
				break
			}
		}
		if len(words) == 0 {
			continue
		}

		entry := DatEntry{Kind: strings.ToUpper(words[0]), Line: lineNo}
		switch {
		case entry.Kind == KindColFile && len(words) == 3:
			n := numbers{words: words}
			entry.Zone = n.atoi(1)
			if n.err != nil {
				dat.Errors = append(dat.Errors, &LineError{File: file, Line: lineNo, Err: n.err})
				continue
			}
			entry.Path = words[2]
		case entry.Kind != KindColFile && len(words) == 2:
			entry.Path = words[1]
		default:
			dat.Errors = append(dat.Errors, &LineError{File: file, Line: lineNo,
				Err: fmt.Errorf("%w: %s with %d arguments", ErrFieldCount, entry.Kind, len(words)-1)})
			continue
		}
		dat.Entries = append(dat.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return dat, nil
}
