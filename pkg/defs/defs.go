// Package defs parses the line-oriented GTA definition files: the gta3.dat
// index, item definitions (IDE) and item placements (IPL).
package defs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Line errors.
var (
	ErrFieldCount     = errors.New("wrong number of fields")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrOutsideSection = errors.New("line outside of a section")
)

// LineError reports a malformed line that was skipped.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// fields tokenizes a definition line: everything from the first word holding
// '#' is a comment and commas are separators.
func fields(line string) []string {
	words := strings.Fields(strings.ReplaceAll(line, ",", " "))
	for i, w := range words {
		if strings.Contains(w, "#") {
			return words[:i]
		}
	}
	return words
}

// sectionHandler receives each data line of a section.
type sectionHandler func(section string, words []string) error

// scanSections walks a sectioned file. A single-word line opens a section and
// "end" closes it. Lines in sections without a handler are counted in ignored.
func scanSections(r io.Reader, file string, handlers map[string]sectionHandler, ignored map[string]int) ([]*LineError, error) {
	var errs []*LineError
	section := ""
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		words := fields(scanner.Text())
		if len(words) == 0 {
			continue
		}
		if len(words) == 1 {
			section = strings.ToLower(words[0])
			if section == "end" {
				section = ""
			}
			continue
		}
		if section == "" {
			errs = append(errs, &LineError{File: file, Line: lineNo, Err: ErrOutsideSection})
			continue
		}

		handler, ok := handlers[section]
		if !ok {
			ignored[section]++
			continue
		}
		if err := handler(section, words); err != nil {
			errs = append(errs, &LineError{File: file, Line: lineNo, Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		return errs, fmt.Errorf("reading %s: %w", file, err)
	}
	return errs, nil
}

// numbers accumulates the first parse failure over a line's fields.
type numbers struct {
	words []string
	err   error
}

func (n *numbers) f32(i int) float32 {
	if n.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(n.words[i], 32)
	if err != nil {
		n.err = fmt.Errorf("%w: field %d %q", ErrInvalidNumber, i+1, n.words[i])
	}
	return float32(v)
}

func (n *numbers) u32(i int) uint32 {
	if n.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(n.words[i], 10, 32)
	if err != nil {
		n.err = fmt.Errorf("%w: field %d %q", ErrInvalidNumber, i+1, n.words[i])
	}
	return uint32(v)
}

func (n *numbers) atoi(i int) int {
	if n.err != nil {
		return 0
	}
	v, err := strconv.Atoi(n.words[i])
	if err != nil {
		n.err = fmt.Errorf("%w: field %d %q", ErrInvalidNumber, i+1, n.words[i])
	}
	return v
}
