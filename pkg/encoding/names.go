// Package encoding provides text encoding utilities for RenderWare and GTA asset names.
package encoding

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Windows1252ToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 converts a UTF-8 string to Windows-1252 bytes.
// Runes without a Windows-1252 mapping make the conversion fall back to the raw bytes.
func UTF8ToWindows1252(s string) []byte {
	result, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedString decodes a fixed-size, null-terminated name field.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return Windows1252ToUTF8(data)
}

// PutFixedString encodes s into a null-padded field of the given size.
// Names longer than size-1 bytes are truncated so the terminator always fits.
func PutFixedString(s string, size int) []byte {
	result := make([]byte, size)
	encoded := UTF8ToWindows1252(s)
	if len(encoded) > size-1 {
		encoded = encoded[:size-1]
	}
	copy(result, encoded)
	return result
}

// NormalizePath converts backslashes to forward slashes and lower-cases the path
// for case-insensitive lookup.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(path)
}

// ToSlash converts Windows separators without changing case.
func ToSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
