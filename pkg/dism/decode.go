package dism

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode returns a UTF-8 reader over captured dism output. Captures that
// start with a UTF-16 or UTF-8 byte order mark are transcoded; anything
// else is passed through untouched.
func Decode(raw []byte) io.Reader {
	return transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(encoding.Nop.NewDecoder()))
}
