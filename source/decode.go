package source

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw file bytes to text without ever failing.
// A UTF-8 or UTF-16 byte order mark selects the matching decoder; otherwise
// the bytes are taken as UTF-8 and invalid sequences are dropped.
func Decode(raw []byte) string {
	dec := unicode.BOMOverride(encoding.Nop.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		out = raw
	}
	return strings.ToValidUTF8(string(out), "")
}
