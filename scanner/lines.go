package scanner

import (
	"iter"
	"strings"
)

// Line is one line of source text, numbered from 1, without its terminator.
type Line struct {
	Number int
	Text   string
}

// Lines yields the lines of text in order. "\n", "\r\n" and a lone "\r"
// terminate a line; a trailing terminator does not open an extra line.
// Other separators such as "\f", "\v" or U+0085 are ordinary characters.
func Lines(text string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		n := 0
		for len(text) > 0 {
			n++
			i := strings.IndexAny(text, "\r\n")
			if i < 0 {
				yield(Line{Number: n, Text: text})
				return
			}
			if !yield(Line{Number: n, Text: text[:i]}) {
				return
			}
			if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			text = text[i+1:]
		}
	}
}

// CountLines returns the number of lines Lines would yield.
func CountLines(text string) int {
	n := 0
	for range Lines(text) {
		n++
	}
	return n
}
