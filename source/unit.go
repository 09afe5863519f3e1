// Package source defines the unit of text handed to the analysis engine.
package source

import (
	"crypto/sha256"
	"encoding/hex"
)

// Unit is one piece of source text under analysis together with its language
// and an optional origin (a file path, or empty for pasted text).
// A Unit is immutable; all fields are set by NewUnit.
type Unit struct {
	text     string
	language Language
	origin   string
}

// NewUnit creates a Unit. An empty language is replaced by DefaultLanguage.
func NewUnit(text string, language Language, origin string) Unit {
	if language == "" {
		language = DefaultLanguage
	}
	return Unit{text: text, language: language, origin: origin}
}

// Text returns the source text.
func (u Unit) Text() string { return u.text }

// Language returns the declared language tag.
func (u Unit) Language() Language { return u.language }

// Origin returns the file path the text came from, or "" for pasted text.
func (u Unit) Origin() string { return u.origin }

// Hash returns a short content hash used for change detection.
func (u Unit) Hash() string { return ComputeHash([]byte(u.text)) }

// ComputeHash computes a short SHA256 hash of content.
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}
