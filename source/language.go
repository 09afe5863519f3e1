package source

import (
	"path/filepath"
	"slices"
	"strings"
)

// Language is a normalized language tag.
type Language string

// Known language tags. LanguageOther is accepted for any text that has no
// syntax support; line-based rules still run against it.
const (
	LanguagePython     Language = "python"
	LanguageGo         Language = "go"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
	LanguageOther      Language = "other"
)

// Languages returns every known tag in a fixed order.
func Languages() []Language {
	return []Language{LanguagePython, LanguageGo, LanguageJavaScript, LanguageTypeScript, LanguageJava, LanguageOther}
}

// DefaultLanguage is used when a caller passes no language.
const DefaultLanguage = LanguagePython

var languageAliases = map[string]Language{
	"python":     LanguagePython,
	"py":         LanguagePython,
	"python3":    LanguagePython,
	"go":         LanguageGo,
	"golang":     LanguageGo,
	"javascript": LanguageJavaScript,
	"js":         LanguageJavaScript,
	"node":       LanguageJavaScript,
	"jsx":        LanguageJavaScript,
	"typescript": LanguageTypeScript,
	"ts":         LanguageTypeScript,
	"java":       LanguageJava,
	"other":      LanguageOther,
	"text":       LanguageOther,
	"txt":        LanguageOther,
}

var extensionLanguages = map[string]Language{
	".py":   LanguagePython,
	".pyw":  LanguagePython,
	".go":   LanguageGo,
	".js":   LanguageJavaScript,
	".jsx":  LanguageJavaScript,
	".mjs":  LanguageJavaScript,
	".cjs":  LanguageJavaScript,
	".ts":   LanguageTypeScript,
	".mts":  LanguageTypeScript,
	".java": LanguageJava,
	".txt":  LanguageOther,
}

// ParseLanguage normalizes a user-supplied language name.
// An empty name yields DefaultLanguage; an unrecognized one yields LanguageOther.
func ParseLanguage(name string) Language {
	if strings.TrimSpace(name) == "" {
		return DefaultLanguage
	}
	if lang, ok := LookupLanguage(name); ok {
		return lang
	}
	return LanguageOther
}

// LookupLanguage resolves a language name or alias. Unlike ParseLanguage it
// reports whether the name is known.
func LookupLanguage(name string) (Language, bool) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(name))]
	return lang, ok
}

// LanguageForPath guesses the language from a file extension.
func LanguageForPath(path string) (Language, bool) {
	lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Extensions returns the file extensions recognized for lang, sorted.
func Extensions(lang Language) []string {
	var exts []string
	for ext, l := range extensionLanguages {
		if l == lang {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}

func (l Language) String() string { return string(l) }
