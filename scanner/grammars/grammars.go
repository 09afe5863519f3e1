// Package grammars registers the bundled tree-sitter grammars with
// scanner.DefaultGrammars. Import it for its side effect.
package grammars

import (
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/c360studio/codeguardian/scanner"
	"github.com/c360studio/codeguardian/source"
)

func init() {
	scanner.DefaultGrammars.Register(source.LanguagePython, python.GetLanguage())
	scanner.DefaultGrammars.Register(source.LanguageGo, golang.GetLanguage())
	scanner.DefaultGrammars.Register(source.LanguageJavaScript, javascript.GetLanguage())
	scanner.DefaultGrammars.Register(source.LanguageTypeScript, typescript.GetLanguage())
	scanner.DefaultGrammars.Register(source.LanguageJava, java.GetLanguage())
}
