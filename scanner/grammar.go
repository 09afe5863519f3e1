package scanner

import (
	"slices"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/codeguardian/source"
)

// GrammarRegistry maps language tags to tree-sitter grammars.
// Thread-safe for concurrent access.
type GrammarRegistry struct {
	mu       sync.RWMutex
	grammars map[source.Language]*sitter.Language
}

// NewGrammarRegistry creates a new empty grammar registry.
func NewGrammarRegistry() *GrammarRegistry {
	return &GrammarRegistry{grammars: make(map[source.Language]*sitter.Language)}
}

// Register adds a grammar for lang. The first registration wins.
func (r *GrammarRegistry) Register(lang source.Language, grammar *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.grammars[lang]; !exists {
		r.grammars[lang] = grammar
	}
}

// Lookup returns the grammar registered for lang.
func (r *GrammarRegistry) Lookup(lang source.Language) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.grammars[lang]
	return g, ok
}

// Languages returns the registered language tags in sorted order.
func (r *GrammarRegistry) Languages() []source.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]source.Language, 0, len(r.grammars))
	for lang := range r.grammars {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// DefaultGrammars is the global grammar registry.
// The grammars package registers the bundled grammars via init().
var DefaultGrammars = NewGrammarRegistry()
