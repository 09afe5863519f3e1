// Package scanner turns a source.Unit into the views rules evaluate:
// numbered lines and, where a grammar exists, a best-effort syntax tree.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/codeguardian/source"
)

var (
	// ErrNoGrammar is returned by Input.Tree when no grammar is registered
	// for the unit's language.
	ErrNoGrammar = errors.New("no grammar for language")

	// ErrSyntax is returned by Input.Tree when the text does not parse cleanly.
	ErrSyntax = errors.New("source does not parse")
)

// Scanner prepares Inputs for rule evaluation.
type Scanner struct {
	grammars *GrammarRegistry
}

// New creates a Scanner backed by grammars (nil means DefaultGrammars).
func New(grammars *GrammarRegistry) *Scanner {
	if grammars == nil {
		grammars = DefaultGrammars
	}
	return &Scanner{grammars: grammars}
}

// Scan wraps unit in an Input. Scan never fails; syntax problems surface
// lazily from Input.Tree.
func (s *Scanner) Scan(unit source.Unit) *Input {
	return &Input{
		unit:      unit,
		grammars:  s.grammars,
		lineCount: CountLines(unit.Text()),
	}
}

// Input is the scanned view of one source.Unit.
// The syntax tree is parsed on first use and must be released with Close.
type Input struct {
	unit      source.Unit
	grammars  *GrammarRegistry
	lineCount int

	once    sync.Once
	tree    *Tree
	treeErr error
}

// Unit returns the scanned unit.
func (in *Input) Unit() source.Unit { return in.unit }

// Language returns the unit's language tag.
func (in *Input) Language() source.Language { return in.unit.Language() }

// Lines yields the unit's lines.
func (in *Input) Lines() iter.Seq[Line] { return Lines(in.unit.Text()) }

// LineCount returns the number of lines in the unit.
func (in *Input) LineCount() int { return in.lineCount }

// Tree returns the syntax tree, parsing it on first call.
// The error wraps ErrNoGrammar or ErrSyntax when no usable tree exists.
func (in *Input) Tree() (*Tree, error) {
	in.once.Do(func() {
		in.tree, in.treeErr = in.parse()
	})
	return in.tree, in.treeErr
}

// Fork returns a fresh Input over the same unit with its own lazily parsed
// tree, so that it can be used from another goroutine.
func (in *Input) Fork() *Input {
	return &Input{unit: in.unit, grammars: in.grammars, lineCount: in.lineCount}
}

// Close releases the syntax tree, if one was parsed. The Input must not be
// used afterwards.
func (in *Input) Close() {
	in.once.Do(func() {})
	if in.tree != nil {
		in.tree.close()
		in.tree = nil
	}
}

func (in *Input) parse() (*Tree, error) {
	grammar, ok := in.grammars.Lookup(in.unit.Language())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoGrammar, in.unit.Language())
	}

	p := sitter.NewParser()
	p.SetLanguage(grammar)

	src := []byte(in.unit.Text())
	tree, err := p.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", in.unit.Language(), err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: parser returned no tree", ErrSyntax)
	}

	root := tree.RootNode()
	if root.HasError() {
		line, col := nodePosition(firstError(root))
		tree.Close()
		return nil, fmt.Errorf("%w: %s near line %d column %d", ErrSyntax, in.unit.Language(), line, col)
	}

	return &Tree{tree: tree, root: root, src: src}, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for child := range Children(n) {
		if child.HasError() {
			return firstError(child)
		}
	}
	return n
}
