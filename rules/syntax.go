package rules

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/scanner"
	"github.com/c360studio/codeguardian/source"
)

var (
	pythonOnly = []source.Language{source.LanguagePython}
	goOnly     = []source.Language{source.LanguageGo}
	javaOnly   = []source.Language{source.LanguageJava}
	scriptLike = []source.Language{source.LanguageJavaScript, source.LanguageTypeScript}
	withSyntax = []source.Language{
		source.LanguagePython,
		source.LanguageGo,
		source.LanguageJavaScript,
		source.LanguageTypeScript,
		source.LanguageJava,
	}
)

func matchAt(tree *scanner.Tree, n *sitter.Node, detail string) Match {
	line, col := tree.Position(n)
	return Match{Line: line, Column: col, Detail: detail}
}

// calls returns the call nodes whose callee is a bare identifier in names.
func calls(tree *scanner.Tree, nodeType string, names ...string) []*sitter.Node {
	var out []*sitter.Node
	for _, n := range tree.Find(nodeType) {
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" {
			continue
		}
		name := tree.Text(fn)
		for _, want := range names {
			if name == want {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// emptyBlock reports whether a block holds nothing but comments.
func emptyBlock(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	for child := range scanner.NamedChildren(n) {
		if child.Type() != "comment" {
			return false
		}
	}
	return true
}

// PythonBareExcept flags "except:" clauses that catch everything.
func PythonBareExcept() *SyntaxRule {
	return NewSyntaxRule("python-bare-except", "Bare except clause", pythonOnly, report.SeverityMedium,
		"A bare except also catches SystemExit and KeyboardInterrupt; name the exceptions to handle.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range tree.Find("except_clause") {
				if n.NamedChildCount() > 0 && n.NamedChild(0).Type() == "block" {
					out = append(out, matchAt(tree, n, ""))
				}
			}
			return out
		})
}

// PythonMutableDefault flags list, dict and set literals used as parameter defaults.
func PythonMutableDefault() *SyntaxRule {
	return NewSyntaxRule("python-mutable-default", "Mutable default argument", pythonOnly, report.SeverityMedium,
		`Parameter "%s" defaults to a mutable literal that is shared between calls; default to None instead.`,
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range tree.Find("default_parameter", "typed_default_parameter") {
				value := n.ChildByFieldName("value")
				if value == nil {
					continue
				}
				switch value.Type() {
				case "list", "dictionary", "set", "list_comprehension", "dictionary_comprehension", "set_comprehension":
				default:
					continue
				}
				name := "?"
				if nameNode := n.ChildByFieldName("name"); nameNode != nil {
					name = tree.Text(nameNode)
				}
				out = append(out, matchAt(tree, value, name))
			}
			return out
		})
}

// PythonEvalExec flags calls to eval and exec.
func PythonEvalExec() *SyntaxRule {
	return NewSyntaxRule("python-eval-exec", "Use of eval or exec", pythonOnly, report.SeverityHigh,
		"%s() executes arbitrary code; parse the input explicitly instead.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range calls(tree, "call", "eval", "exec") {
				out = append(out, matchAt(tree, n, tree.Text(n.ChildByFieldName("function"))))
			}
			return out
		})
}

// PythonWildcardImport flags "from module import *".
func PythonWildcardImport() *SyntaxRule {
	return NewSyntaxRule("python-wildcard-import", "Wildcard import", pythonOnly, report.SeverityLow,
		`"from %s import *" hides where names come from; import them explicitly.`,
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range tree.Find("import_from_statement") {
				wildcard := false
				for child := range scanner.Children(n) {
					if child.Type() == "wildcard_import" {
						wildcard = true
						break
					}
				}
				if !wildcard {
					continue
				}
				module := "?"
				if m := n.ChildByFieldName("module_name"); m != nil {
					module = tree.Text(m)
				}
				out = append(out, matchAt(tree, n, module))
			}
			return out
		})
}

// GoPanicCall flags calls to the panic builtin.
func GoPanicCall() *SyntaxRule {
	return NewSyntaxRule("go-panic-call", "panic call", goOnly, report.SeverityMedium,
		"panic call detected; consider returning an error instead.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range calls(tree, "call_expression", "panic") {
				out = append(out, matchAt(tree, n, ""))
			}
			return out
		})
}

// GoEmptyErrorCheck flags "if err != nil {}" with an empty body.
func GoEmptyErrorCheck() *SyntaxRule {
	return NewSyntaxRule("go-empty-error-check", "Empty error handling block", goOnly, report.SeverityHigh,
		"The error is checked but the block is empty, so it is silently dropped.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range tree.Find("if_statement") {
				cond := n.ChildByFieldName("condition")
				if cond == nil || strings.Join(strings.Fields(tree.Text(cond)), "") != "err!=nil" {
					continue
				}
				if emptyBlock(n.ChildByFieldName("consequence")) {
					out = append(out, matchAt(tree, n, ""))
				}
			}
			return out
		})
}

// JSEval flags calls to eval.
func JSEval() *SyntaxRule {
	return NewSyntaxRule("js-eval", "Use of eval", scriptLike, report.SeverityHigh,
		"eval() executes arbitrary code; parse the input explicitly instead.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range calls(tree, "call_expression", "eval") {
				out = append(out, matchAt(tree, n, ""))
			}
			return out
		})
}

// JSDebugger flags debugger statements.
func JSDebugger() *SyntaxRule {
	return NewSyntaxRule("js-debugger", "debugger statement", scriptLike, report.SeverityMedium,
		"A debugger statement pauses execution when developer tools are open; remove it.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range tree.Find("debugger_statement") {
				out = append(out, matchAt(tree, n, ""))
			}
			return out
		})
}

// JSLooseEquality flags == and != outside comparisons with null.
func JSLooseEquality() *SyntaxRule {
	return NewSyntaxRule("js-loose-equality", "Loose equality", scriptLike, report.SeverityLow,
		"%s coerces operand types; use the strict form.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range tree.Find("binary_expression") {
				op := n.ChildByFieldName("operator")
				if op == nil {
					continue
				}
				operator := tree.Text(op)
				if operator != "==" && operator != "!=" {
					continue
				}
				left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
				if (left != nil && left.Type() == "null") || (right != nil && right.Type() == "null") {
					continue
				}
				out = append(out, matchAt(tree, op, operator))
			}
			return out
		})
}

// JavaEmptyCatch flags catch blocks with no statements.
func JavaEmptyCatch() *SyntaxRule {
	return NewSyntaxRule("java-empty-catch", "Empty catch block", javaOnly, report.SeverityMedium,
		"The exception is caught and discarded; handle it or let it propagate.",
		func(tree *scanner.Tree, _ source.Language) []Match {
			var out []Match
			for _, n := range tree.Find("catch_clause") {
				if emptyBlock(n.ChildByFieldName("body")) {
					out = append(out, matchAt(tree, n, ""))
				}
			}
			return out
		})
}

var functionNodes = map[source.Language][]string{
	source.LanguagePython:     {"function_definition"},
	source.LanguageGo:         {"function_declaration", "method_declaration", "func_literal"},
	source.LanguageJavaScript: {"function_declaration", "function", "function_expression", "generator_function_declaration", "method_definition", "arrow_function"},
	source.LanguageTypeScript: {"function_declaration", "function", "function_expression", "generator_function_declaration", "method_definition", "arrow_function"},
	source.LanguageJava:       {"method_declaration", "constructor_declaration"},
}

// LongFunction flags functions spanning more than limit lines.
func LongFunction(limit int) *SyntaxRule {
	return NewSyntaxRule("long-function", "Function too long", withSyntax, report.SeverityLow,
		"Function %s; consider splitting it.",
		func(tree *scanner.Tree, lang source.Language) []Match {
			var out []Match
			for _, n := range tree.Find(functionNodes[lang]...) {
				span := tree.Span(n)
				if span <= limit {
					continue
				}
				name := "anonymous"
				if nameNode := n.ChildByFieldName("name"); nameNode != nil {
					name = tree.Text(nameNode)
				}
				out = append(out, matchAt(tree, n, fmt.Sprintf("%s spans %d lines; the limit is %d", name, span, limit)))
			}
			return out
		})
}
