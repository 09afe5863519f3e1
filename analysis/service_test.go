package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/codeguardian/engine"
	"github.com/c360studio/codeguardian/ingest"
	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/rules"
)

func newService() *Service {
	eng := engine.New(rules.Default(rules.DefaultOptions()), engine.Config{})
	return New(eng, Config{})
}

func wire(t *testing.T, r *report.AnalysisReport) string {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	return string(data)
}

func TestAnalyzeCodeText_Empty(t *testing.T) {
	rep := newService().AnalyzeCodeText("", "")
	assert.Equal(t, `{"summary":"Analyzed 0 lines; found 0 issues.","issues":[],"suggestions":[]}`, wire(t, rep))
}

func TestAnalyzeCodeText_LineCount(t *testing.T) {
	tests := []struct {
		text  string
		lines int
	}{
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\r\nb\r\n", 2},
		{"\n\n\n", 3},
	}
	s := newService()
	for _, tc := range tests {
		rep := s.AnalyzeCodeText(tc.text, "other")
		assert.Equal(t, report.Summary(tc.lines, len(rep.Findings())), rep.Summary(), "%q", tc.text)
	}
}

func TestAnalyzeCodeText_Idempotent(t *testing.T) {
	s := newService()
	text := "def f(x=[]):\n    print(x)  # TODO\n"
	assert.Equal(t, wire(t, s.AnalyzeCodeText(text, "python")), wire(t, s.AnalyzeCodeText(text, "python")))
}

func TestAnalyzeCodeText_OriginalHeuristics(t *testing.T) {
	rep := newService().AnalyzeCodeText("# TODO\nprint('hello')\n", "")

	require.Len(t, rep.Findings(), 1)
	f := rep.Findings()[0]
	assert.Equal(t, "Found TODO", f.Title)
	assert.Equal(t, report.SeverityLow, f.Severity)
	assert.Equal(t, "Analyzed 2 lines; found 1 issues.", rep.Summary())
	assert.Equal(t, []string{"Replace print statements with logging for better control in production."}, rep.Suggestions())
}

func TestAnalyzeCodeText_LanguageSelectsRules(t *testing.T) {
	s := newService()
	code := "package main\n\nfunc main() {\n\tpanic(\"x\")\n}\n"

	var got []string
	for _, f := range s.AnalyzeCodeText(code, "go").Findings() {
		got = append(got, f.RuleID)
	}
	assert.Equal(t, []string{"go-panic-call"}, got)

	assert.NotContains(t, wire(t, s.AnalyzeCodeText(code, "javascript")), "panic call")
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	content := "import os\n# TODO\nprint(os.name)\xff\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s := newService()
	fromFile, err := s.AnalyzeFile(path)
	require.NoError(t, err)
	fromText := s.AnalyzeCodeText("import os\n# TODO\nprint(os.name)\n", "python")

	assert.Equal(t, fromText.Summary(), fromFile.Summary())
	assert.Equal(t, fromText.Suggestions(), fromFile.Suggestions())
	require.Len(t, fromFile.Findings(), len(fromText.Findings()))
	for i, f := range fromFile.Findings() {
		want := fromText.Findings()[i]
		assert.Equal(t, want.Title, f.Title)
		assert.Equal(t, want.Severity, f.Severity)
		assert.Equal(t, want.Description, f.Description)
		require.NotNil(t, f.Location)
		assert.Equal(t, path, f.Location.Origin)
		assert.Equal(t, want.Location.Line, f.Location.Line)
	}
}

func TestAnalyzeFile_Errors(t *testing.T) {
	s := newService()

	_, err := s.AnalyzeFile("")
	assert.ErrorIs(t, err, ErrInput)

	_, err = s.AnalyzeFile(filepath.Join(t.TempDir(), "missing.py"))
	var ioErr *ingest.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestAnalyzeRepo(t *testing.T) {
	s := newService()
	for _, ref := range []string{"https://github.com/acme/app", "", "not a url"} {
		rep := s.AnalyzeRepo(ref)
		require.NotNil(t, rep)
		assert.Equal(t, "Repository analysis not implemented for "+ref, rep.Summary())
		assert.Empty(t, rep.Findings())
		assert.Empty(t, rep.Suggestions())
		assert.JSONEq(t, `{"summary":"Repository analysis not implemented for `+ref+`","issues":[],"suggestions":[]}`, wire(t, rep))
	}
}

func TestAnalyzeDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("# TODO\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("debugger;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.md"), []byte("TODO\n"), 0644))

	results, err := newService().AnalyzeDir(context.Background(), ingest.DirectoryConfig{Root: root})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a.js", results[0].Path)
	require.NoError(t, results[0].Err)
	require.Len(t, results[0].Report.Findings(), 1)
	assert.Equal(t, "js-debugger", results[0].Report.Findings()[0].RuleID)

	assert.Equal(t, "b.py", results[1].Path)
	require.Len(t, results[1].Report.Findings(), 1)
	assert.Equal(t, "todo-marker", results[1].Report.Findings()[0].RuleID)
}

func TestAnalyzeDir_Errors(t *testing.T) {
	_, err := newService().AnalyzeDir(context.Background(), ingest.DirectoryConfig{})
	assert.ErrorIs(t, err, ErrInput)
}
