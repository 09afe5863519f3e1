package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/codeguardian/source"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "console.log(1)\n")
	writeFile(t, dir, "notes", "TODO\n")

	unit, err := ReadFile(filepath.Join(dir, "app.js"), source.LanguagePython)
	require.NoError(t, err)
	assert.Equal(t, source.LanguageJavaScript, unit.Language())
	assert.Equal(t, filepath.Join(dir, "app.js"), unit.Origin())
	assert.Equal(t, "console.log(1)\n", unit.Text())

	unit, err = ReadFile(filepath.Join(dir, "notes"), source.LanguageGo)
	require.NoError(t, err)
	assert.Equal(t, source.LanguageGo, unit.Language(), "unknown extension uses the fallback")
}

func TestReadFile_BestEffortDecoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\xff\xfe\n"), 0644))

	unit, err := ReadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", unit.Text())
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.py"), "")
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestDirectory_Files(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "pkg/util.py", "x = 1\n")
	writeFile(t, root, "pkg/readme.md", "# hi\n")
	writeFile(t, root, "web/app.ts", "let x = 1\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = 1\n")
	writeFile(t, root, ".git/hooks/pre-commit.py", "x = 1\n")
	writeFile(t, root, "big.py", strings.Repeat("x", 200))

	dir, err := NewDirectory(DirectoryConfig{Root: root, MaxFileBytes: 100})
	require.NoError(t, err)

	files, err := dir.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "pkg/util.py", "web/app.ts"}, files)

	unit, err := dir.Read("pkg/util.py")
	require.NoError(t, err)
	assert.Equal(t, source.LanguagePython, unit.Language())
}

func TestDirectory_Patterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/keep.py", "")
	writeFile(t, root, "a/skip_test.py", "")
	writeFile(t, root, "b/other.py", "")

	dir, err := NewDirectory(DirectoryConfig{
		Root:    root,
		Include: []string{"a/**/*.py"},
		Exclude: []string{"**/*_test.py"},
	})
	require.NoError(t, err)

	files, err := dir.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a/keep.py"}, files)
}

func TestNewDirectory_Errors(t *testing.T) {
	_, err := NewDirectory(DirectoryConfig{})
	assert.Error(t, err)

	_, err = NewDirectory(DirectoryConfig{Root: t.TempDir(), Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestDirectory_MissingRoot(t *testing.T) {
	dir, err := NewDirectory(DirectoryConfig{Root: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)

	_, err = dir.Files(context.Background())
	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestIsDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.py", "")
	assert.True(t, IsDir(root))
	assert.False(t, IsDir(filepath.Join(root, "f.py")))
	assert.False(t, IsDir(filepath.Join(root, "missing")))
}
