package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/codeguardian/source"
)

// DefaultInclude matches every file with a recognized source extension.
var DefaultInclude = sourceInclude()

func sourceInclude() []string {
	var exts []string
	for _, lang := range source.Languages() {
		if lang == source.LanguageOther {
			continue
		}
		for _, ext := range source.Extensions(lang) {
			exts = append(exts, strings.TrimPrefix(ext, "."))
		}
	}
	return []string{"**/*.{" + strings.Join(exts, ",") + "}"}
}

// DefaultExclude skips dependency and build directories.
var DefaultExclude = []string{
	"**/node_modules/**",
	"**/vendor/**",
	"**/venv/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
}

// DirectoryConfig configures a directory scan.
type DirectoryConfig struct {
	// Root is the directory to scan.
	Root string

	// Include lists doublestar patterns, relative to Root, a file must match
	// (default: DefaultInclude).
	Include []string

	// Exclude lists doublestar patterns that drop a file (default: DefaultExclude).
	Exclude []string

	// MaxFileBytes skips larger files; 0 means no limit.
	MaxFileBytes int64

	// Fallback language for files whose extension is not recognized.
	Fallback source.Language

	// Logger for skipped files.
	Logger *slog.Logger
}

// Directory walks a local directory tree and yields the files to analyze.
type Directory struct {
	config DirectoryConfig
	logger *slog.Logger
}

// NewDirectory validates the patterns and creates a Directory.
func NewDirectory(config DirectoryConfig) (*Directory, error) {
	if config.Root == "" {
		return nil, fmt.Errorf("directory root is required")
	}
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	config.Root = root
	if len(config.Include) == 0 {
		config.Include = DefaultInclude
	}
	if config.Exclude == nil {
		config.Exclude = DefaultExclude
	}
	for _, p := range append(append([]string{}, config.Include...), config.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{config: config, logger: logger}, nil
}

// Match reports whether a slash-separated path relative to Root is selected.
func (d *Directory) Match(rel string) bool {
	if !matchAny(d.config.Include, rel) {
		return false
	}
	return !matchAny(d.config.Exclude, rel)
}

// Files returns the selected files, relative to Root, in lexical order.
func (d *Directory) Files(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(d.config.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(d.config.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if rel != "." && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || !d.Match(rel) {
			return nil
		}

		if d.config.MaxFileBytes > 0 {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			if info.Size() > d.config.MaxFileBytes {
				d.logger.Debug("Skipping large file", "path", rel, "size", info.Size())
				return nil
			}
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, &IOError{Op: "walk", Path: d.config.Root, Err: err}
	}

	return files, nil
}

// Read loads one file returned by Files.
func (d *Directory) Read(rel string) (source.Unit, error) {
	return ReadFile(filepath.Join(d.config.Root, filepath.FromSlash(rel)), d.config.Fallback)
}

// Root returns the scanned directory.
func (d *Directory) Root() string { return d.config.Root }

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
