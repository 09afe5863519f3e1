// Package analysis exposes the entry points the presentation layer calls:
// analyze pasted text, a file, a directory, or a repository reference.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/codeguardian/engine"
	"github.com/c360studio/codeguardian/ingest"
	"github.com/c360studio/codeguardian/report"
	_ "github.com/c360studio/codeguardian/scanner/grammars"
	"github.com/c360studio/codeguardian/source"
)

// Config configures a Service.
type Config struct {
	// DefaultLanguage applies when a caller passes no language and a file
	// extension is not recognized (default: python).
	DefaultLanguage source.Language

	// Logger for adapter activity.
	Logger *slog.Logger
}

// Service wires the ingestion adapters to the engine.
type Service struct {
	engine          *engine.Engine
	defaultLanguage source.Language
	logger          *slog.Logger
}

// New creates a Service around eng.
func New(eng *engine.Engine, cfg Config) *Service {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = source.DefaultLanguage
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		engine:          eng,
		defaultLanguage: cfg.DefaultLanguage,
		logger:          cfg.Logger,
	}
}

// Engine returns the underlying engine.
func (s *Service) Engine() *engine.Engine { return s.engine }

// AnalyzeCodeText analyzes pasted text. An empty language selects the
// default. It never fails, for any input.
func (s *Service) AnalyzeCodeText(text, language string) *report.AnalysisReport {
	return s.engine.Analyze(source.NewUnit(text, s.language(language), ""))
}

// AnalyzeFile reads path and analyzes its best-effort decoded contents.
// It fails with ErrInput for an empty path and with *ingest.IOError when
// the file cannot be opened or read.
//
// The report matches AnalyzeCodeText on the same contents with two
// differences: the language comes from the file extension (falling back to
// the default language), and every finding location carries path as its
// origin, so a location reads "path:line:col" instead of "line:col".
func (s *Service) AnalyzeFile(path string) (*report.AnalysisReport, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty file path", ErrInput)
	}

	unit, err := ingest.ReadFile(path, s.defaultLanguage)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Analyzing file", "path", path, "language", unit.Language())
	return s.engine.Analyze(unit), nil
}

// AnalyzeRepo analyzes a repository reference. Repository fetching is not
// available, so it always returns a well-formed report saying so, with no
// issues or suggestions. It never fails.
func (s *Service) AnalyzeRepo(reference string) *report.AnalysisReport {
	s.logger.Info("Repository analysis unavailable", "reference", reference)
	return report.New(fmt.Sprintf("Repository analysis not implemented for %s", reference), nil, nil, nil)
}

// FileReport pairs a file, relative to the scanned root, with its report.
type FileReport struct {
	Path   string
	Report *report.AnalysisReport
	Err    error
}

// AnalyzeDir analyzes every selected file below cfg.Root, in lexical path
// order. A file that cannot be read is reported with Err set; only a root
// that cannot be walked fails the call.
func (s *Service) AnalyzeDir(ctx context.Context, cfg ingest.DirectoryConfig) ([]FileReport, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrInput)
	}
	if cfg.Fallback == "" {
		cfg.Fallback = s.defaultLanguage
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}

	dir, err := ingest.NewDirectory(cfg)
	if err != nil {
		return nil, err
	}
	files, err := dir.Files(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]FileReport, 0, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		unit, err := dir.Read(rel)
		if err != nil {
			s.logger.Warn("Skipping unreadable file", "path", rel, "error", err)
			results = append(results, FileReport{Path: rel, Err: err})
			continue
		}
		results = append(results, FileReport{Path: rel, Report: s.engine.Analyze(unit)})
	}

	s.logger.Debug("Directory analyzed", "root", dir.Root(), "files", len(results))
	return results, nil
}

func (s *Service) language(name string) source.Language {
	if name == "" {
		return s.defaultLanguage
	}
	return source.ParseLanguage(name)
}
