package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/codeguardian/analysis"
	"github.com/c360studio/codeguardian/report"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// printer renders reports in the selected output format.
type printer struct {
	w      io.Writer
	format string
	color  bool
}

// newPrinter validates format and the color mode (auto, always, never).
func newPrinter(w io.Writer, format, colorMode string) (*printer, error) {
	format = strings.ToLower(format)
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	p := &printer{w: w, format: format}
	switch strings.ToLower(colorMode) {
	case "always":
		p.color = true
	case "never":
	case "", "auto":
		_, isFile := w.(*os.File)
		p.color = isFile && !color.NoColor
	default:
		return nil, fmt.Errorf("unknown color mode %q (want auto, always or never)", colorMode)
	}
	return p, nil
}

// Report writes a single report.
func (p *printer) Report(r *report.AnalysisReport) error {
	switch p.format {
	case formatJSON:
		return p.json(r)
	case formatYAML:
		return p.yaml(r)
	default:
		return report.WriteText(p.w, r, report.TextOptions{Color: p.color})
	}
}

// fileEntry is one element of a directory result in json and yaml output.
type fileEntry struct {
	Path   string       `json:"path" yaml:"path"`
	Error  string       `json:"error,omitempty" yaml:"error,omitempty"`
	Report *report.Wire `json:"report,omitempty" yaml:"report,omitempty"`
}

// Files writes one report per file.
func (p *printer) Files(results []analysis.FileReport) error {
	if p.format == formatText {
		for i, res := range results {
			if i > 0 {
				if _, err := fmt.Fprintln(p.w); err != nil {
					return err
				}
			}
			if err := p.File(res); err != nil {
				return err
			}
		}
		return nil
	}

	entries := make([]fileEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, newFileEntry(res))
	}
	if p.format == formatJSON {
		return p.json(entries)
	}
	return p.yaml(entries)
}

// File writes a single file result. Text output carries a path header.
func (p *printer) File(res analysis.FileReport) error {
	if p.format != formatText {
		entry := newFileEntry(res)
		if p.format == formatJSON {
			return p.json(entry)
		}
		return p.yaml(entry)
	}

	header := color.New(color.Bold, color.FgCyan)
	if p.color {
		header.EnableColor()
	} else {
		header.DisableColor()
	}
	if _, err := fmt.Fprintln(p.w, header.Sprintf("== %s ==", res.Path)); err != nil {
		return err
	}
	if res.Err != nil {
		_, err := fmt.Fprintf(p.w, "error: %v\n", res.Err)
		return err
	}
	return report.WriteText(p.w, res.Report, report.TextOptions{Color: p.color})
}

func newFileEntry(res analysis.FileReport) fileEntry {
	entry := fileEntry{Path: res.Path}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	if res.Report != nil {
		wire := res.Report.Wire()
		entry.Report = &wire
	}
	return entry
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) yaml(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
