package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/codeguardian/analysis"
	"github.com/c360studio/codeguardian/config"
	"github.com/c360studio/codeguardian/ingest"
	"github.com/c360studio/codeguardian/report"
	"github.com/c360studio/codeguardian/source"
)

// errFindings is returned when --fail-on is set and a finding reaches it.
var errFindings = errors.New("findings at or above the --fail-on severity")

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	format     string
	color      string
	parallel   bool
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Static code analysis with issues and suggestions",
		Long: `CodeGuardian analyzes source code and reports what it finds.

Each analysis produces a summary, a list of issues with location and
severity, and a list of suggestions. Input can be pasted text, a file,
standard input, or a whole directory tree, which can also be watched
for changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML or TOML)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVarP(&opts.format, "format", "f", formatText, "Output format (text, json, yaml)")
	pf.StringVar(&opts.color, "color", "auto", "Colorize text output (auto, always, never)")
	pf.BoolVar(&opts.parallel, "parallel", false, "Evaluate rules concurrently")

	cmd.AddCommand(
		analyzeCmd(opts),
		repoCmd(opts),
		scanCmd(opts),
		watchCmd(opts),
		rulesCmd(opts),
		configCmd(opts),
		versionCmd(),
	)

	return cmd
}

// loadConfig applies the layered config files, then flag overrides.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader(newLogger(cmd.ErrOrStderr(), o.logLevel))
	cfg, err := loader.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.parallel {
		cfg.Analysis.Parallel = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup builds the App and the output printer for a subcommand.
func (o *options) setup(cmd *cobra.Command) (*App, *printer, error) {
	p, err := newPrinter(cmd.OutOrStdout(), o.format, o.color)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	app, err := NewApp(cfg, newLogger(cmd.ErrOrStderr(), cfg.Log.Level))
	if err != nil {
		return nil, nil, err
	}
	return app, p, nil
}

func analyzeCmd(opts *options) *cobra.Command {
	var (
		text     string
		file     string
		language string
		failOn   string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file | -]",
		Short: "Analyze a file, pasted text, or standard input",
		Long: `Analyze a single piece of source code.

The input is, in order of preference: --text, --file or the file
argument, or standard input when the argument is "-". The language of
a file is taken from its extension; --language applies to text and
standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := parseFailOn(failOn)
			if err != nil {
				return err
			}

			app, p, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			if file == "" && len(args) == 1 && args[0] != "-" {
				file = args[0]
			}

			var r *report.AnalysisReport
			switch {
			case cmd.Flags().Changed("text"):
				r = app.service.AnalyzeCodeText(text, language)
			case file != "":
				r, err = app.service.AnalyzeFile(file)
				if err != nil {
					return err
				}
			case len(args) == 1:
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read standard input: %w", err)
				}
				r = app.service.AnalyzeCodeText(source.Decode(raw), language)
			default:
				return fmt.Errorf("%w: pass a file, --text, or - for standard input", analysis.ErrInput)
			}

			if err := p.Report(r); err != nil {
				return err
			}
			if threshold != "" && r.HasSeverity(threshold) {
				return errFindings
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Source text to analyze")
	cmd.Flags().StringVar(&file, "file", "", "File to analyze")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language of text input (default from config)")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Exit non-zero when a finding reaches this severity (low, medium, high)")

	return cmd
}

func repoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repo <reference>",
		Short: "Analyze a repository by reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return p.Report(app.service.AnalyzeRepo(args[0]))
		},
	}
}

func scanCmd(opts *options) *cobra.Command {
	var failOn string

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Analyze every source file below a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := parseFailOn(failOn)
			if err != nil {
				return err
			}

			app, p, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			root, err := rootArg(args)
			if err != nil {
				return err
			}

			results, err := app.service.AnalyzeDir(cmd.Context(), app.directoryConfig(root))
			if err != nil {
				return err
			}
			if err := p.Files(results); err != nil {
				return err
			}

			if threshold != "" {
				for _, res := range results {
					if res.Report != nil && res.Report.HasSeverity(threshold) {
						return errFindings
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&failOn, "fail-on", "", "Exit non-zero when a finding reaches this severity (low, medium, high)")

	return cmd
}

func watchCmd(opts *options) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-analyze source files below a directory as they change",
		Long: `Watch a directory tree and print a fresh report for each file whose
content changes. Every selected file is reported once at startup.
With --metrics (or metrics.listen in the config) rule and report
metrics are served on /metrics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			root, err := rootArg(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if metricsAddr == "" {
				metricsAddr = app.cfg.Metrics.Listen
			}
			if metricsAddr != "" {
				if _, err := app.ServeMetrics(ctx, metricsAddr); err != nil {
					return err
				}
			}

			return runWatch(ctx, app, p, root)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")

	return cmd
}

// runWatch prints a report for every watch event until ctx is done.
func runWatch(ctx context.Context, app *App, p *printer, root string) error {
	dir, err := ingest.NewDirectory(app.directoryConfig(root))
	if err != nil {
		return err
	}

	w, err := ingest.NewWatcher(ingest.WatcherConfig{
		Directory:     dir,
		DebounceDelay: app.cfg.Ingest.WatchDebounce,
		Logger:        app.logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			app.logger.Info("Watch stopped")
			return nil
		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			if event.Operation == ingest.OpDelete {
				app.logger.Info("File removed", "path", event.Path)
				continue
			}

			res := analysis.FileReport{Path: event.Path, Err: event.Err}
			if event.Err == nil {
				res.Report = app.service.Engine().Analyze(event.Unit)
			}
			if p.format == formatYAML {
				if _, err := fmt.Fprintln(p.w, "---"); err != nil {
					return err
				}
			}
			if err := p.File(res); err != nil {
				return err
			}
		}
	}
}

// ruleEntry describes one rule or heuristic in json and yaml output.
type ruleEntry struct {
	ID        string   `json:"id" yaml:"id"`
	Kind      string   `json:"kind" yaml:"kind"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Severity  string   `json:"severity,omitempty" yaml:"severity,omitempty"`
	Languages []string `json:"languages" yaml:"languages"`
}

func rulesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the active rules and suggestion heuristics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, p, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			return writeRules(p, ruleEntries(app))
		},
	}
}

func ruleEntries(app *App) []ruleEntry {
	set := app.Rules()
	var entries []ruleEntry
	for _, r := range set.Rules() {
		entries = append(entries, ruleEntry{
			ID:        r.ID(),
			Kind:      "rule",
			Title:     r.Title(),
			Severity:  string(r.Severity()),
			Languages: languageNames(r.Languages()),
		})
	}
	for _, h := range set.Heuristics() {
		var langs []string
		for _, lang := range source.Languages() {
			if h.AppliesTo(lang) {
				langs = append(langs, string(lang))
			}
		}
		entries = append(entries, ruleEntry{ID: h.ID(), Kind: "heuristic", Languages: langs})
	}
	return entries
}

func languageNames(langs []source.Language) []string {
	names := make([]string, 0, len(langs))
	for _, lang := range langs {
		names = append(names, string(lang))
	}
	return names
}

func writeRules(p *printer, entries []ruleEntry) error {
	switch p.format {
	case formatJSON:
		return p.json(entries)
	case formatYAML:
		return p.yaml(entries)
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSEVERITY\tLANGUAGES\tTITLE")
	for _, e := range entries {
		langs := strings.Join(e.Languages, ",")
		if e.Kind == "rule" && langs == "" {
			langs = "all"
		}
		severity := e.Severity
		if severity == "" {
			severity = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Kind, severity, langs, e.Title)
	}
	return tw.Flush()
}

func configCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default user configuration if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(newLogger(cmd.ErrOrStderr(), opts.logLevel)).EnsureUserConfig()
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

// rootArg returns the directory argument of scan and watch (default ".").
func rootArg(args []string) (string, error) {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	if !ingest.IsDir(root) {
		return "", fmt.Errorf("%s is not a directory", root)
	}
	return root, nil
}

func parseFailOn(s string) (report.Severity, error) {
	if s == "" {
		return "", nil
	}
	return report.ParseSeverity(s)
}
