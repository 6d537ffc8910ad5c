package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/report"
)

// NewQueryCmd creates the query command.
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [word]...",
		Short: "Query all tiles for a word and print a report",
		Long: `Query sends the words to all configured tiles, waits until every tile
finished and prints a report. Several words form a single multi-word
query (up to maxQueryWords of wdglance.json).

Examples:
  # Query a single word
  wdglance query house

  # Compare two words
  wdglance query house home

  # Output JSON report
  wdglance query --json house

  # Run one query per line of a file, four at a time
  wdglance query --batch words.txt --concurrency 4 --markdown -o report.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runQueryCmd,
	}

	cmd.Flags().StringP("lang", "l", "", "Query language (overrides queryLang of conf.json)")
	cmd.Flags().String("ui-lang", "", "User interface language for number formatting")
	cmd.Flags().DurationP("timeout", "t", config.DefaultQueryTimeout, "Timeout of a whole query")

	// Batch flags
	cmd.Flags().StringP("batch", "b", "",
		"File with one query per line, words separated by commas (\"-\" reads stdin)")
	cmd.Flags().Int("concurrency", config.DefaultBatchSize, "Number of batch queries running at once")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runQueryCmd executes the query command.
func runQueryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyQueryFlags(cmd, cfg, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if len(cfg.Words) == 0 && cfg.BatchFile == "" {
		return errors.New("no words provided (specify words as arguments or use --batch)")
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.BatchFile != "" {
		return runBatchQuery(ctx, cmd, a)
	}
	return runSingleQuery(ctx, cmd, a)
}

// applyQueryFlags copies the query command flags into cfg.
func applyQueryFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	flags := cmd.Flags()
	var err error
	if cfg.Lang, err = flags.GetString("lang"); err != nil {
		return err
	}
	if cfg.UILang, err = flags.GetString("ui-lang"); err != nil {
		return err
	}
	if cfg.QueryTimeout, err = flags.GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.BatchFile, err = flags.GetString("batch"); err != nil {
		return err
	}
	if cfg.BatchSize, err = flags.GetInt("concurrency"); err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	cfg.Words = args
	return nil
}

// runSingleQuery runs one query and writes its report. Failed tiles are
// part of the report, only a query which could not run is an error.
func runSingleQuery(ctx context.Context, cmd *cobra.Command, a *app) error {
	d, err := a.newDashboard()
	if err != nil {
		return err
	}
	defer d.Close()

	a.logger.Info("starting query", "words", a.cfg.Words, "lang", a.queryLang())
	res, err := d.Query(ctx, dashboard.Request{
		Words:  a.cfg.Words,
		UILang: a.cfg.UILang,
	})
	if res == nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if err != nil {
		a.logger.Warn("query did not finish", "error", err)
	}

	return withReportWriter(cmd.OutOrStdout(), a.cfg, func(w report.Writer) error {
		_, werr := w.Write(res)
		return werr
	})
}

// runBatchQuery runs the queries of the batch file concurrently and
// writes a single report.
func runBatchQuery(ctx context.Context, cmd *cobra.Command, a *app) error {
	reqs, err := readBatchFile(cmd.InOrStdin(), a.cfg.BatchFile)
	if err != nil {
		return err
	}
	for i := range reqs {
		reqs[i].UILang = a.cfg.UILang
	}

	bp := dashboard.NewBatchProcessor(a.newDashboard,
		dashboard.WithConcurrency(a.cfg.BatchSize),
		dashboard.WithBatchLogger(a.logger),
	)
	results, err := bp.ProcessBatch(ctx, reqs)
	if err != nil {
		return err
	}
	logBatchErrors(a.logger, results)

	return withReportWriter(cmd.OutOrStdout(), a.cfg, func(w report.Writer) error {
		_, werr := w.WriteBatch(results)
		return werr
	})
}

func logBatchErrors(logger *slog.Logger, results []dashboard.BatchResult) {
	for _, r := range results {
		if r.Err != nil {
			logger.Error("query failed", "words", r.Request.Words, "error", r.Err)
		}
	}
}

// readBatchFile parses one query per line. Words of a multi-word query
// are separated by commas; empty lines and lines starting with # are
// skipped.
func readBatchFile(stdin io.Reader, path string) ([]dashboard.Request, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // User-provided batch file path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var reqs []dashboard.Request
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var words []string
		for _, w := range strings.Split(line, ",") {
			if w = strings.TrimSpace(w); w != "" {
				words = append(words, w)
			}
		}
		if len(words) > 0 {
			reqs = append(reqs, dashboard.Request{Words: words})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	if len(reqs) == 0 {
		return nil, errors.New("batch file contains no queries")
	}
	return reqs, nil
}

// newReportWriter returns the writer for the requested report format.
func newReportWriter(out io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// withReportWriter opens the report destination (stdout or the report
// file) and calls fn with a writer of the requested format.
func withReportWriter(stdout io.Writer, cfg *config.Config, fn func(report.Writer) error) error {
	if cfg.ReportFile == "" {
		return fn(newReportWriter(stdout, cfg))
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(newReportWriter(f, cfg)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
