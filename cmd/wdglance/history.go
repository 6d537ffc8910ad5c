package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/database"
)

const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List logged queries and show their results",
		Long: `History lists the queries stored in the query log, newest first.
Every query run by 'wdglance query' or the server is logged together
with its result.

Examples:
  # List the latest queries
  wdglance history

  # List the latest queries of "house"
  wdglance history house

  # Show the stored result of a logged query
  wdglance history --id 12

  # Show it as Markdown
  wdglance history --id 12 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of listed queries")
	cmd.Flags().Int64P("id", "i", 0, "Show the result of the logged query with this id")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error
	if dir, _ := flags.GetString("db-dir"); dir != "" {
		cfg.DBDir = dir
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return errors.New("no queries logged yet (run 'wdglance query' first)")
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if id > 0 {
		rec, err := db.GetQueryRecord(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no logged query with id %d", id)
		}
		return showQueryRecord(cmd.OutOrStdout(), cfg, rec)
	}

	var query string
	if len(args) > 0 {
		query = args[0]
	}
	recs, err := db.RecentQueries(ctx, query, limit)
	if err != nil {
		return err
	}
	return listQueryRecords(cmd.OutOrStdout(), recs)
}

// listQueryRecords prints the logged queries, one per line.
func listQueryRecords(out io.Writer, recs []database.QueryRecord) error {
	if len(recs) == 0 {
		fmt.Fprintln(out, "No queries found.")
		fmt.Fprintln(out, "\nUse 'wdglance query <word>' to run a query.")
		return nil
	}

	fmt.Fprintf(out, "Query history (%d queries):\n\n", len(recs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-24s  %-5s  %-8s  %s\n", "ID", "Date", "Query", "Lang", "Errors", "Duration")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))
	for _, r := range recs {
		lang := r.Lang
		if lang == "" {
			lang = "-"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-24s  %-5s  %-8s  %s\n",
			r.ID,
			r.Timestamp.Local().Format(time.DateTime),
			truncate(r.Query, 24),
			lang,
			fmt.Sprintf("%d/%d", r.NumErrors, r.NumTiles),
			r.Duration,
		)
	}

	fmt.Fprintln(out, "\nUse 'wdglance history --id <id>' to show the result of a query.")
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// showQueryRecord writes the stored result of a logged query.
func showQueryRecord(out io.Writer, cfg *config.Config, rec *database.QueryRecord) error {
	if len(rec.ResultJSON) == 0 {
		return fmt.Errorf("logged query %d has no stored result", rec.ID)
	}
	var res dashboard.Result
	if err := json.Unmarshal(rec.ResultJSON, &res); err != nil {
		return fmt.Errorf("failed to decode stored result: %w", err)
	}
	_, err := newReportWriter(out, cfg).Write(&res)
	return err
}
