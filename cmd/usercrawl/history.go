package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/usercrawl/internal/config"
	"github.com/nao1215/usercrawl/internal/database"
	"github.com/nao1215/usercrawl/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-url]",
		Short: "Show archived crawl runs",
		Long: `History lists the runs archived by 'usercrawl crawl --save'.

Without arguments every run is listed, newest first. With a seed URL only
that seed's runs are listed. --id prints the full report of one run.

Examples:
  # List the latest runs
  usercrawl history

  # List the runs of one user
  usercrawl history https://old.reddit.com/user/someone

  # Show run 12 as Markdown
  usercrawl history --id 12 --markdown

  # List every seed in the archive
  usercrawl history --seeds`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the results database")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Int64P("id", "i", 0,
		"Print the report of the run with this ID")
	cmd.Flags().BoolP("seeds", "S", false,
		"List every archived seed")
	cmd.Flags().BoolP("json", "j", false,
		"Output the run report in JSON (with --id)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the run report in Markdown (with --id)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	listSeeds, err := flags.GetBool("seeds")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case listSeeds:
		return listArchivedSeeds(ctx, out, db)
	case id > 0:
		cfg := &config.Config{JSONReport: jsonOutput, MarkdownReport: markdownOutput}
		return showRun(ctx, db, id, newReportWriter(cfg, out))
	default:
		seed := ""
		if len(args) > 0 {
			seed = args[0]
		}
		return listRuns(ctx, out, db, seed, limit)
	}
}

// listArchivedSeeds prints every seed with at least one archived run.
func listArchivedSeeds(ctx context.Context, out io.Writer, db *database.ResultDB) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seeds: %w", err)
	}

	if len(seeds) == 0 {
		fmt.Fprintln(out, "No runs archived yet.")
		fmt.Fprintln(out, "\nUse 'usercrawl crawl <seed-url>' to crawl a user.")
		return nil
	}

	fmt.Fprintf(out, "Archived seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Fprintf(out, "  • %s\n", seed)
	}
	fmt.Fprintln(out, "\nUse 'usercrawl history <seed-url>' to see the runs of a seed.")
	return nil
}

// listRuns prints a table of archived runs.
func listRuns(ctx context.Context, out io.Writer, db *database.ResultDB, seed string, limit int) error {
	runs, err := db.ListRuns(ctx, seed, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if seed != "" {
			fmt.Fprintf(out, "No runs archived for %s\n", seed)
		} else {
			fmt.Fprintln(out, "No runs archived yet.")
		}
		return nil
	}

	fmt.Fprintf(out, "  %-6s  %-20s  %-7s  %7s  %7s  %s\n", "ID", "Started", "Status", "Crawled", "Results", "Seed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-7s  %7d  %7d  %s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.Crawled,
			run.Results,
			run.Seed,
		)
	}
	fmt.Fprintln(out, "\nUse 'usercrawl history --id <ID>' to see the full report of a run.")
	return nil
}

// errRunNotFound is returned when --id names a run that is not archived.
var errRunNotFound = errors.New("run not found")

// showRun renders the archived run id.
func showRun(ctx context.Context, db *database.ResultDB, id int64, w report.Writer) error {
	summary, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", id, err)
	}
	if summary == nil {
		return fmt.Errorf("%w: %d", errRunNotFound, id)
	}
	if _, err := w.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
