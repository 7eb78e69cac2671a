package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/optovka/internal/database"
	"github.com/nao1215/optovka/internal/model"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past crawl runs",
		Long: `History lists stored crawl runs, most recent first, with what each run
created and how many branches it abandoned.

Examples:
  optovka history
  optovka history --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}
	cmd.Flags().IntP("limit", "l", 10, "Number of runs to show")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return withStore(cmd, func(ctx context.Context, store *database.Store, out io.Writer, asJSON bool) error {
		runs, err := store.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if asJSON {
			summaries := make([]*model.CrawlSummary, 0, len(runs))
			for _, r := range runs {
				summaries = append(summaries, r.Summary)
			}
			return writeJSON(out, summaries)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No crawl runs recorded.")
			fmt.Fprintln(out, "\nUse 'optovka crawl' to run one.")
			return nil
		}

		fmt.Fprintf(out, "Crawl history (%d runs):\n\n", len(runs))
		fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %-6s  %-10s  %s\n", "Run ID", "Started", "Duration", "Pages", "Status", "Created")
		rule(out, 110)
		for _, r := range runs {
			s := r.Summary
			fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %-6d  %-10s  %s\n",
				r.RunID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
				s.PagesFetched,
				runStatus(s),
				formatCreated(s),
			)
		}
		return nil
	})
}

func runStatus(s *model.CrawlSummary) string {
	switch {
	case s.Cancelled:
		return "cancelled"
	case len(s.Abandoned) > 0:
		return fmt.Sprintf("partial/%d", len(s.Abandoned))
	default:
		return "complete"
	}
}

// formatCreated renders created counts as "C:1 S:2 SP:3 P:4".
func formatCreated(s *model.CrawlSummary) string {
	abbrev := map[model.EntityKind]string{
		model.KindCategory:    "C",
		model.KindSubcategory: "S",
		model.KindSupplier:    "SP",
		model.KindProduct:     "P",
	}
	var parts []string
	for _, kind := range model.EntityKinds {
		if n := s.Entities[kind].Created; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", abbrev[kind], n))
		}
	}
	if len(parts) == 0 {
		return "nothing new"
	}
	return strings.Join(parts, " ")
}
