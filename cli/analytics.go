package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"recruit-assistant/analytics"

	"github.com/spf13/cobra"
)

var (
	listCategories []string
	listLimit      int
	listJSON       bool
	clearForce     bool
	purgeOnly      bool
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Inspect or reset recorded questions",
}

var analyticsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Summarize recorded questions",
	Long: `Summarize the questions recorded in the configured analytics backend.

Examples:
  recruit-assistant analytics list
  recruit-assistant analytics list --category Benefits --limit 50
  recruit-assistant analytics list --json`,
	Args: cobra.NoArgs,
	RunE: runAnalyticsList,
}

var analyticsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete recorded questions",
	Long: `Delete every recorded question, or with --expired only those older
than ANALYTICS_RETENTION_DAYS. Requires confirmation unless --force is used.`,
	Args: cobra.NoArgs,
	RunE: runAnalyticsClear,
}

func init() {
	analyticsListCmd.Flags().StringSliceVarP(&listCategories, "category", "c", nil, "only include these categories")
	analyticsListCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "only consider the newest N questions")
	analyticsListCmd.Flags().BoolVar(&listJSON, "json", false, "print the summary as JSON")

	analyticsClearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation")
	analyticsClearCmd.Flags().BoolVar(&purgeOnly, "expired", false, "only delete questions past retention")

	analyticsCmd.AddCommand(analyticsListCmd)
	analyticsCmd.AddCommand(analyticsClearCmd)
}

func runAnalyticsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open analytics store: %w", err)
	}
	defer store.Close()

	events, err := store.List(ctx, analytics.ListFilter{
		Categories: listCategories,
		Since:      time.Now().Add(-cfg.AnalyticsRetention()),
		Limit:      listLimit,
	})
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	summary := analytics.Summarize(events, 0)

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(out, "Total questions: %d (%d unique)\n\n", summary.TotalQuestions, summary.UniqueQuestions)
	if summary.TotalQuestions == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tCOUNT")
	for _, c := range summary.Categories {
		fmt.Fprintf(w, "%s %s\t%d\n", c.Icon, c.Category, c.Count)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TOP QUESTIONS\tCOUNT")
	for _, q := range summary.TopQuestions {
		fmt.Fprintf(w, "%s\t%d\n", q.Question, q.Count)
	}
	return w.Flush()
}

func runAnalyticsClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open analytics store: %w", err)
	}
	defer store.Close()

	if !clearForce {
		what := "ALL recorded questions"
		if purgeOnly {
			what = "questions older than the retention window"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "About to delete %s from the %s backend.\nContinue? [y/N]: ", what, cfg.AnalyticsBackend)

		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	var deleted int64
	if purgeOnly {
		deleted, err = store.PurgeExpired(ctx, time.Now().Add(-cfg.AnalyticsRetention()))
	} else {
		deleted, err = store.Clear(ctx)
	}
	if err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d questions.\n", deleted)
	return nil
}
