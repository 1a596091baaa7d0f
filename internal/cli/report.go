package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fixmine/internal/artifact"
	"github.com/ishaan812/fixmine/internal/dataset"
	"github.com/ishaan812/fixmine/internal/db"
)

var (
	reportLimit int
	reportSkips bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show recent stage runs",
	Long: `Show the most recent stage runs recorded in the run ledger, newest first,
with their input and output counts, and the current dataset split.

Examples:
  fixmine report             # Last 20 stage runs
  fixmine report --limit 5   # Last 5 stage runs
  fixmine report --skips     # Include skip reasons per stage`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 20, "Number of stage runs to show")
	reportCmd.Flags().BoolVar(&reportSkips, "skips", false, "Show skip reasons for each stage run")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	paths := artifact.PathsFor(cfg.Paths.DataDir)

	if !artifact.Exists(paths.Ledger) {
		fmt.Println("\n  No runs recorded yet. Run 'fixmine run' first.")
		fmt.Println()
		return nil
	}

	ledger, err := db.Open(paths.Ledger)
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer ledger.Close()

	stages, err := ledger.RecentStages(ctx, reportLimit)
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Printf("  Recent Stage Runs\n\n")

	if len(stages) == 0 {
		dimColor.Println("  (none)")
	}
	for _, s := range stages {
		statusColor := successColor
		switch s.Status {
		case db.StatusFailed:
			statusColor = errorColor
		case db.StatusCancelled, db.StatusRunning:
			statusColor = warnColor
		}

		dimColor.Printf("  %s  ", s.StartedAt.Local().Format("2006-01-02 15:04:05"))
		infoColor.Printf("%-9s ", s.Stage)
		statusColor.Printf("%-9s ", s.Status)
		fmt.Printf("in %-6d out %-6d skipped %-6d", s.Input, s.Output, s.Skipped)
		if d := s.Duration(); d > 0 {
			dimColor.Printf(" %s", formatDuration(d))
		}
		fmt.Println()

		if s.Error != "" {
			errorColor.Printf("      %s\n", s.Error)
		}
		if reportSkips && s.Skipped > 0 {
			counts, err := ledger.SkipTotals(ctx, s.ID)
			if err != nil {
				VerboseLog("failed to load skips for %s: %v", s.ID, err)
				continue
			}
			for _, c := range counts {
				dimColor.Printf("      %-22s %d\n", c.Reason, c.Count)
			}
		}
	}

	if stats, err := dataset.LoadStats(paths.ProcessedDir); err == nil {
		fmt.Println()
		titleColor.Printf("  Current Dataset\n\n")
		fmt.Printf("    Total:       %d\n", stats.Total)
		fmt.Printf("    Train:       %d\n", stats.Train)
		fmt.Printf("    Validation:  %d\n", stats.Validation)
		fmt.Printf("    Test:        %d\n", stats.Test)
		dimColor.Printf("    Seed %d, ratios %.2f/%.2f/%.2f\n", stats.Seed, stats.TrainRatio, stats.ValRatio, stats.TestRatio)
	}

	fmt.Println()
	return nil
}
