package cli

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ishaan812/fixmine/internal/pipeline"
)

var (
	runYes          bool
	runSkipDiscover bool
	runSkipClone    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline",
	Long: `Run discover, clone, classify, extract and build in order. Each stage
finishes completely before the next one starts; a failing stage stops the run.

Examples:
  fixmine run                               # Confirm, then run every stage
  fixmine run --yes                         # No confirmation prompt
  fixmine run --skip-discover --skip-clone  # Re-mine repositories already on disk`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Skip confirmation prompt")
	runCmd.Flags().BoolVar(&runSkipDiscover, "skip-discover", false, "Reuse the existing repository selection")
	runCmd.Flags().BoolVar(&runSkipClone, "skip-clone", false, "Use repositories already in the repos directory")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if !runSkipDiscover {
		if err := cfg.ValidateSearch(); err != nil {
			return err
		}
	}

	p := pipeline.New(cfg, logger)
	stages := p.Stages(runSkipDiscover, runSkipClone)

	fmt.Println()
	titleColor.Printf("  Bug-Fix Mining Pipeline\n\n")
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	dimColor.Printf("  Stages:    %s\n", strings.Join(names, " → "))
	if !runSkipDiscover {
		dimColor.Printf("  Search:    %s, %d+ stars, top %d (token %s)\n",
			cfg.Search.Language, cfg.Search.MinStars, cfg.Search.MaxRepos, cfg.MaskedToken())
	}
	dimColor.Printf("  Mining:    %d commits per repo, %s files\n", cfg.Mining.MaxCommits, strings.Join(cfg.Mining.Extensions, ", "))
	dimColor.Printf("  Data dir:  %s\n", displayPath(cfg.Paths.DataDir))
	fmt.Println()

	if !runYes {
		prompt := promptui.Prompt{Label: "Proceed", IsConfirm: true}
		if _, err := prompt.Run(); err != nil {
			dimColor.Println("  Canceled.")
			if !isTerminal() {
				dimColor.Println("  Use --yes to run without a terminal.")
			}
			fmt.Println()
			return nil
		}
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	rec := openRecorder(ctx, "run")
	defer rec.Close()

	var last pipeline.Result
	for i, stage := range stages {
		res, err := runStage(ctx, rec, p, stage)
		if err != nil {
			fmt.Println()
			return fmt.Errorf("stage %d/%d (%s) failed: %w", i+1, len(stages), stage.Name, err)
		}
		last = res
	}

	fmt.Println()
	successColor.Printf("  Pipeline complete!\n\n")
	if last.Stats != nil {
		dimColor.Printf("  %d training examples in %s\n", last.Stats.Total, displayPath(p.Paths().ProcessedDir))
	}
	dimColor.Println("  Use 'fixmine report' to review past runs")
	fmt.Println()
	return nil
}
