package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fixmine/internal/artifact"
	"github.com/ishaan812/fixmine/internal/github"
	"github.com/ishaan812/fixmine/internal/miner"
	"github.com/ishaan812/fixmine/internal/pipeline"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search GitHub for candidate repositories",
	Long: `Search GitHub for repositories in the configured language with at least
search.min_stars stars, ranked by stars, and save the top search.max_repos.

Requires a GitHub token in GITHUB_TOKEN or search.github_token.

Examples:
  fixmine discover
  FIXMINE_SEARCH__MAX_REPOS=25 fixmine discover`,
	RunE: stageCommand(pipeline.StageDiscover),
}

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone the discovered repositories",
	Long: `Clone every repository listed by 'fixmine discover' into the repos directory,
keeping at most mining.max_commits commits of history. Existing clones are reused.`,
	RunE: stageCommand(pipeline.StageAcquire),
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Find bug-fix commits in the cloned repositories",
	Long: `Walk the most recent mining.max_commits commits of every cloned repository and
keep the commits whose message contains a bug-fix keyword and that change at
least one tracked source file.`,
	RunE: stageCommand(pipeline.StageClassify),
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract before/after code for each bug-fix commit",
	Long: `For every changed file of every bug-fix commit, read the file as it was in the
parent commit and as it is in the fix, and keep the pair when both sides fall
inside the [extract.min_lines, extract.max_lines] window.`,
	RunE: stageCommand(pipeline.StageExtract),
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Clean, filter and split the extracted pairs",
	Long: `Clean every extracted pair, drop pairs below dataset.min_chars characters,
shuffle with dataset.seed and split into train, validation and test files.`,
	RunE: stageCommand(pipeline.StageBuild),
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(buildCmd)
}

// signalContext is cancelled on interrupt. A cancelled stage returns before
// writing its output file.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func stageCommand(name string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		rec := openRecorder(ctx, cmd.Name())
		defer rec.Close()

		p := pipeline.New(cfg, logger)
		for _, stage := range p.Stages(false, false) {
			if stage.Name == name {
				_, err := runStage(ctx, rec, p, stage)
				fmt.Println()
				return err
			}
		}
		return fmt.Errorf("unknown stage %q", name)
	}
}

// runStage prints the header, wires live progress into the pipeline hooks,
// runs the stage through the recorder and prints its summary.
func runStage(ctx context.Context, rec *recorder, p *pipeline.Pipeline, stage pipeline.Stage) (pipeline.Result, error) {
	printStageHeader(stage.Name)

	st := newStatus(stageStartMessage(stage.Name))
	p.Hooks = pipeline.Hooks{
		OnClone: func(index, total int, name string, cloned bool, err error) {
			switch {
			case err != nil:
				st.Println(errorColor, "[%d/%d] %s failed: %v", index, total, name, err)
			case cloned:
				st.Println(successColor, "[%d/%d] %s cloned", index, total, name)
			default:
				st.Println(dimColor, "[%d/%d] %s already present", index, total, name)
			}
		},
		OnRepo: func(index, total int, name string, s miner.Summary) {
			st.Println(infoColor, "[%d/%d] %s: %d commits scanned, %d bug fixes", index, total, name, s.Input, s.Output)
		},
		OnProgress: func(pr miner.Progress) {
			st.Update(fmt.Sprintf("Processed %d/%d commits, %d pairs extracted", pr.Processed, pr.Total, pr.Extracted))
		},
	}

	start := time.Now()
	res, err := rec.run(ctx, stage)
	st.Stop()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			warnColor.Printf("  Interrupted, %s output not written\n", stage.Name)
		}
		return res, err
	}

	if stage.Name == pipeline.StageDiscover {
		printSelection(p.Paths().Selected)
	}
	printResult(res)
	dimColor.Printf("    Took %s\n", formatDuration(time.Since(start)))
	return res, nil
}

func stageStartMessage(name string) string {
	switch name {
	case pipeline.StageDiscover:
		return fmt.Sprintf("Searching %s repositories with %d+ stars...", cfg.Search.Language, cfg.Search.MinStars)
	case pipeline.StageAcquire:
		return "Cloning repositories..."
	case pipeline.StageClassify:
		return "Scanning commit history..."
	case pipeline.StageExtract:
		return "Extracting code pairs..."
	default:
		return "Building dataset..."
	}
}

func printSelection(path string) {
	var repos []github.RepositoryDescriptor
	if err := artifact.Read(path, &repos); err != nil {
		VerboseLog("failed to read selection: %v", err)
		return
	}
	for i, r := range repos {
		infoColor.Printf("  [%d] %s", i+1, r.FullName)
		dimColor.Printf(" - %d stars\n", r.Stars)
	}
}
