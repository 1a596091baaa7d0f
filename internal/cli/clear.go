package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fixmine/internal/artifact"
)

var (
	clearForce  bool
	clearRepos  bool
	clearLedger bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete generated artifacts",
	Long: `Delete the files produced by the pipeline stages in the data directory.

Cloned repositories and the run ledger are kept unless asked for.
Use with caution - this action cannot be undone.

Examples:
  fixmine clear                 # Remove stage outputs (with confirmation)
  fixmine clear --force         # Skip confirmation
  fixmine clear --repos         # Also remove cloned repositories
  fixmine clear --ledger        # Also remove the run ledger`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip confirmation prompt")
	clearCmd.Flags().BoolVar(&clearRepos, "repos", false, "Also remove cloned repositories")
	clearCmd.Flags().BoolVar(&clearLedger, "ledger", false, "Also remove the run ledger")
}

// clearTargets lists the existing paths the current flags select for removal.
func clearTargets(paths artifact.Paths, repos, ledger bool) []string {
	candidates := []string{paths.Selected, paths.Acquired, paths.Commits, paths.Pairs, paths.ProcessedDir}
	if repos {
		candidates = append(candidates, paths.ReposDir)
	}
	if ledger {
		candidates = append(candidates, paths.Ledger, paths.Ledger+".wal")
	}

	var existing []string
	for _, p := range candidates {
		if artifact.Exists(p) {
			existing = append(existing, p)
		}
	}
	return existing
}

func runClear(cmd *cobra.Command, args []string) error {
	targets := clearTargets(artifact.PathsFor(cfg.Paths.DataDir), clearRepos, clearLedger)

	fmt.Println()
	warnColor.Printf("  Warning: Clear Artifacts\n\n")
	dimColor.Printf("  Data dir: %s\n\n", displayPath(cfg.Paths.DataDir))

	if len(targets) == 0 {
		dimColor.Println("  Nothing to clear.")
		fmt.Println()
		return nil
	}

	dimColor.Println("  This will delete:")
	for _, t := range targets {
		fmt.Printf("    %s\n", displayPath(t))
	}
	fmt.Println()

	if !clearForce {
		warnColor.Print("  Are you sure? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println()
			dimColor.Println("  Canceled.")
			fmt.Println()
			return nil
		}
	}

	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			return fmt.Errorf("failed to remove %s: %w", t, err)
		}
		VerboseLog("Removed %s", t)
	}

	fmt.Println()
	successColor.Printf("  Cleared %d item(s)\n", len(targets))
	fmt.Println()
	return nil
}
