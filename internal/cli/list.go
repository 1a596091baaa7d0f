package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fixmine/internal/pipeline"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List acquired repositories",
	Long: `List the repositories the classifier will scan, in scan order.

The order comes from the acquisition manifest written by 'fixmine clone';
without it, every git checkout in the repos directory is listed by name.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	p := pipeline.New(cfg, logger)
	repos, err := p.Repositories()
	if err != nil {
		return err
	}

	fmt.Println()
	titleColor.Printf("  Repositories\n")
	dimColor.Printf("  %s\n\n", displayPath(p.Paths().ReposDir))

	if len(repos) == 0 {
		dimColor.Println("  (none)")
	}
	for i, r := range repos {
		name := r.FullName
		if name == "" {
			name = r.Name
		}
		infoColor.Printf("  [%d] %s", i+1, name)
		if r.Stars > 0 {
			dimColor.Printf(" - %d stars", r.Stars)
		}
		fmt.Println()
		dimColor.Printf("      %s\n", displayPath(r.Path))
	}

	fmt.Println()
	return nil
}
