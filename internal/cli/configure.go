package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fixmine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the fixmine configuration",
	Long: `Create or inspect the configuration file.

Settings are read from defaults, then the config file, then FIXMINE_*
environment variables (sections separated by a double underscore).

Examples:
  fixmine config init                 # Write ./fixmine.toml
  fixmine config init ~/.fixmine.toml # Write to a specific path
  fixmine config show                 # Print the effective configuration`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultSearchPaths[0]
	if len(args) > 0 {
		path = args[0]
	}

	if err := config.InitConfig(path); err != nil {
		return err
	}

	fmt.Println()
	successColor.Printf("  Configuration written to %s\n", path)
	dimColor.Println("  Set GITHUB_TOKEN or search.github_token before running 'fixmine discover'")
	fmt.Println()
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	source := cfg.Source
	if source == "" {
		source = "(defaults)"
	}

	fmt.Println()
	titleColor.Printf("  fixmine Configuration\n")
	dimColor.Printf("  Source: %s\n\n", source)

	section := func(name string) {
		infoColor.Printf("  [%s]\n", name)
	}
	field := func(key string, value interface{}) {
		fmt.Printf("    %-16s ", key)
		dimColor.Printf("%v\n", value)
	}

	section("search")
	field("language", cfg.Search.Language)
	field("min_stars", cfg.Search.MinStars)
	field("max_repos", cfg.Search.MaxRepos)
	field("github_token", cfg.MaskedToken())
	if cfg.Search.APIURL != "" {
		field("api_url", cfg.Search.APIURL)
	}

	section("mining")
	field("keywords", strings.Join(cfg.Mining.Keywords, ", "))
	field("extensions", strings.Join(cfg.Mining.Extensions, ", "))
	field("max_commits", cfg.Mining.MaxCommits)

	section("extract")
	field("min_lines", cfg.Extract.MinLines)
	field("max_lines", cfg.Extract.MaxLines)
	field("max_blob_bytes", cfg.Extract.MaxBlobBytes)
	field("detect_charset", cfg.Extract.DetectCharset)
	field("progress_every", cfg.Extract.ProgressEvery)

	section("dataset")
	field("min_chars", cfg.Dataset.MinChars)
	field("seed", cfg.Dataset.Seed)
	field("train_percent", cfg.Dataset.TrainPercent)
	field("val_percent", cfg.Dataset.ValPercent)
	field("reject_lossy", cfg.Dataset.RejectLossy)

	section("paths")
	field("data_dir", cfg.Paths.DataDir)

	fmt.Println()
	return nil
}
