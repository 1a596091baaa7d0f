package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ishaan812/fixmine/internal/config"
	"github.com/ishaan812/fixmine/internal/logging"
)

var (
	configPath  string
	dataDirFlag string
	verbose     bool

	cfg    *config.Config
	logger = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "fixmine",
	Short: "fixmine - Mine bug-fix pairs from git history",
	Long: `fixmine builds a corpus of (buggy code, fixed code) pairs from the history
of popular repositories.

The pipeline runs in stages, each reading the previous stage's output file:
  discover   search GitHub for candidate repositories
  clone      make their history available locally
  classify   find bug-fix commits that touch tracked source files
  extract    pull the before/after content of every changed file
  build      clean, filter and split the pairs into train/validation/test

Use 'fixmine run' to run every stage in order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(os.Stderr, verbose)

		// config init must work without a valid config
		if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDirFlag != "" {
			loaded.Paths.DataDir = dataDirFlag
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}
		cfg = loaded

		if cfg.Source != "" {
			VerboseLog("Loaded config from %s", cfg.Source)
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./fixmine.toml or ~/.fixmine.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (overrides paths.data_dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func VerboseLog(format string, args ...interface{}) {
	if verbose {
		logger.Debug().Msgf(format, args...)
	}
}
