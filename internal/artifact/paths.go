package artifact

import (
	"path/filepath"

	"github.com/ishaan812/fixmine/internal/constants"
)

// Paths are the on-disk locations of every artifact under one data directory.
type Paths struct {
	DataDir      string
	Selected     string
	Acquired     string
	Commits      string
	Pairs        string
	Ledger       string
	ReposDir     string
	ProcessedDir string
}

func PathsFor(dataDir string) Paths {
	return Paths{
		DataDir:      dataDir,
		Selected:     filepath.Join(dataDir, constants.SelectedReposFile),
		Acquired:     filepath.Join(dataDir, constants.AcquiredReposFile),
		Commits:      filepath.Join(dataDir, constants.BugFixCommitsFile),
		Pairs:        filepath.Join(dataDir, constants.ExtractedPairsFile),
		Ledger:       filepath.Join(dataDir, constants.LedgerFile),
		ReposDir:     filepath.Join(dataDir, constants.ReposDir),
		ProcessedDir: filepath.Join(dataDir, constants.ProcessedDir),
	}
}

// Split returns the three partition files and the stats file, in write order.
func (p Paths) Split() []string {
	return []string{
		filepath.Join(p.ProcessedDir, constants.TrainFile),
		filepath.Join(p.ProcessedDir, constants.ValidationFile),
		filepath.Join(p.ProcessedDir, constants.TestFile),
		filepath.Join(p.ProcessedDir, constants.StatsFile),
	}
}
