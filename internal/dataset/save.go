package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/ishaan812/fixmine/internal/artifact"
	"github.com/ishaan812/fixmine/internal/constants"
)

// Save writes the three partitions and the stats file into dir. Each file is
// replaced atomically; stats is written last so its presence marks a finished build.
func Save(dir string, split Split, stats Stats) ([]string, error) {
	files := []struct {
		name string
		data []Example
	}{
		{constants.TrainFile, split.Train},
		{constants.ValidationFile, split.Validation},
		{constants.TestFile, split.Test},
	}

	written := make([]string, 0, len(files)+1)
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		data := f.data
		if data == nil {
			data = []Example{}
		}
		if err := artifact.Write(path, data); err != nil {
			return written, fmt.Errorf("failed to save %s split: %w", f.name, err)
		}
		written = append(written, path)
	}

	path := filepath.Join(dir, constants.StatsFile)
	if err := artifact.Write(path, stats); err != nil {
		return written, fmt.Errorf("failed to save stats: %w", err)
	}
	return append(written, path), nil
}

// LoadStats reads back the stats of the last finished build in dir.
func LoadStats(dir string) (Stats, error) {
	var stats Stats
	err := artifact.Read(filepath.Join(dir, constants.StatsFile), &stats)
	return stats, err
}
