package dataset

import (
	"math/rand"
	"unicode/utf8"

	"github.com/ishaan812/fixmine/internal/constants"
	"github.com/ishaan812/fixmine/internal/miner"
)

type Options struct {
	// MinChars is the floor, in characters, both cleaned sides must reach.
	MinChars     int
	Seed         int64
	TrainPercent int
	ValPercent   int
	// RejectLossy drops pairs where either side needed byte substitution.
	RejectLossy bool
}

// DefaultOptions is the 80/10/10 split with seed 42.
func DefaultOptions() Options {
	return Options{
		MinChars:     constants.DefaultMinChars,
		Seed:         constants.DefaultSeed,
		TrainPercent: constants.DefaultTrainPercent,
		ValPercent:   constants.DefaultValPercent,
	}
}

type Metadata struct {
	Repo    string `json:"repo"`
	Commit  string `json:"commit"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// Example is the {input, target} pair handed to training.
type Example struct {
	Input    string   `json:"input"`
	Target   string   `json:"target"`
	Metadata Metadata `json:"metadata"`
}

type Split struct {
	Train      []Example
	Validation []Example
	Test       []Example
}

type Stats struct {
	Total      int     `json:"total_samples"`
	Train      int     `json:"train_samples"`
	Validation int     `json:"val_samples"`
	Test       int     `json:"test_samples"`
	TrainRatio float64 `json:"train_ratio"`
	ValRatio   float64 `json:"val_ratio"`
	TestRatio  float64 `json:"test_ratio"`
	Seed       int64   `json:"seed"`
}

// BuildSummary reports what the filters removed.
type BuildSummary struct {
	Input   int
	Output  int
	Skipped map[string]int
}

// Prepare cleans every pair and keeps those whose cleaned sides both reach the
// character floor. Input order is preserved.
func Prepare(pairs []miner.CodePair, opts Options) ([]Example, BuildSummary) {
	summary := BuildSummary{Input: len(pairs), Skipped: make(map[string]int)}
	examples := make([]Example, 0, len(pairs))

	for _, p := range pairs {
		if opts.RejectLossy && p.Lossy() {
			summary.Skipped[constants.SkipLossyDecode]++
			continue
		}

		input := Clean(p.Before)
		target := Clean(p.After)
		if utf8.RuneCountInString(input) < opts.MinChars || utf8.RuneCountInString(target) < opts.MinChars {
			summary.Skipped[constants.SkipCharFloor]++
			continue
		}

		examples = append(examples, Example{
			Input:  input,
			Target: target,
			Metadata: Metadata{
				Repo:    p.RepoName,
				Commit:  p.CommitHash,
				File:    p.FilePath,
				Message: p.Message,
			},
		})
	}

	summary.Output = len(examples)
	return examples, summary
}

// Partition sizes a split of n items. Train and validation get the floor of
// their share and test takes the remainder, so the three always sum to n.
func Partition(n, trainPercent, valPercent int) (train, val, test int) {
	train = n * trainPercent / 100
	val = n * valPercent / 100
	test = n - train - val
	return train, val, test
}

// Shuffle permutes examples in place with a generator seeded from seed, so the
// same input order always yields the same permutation.
func Shuffle(examples []Example, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(examples), func(i, j int) {
		examples[i], examples[j] = examples[j], examples[i]
	})
}

// Build cleans, filters, shuffles and partitions the pairs.
func Build(pairs []miner.CodePair, opts Options) (Split, Stats, BuildSummary) {
	examples, summary := Prepare(pairs, opts)
	Shuffle(examples, opts.Seed)

	nTrain, nVal, nTest := Partition(len(examples), opts.TrainPercent, opts.ValPercent)
	split := Split{
		Train:      examples[:nTrain],
		Validation: examples[nTrain : nTrain+nVal],
		Test:       examples[nTrain+nVal:],
	}

	testPercent := 100 - opts.TrainPercent - opts.ValPercent
	stats := Stats{
		Total:      len(examples),
		Train:      nTrain,
		Validation: nVal,
		Test:       nTest,
		TrainRatio: float64(opts.TrainPercent) / 100,
		ValRatio:   float64(opts.ValPercent) / 100,
		TestRatio:  float64(testPercent) / 100,
		Seed:       opts.Seed,
	}

	return split, stats, summary
}
