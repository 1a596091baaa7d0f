package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/fixmine/internal/artifact"
	"github.com/ishaan812/fixmine/internal/constants"
	"github.com/ishaan812/fixmine/internal/miner"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "int x = 1;", "int x = 1;"},
		{"blank boundary lines", "\n\n  \nint x = 1;\nint y = 2;\n\t\n\n", "int x = 1;\nint y = 2;"},
		{"interior blanks kept", "a();\n\n\nb();", "a();\n\n\nb();"},
		{"indentation of first line trimmed", "\n    if (x) {\n        y();\n    }\n", "if (x) {\n        y();\n    }"},
		{"all blank", "\n   \n\t\n\n", ""},
		{"empty", "", ""},
		{"crlf", "\r\nfoo();\r\n\r\n", "foo();"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Clean(got), "cleaning twice changes nothing")
		})
	}
}

func pair(id int, before, after string) miner.CodePair {
	return miner.CodePair{
		RepoName:   "acme_widgets",
		CommitHash: fmt.Sprintf("%040d", id),
		Message:    fmt.Sprintf("fix issue %d", id),
		FilePath:   fmt.Sprintf("src/File%d.java", id),
		Before:     before,
		After:      after,
	}
}

func body(tag string) string {
	return strings.Repeat("int "+tag+" = compute();\n", 4)
}

func TestPrepareCharFloor(t *testing.T) {
	pairs := []miner.CodePair{
		pair(1, body("a"), body("b")),
		pair(2, "\n\n\n\n\n", body("c")),
		pair(3, body("d"), "x();"),
	}

	examples, summary := Prepare(pairs, DefaultOptions())
	require.Len(t, examples, 1)
	assert.Equal(t, 3, summary.Input)
	assert.Equal(t, 1, summary.Output)
	assert.Equal(t, 2, summary.Skipped[constants.SkipCharFloor])

	ex := examples[0]
	assert.Equal(t, Clean(body("a")), ex.Input)
	assert.Equal(t, Clean(body("b")), ex.Target)
	assert.Equal(t, Metadata{
		Repo:    "acme_widgets",
		Commit:  fmt.Sprintf("%040d", 1),
		File:    "src/File1.java",
		Message: "fix issue 1",
	}, ex.Metadata)
}

func TestPrepareCountsCharactersNotBytes(t *testing.T) {
	opts := DefaultOptions()
	opts.MinChars = 5
	// five runes, ten bytes
	examples, _ := Prepare([]miner.CodePair{pair(1, "ééééé", "ééééé")}, opts)
	assert.Len(t, examples, 1)

	examples, _ = Prepare([]miner.CodePair{pair(1, "éééé", "ééééé")}, opts)
	assert.Empty(t, examples)
}

func TestPrepareRejectLossy(t *testing.T) {
	lossy := pair(1, body("a"), body("b"))
	lossy.BeforeLossy = true

	examples, _ := Prepare([]miner.CodePair{lossy}, DefaultOptions())
	assert.Len(t, examples, 1, "lossy pairs are kept by default")

	opts := DefaultOptions()
	opts.RejectLossy = true
	examples, summary := Prepare([]miner.CodePair{lossy}, opts)
	assert.Empty(t, examples)
	assert.Equal(t, 1, summary.Skipped[constants.SkipLossyDecode])
}

func TestPartition(t *testing.T) {
	for n := 0; n <= 250; n++ {
		train, val, test := Partition(n, 80, 10)
		assert.Equal(t, n*8/10, train, "n=%d", n)
		assert.Equal(t, n/10, val, "n=%d", n)
		assert.Equal(t, n, train+val+test, "n=%d", n)
		assert.GreaterOrEqual(t, test, 0)
	}

	train, val, test := Partition(1, 80, 10)
	assert.Equal(t, [3]int{0, 0, 1}, [3]int{train, val, test})

	train, val, test = Partition(10, 80, 10)
	assert.Equal(t, [3]int{8, 1, 1}, [3]int{train, val, test})

	train, val, test = Partition(7, 80, 10)
	assert.Equal(t, [3]int{5, 0, 2}, [3]int{train, val, test})
}

func manyPairs(n int) []miner.CodePair {
	pairs := make([]miner.CodePair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, pair(i, body(fmt.Sprintf("before%d", i)), body(fmt.Sprintf("after%d", i))))
	}
	return pairs
}

func TestBuildIsDeterministic(t *testing.T) {
	pairs := manyPairs(37)

	split1, stats1, _ := Build(pairs, DefaultOptions())
	split2, stats2, _ := Build(pairs, DefaultOptions())
	assert.Equal(t, split1, split2)
	assert.Equal(t, stats1, stats2)

	assert.Equal(t, 37, stats1.Total)
	assert.Equal(t, 29, stats1.Train)
	assert.Equal(t, 3, stats1.Validation)
	assert.Equal(t, 5, stats1.Test)
	assert.Len(t, split1.Train, 29)
	assert.Len(t, split1.Validation, 3)
	assert.Len(t, split1.Test, 5)
	assert.Equal(t, int64(42), stats1.Seed)
	assert.InDelta(t, 0.8, stats1.TrainRatio, 1e-9)
	assert.InDelta(t, 0.1, stats1.ValRatio, 1e-9)
	assert.InDelta(t, 0.1, stats1.TestRatio, 1e-9)

	seen := make(map[string]bool)
	for _, part := range [][]Example{split1.Train, split1.Validation, split1.Test} {
		for _, ex := range part {
			assert.False(t, seen[ex.Metadata.Commit], "example placed twice")
			seen[ex.Metadata.Commit] = true
		}
	}
	assert.Len(t, seen, 37)
}

func TestBuildSeedChangesPermutation(t *testing.T) {
	pairs := manyPairs(30)

	split1, _, _ := Build(pairs, DefaultOptions())
	opts := DefaultOptions()
	opts.Seed = 7
	split2, _, _ := Build(pairs, opts)
	assert.NotEqual(t, split1.Train, split2.Train)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	pairs := manyPairs(12)
	orig := make([]miner.CodePair, len(pairs))
	copy(orig, pairs)

	Build(pairs, DefaultOptions())
	assert.Equal(t, orig, pairs)
}

// Train and validation are floor(0.8*n) and floor(0.1*n), so with n=1 both
// are empty and the remainder goes to test.
func TestBuildSingleExample(t *testing.T) {
	split, stats, summary := Build(manyPairs(1), DefaultOptions())
	assert.Equal(t, 1, summary.Output)
	assert.Equal(t, 1, stats.Total)
	assert.Empty(t, split.Train)
	assert.Empty(t, split.Validation)
	assert.Len(t, split.Test, 1)
}

func TestBuildEmpty(t *testing.T) {
	split, stats, summary := Build(nil, DefaultOptions())
	assert.Zero(t, stats.Total)
	assert.Zero(t, summary.Input)
	assert.Empty(t, split.Train)
	assert.Empty(t, split.Validation)
	assert.Empty(t, split.Test)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processed")
	split, stats, _ := Build(manyPairs(3), DefaultOptions())

	written, err := Save(dir, split, stats)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, constants.TrainFile),
		filepath.Join(dir, constants.ValidationFile),
		filepath.Join(dir, constants.TestFile),
		filepath.Join(dir, constants.StatsFile),
	}, written)

	var val []Example
	require.NoError(t, artifact.Read(filepath.Join(dir, constants.ValidationFile), &val))
	assert.NotNil(t, val, "empty partitions are written as []")
	assert.Empty(t, val)

	var test []Example
	require.NoError(t, artifact.Read(filepath.Join(dir, constants.TestFile), &test))
	assert.Equal(t, split.Test, test)

	loaded, err := LoadStats(dir)
	require.NoError(t, err)
	assert.Equal(t, stats, loaded)
}
