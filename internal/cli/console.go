package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ishaan812/fixmine/internal/pipeline"
)

var (
	titleColor   = color.New(color.FgHiCyan, color.Bold)
	successColor = color.New(color.FgHiGreen)
	dimColor     = color.New(color.FgHiBlack)
	infoColor    = color.New(color.FgHiWhite)
	warnColor    = color.New(color.FgHiYellow)
	errorColor   = color.New(color.FgHiRed)
)

var stageTitles = map[string]string{
	pipeline.StageDiscover: "Repository Discovery",
	pipeline.StageAcquire:  "Repository Acquisition",
	pipeline.StageClassify: "Commit Classification",
	pipeline.StageExtract:  "Diff Extraction",
	pipeline.StageBuild:    "Dataset Build",
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// status shows a spinner on a terminal and plain progress lines otherwise.
type status struct {
	s *spinner.Spinner
}

func newStatus(msg string) *status {
	if !isTerminal() {
		dimColor.Printf("  %s\n", msg)
		return &status{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + msg
	s.Color("cyan")
	s.Start()
	return &status{s: s}
}

// Update replaces the spinner text, or prints it when there is no spinner.
func (st *status) Update(msg string) {
	if st.s == nil {
		dimColor.Printf("  %s\n", msg)
		return
	}
	st.s.Lock()
	st.s.Suffix = " " + msg
	st.s.Unlock()
}

// Println prints a permanent line above the spinner.
func (st *status) Println(c *color.Color, format string, args ...interface{}) {
	if st.s != nil && st.s.Active() {
		st.s.Stop()
		defer st.s.Start()
	}
	c.Printf("  "+format+"\n", args...)
}

func (st *status) Stop() {
	if st.s != nil {
		st.s.Stop()
	}
}

func printStageHeader(name string) {
	fmt.Println()
	titleColor.Printf("  %s\n", stageTitles[name])
}

func printResult(res pipeline.Result) {
	successColor.Printf("  %s complete\n", stageTitles[res.Stage])
	fmt.Printf("    Input:   %d\n", res.Input)
	fmt.Printf("    Output:  %d\n", res.Output)

	if total := res.TotalSkipped(); total > 0 {
		fmt.Printf("    Skipped: %d\n", total)
		for _, reason := range sortedReasons(res.Skipped) {
			dimColor.Printf("      %-22s %d\n", reason, res.Skipped[reason])
		}
	}

	if res.Stats != nil {
		s := res.Stats
		fmt.Printf("    Split:   train %d / validation %d / test %d (seed %d)\n", s.Train, s.Validation, s.Test, s.Seed)
	}

	if len(res.Files) > 0 {
		dimColor.Println("    Files:")
		for _, f := range res.Files {
			dimColor.Printf("      %s\n", displayPath(f))
		}
	}
}

// sortedReasons orders skip reasons by count, most frequent first.
func sortedReasons(skipped map[string]int) []string {
	reasons := make([]string, 0, len(skipped))
	for r, n := range skipped {
		if n > 0 {
			reasons = append(reasons, r)
		}
	}
	sort.Slice(reasons, func(i, j int) bool {
		if skipped[reasons[i]] != skipped[reasons[j]] {
			return skipped[reasons[i]] > skipped[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})
	return reasons
}

// displayPath shortens paths under the working directory.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
