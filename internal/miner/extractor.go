package miner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ishaan812/fixmine/internal/constants"
	"github.com/ishaan812/fixmine/internal/git"
	"github.com/ishaan812/fixmine/internal/textenc"
)

type ExtractorOptions struct {
	// MinLines and MaxLines form the inclusive line-count window applied to
	// both the pre-fix and post-fix image.
	MinLines      int
	MaxLines      int
	MaxBlobBytes  int64
	DetectCharset bool
	// ProgressEvery reports progress after every N commit records.
	ProgressEvery int
	OnProgress    func(Progress)
	Logger        zerolog.Logger
}

type Progress struct {
	Processed int
	Total     int
	Extracted int
}

// SkipError is the definitive "no pair" outcome for one (commit, file).
type SkipError struct {
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err == nil {
		return "skipped: " + e.Reason
	}
	return fmt.Sprintf("skipped (%s): %v", e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

func skipped(reason string, err error) *SkipError {
	return &SkipError{Reason: reason, Err: err}
}

type Extractor struct {
	opts ExtractorOptions
}

func NewExtractor(opts ExtractorOptions) *Extractor {
	return &Extractor{opts: opts}
}

// InWindow reports whether a line count lies inside [MinLines, MaxLines].
func (x *Extractor) InWindow(lines int) bool {
	return lines >= x.opts.MinLines && lines <= x.opts.MaxLines
}

// ExtractPair returns a CodePair or a *SkipError, never a partial result.
func (x *Extractor) ExtractPair(h History, rec CommitRecord, path string) (pair CodePair, err error) {
	defer func() {
		if r := recover(); r != nil {
			pair = CodePair{}
			err = skipped(constants.SkipReadError, fmt.Errorf("panic reading %s: %v", path, r))
		}
	}()

	blobs, err := h.FilePair(rec.CommitHash, path, x.opts.MaxBlobBytes)
	if err != nil {
		return CodePair{}, skipped(blobSkipReason(err), err)
	}

	before := textenc.Decode(blobs.Before, x.opts.DetectCharset)
	after := textenc.Decode(blobs.After, x.opts.DetectCharset)

	beforeLines := textenc.LineCount(before.Text)
	afterLines := textenc.LineCount(after.Text)
	if !x.InWindow(beforeLines) || !x.InWindow(afterLines) {
		return CodePair{}, skipped(constants.SkipLineWindow,
			fmt.Errorf("%d/%d lines outside [%d, %d]", beforeLines, afterLines, x.opts.MinLines, x.opts.MaxLines))
	}

	added, removed := lineDelta(before.Text, after.Text)

	return CodePair{
		RepoName:     rec.RepoName,
		CommitHash:   rec.CommitHash,
		Message:      rec.Message,
		FilePath:     path,
		Before:       before.Text,
		After:        after.Text,
		BeforeLines:  beforeLines,
		AfterLines:   afterLines,
		BeforeLossy:  before.Lossy,
		AfterLossy:   after.Lossy,
		LinesAdded:   added,
		LinesRemoved: removed,
	}, nil
}

func blobSkipReason(err error) string {
	switch {
	case errors.Is(err, git.ErrNoDiffEntry):
		return constants.SkipNoDiffEntry
	case errors.Is(err, git.ErrNoCounterpart):
		return constants.SkipNoCounterpart
	case errors.Is(err, git.ErrBlobTooLarge):
		return constants.SkipBlobTooLarge
	case errors.Is(err, git.ErrRootCommit):
		return constants.SkipRootCommit
	default:
		return constants.SkipReadError
	}
}

// Run extracts every changed file of every record, in record order. Records
// whose repository cannot be opened are skipped as a whole.
func (x *Extractor) Run(ctx context.Context, records []CommitRecord, open Opener) ([]CodePair, Summary, error) {
	summary := newSummary()
	histories := make(map[string]History)
	unavailable := make(map[string]bool)

	var pairs []CodePair
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}
		summary.Input++

		h, ok := histories[rec.RepoName]
		if !ok && !unavailable[rec.RepoName] {
			var err error
			h, err = open(RepoRef{Name: rec.RepoName})
			if err != nil {
				h = nil
				unavailable[rec.RepoName] = true
				x.opts.Logger.Warn().Err(err).Str("repo", rec.RepoName).Msg("repository not available, skipping its commits")
			} else {
				histories[rec.RepoName] = h
				summary.Repos++
			}
		}

		if h == nil {
			summary.skip(constants.SkipRepoUnavailable)
		} else {
			for _, path := range rec.ChangedFiles {
				summary.Candidates++
				pair, err := x.ExtractPair(h, rec, path)
				if err != nil {
					reason := constants.SkipReadError
					var se *SkipError
					if errors.As(err, &se) {
						reason = se.Reason
					}
					summary.skip(reason)
					x.opts.Logger.Debug().Err(err).
						Str("repo", rec.RepoName).
						Str("commit", rec.CommitHash).
						Str("file", path).
						Str("reason", reason).
						Msg("skipping file")
					continue
				}
				pairs = append(pairs, pair)
				summary.Output++
			}
		}

		if x.opts.OnProgress != nil && x.opts.ProgressEvery > 0 && (i+1)%x.opts.ProgressEvery == 0 {
			x.opts.OnProgress(Progress{Processed: i + 1, Total: len(records), Extracted: len(pairs)})
		}
	}

	return pairs, summary, nil
}

// lineDelta counts added and removed lines with a line-mode diff.
func lineDelta(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(a, b, false), lines)

	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if d.Text != "" && !strings.HasSuffix(d.Text, "\n") {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}
