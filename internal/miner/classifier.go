package miner

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ishaan812/fixmine/internal/constants"
	"github.com/ishaan812/fixmine/internal/git"
)

type ClassifierOptions struct {
	Keywords   []string
	Extensions []string
	// MaxCommits bounds the walk to the N most recent commits of each repository.
	MaxCommits int
	Logger     zerolog.Logger
	// OnRepo is called after each repository with its 1-based position.
	OnRepo func(index, total int, name string, repo Summary)
}

// Classifier flags bug-fix commits. Keywords match as lowercase substrings of
// the message, so "prefix" matches "fix"; this favours recall and leaves the
// pruning of false positives to the size and content filters downstream.
type Classifier struct {
	opts     ClassifierOptions
	keywords []string
}

func NewClassifier(opts ClassifierOptions) *Classifier {
	keywords := make([]string, 0, len(opts.Keywords))
	for _, kw := range opts.Keywords {
		kw = strings.ToLower(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &Classifier{opts: opts, keywords: keywords}
}

func (c *Classifier) IsBugFix(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Tracked reports whether the path ends with one of the tracked extensions.
func (c *Classifier) Tracked(path string) bool {
	for _, ext := range c.opts.Extensions {
		if ext != "" && strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// ClassifyRepo scans one repository's bounded history, newest first. Per-commit
// failures skip that commit only. A history that cannot be read past some point
// keeps the records found so far. Only context cancellation is returned as an error.
func (c *Classifier) ClassifyRepo(ctx context.Context, h History) ([]CommitRecord, Summary, error) {
	log := c.opts.Logger.With().Str("repo", h.Name()).Logger()
	summary := newSummary()
	summary.Repos = 1

	var records []CommitRecord
	_, err := h.Commits(c.opts.MaxCommits, func(info git.CommitInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Input++

		if !c.IsBugFix(info.Message) {
			return nil
		}
		summary.Candidates++

		if info.IsRoot() {
			summary.skip(constants.SkipRootCommit)
			log.Debug().Str("commit", info.Hash).Str("reason", constants.SkipRootCommit).Msg("skipping commit")
			return nil
		}

		paths, err := h.ChangedPaths(info.Hash)
		if err != nil {
			summary.skip(constants.SkipDiffError)
			log.Debug().Err(err).Str("commit", info.Hash).Str("reason", constants.SkipDiffError).Msg("skipping commit")
			return nil
		}

		var tracked []string
		for _, p := range paths {
			if c.Tracked(p) {
				tracked = append(tracked, p)
			}
		}
		if len(tracked) == 0 {
			summary.skip(constants.SkipNoTrackedFiles)
			return nil
		}

		records = append(records, CommitRecord{
			RepoName:     h.Name(),
			CommitHash:   info.Hash,
			Message:      strings.TrimSpace(info.Message),
			Author:       info.AuthorName,
			AuthorEmail:  info.AuthorEmail,
			Date:         info.CommittedAt,
			ChangedFiles: tracked,
		})
		summary.Output++
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, summary, ctxErr
		}
		summary.skip(constants.SkipHistoryError)
		log.Warn().Err(err).Int("kept", len(records)).Msg("history unreadable, keeping commits found so far")
	}

	return records, summary, nil
}

// Run classifies every repository in acquisition order. Repositories that
// cannot be opened are skipped and counted.
func (c *Classifier) Run(ctx context.Context, repos []RepoRef, open Opener) ([]CommitRecord, Summary, error) {
	total := newSummary()
	var all []CommitRecord

	for i, ref := range repos {
		if err := ctx.Err(); err != nil {
			return nil, total, err
		}

		h, err := open(ref)
		if err != nil {
			total.skip(constants.SkipRepoUnavailable)
			c.opts.Logger.Warn().Err(err).Str("repo", ref.Name).Msg("failed to open repository")
			if c.opts.OnRepo != nil {
				c.opts.OnRepo(i+1, len(repos), ref.Name, Summary{})
			}
			continue
		}

		records, summary, err := c.ClassifyRepo(ctx, h)
		if err != nil {
			return nil, total, err
		}
		all = append(all, records...)
		total.merge(summary)

		if c.opts.OnRepo != nil {
			c.opts.OnRepo(i+1, len(repos), ref.Name, summary)
		}
	}

	return all, total, nil
}
