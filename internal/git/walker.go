package git

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

type CommitInfo struct {
	Hash         string
	Message      string
	AuthorName   string
	AuthorEmail  string
	CommittedAt  time.Time
	ParentHashes []string
}

// IsRoot reports whether the commit has nothing to diff against.
func (c CommitInfo) IsRoot() bool {
	return len(c.ParentHashes) == 0
}

// Subject is the first line of the message
func (c CommitInfo) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return subject
}

type WalkOptions struct {
	// MaxCount bounds the walk to the N most recent commits. Zero means no bound.
	MaxCount int
	OnCommit func(CommitInfo) error
}

// WalkCommits visits history from HEAD, newest first by committer time. Every
// call starts again at HEAD, so a walk can be repeated with a different bound.
// In a shallow clone the boundary commits are visited as roots. The returned
// count is the number of commits handed to OnCommit.
func WalkCommits(repo *Repository, opts WalkOptions) (int, error) {
	gitRepo := repo.Git()
	head, err := gitRepo.Head()
	if err != nil {
		return 0, fmt.Errorf("failed to get HEAD: %w", err)
	}
	headCommit, err := gitRepo.CommitObject(head.Hash())
	if err != nil {
		return 0, fmt.Errorf("failed to load HEAD commit: %w", err)
	}

	missing, err := repo.shallowBoundary()
	if err != nil {
		return 0, err
	}
	ignore := make([]plumbing.Hash, 0, len(missing))
	for h := range missing {
		ignore = append(ignore, h)
	}

	iter := object.NewCommitIterCTime(headCommit, nil, ignore)
	defer iter.Close()

	count := 0
	var callbackErr error
	err = iter.ForEach(func(c *object.Commit) error {
		if opts.MaxCount > 0 && count >= opts.MaxCount {
			return storer.ErrStop
		}
		count++
		if opts.OnCommit != nil {
			if err := opts.OnCommit(toCommitInfo(c, missing)); err != nil {
				callbackErr = err
				return storer.ErrStop
			}
		}
		return nil
	})
	if callbackErr != nil {
		return count, callbackErr
	}
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return count, fmt.Errorf("failed to iterate commits: %w", err)
	}

	return count, nil
}

// shallowBoundary returns the parents of shallow commits that were not fetched.
func (r *Repository) shallowBoundary() (map[plumbing.Hash]bool, error) {
	shallow, err := r.repo.Storer.Shallow()
	if err != nil {
		return nil, fmt.Errorf("failed to read shallow commits: %w", err)
	}

	missing := make(map[plumbing.Hash]bool)
	for _, h := range shallow {
		c, err := r.repo.CommitObject(h)
		if err != nil {
			continue
		}
		for _, p := range c.ParentHashes {
			if _, err := r.repo.CommitObject(p); errors.Is(err, plumbing.ErrObjectNotFound) {
				missing[p] = true
			}
		}
	}
	return missing, nil
}

func toCommitInfo(c *object.Commit, missing map[plumbing.Hash]bool) CommitInfo {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		if missing[p] {
			continue
		}
		parents = append(parents, p.String())
	}
	return CommitInfo{
		Hash:         c.Hash.String(),
		Message:      c.Message,
		AuthorName:   c.Author.Name,
		AuthorEmail:  c.Author.Email,
		CommittedAt:  c.Committer.When,
		ParentHashes: parents,
	}
}

// Commits is WalkCommits bounded to maxCount, in the shape the miner consumes.
func (r *Repository) Commits(maxCount int, fn func(CommitInfo) error) (int, error) {
	return WalkCommits(r, WalkOptions{MaxCount: maxCount, OnCommit: fn})
}
