package git

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Repository struct {
	repo *git.Repository
	path string
}

func OpenRepo(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpen(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", absPath, err)
	}

	return &Repository{
		repo: repo,
		path: absPath,
	}, nil
}

// Wrap adapts an already opened repository, e.g. one backed by in-memory storage.
func Wrap(repo *git.Repository, path string) *Repository {
	return &Repository{repo: repo, path: path}
}

func (r *Repository) Path() string {
	return r.path
}

// Name is the directory name the repository was acquired under.
func (r *Repository) Name() string {
	return filepath.Base(r.path)
}

func (r *Repository) Git() *git.Repository {
	return r.repo
}

func (r *Repository) commit(hash string) (*object.Commit, error) {
	if !plumbing.IsHash(hash) {
		return nil, fmt.Errorf("invalid commit hash %q", hash)
	}
	c, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	return c, nil
}
