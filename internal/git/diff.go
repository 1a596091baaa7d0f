package git

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	ErrRootCommit    = errors.New("commit has no parent")
	ErrNoDiffEntry   = errors.New("no diff entry for path")
	ErrNoCounterpart = errors.New("path has no blob on one side of the diff")
	ErrBlobTooLarge  = errors.New("blob exceeds size limit")
)

// BlobPair holds the raw pre-image and post-image of one path
type BlobPair struct {
	Path   string
	Before []byte
	After  []byte
}

// firstParentChanges diffs a commit against parent[0] only. Later parents of a
// merge are ignored, so merges may report fewer changes than a full merge diff.
func (r *Repository) firstParentChanges(hash string) (object.Changes, error) {
	c, err := r.commit(hash)
	if err != nil {
		return nil, err
	}
	if c.NumParents() == 0 {
		return nil, ErrRootCommit
	}

	parent, err := c.Parent(0)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		// shallow boundary
		return nil, ErrRootCommit
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load parent of %s: %w", hash, err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load parent tree of %s: %w", hash, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", hash, err)
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s against its parent: %w", hash, err)
	}
	return changes, nil
}

// ChangePath prefers the pre-image path; additions only have a post-image path.
func ChangePath(change *object.Change) string {
	if change.From.Name != "" {
		return change.From.Name
	}
	return change.To.Name
}

// ChangedPaths lists every path touched by the commit relative to its first parent.
func (r *Repository) ChangedPaths(hash string) ([]string, error) {
	changes, err := r.firstParentChanges(hash)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(changes))
	for _, change := range changes {
		paths = append(paths, ChangePath(change))
	}
	return paths, nil
}

// FilePair reads both sides of a single path's diff entry. Blobs larger than
// maxBytes are refused before being read; zero disables the limit.
func (r *Repository) FilePair(hash, path string, maxBytes int64) (BlobPair, error) {
	changes, err := r.firstParentChanges(hash)
	if err != nil {
		return BlobPair{}, err
	}

	var entry *object.Change
	for _, change := range changes {
		if change.From.Name == path || change.To.Name == path {
			entry = change
			break
		}
	}
	if entry == nil {
		return BlobPair{}, fmt.Errorf("%s in %s: %w", path, hash, ErrNoDiffEntry)
	}

	from, to, err := entry.Files()
	if err != nil {
		return BlobPair{}, fmt.Errorf("failed to resolve blobs for %s: %w", path, err)
	}
	if from == nil || to == nil {
		return BlobPair{}, fmt.Errorf("%s in %s: %w", path, hash, ErrNoCounterpart)
	}

	before, err := readBlob(from, maxBytes)
	if err != nil {
		return BlobPair{}, err
	}
	after, err := readBlob(to, maxBytes)
	if err != nil {
		return BlobPair{}, err
	}

	return BlobPair{Path: path, Before: before, After: after}, nil
}

func readBlob(f *object.File, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && f.Size > maxBytes {
		return nil, fmt.Errorf("%s is %d bytes: %w", f.Name, f.Size, ErrBlobTooLarge)
	}

	rd, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", f.Hash, err)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", f.Hash, err)
	}
	return data, nil
}
