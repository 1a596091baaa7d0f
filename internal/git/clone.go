package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

type CloneRequest struct {
	Name  string
	URL   string
	Dir   string
	Depth int
	// Progress receives the remote's sideband output, nil discards it.
	Progress io.Writer
}

// DirName turns an owner/name pair into a single directory name.
func DirName(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "_")
}

// Materialize makes the repository's history available locally, bounded to
// Depth commits. An existing clone is reused as is; a directory that does not
// open as a repository is left over from an interrupted clone and is replaced.
// Returns the local path and whether a clone actually happened.
func Materialize(ctx context.Context, req CloneRequest) (string, bool, error) {
	if req.URL == "" {
		return "", false, errors.New("clone URL is empty")
	}
	path := filepath.Join(req.Dir, DirName(req.Name))

	if _, err := os.Stat(path); err == nil {
		if _, err := git.PlainOpen(path); err == nil {
			return path, false, nil
		}
		if err := os.RemoveAll(path); err != nil {
			return "", false, fmt.Errorf("failed to remove incomplete clone %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(req.Dir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create repos directory: %w", err)
	}

	_, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:      req.URL,
		Depth:    req.Depth,
		Progress: req.Progress,
		Tags:     git.NoTags,
	})
	if err != nil {
		// leave nothing that could later be mistaken for a clone
		_ = os.RemoveAll(path)
		return "", false, fmt.Errorf("failed to clone %s: %w", req.Name, err)
	}

	return path, true, nil
}
