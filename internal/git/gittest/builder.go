// Package gittest builds small repositories for tests.
package gittest

import (
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/ishaan812/fixmine/internal/git"
)

type Builder struct {
	t    testing.TB
	Repo *gogit.Repository
	fs   billy.Filesystem
	wt   *gogit.Worktree
	when time.Time
}

func New(t testing.TB) *Builder {
	t.Helper()
	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return &Builder{
		t:    t,
		Repo: repo,
		fs:   fs,
		wt:   wt,
		when: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// NewOnDisk is New backed by a real repository at dir, for code that opens
// repositories by path.
func NewOnDisk(t testing.TB, dir string) *Builder {
	t.Helper()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo at %s: %v", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return &Builder{
		t:    t,
		Repo: repo,
		fs:   wt.Filesystem,
		wt:   wt,
		when: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Wrap exposes the builder's repository under the given directory name
func (b *Builder) Wrap(name string) *git.Repository {
	return git.Wrap(b.Repo, "/repos/"+name)
}

// Commit writes files (path -> content), removes paths, and commits on HEAD.
func (b *Builder) Commit(message string, files map[string]string, removes ...string) string {
	return b.CommitWithParents(message, files, removes, nil)
}

// CommitWithParents is Commit with explicit parents, used for merges.
func (b *Builder) CommitWithParents(message string, files map[string]string, removes []string, parents []string) string {
	b.t.Helper()
	for path, content := range files {
		if err := util.WriteFile(b.fs, path, []byte(content), 0644); err != nil {
			b.t.Fatalf("write %s: %v", path, err)
		}
		if _, err := b.wt.Add(path); err != nil {
			b.t.Fatalf("add %s: %v", path, err)
		}
	}
	for _, path := range removes {
		if _, err := b.wt.Remove(path); err != nil {
			b.t.Fatalf("remove %s: %v", path, err)
		}
	}

	b.when = b.when.Add(time.Minute)
	opts := &gogit.CommitOptions{
		Author:            &object.Signature{Name: "Dana Reyes", Email: "dana@example.com", When: b.when},
		AllowEmptyCommits: true,
	}
	for _, p := range parents {
		opts.Parents = append(opts.Parents, plumbing.NewHash(p))
	}

	hash, err := b.wt.Commit(message, opts)
	if err != nil {
		b.t.Fatalf("commit %q: %v", message, err)
	}
	return hash.String()
}

// ResetTo hard-resets the current branch, used to start a side line of history.
func (b *Builder) ResetTo(hash string) {
	b.t.Helper()
	err := b.wt.Reset(&gogit.ResetOptions{Commit: plumbing.NewHash(hash), Mode: gogit.HardReset})
	if err != nil {
		b.t.Fatalf("reset to %s: %v", hash, err)
	}
}

// Lines builds a body of exactly n lines with no trailing terminator, so its
// line count is n.
func Lines(prefix string, n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s %d;", prefix, i)
	}
	return strings.Join(lines, "\n")
}

// RequireGit skips the test when no git binary is available. Local clones
// over file:// run git-upload-pack.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not found")
	}
}
