// Package pipeline wires the mining stages to their artifacts. Each stage reads
// the previous stage's file, runs to completion and writes its own.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ishaan812/fixmine/internal/artifact"
	"github.com/ishaan812/fixmine/internal/config"
	"github.com/ishaan812/fixmine/internal/constants"
	"github.com/ishaan812/fixmine/internal/dataset"
	"github.com/ishaan812/fixmine/internal/git"
	"github.com/ishaan812/fixmine/internal/github"
	"github.com/ishaan812/fixmine/internal/miner"
)

// Stage names, as recorded in the run ledger
const (
	StageDiscover = "discover"
	StageAcquire  = "clone"
	StageClassify = "classify"
	StageExtract  = "extract"
	StageBuild    = "build"
)

// Result is what one stage consumed, produced and skipped, and where it wrote.
type Result struct {
	Stage   string
	Input   int
	Output  int
	Skipped map[string]int
	Files   []string
	// Stats is set by the build stage only.
	Stats *dataset.Stats
}

func (r Result) TotalSkipped() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// Hooks let the caller observe long-running stages.
type Hooks struct {
	OnClone    func(index, total int, name string, cloned bool, err error)
	OnRepo     func(index, total int, name string, s miner.Summary)
	OnProgress func(miner.Progress)
}

type Pipeline struct {
	cfg   *config.Config
	paths artifact.Paths
	log   zerolog.Logger

	Hooks Hooks
	// Open resolves a repository reference; defaults to opening it from disk.
	Open miner.Opener
	// CloneProgress receives remote output while cloning, nil discards it.
	CloneProgress io.Writer
}

func New(cfg *config.Config, log zerolog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:   cfg,
		paths: artifact.PathsFor(cfg.Paths.DataDir),
		log:   log,
	}
	p.Open = p.openLocal
	return p
}

func (p *Pipeline) Paths() artifact.Paths {
	return p.paths
}

// repoPath locates an acquired repository. Manifest paths are relative to the
// repos directory, and references without a path are looked up by name.
func (p *Pipeline) repoPath(ref miner.RepoRef) string {
	switch {
	case ref.Path == "":
		return filepath.Join(p.paths.ReposDir, ref.Name)
	case filepath.IsAbs(ref.Path):
		return ref.Path
	default:
		return filepath.Join(p.paths.ReposDir, ref.Path)
	}
}

func (p *Pipeline) openLocal(ref miner.RepoRef) (miner.History, error) {
	repo, err := git.OpenRepo(p.repoPath(ref))
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// Discover searches the forge and writes the ranked selection.
func (p *Pipeline) Discover(ctx context.Context) (Result, error) {
	if err := p.cfg.ValidateSearch(); err != nil {
		return Result{Stage: StageDiscover}, err
	}
	s := p.cfg.Search
	searcher, err := github.NewSearcher(s.GitHubToken, s.APIURL)
	if err != nil {
		return Result{Stage: StageDiscover}, err
	}

	p.log.Info().Str("query", github.Query(s.Language, s.MinStars)).Int("max", s.MaxRepos).Msg("searching repositories")
	repos, err := searcher.Search(ctx, s.Language, s.MinStars, s.MaxRepos)
	if err != nil {
		return Result{Stage: StageDiscover}, err
	}

	if err := artifact.Write(p.paths.Selected, repos); err != nil {
		return Result{Stage: StageDiscover}, err
	}
	return Result{
		Stage:   StageDiscover,
		Output:  len(repos),
		Skipped: map[string]int{},
		Files:   []string{p.paths.Selected},
	}, nil
}

// Acquire materializes every selected repository, reusing existing clones, and
// writes the acquisition manifest in selection order. Failed clones are skipped.
func (p *Pipeline) Acquire(ctx context.Context) (Result, error) {
	res := Result{Stage: StageAcquire, Skipped: map[string]int{}}

	var selected []github.RepositoryDescriptor
	if err := artifact.Read(p.paths.Selected, &selected); err != nil {
		return res, fmt.Errorf("run 'fixmine discover' first: %w", err)
	}
	res.Input = len(selected)

	acquired := make([]miner.RepoRef, 0, len(selected))
	for i, desc := range selected {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		path, cloned, err := git.Materialize(ctx, git.CloneRequest{
			Name:     desc.FullName,
			URL:      desc.CloneURL,
			Dir:      p.paths.ReposDir,
			Depth:    p.cfg.Mining.MaxCommits,
			Progress: p.CloneProgress,
		})
		if p.Hooks.OnClone != nil {
			p.Hooks.OnClone(i+1, len(selected), desc.FullName, cloned, err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.Skipped[constants.SkipCloneFailed]++
			p.log.Warn().Err(err).Str("repo", desc.FullName).Msg("clone failed, skipping repository")
			continue
		}

		name := filepath.Base(path)
		acquired = append(acquired, miner.RepoRef{
			Name:     name,
			FullName: desc.FullName,
			Path:     name,
			CloneURL: desc.CloneURL,
			Stars:    desc.Stars,
		})
	}

	if err := artifact.Write(p.paths.Acquired, acquired); err != nil {
		return res, err
	}
	res.Output = len(acquired)
	res.Files = []string{p.paths.Acquired, p.paths.ReposDir}
	return res, nil
}

// Repositories lists the acquired repositories in acquisition order, with
// paths resolved against the current repos directory. Without a manifest,
// every git checkout under the repos directory is used in name order.
func (p *Pipeline) Repositories() ([]miner.RepoRef, error) {
	var refs []miner.RepoRef
	err := artifact.Read(p.paths.Acquired, &refs)
	if err == nil {
		for i := range refs {
			refs[i].Path = p.repoPath(refs[i])
		}
		return refs, nil
	}
	if !errors.Is(err, artifact.ErrMissing) {
		return nil, err
	}

	entries, err := os.ReadDir(p.paths.ReposDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no repositories under %s, run 'fixmine clone' first", p.paths.ReposDir)
		}
		return nil, fmt.Errorf("failed to list %s: %w", p.paths.ReposDir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(p.paths.ReposDir, e.Name())
		if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
			continue
		}
		refs = append(refs, miner.RepoRef{Name: e.Name(), Path: path})
	}
	return refs, nil
}

// Classify scans every acquired repository and writes the bug-fix commits.
func (p *Pipeline) Classify(ctx context.Context) (Result, error) {
	res := Result{Stage: StageClassify}

	repos, err := p.Repositories()
	if err != nil {
		return res, err
	}

	c := miner.NewClassifier(miner.ClassifierOptions{
		Keywords:   p.cfg.Mining.Keywords,
		Extensions: p.cfg.Mining.Extensions,
		MaxCommits: p.cfg.Mining.MaxCommits,
		Logger:     p.log,
		OnRepo:     p.Hooks.OnRepo,
	})
	records, summary, err := c.Run(ctx, repos, p.Open)
	res.Input = summary.Input
	res.Skipped = summary.Skipped
	if err != nil {
		return res, err
	}

	if records == nil {
		records = []miner.CommitRecord{}
	}
	if err := artifact.Write(p.paths.Commits, records); err != nil {
		return res, err
	}
	res.Output = len(records)
	res.Files = []string{p.paths.Commits}
	return res, nil
}

// Extract pulls the before/after pair of every recorded file and writes them.
func (p *Pipeline) Extract(ctx context.Context) (Result, error) {
	res := Result{Stage: StageExtract}

	var records []miner.CommitRecord
	if err := artifact.Read(p.paths.Commits, &records); err != nil {
		return res, fmt.Errorf("run 'fixmine classify' first: %w", err)
	}

	x := miner.NewExtractor(miner.ExtractorOptions{
		MinLines:      p.cfg.Extract.MinLines,
		MaxLines:      p.cfg.Extract.MaxLines,
		MaxBlobBytes:  p.cfg.Extract.MaxBlobBytes,
		DetectCharset: p.cfg.Extract.DetectCharset,
		ProgressEvery: p.cfg.Extract.ProgressEvery,
		OnProgress:    p.Hooks.OnProgress,
		Logger:        p.log,
	})
	pairs, summary, err := x.Run(ctx, records, p.Open)
	res.Input = summary.Input
	res.Skipped = summary.Skipped
	if err != nil {
		return res, err
	}

	if pairs == nil {
		pairs = []miner.CodePair{}
	}
	if err := artifact.Write(p.paths.Pairs, pairs); err != nil {
		return res, err
	}
	res.Output = len(pairs)
	res.Files = []string{p.paths.Pairs}
	return res, nil
}

// Build cleans, filters and splits the pairs into the final corpus.
func (p *Pipeline) Build(ctx context.Context) (Result, error) {
	res := Result{Stage: StageBuild}

	var pairs []miner.CodePair
	if err := artifact.Read(p.paths.Pairs, &pairs); err != nil {
		return res, fmt.Errorf("run 'fixmine extract' first: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	d := p.cfg.Dataset
	split, stats, summary := dataset.Build(pairs, dataset.Options{
		MinChars:     d.MinChars,
		Seed:         d.Seed,
		TrainPercent: d.TrainPercent,
		ValPercent:   d.ValPercent,
		RejectLossy:  d.RejectLossy,
	})
	res.Input = summary.Input
	res.Skipped = summary.Skipped

	files, err := dataset.Save(p.paths.ProcessedDir, split, stats)
	if err != nil {
		return res, err
	}
	res.Output = summary.Output
	res.Files = files
	res.Stats = &stats
	return res, nil
}

// Stage is one runnable step of the pipeline.
type Stage struct {
	Name string
	Run  func(context.Context) (Result, error)
}

// Stages lists the full pipeline in order, optionally without the acquisition steps.
func (p *Pipeline) Stages(skipDiscover, skipClone bool) []Stage {
	var stages []Stage
	if !skipDiscover {
		stages = append(stages, Stage{StageDiscover, p.Discover})
	}
	if !skipClone {
		stages = append(stages, Stage{StageAcquire, p.Acquire})
	}
	return append(stages,
		Stage{StageClassify, p.Classify},
		Stage{StageExtract, p.Extract},
		Stage{StageBuild, p.Build},
	)
}
