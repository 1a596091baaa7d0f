package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/fixmine/internal/artifact"
	"github.com/ishaan812/fixmine/internal/config"
	"github.com/ishaan812/fixmine/internal/constants"
	"github.com/ishaan812/fixmine/internal/dataset"
	"github.com/ishaan812/fixmine/internal/git/gittest"
	"github.com/ishaan812/fixmine/internal/github"
	"github.com/ishaan812/fixmine/internal/logging"
	"github.com/ishaan812/fixmine/internal/miner"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Dataset.MinChars = 10
	return cfg
}

// javaBody is n lines of plausible Java, long enough to clear the char floor.
func javaBody(tag string, n int) string {
	return gittest.Lines("    int "+tag+" = compute()", n)
}

// seedRepo creates data/repos/<name> with one real bug fix among noise.
func seedRepo(t *testing.T, cfg *config.Config, name string) {
	t.Helper()
	b := gittest.NewOnDisk(t, filepath.Join(cfg.Paths.DataDir, constants.ReposDir, name))
	b.Commit("bug: crash on empty input", map[string]string{"src/Widget.java": javaBody("a", 10)})
	b.Commit("update README", map[string]string{"README.md": "docs"})
	b.Commit("Fix null pointer exception", map[string]string{"src/Widget.java": javaBody("b", 12)})
	b.Commit("fix typo in docs", map[string]string{"README.md": "docs!"})
}

func TestLocalPipeline(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	seedRepo(t, cfg, "acme_widgets")
	seedRepo(t, cfg, "zeta_tools")

	p := New(cfg, logging.Nop())
	var visited []string
	p.Hooks.OnRepo = func(index, total int, name string, s miner.Summary) {
		visited = append(visited, fmt.Sprintf("%d/%d %s", index, total, name))
	}

	repos, err := p.Repositories()
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "acme_widgets", repos[0].Name)

	res, err := p.Classify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Input)
	assert.Equal(t, 2, res.Output)
	assert.Equal(t, 2, res.Skipped[constants.SkipRootCommit])
	assert.Equal(t, 2, res.Skipped[constants.SkipNoTrackedFiles])
	assert.Equal(t, []string{"1/2 acme_widgets", "2/2 zeta_tools"}, visited)

	var records []miner.CommitRecord
	require.NoError(t, artifact.Read(p.Paths().Commits, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "acme_widgets", records[0].RepoName)
	assert.Equal(t, "Fix null pointer exception", records[0].Message)
	assert.Equal(t, []string{"src/Widget.java"}, records[0].ChangedFiles)

	res, err = p.Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Input)
	assert.Equal(t, 2, res.Output)

	var pairs []miner.CodePair
	require.NoError(t, artifact.Read(p.Paths().Pairs, &pairs))
	require.Len(t, pairs, 2)
	assert.Equal(t, 10, pairs[0].BeforeLines)
	assert.Equal(t, 12, pairs[0].AfterLines)

	res, err = p.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Output)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 2, res.Stats.Total)
	assert.Equal(t, 1, res.Stats.Train)
	assert.Equal(t, 0, res.Stats.Validation)
	assert.Equal(t, 1, res.Stats.Test)
	assert.Equal(t, p.Paths().Split(), res.Files)

	stats, err := dataset.LoadStats(p.Paths().ProcessedDir)
	require.NoError(t, err)
	assert.Equal(t, *res.Stats, stats)

	// rebuilding from the same pairs is byte-identical
	first, err := os.ReadFile(p.Paths().Split()[0])
	require.NoError(t, err)
	_, err = p.Build(ctx)
	require.NoError(t, err)
	second, err := os.ReadFile(p.Paths().Split()[0])
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRepositoriesPrefersManifest(t *testing.T) {
	cfg := testConfig(t)
	seedRepo(t, cfg, "acme_widgets")
	seedRepo(t, cfg, "zeta_tools")
	p := New(cfg, logging.Nop())

	manifest := []miner.RepoRef{
		{Name: "zeta_tools", Path: "zeta_tools"},
		{Name: "acme_widgets"},
	}
	require.NoError(t, artifact.Write(p.Paths().Acquired, manifest))

	repos, err := p.Repositories()
	require.NoError(t, err)
	assert.Equal(t, []miner.RepoRef{
		{Name: "zeta_tools", Path: filepath.Join(p.Paths().ReposDir, "zeta_tools")},
		{Name: "acme_widgets", Path: filepath.Join(p.Paths().ReposDir, "acme_widgets")},
	}, repos)
}

func TestRepositoriesIgnoresNonRepos(t *testing.T) {
	cfg := testConfig(t)
	seedRepo(t, cfg, "acme_widgets")
	p := New(cfg, logging.Nop())
	require.NoError(t, os.MkdirAll(filepath.Join(p.Paths().ReposDir, "not_a_repo"), 0755))

	repos, err := p.Repositories()
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "acme_widgets", repos[0].Name)
}

func TestRepositoriesMissing(t *testing.T) {
	p := New(testConfig(t), logging.Nop())
	_, err := p.Repositories()
	assert.ErrorContains(t, err, "fixmine clone")
}

func TestClassifyFromAnotherDirectory(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)

	cfg := config.Default()
	cfg.Paths.DataDir = "data"
	seedRepo(t, cfg, "acme_widgets")
	p := New(cfg, logging.Nop())
	selected := []github.RepositoryDescriptor{
		{FullName: "acme/widgets", CloneURL: "https://invalid.example/acme/widgets.git"},
	}
	require.NoError(t, artifact.Write(p.Paths().Selected, selected))
	_, err := p.Acquire(context.Background())
	require.NoError(t, err)

	chdir(t, t.TempDir())
	elsewhere := config.Default()
	elsewhere.Paths.DataDir = filepath.Join(root, "data")
	res, err := New(elsewhere, logging.Nop()).Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Input)
	assert.Equal(t, 1, res.Output)
	assert.Zero(t, res.Skipped[constants.SkipRepoUnavailable])
}

func TestClassifySkipsUnopenableRepository(t *testing.T) {
	cfg := testConfig(t)
	seedRepo(t, cfg, "acme_widgets")
	p := New(cfg, logging.Nop())

	manifest := []miner.RepoRef{
		{Name: "gone", Path: filepath.Join(p.Paths().ReposDir, "gone")},
		{Name: "acme_widgets", Path: filepath.Join(p.Paths().ReposDir, "acme_widgets")},
	}
	require.NoError(t, artifact.Write(p.Paths().Acquired, manifest))

	res, err := p.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Output)
	assert.Equal(t, 1, res.Skipped[constants.SkipRepoUnavailable])
}

func TestStagesRequirePreviousArtifact(t *testing.T) {
	ctx := context.Background()
	p := New(testConfig(t), logging.Nop())

	_, err := p.Extract(ctx)
	assert.ErrorIs(t, err, artifact.ErrMissing)
	_, err = p.Build(ctx)
	assert.ErrorIs(t, err, artifact.ErrMissing)
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, artifact.ErrMissing)
}

func TestCancelledStageWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	seedRepo(t, cfg, "acme_widgets")
	p := New(cfg, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Classify(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, artifact.Exists(p.Paths().Commits))
}

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "language:Java stars:>=100", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total_count": 2,
			"items": []map[string]interface{}{
				{"full_name": "apache/commons-lang", "stargazers_count": 2500, "clone_url": "https://example.com/a.git"},
				{"full_name": "google/guava", "stargazers_count": 2000, "clone_url": "https://example.com/g.git"},
			},
		})
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Search.GitHubToken = "token"
	cfg.Search.APIURL = srv.URL
	p := New(cfg, logging.Nop())

	res, err := p.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Output)

	var selected []github.RepositoryDescriptor
	require.NoError(t, artifact.Read(p.Paths().Selected, &selected))
	require.Len(t, selected, 2)
	assert.Equal(t, "apache/commons-lang", selected[0].FullName)
	assert.Equal(t, 2500, selected[0].Stars)
}

func TestDiscoverWithoutToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.GitHubToken = ""
	_, err := New(cfg, logging.Nop()).Discover(context.Background())
	assert.ErrorContains(t, err, "GitHub token not configured")
}

func TestAcquireReusesAndSkipsFailures(t *testing.T) {
	cfg := testConfig(t)
	seedRepo(t, cfg, "acme_widgets")
	p := New(cfg, logging.Nop())

	selected := []github.RepositoryDescriptor{
		{FullName: "acme/widgets", CloneURL: "https://invalid.example/acme/widgets.git", Stars: 300},
		{FullName: "nobody/missing", CloneURL: filepath.Join(t.TempDir(), "missing"), Stars: 200},
	}
	require.NoError(t, artifact.Write(p.Paths().Selected, selected))

	var events []string
	p.Hooks.OnClone = func(index, total int, name string, cloned bool, err error) {
		events = append(events, fmt.Sprintf("%d/%d %s cloned=%v failed=%v", index, total, name, cloned, err != nil))
	}

	res, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Input)
	assert.Equal(t, 1, res.Output)
	assert.Equal(t, 1, res.Skipped[constants.SkipCloneFailed])
	assert.Equal(t, []string{
		"1/2 acme/widgets cloned=false failed=false",
		"2/2 nobody/missing cloned=false failed=true",
	}, events)

	var acquired []miner.RepoRef
	require.NoError(t, artifact.Read(p.Paths().Acquired, &acquired))
	require.Len(t, acquired, 1)
	assert.Equal(t, miner.RepoRef{
		Name:     "acme_widgets",
		FullName: "acme/widgets",
		Path:     "acme_widgets",
		CloneURL: "https://invalid.example/acme/widgets.git",
		Stars:    300,
	}, acquired[0])
}

func TestStages(t *testing.T) {
	p := New(testConfig(t), logging.Nop())

	names := func(stages []Stage) []string {
		var out []string
		for _, s := range stages {
			out = append(out, s.Name)
		}
		return out
	}
	assert.Equal(t, []string{"discover", "clone", "classify", "extract", "build"}, names(p.Stages(false, false)))
	assert.Equal(t, []string{"clone", "classify", "extract", "build"}, names(p.Stages(true, false)))
	assert.Equal(t, []string{"classify", "extract", "build"}, names(p.Stages(true, true)))
}

// chdir changes the working directory for the duration of the test,
// restoring the previous one on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
