package miner

import (
	"time"

	"github.com/ishaan812/fixmine/internal/git"
)

// History is the read access the classifier and extractor need from a
// locally materialized repository. *git.Repository satisfies it.
type History interface {
	Name() string
	Commits(maxCount int, fn func(git.CommitInfo) error) (int, error)
	ChangedPaths(hash string) ([]string, error)
	FilePair(hash, path string, maxBytes int64) (git.BlobPair, error)
}

// RepoRef identifies an acquired repository, in acquisition order. In the
// acquisition manifest Path is relative to the repos directory.
type RepoRef struct {
	Name     string `json:"name"`
	FullName string `json:"full_name,omitempty"`
	Path     string `json:"path"`
	CloneURL string `json:"url,omitempty"`
	Stars    int    `json:"stars,omitempty"`
}

// Opener resolves a repository reference to its history.
type Opener func(RepoRef) (History, error)

// CommitRecord is a bug-fix commit that touched at least one tracked file.
type CommitRecord struct {
	RepoName     string    `json:"repo_name"`
	CommitHash   string    `json:"commit_hash"`
	Message      string    `json:"commit_message"`
	Author       string    `json:"author"`
	AuthorEmail  string    `json:"author_email,omitempty"`
	Date         time.Time `json:"date"`
	ChangedFiles []string  `json:"changed_files"`
}

// CodePair is the before/after content of one file in one bug-fix commit.
type CodePair struct {
	RepoName    string `json:"repo_name"`
	CommitHash  string `json:"commit_hash"`
	Message     string `json:"commit_message"`
	FilePath    string `json:"file_path"`
	Before      string `json:"buggy_code"`
	After       string `json:"fixed_code"`
	BeforeLines int    `json:"buggy_lines"`
	AfterLines  int    `json:"fixed_lines"`

	BeforeLossy  bool `json:"buggy_lossy,omitempty"`
	AfterLossy   bool `json:"fixed_lossy,omitempty"`
	LinesAdded   int  `json:"lines_added"`
	LinesRemoved int  `json:"lines_removed"`
}

// Lossy reports whether either side needed byte substitution when decoded.
func (p CodePair) Lossy() bool {
	return p.BeforeLossy || p.AfterLossy
}

// Summary counts what a stage consumed, produced and skipped.
type Summary struct {
	Repos      int            `json:"repos"`
	Input      int            `json:"input"`
	Candidates int            `json:"candidates"`
	Output     int            `json:"output"`
	Skipped    map[string]int `json:"skipped"`
}

func newSummary() Summary {
	return Summary{Skipped: make(map[string]int)}
}

func (s *Summary) skip(reason string) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int)
	}
	s.Skipped[reason]++
}

func (s *Summary) merge(o Summary) {
	s.Repos += o.Repos
	s.Input += o.Input
	s.Candidates += o.Candidates
	s.Output += o.Output
	for reason, n := range o.Skipped {
		if s.Skipped == nil {
			s.Skipped = make(map[string]int)
		}
		s.Skipped[reason] += n
	}
}

// TotalSkipped sums every skip reason
func (s Summary) TotalSkipped() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}
