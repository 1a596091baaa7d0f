package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ishaan812/fixmine/internal/constants"
)

// EnvPrefix is the prefix for environment overrides. Sections are separated by a
// double underscore, e.g. FIXMINE_EXTRACT__MAX_LINES=200.
const EnvPrefix = "FIXMINE_"

type SearchConfig struct {
	Language    string `koanf:"language"`
	MinStars    int    `koanf:"min_stars"`
	MaxRepos    int    `koanf:"max_repos"`
	GitHubToken string `koanf:"github_token"`
	APIURL      string `koanf:"api_url"`
}

type MiningConfig struct {
	Keywords   []string `koanf:"keywords"`
	Extensions []string `koanf:"extensions"`
	MaxCommits int      `koanf:"max_commits"`
}

type ExtractConfig struct {
	MinLines      int   `koanf:"min_lines"`
	MaxLines      int   `koanf:"max_lines"`
	MaxBlobBytes  int64 `koanf:"max_blob_bytes"`
	DetectCharset bool  `koanf:"detect_charset"`
	ProgressEvery int   `koanf:"progress_every"`
}

type DatasetConfig struct {
	MinChars     int   `koanf:"min_chars"`
	Seed         int64 `koanf:"seed"`
	TrainPercent int   `koanf:"train_percent"`
	ValPercent   int   `koanf:"val_percent"`
	RejectLossy  bool  `koanf:"reject_lossy"`
}

type PathsConfig struct {
	DataDir string `koanf:"data_dir"`
}

type Config struct {
	Search  SearchConfig  `koanf:"search"`
	Mining  MiningConfig  `koanf:"mining"`
	Extract ExtractConfig `koanf:"extract"`
	Dataset DatasetConfig `koanf:"dataset"`
	Paths   PathsConfig   `koanf:"paths"`

	// Source is the config file that was loaded, empty when running on defaults.
	Source string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"search.language":        constants.DefaultLanguage,
		"search.min_stars":       constants.DefaultMinStars,
		"search.max_repos":       constants.DefaultMaxRepos,
		"mining.keywords":        constants.DefaultBugFixKeywords,
		"mining.extensions":      constants.DefaultFileExtensions,
		"mining.max_commits":     constants.DefaultMaxCommits,
		"extract.min_lines":      constants.DefaultMinCodeLines,
		"extract.max_lines":      constants.DefaultMaxCodeLines,
		"extract.max_blob_bytes": constants.DefaultMaxBlobBytes,
		"extract.detect_charset": true,
		"extract.progress_every": constants.DefaultProgressEvery,
		"dataset.min_chars":      constants.DefaultMinChars,
		"dataset.seed":           constants.DefaultSeed,
		"dataset.train_percent":  constants.DefaultTrainPercent,
		"dataset.val_percent":    constants.DefaultValPercent,
		"dataset.reject_lossy":   false,
		"paths.data_dir":         "data",
	}
}

// Default is the configuration used when no file or environment overrides
// anything.
func Default() *Config {
	k := koanf.New(".")
	k.Load(confmap.Provider(defaults(), "."), nil)
	var cfg Config
	k.Unmarshal("", &cfg)
	cfg.normalize()
	return &cfg
}

// DefaultSearchPaths are tried in order when no explicit config path is given
var DefaultSearchPaths = []string{"./fixmine.toml", "$HOME/.fixmine.toml"}

// Load builds the configuration from defaults, an optional TOML file and the
// environment, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	source := ""
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
		source = configPath
	} else {
		for _, p := range DefaultSearchPaths {
			p = os.ExpandEnv(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", p, err)
			}
			source = p
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = source

	if cfg.Search.GitHubToken == "" {
		cfg.Search.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	cfg.normalize()

	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func (c *Config) normalize() {
	for i, kw := range c.Mining.Keywords {
		c.Mining.Keywords[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	for i, ext := range c.Mining.Extensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Mining.Extensions[i] = ext
	}
}

// Validate checks the values every stage depends on. Any error here is fatal
// before a stage runs.
func (c *Config) Validate() error {
	var errs []error

	if len(nonEmpty(c.Mining.Keywords)) == 0 {
		errs = append(errs, errors.New("mining.keywords must not be empty"))
	}
	if len(nonEmpty(c.Mining.Extensions)) == 0 {
		errs = append(errs, errors.New("mining.extensions must not be empty"))
	}
	if c.Mining.MaxCommits < 1 {
		errs = append(errs, fmt.Errorf("mining.max_commits must be at least 1, got %d", c.Mining.MaxCommits))
	}
	if c.Extract.MinLines < 1 {
		errs = append(errs, fmt.Errorf("extract.min_lines must be at least 1, got %d", c.Extract.MinLines))
	}
	if c.Extract.MinLines > c.Extract.MaxLines {
		errs = append(errs, fmt.Errorf("extract.min_lines (%d) exceeds extract.max_lines (%d)", c.Extract.MinLines, c.Extract.MaxLines))
	}
	if c.Extract.MaxBlobBytes < 0 {
		errs = append(errs, errors.New("extract.max_blob_bytes must not be negative"))
	}
	if c.Dataset.MinChars < 0 {
		errs = append(errs, errors.New("dataset.min_chars must not be negative"))
	}
	if c.Dataset.TrainPercent < 0 || c.Dataset.ValPercent < 0 || c.Dataset.TrainPercent+c.Dataset.ValPercent > 100 {
		errs = append(errs, fmt.Errorf("dataset split %d/%d is not a valid percentage split", c.Dataset.TrainPercent, c.Dataset.ValPercent))
	}
	if c.Paths.DataDir == "" {
		errs = append(errs, errors.New("paths.data_dir must be set"))
	}

	return errors.Join(errs...)
}

// ValidateSearch checks the extra requirements of the discovery stage.
func (c *Config) ValidateSearch() error {
	if c.Search.GitHubToken == "" {
		return errors.New("GitHub token not configured: set GITHUB_TOKEN or search.github_token")
	}
	if c.Search.Language == "" {
		return errors.New("search.language must be set")
	}
	if c.Search.MaxRepos < 1 {
		return fmt.Errorf("search.max_repos must be at least 1, got %d", c.Search.MaxRepos)
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// MaskedToken is safe to print
func (c *Config) MaskedToken() string {
	t := c.Search.GitHubToken
	switch {
	case t == "":
		return "(not set)"
	case len(t) <= 8:
		return "****"
	default:
		return t[:4] + "…" + t[len(t)-4:]
	}
}

const sampleConfig = `# fixmine configuration

[search]
language = "Java"
min_stars = 100
max_repos = 10
# github_token = "ghp_..."   # or set GITHUB_TOKEN

[mining]
keywords = ["fix", "bug", "issue", "error", "crash", "patch"]
extensions = [".java"]
max_commits = 1000

[extract]
min_lines = 3
max_lines = 100
max_blob_bytes = 1048576
detect_charset = true
progress_every = 50

[dataset]
min_chars = 50
seed = 42
train_percent = 80
val_percent = 10
reject_lossy = false

[paths]
data_dir = "data"
`

// InitConfig writes a sample configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
