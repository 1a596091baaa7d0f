package constants

// Search defaults
const (
	DefaultLanguage = "Java"
	DefaultMinStars = 100
	DefaultMaxRepos = 10
)

// Mining defaults
const (
	DefaultMaxCommits   = 1000
	DefaultMinCodeLines = 3
	DefaultMaxCodeLines = 100

	// DefaultMaxBlobBytes caps how much of a single blob is read. Files past this
	// size are far outside any sane line window anyway.
	DefaultMaxBlobBytes  = 1 << 20
	DefaultProgressEvery = 50
)

// Dataset defaults
const (
	DefaultMinChars     = 50
	DefaultSeed         = 42
	DefaultTrainPercent = 80
	DefaultValPercent   = 10
)

// DefaultBugFixKeywords are matched as lowercase substrings of the commit message.
var DefaultBugFixKeywords = []string{"fix", "bug", "issue", "error", "crash", "patch"}

// DefaultFileExtensions is the tracked source-file extension set
var DefaultFileExtensions = []string{".java"}
