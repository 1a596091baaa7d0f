package constants

// Artifact file names, relative to the data directory
const (
	SelectedReposFile  = "selected_repos.json"
	AcquiredReposFile  = "acquired_repos.json"
	BugFixCommitsFile  = "bug_fix_commits.json"
	ExtractedPairsFile = "extracted_bug_fixes.json"
	LedgerFile         = "fixmine.db"

	ReposDir     = "repos"
	ProcessedDir = "processed"

	TrainFile      = "train.json"
	ValidationFile = "validation.json"
	TestFile       = "test.json"
	StatsFile      = "dataset_stats.json"
)

// Skip reasons shared by the stages and the run ledger
const (
	SkipRepoUnavailable = "repo_unavailable"
	SkipCloneFailed     = "clone_failed"
	SkipHistoryError    = "history_error"
	SkipRootCommit      = "root_commit"
	SkipDiffError       = "diff_error"
	SkipNoTrackedFiles  = "no_tracked_files"
	SkipNoDiffEntry     = "no_diff_entry"
	SkipNoCounterpart   = "no_counterpart_blob"
	SkipBlobTooLarge    = "blob_too_large"
	SkipReadError       = "read_error"
	SkipLineWindow      = "line_window"
	SkipCharFloor       = "char_floor"
	SkipLossyDecode     = "lossy_decode"
)
