package doctor

// IssueCategory groups issues by type.
type IssueCategory string

const (
	// CategoryCache represents problems with the live directory or its index.
	CategoryCache IssueCategory = "cache"
	// CategoryFiles represents orphan cache files and dangling index entries.
	CategoryFiles IssueCategory = "files"
	// CategorySnapshot represents problems with backup snapshots.
	CategorySnapshot IssueCategory = "snapshot"
)

// Fix actions.
const (
	FixNone         = ""
	FixRemoveFile   = "remove_file"
	FixDropEntry    = "drop_entry"
	FixPrune        = "prune"
	FixTakeSnapshot = "snapshot"
)

// Issue represents a problem detected by doctor.
type Issue struct {
	Key         string        // file, entry or snapshot name
	Description string        // human-readable description
	FixAction   string        // what --fix would do
	Category    IssueCategory // issue category
}

// IssueStats tracks counts of what was inspected.
type IssueStats struct {
	Entries   int // index entries in the live directory
	Files     int // cache files in the live directory
	Orphans   int // cache files no entry references
	Dangling  int // entries whose cache file is missing
	Snapshots int // snapshots next to the live directory
	Excess    int // snapshots beyond the retention bound
}

// Report is the result of Check.
type Report struct {
	Live   string
	Keep   int
	InUse  bool // another process holds the cache lock
	Issues []Issue
	Stats  IssueStats
}
