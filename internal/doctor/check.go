package doctor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphi011/doccache/internal/doccache"
	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/snapshot"
	"github.com/raphi011/doccache/internal/storage"
)

// Check inspects the cache rooted at live. Nothing is modified apart from
// creating the lock file when it is missing.
func Check(live string, keep int) (Report, error) {
	live = filepath.Clean(live)
	if keep < 1 {
		keep = snapshot.DefaultKeep
	}
	report := Report{Live: live, Keep: keep}

	inUse, err := InUse(live)
	if err != nil {
		return report, err
	}
	report.InUse = inUse

	if inUse {
		report.Issues = append(report.Issues, Issue{
			Key:         filepath.Base(live),
			Description: "in use by a running session, live files not checked",
			Category:    CategoryCache,
		})
	} else {
		report.Issues = append(report.Issues, checkLive(live, &report.Stats)...)
	}

	snapIssues, err := checkSnapshots(live, keep, &report.Stats)
	if err != nil {
		return report, err
	}
	report.Issues = append(report.Issues, snapIssues...)

	// Claiming the index moves the live directory, so it goes last.
	if !inUse && mapping.Exists(live) {
		report.Issues = append(report.Issues, Issue{
			Key:         mapping.FileName,
			Description: "index left by a session that never claimed it",
			FixAction:   FixTakeSnapshot,
			Category:    CategoryCache,
		})
	}

	return report, nil
}

// InUse reports whether another process holds the lock of the cache at live.
func InUse(live string) (bool, error) {
	lockPath := filepath.Join(filepath.Dir(live), doccache.LockFileName)
	if _, err := os.Stat(filepath.Dir(lockPath)); os.IsNotExist(err) {
		return false, nil
	}

	lock := doccache.NewFileLock(lockPath)
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, doccache.ErrLocked) {
			return true, nil
		}
		return false, fmt.Errorf("failed to probe lock: %w", err)
	}
	return false, lock.Unlock()
}

// checkLive finds problems in the live directory.
func checkLive(live string, stats *IssueStats) []Issue {
	var issues []Issue

	if _, err := os.Stat(live); os.IsNotExist(err) {
		return nil
	}

	// Check 1: Writability of the live directory and its parent
	if !storage.IsWritable(live) || !storage.IsWritable(filepath.Dir(live)) {
		issues = append(issues, Issue{
			Key:         filepath.Base(live),
			Description: "cache directory or its parent is not writable, crash recovery is unavailable",
			Category:    CategoryCache,
		})
	}

	files, err := storage.Files(live)
	if err != nil {
		issues = append(issues, Issue{
			Key:         filepath.Base(live),
			Description: fmt.Sprintf("cannot list cache directory: %v", err),
			Category:    CategoryCache,
		})
		return issues
	}
	onDisk := make(map[string]bool)
	for _, name := range files {
		if doccache.IsCacheFileName(name) {
			onDisk[name] = true
		}
	}
	stats.Files = len(onDisk)

	// Check 2: Readable index
	var entries []mapping.Entry
	if mapping.Exists(live) {
		entries, err = mapping.Load(mapping.Path(live))
		if err != nil {
			issues = append(issues, Issue{
				Key:         mapping.FileName,
				Description: fmt.Sprintf("index is unreadable: %v", err),
				Category:    CategoryCache,
			})
			return issues
		}
	}
	stats.Entries = len(entries)

	// Check 3: Dangling entries
	referenced := make(map[string]bool)
	for _, e := range entries {
		referenced[e.CacheFile] = true
		if !onDisk[e.CacheFile] {
			issues = append(issues, Issue{
				Key:         e.CacheFile,
				Description: fmt.Sprintf("entry for %s has no cache file", displayPath(e.Path)),
				FixAction:   FixDropEntry,
				Category:    CategoryFiles,
			})
			stats.Dangling++
		}
	}

	// Check 4: Orphan cache files
	for _, name := range files {
		if onDisk[name] && !referenced[name] {
			issues = append(issues, Issue{
				Key:         name,
				Description: "cache file is not referenced by the index",
				FixAction:   FixRemoveFile,
				Category:    CategoryFiles,
			})
			stats.Orphans++
		}
	}

	return issues
}

// checkSnapshots reports snapshots beyond the retention bound.
func checkSnapshots(live string, keep int, stats *IssueStats) ([]Issue, error) {
	snaps, err := snapshot.List(live)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	stats.Snapshots = len(snaps)

	var issues []Issue
	for i := 0; i < len(snaps)-keep; i++ {
		issues = append(issues, Issue{
			Key:         snaps[i].Name,
			Description: fmt.Sprintf("exceeds keep_backups = %d", keep),
			FixAction:   FixPrune,
			Category:    CategorySnapshot,
		})
		stats.Excess++
	}
	return issues, nil
}

func displayPath(path string) string {
	if path == "" {
		return "an unsaved document"
	}
	return path
}
