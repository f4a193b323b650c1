package doctor

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/raphi011/doccache/internal/doccache"
	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/snapshot"
	"github.com/raphi011/doccache/internal/storage"
)

// FixResult is the outcome of fixing one issue.
type FixResult struct {
	Issue Issue
	Err   error
}

// Fix applies the fix action of every fixable issue in report. Orphans and
// dangling entries are fixed before pruning, and an unclaimed index is moved
// to a snapshot last. It holds the cache lock while fixing.
func Fix(report Report) ([]FixResult, error) {
	lock := doccache.NewFileLock(filepath.Join(filepath.Dir(report.Live), doccache.LockFileName))
	if err := lock.TryLock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	byAction := make(map[string][]Issue)
	for _, issue := range report.Issues {
		if issue.FixAction != FixNone {
			byAction[issue.FixAction] = append(byAction[issue.FixAction], issue)
		}
	}

	var results []FixResult

	for _, issue := range byAction[FixRemoveFile] {
		err := storage.RemoveIfExists(filepath.Join(report.Live, issue.Key))
		results = append(results, FixResult{Issue: issue, Err: err})
	}

	if dangling := byAction[FixDropEntry]; len(dangling) > 0 {
		err := dropEntries(report.Live, dangling)
		for _, issue := range dangling {
			results = append(results, FixResult{Issue: issue, Err: err})
		}
	}

	if excess := byAction[FixPrune]; len(excess) > 0 {
		removed, err := snapshot.Prune(report.Live, report.Keep)
		for _, issue := range excess {
			res := FixResult{Issue: issue, Err: err}
			if err == nil && !slices.ContainsFunc(removed, func(path string) bool {
				return filepath.Base(path) == issue.Key
			}) {
				res.Err = fmt.Errorf("snapshot %s was not pruned", issue.Key)
			}
			results = append(results, res)
		}
	}

	for _, issue := range byAction[FixTakeSnapshot] {
		target, err := snapshot.Take(report.Live, snapshot.Options{Keep: report.Keep})
		if err == nil {
			issue.Description = fmt.Sprintf("moved to %s", filepath.Base(target))
		}
		results = append(results, FixResult{Issue: issue, Err: err})
	}

	return results, nil
}

// dropEntries rewrites the live index without the given entries.
func dropEntries(live string, issues []Issue) error {
	path := mapping.Path(live)
	entries, err := mapping.Load(path)
	if err != nil {
		return err
	}

	drop := make(map[string]bool, len(issues))
	for _, issue := range issues {
		drop[issue.Key] = true
	}
	entries = slices.DeleteFunc(entries, func(e mapping.Entry) bool {
		return drop[e.CacheFile]
	})
	return mapping.Save(path, entries)
}
