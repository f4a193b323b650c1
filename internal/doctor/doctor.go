package doctor

import (
	"context"
	"fmt"

	"github.com/raphi011/doccache/internal/config"
	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/output"
)

// Run performs diagnostic checks on the cache directory and optionally fixes issues.
func Run(ctx context.Context, cfg config.Config, fix bool) error {
	out := output.FromContext(ctx)
	l := log.FromContext(ctx)

	l.Printf("Checking %s...\n", cfg.CacheDir)
	report, err := Check(cfg.CacheDir, cfg.KeepBackups)
	if err != nil {
		return err
	}
	l.Debug("doctor report", "entries", report.Stats.Entries, "files", report.Stats.Files,
		"snapshots", report.Stats.Snapshots, "in_use", report.InUse)

	printSummary(out, report.Stats)

	if len(report.Issues) == 0 {
		out.Println("\n✓ No issues found")
		return nil
	}

	out.Printf("\nFound %d issues:\n", len(report.Issues))
	printIssuesByCategory(out, report.Issues)

	if !fix {
		if fixable(report.Issues) > 0 {
			out.Println("\nRun 'doccache doctor --fix' to repair.")
		}
		return nil
	}
	if fixable(report.Issues) == 0 {
		return nil
	}

	out.Println()
	results, err := Fix(report)
	if err != nil {
		return err
	}

	var fixed, failed int
	for _, res := range results {
		if res.Err != nil {
			out.Printf("  ✗ Failed to fix %q: %v\n", res.Issue.Key, res.Err)
			failed++
			continue
		}
		out.Printf("  ✓ %s %q\n", fixVerb(res.Issue.FixAction), res.Issue.Key)
		fixed++
	}

	if failed > 0 {
		out.Printf("\nFixed %d issues, %d failed.\n", fixed, failed)
		return fmt.Errorf("%d fixes failed", failed)
	}
	out.Printf("\nFixed %d issues.\n", fixed)
	return nil
}

func fixable(issues []Issue) int {
	n := 0
	for _, issue := range issues {
		if issue.FixAction != FixNone {
			n++
		}
	}
	return n
}

func fixVerb(action string) string {
	switch action {
	case FixRemoveFile:
		return "Removed orphan"
	case FixDropEntry:
		return "Dropped entry"
	case FixPrune:
		return "Pruned snapshot"
	case FixTakeSnapshot:
		return "Moved to snapshot"
	default:
		return "Fixed"
	}
}

// printSummary prints what was inspected.
func printSummary(out *output.Printer, stats IssueStats) {
	out.Println()
	out.Printf("  ✓ %d index entries, %d cache files\n", stats.Entries, stats.Files)
	if stats.Dangling > 0 {
		out.Printf("  ⚠ %d dangling entries\n", stats.Dangling)
	}
	if stats.Orphans > 0 {
		out.Printf("  ⚠ %d orphan cache files\n", stats.Orphans)
	}
	out.Printf("  ✓ %d snapshots\n", stats.Snapshots)
	if stats.Excess > 0 {
		out.Printf("  ⚠ %d beyond retention\n", stats.Excess)
	}
}

// printIssuesByCategory groups and prints issues.
func printIssuesByCategory(out *output.Printer, issues []Issue) {
	byCategory := make(map[IssueCategory][]Issue)
	for _, issue := range issues {
		byCategory[issue.Category] = append(byCategory[issue.Category], issue)
	}

	categoryNames := map[IssueCategory]string{
		CategoryCache:    "Cache issues",
		CategoryFiles:    "File issues",
		CategorySnapshot: "Snapshot issues",
	}

	for _, cat := range []IssueCategory{CategoryCache, CategoryFiles, CategorySnapshot} {
		catIssues := byCategory[cat]
		if len(catIssues) == 0 {
			continue
		}

		out.Printf("\n%s:\n", categoryNames[cat])
		for _, issue := range catIssues {
			out.Printf("  • %s: %s\n", issue.Key, issue.Description)
		}
	}
}
