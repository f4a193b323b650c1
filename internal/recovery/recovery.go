// Package recovery copies cached documents out of a snapshot so they can be
// reopened after a crash, and searches snapshots for a document.
package recovery

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/snapshot"
	"github.com/raphi011/doccache/internal/storage"
)

// UntitledName is the base name given to documents that were never saved.
const UntitledName = "Untitled"

// ErrNoEntries is returned when there is nothing to export.
var ErrNoEntries = errors.New("no cached documents")

// Result is the outcome of exporting one entry.
type Result struct {
	Entry  mapping.Entry
	Source string // cache file
	Target string // exported file, empty on error
	Err    error
}

// ExportSnapshot exports every document of s into dest.
func ExportSnapshot(s snapshot.Snapshot, dest string) ([]Result, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.Name, err)
	}
	return Export(s.Path, entries, dest)
}

// Export copies the cache file of each entry, relative to dir, into dest.
// Files are named after the base name of the entry's logical path, or
// Untitled-N for unsaved documents. On a name collision -N is inserted
// before the extension. Existing files are never overwritten.
func Export(dir string, entries []mapping.Entry, dest string) ([]Result, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	results := make([]Result, 0, len(entries))
	untitled := 0
	for _, e := range entries {
		res := Result{Entry: e, Source: filepath.Join(dir, e.CacheFile)}

		name := filepath.Base(e.Path)
		if e.Path == "" || name == "." || name == string(filepath.Separator) {
			untitled++
			name = fmt.Sprintf("%s-%d", UntitledName, untitled)
		}

		res.Target, res.Err = copyUnique(res.Source, dest, name)
		results = append(results, res)
	}
	return results, nil
}

// copyUnique copies src into dir as name, or the first free name-N variant.
func copyUnique(src, dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		target := filepath.Join(dir, candidate)

		copied, err := storage.CopyFile(src, target)
		if err != nil {
			return "", err
		}
		if copied {
			return target, nil
		}
	}
}

// Item is one document found in a snapshot.
type Item struct {
	Snapshot snapshot.Snapshot
	Entry    mapping.Entry
}

// Collect returns the documents of every snapshot next to live, newest
// snapshot first. Snapshots without a readable index are skipped.
func Collect(live string) ([]Item, error) {
	snaps, err := snapshot.List(live)
	if err != nil {
		return nil, err
	}

	var items []Item
	for i := len(snaps) - 1; i >= 0; i-- {
		entries, err := snaps[i].Entries()
		if err != nil {
			continue
		}
		for _, e := range entries {
			items = append(items, Item{Snapshot: snaps[i], Entry: e})
		}
	}
	return items, nil
}

// itemSource implements fuzzy.Source for items.
type itemSource []Item

func (s itemSource) String(i int) string { return Label(s[i].Entry) }
func (s itemSource) Len() int            { return len(s) }

// Label returns the text an entry is displayed and matched by.
func Label(e mapping.Entry) string {
	if e.Path == "" {
		return UntitledName
	}
	return e.Path
}

// Search fuzzy-matches query against the logical paths of items, best
// match first.
func Search(items []Item, query string) []Item {
	matches := fuzzy.FindFrom(query, itemSource(items))
	found := make([]Item, len(matches))
	for i, m := range matches {
		found[i] = items[m.Index]
	}
	return found
}
