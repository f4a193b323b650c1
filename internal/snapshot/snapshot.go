// Package snapshot rotates a live cache directory into timestamped backups.
//
// A snapshot is a sibling of the live directory named by the UTC time it was
// taken, yyyyMMddhhmmss, with a -N suffix when several are taken within the
// same second:
//
//	Files/                 live cache directory
//	20261014093012/
//	20261014093012-1/
//	20261014101544/
//
// Names sort chronologically by (timestamp, suffix). Only directories whose
// names parse as snapshot names are listed or pruned; anything else next to
// the live directory is left alone.
package snapshot

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/storage"
)

// TimeFormat is the layout of the timestamp part of a snapshot name.
const TimeFormat = "20060102150405"

// DefaultKeep is the number of snapshots retained when Options.Keep is unset.
const DefaultKeep = 5

// ErrNotSnapshot is returned for names that are not snapshot names or do not
// exist.
var ErrNotSnapshot = errors.New("not a snapshot")

// Snapshot is a backup of a previous session's cache directory.
type Snapshot struct {
	Name string
	Path string
	Time time.Time // UTC, second resolution
	Seq  int       // collision suffix, 0 for none
}

// Entries reads the snapshot's index file.
func (s Snapshot) Entries() ([]mapping.Entry, error) {
	return mapping.Load(mapping.Path(s.Path))
}

// Options controls Take.
type Options struct {
	Now  func() time.Time // defaults to time.Now
	Keep int              // defaults to DefaultKeep
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) keep() int {
	if o.Keep < 1 {
		return DefaultKeep
	}
	return o.Keep
}

// Parse splits a snapshot name into its timestamp and collision suffix.
func Parse(name string) (time.Time, int, error) {
	stamp, suffix, hasSuffix := strings.Cut(name, "-")
	if len(stamp) != len(TimeFormat) {
		return time.Time{}, 0, errors.Wrapf(ErrNotSnapshot, "%q", name)
	}

	t, err := time.ParseInLocation(TimeFormat, stamp, time.UTC)
	if err != nil {
		return time.Time{}, 0, errors.Wrapf(ErrNotSnapshot, "%q", name)
	}

	if !hasSuffix {
		return t, 0, nil
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 1 || strconv.Itoa(seq) != suffix {
		return time.Time{}, 0, errors.Wrapf(ErrNotSnapshot, "%q", name)
	}
	return t, seq, nil
}

// NameFor returns a snapshot name for t that does not collide with any of
// existing. Existing names starting with the timestamp push the suffix past
// the largest one already in use; a bare timestamp counts as suffix 0.
func NameFor(t time.Time, existing []string) string {
	date := t.UTC().Format(TimeFormat)

	extra := 0
	for _, name := range existing {
		rest, ok := strings.CutPrefix(name, date)
		if !ok {
			continue
		}
		n, _ := strconv.Atoi(strings.TrimPrefix(rest, "-"))
		extra = max(extra, n+1)
	}

	if extra == 0 {
		return date
	}
	return date + "-" + strconv.Itoa(extra)
}

// Take moves the live directory to a new snapshot next to it, recreates an
// empty live directory and prunes old snapshots down to opts.Keep. The new
// snapshot counts towards opts.Keep but is never pruned, even when the
// clock is behind the existing names.
//
// Every step runs even if an earlier one failed, and nothing is rolled back.
// The computed snapshot path is returned in all cases together with the
// first error encountered.
func Take(live string, opts Options) (string, error) {
	live = filepath.Clean(live)
	parent := filepath.Dir(live)

	siblings, err := siblingDirs(parent, live)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", errors.Wrap(err, "list snapshots")
	}

	target := filepath.Join(parent, NameFor(opts.now(), siblings))

	var firstErr error
	record := func(err error, msg string) {
		if err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, msg)
		}
	}

	record(os.Rename(live, target), "move cache to snapshot")
	record(os.MkdirAll(live, storage.DirMode), "recreate cache directory")

	_, err = prune(live, opts.keep(), target)
	record(err, "prune snapshots")

	return target, firstErr
}

// List returns the snapshots next to live, oldest first.
func List(live string) ([]Snapshot, error) {
	live = filepath.Clean(live)
	parent := filepath.Dir(live)

	names, err := siblingDirs(parent, live)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "list snapshots")
	}

	var snaps []Snapshot
	for _, name := range names {
		t, seq, err := Parse(name)
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{
			Name: name,
			Path: filepath.Join(parent, name),
			Time: t,
			Seq:  seq,
		})
	}

	slices.SortFunc(snaps, func(a, b Snapshot) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	return snaps, nil
}

// Latest returns the most recent snapshot next to live.
func Latest(live string) (Snapshot, bool, error) {
	snaps, err := List(live)
	if err != nil || len(snaps) == 0 {
		return Snapshot{}, false, err
	}
	return snaps[len(snaps)-1], true, nil
}

// Find returns the snapshot called name next to live.
func Find(live, name string) (Snapshot, error) {
	snaps, err := List(live)
	if err != nil {
		return Snapshot{}, err
	}
	for _, s := range snaps {
		if s.Name == name {
			return s, nil
		}
	}
	return Snapshot{}, errors.Wrapf(ErrNotSnapshot, "%q", name)
}

// Prune recursively deletes the oldest snapshots next to live until at most
// keep remain. It returns the paths it removed.
func Prune(live string, keep int) ([]string, error) {
	return prune(live, keep, "")
}

// prune is Prune with protect excluded from deletion. An existing protect
// still takes one of the keep slots.
func prune(live string, keep int, protect string) ([]string, error) {
	if keep < 1 {
		keep = 1
	}

	snaps, err := List(live)
	if err != nil {
		return nil, err
	}

	if i := slices.IndexFunc(snaps, func(s Snapshot) bool { return s.Path == protect }); i >= 0 {
		snaps = slices.Delete(snaps, i, i+1)
		keep--
	}

	var removed []string
	for len(snaps) > keep {
		oldest := snaps[0]
		snaps = snaps[1:]
		if err := os.RemoveAll(oldest.Path); err != nil {
			return removed, errors.Wrapf(err, "remove snapshot %s", oldest.Name)
		}
		removed = append(removed, oldest.Path)
	}

	return removed, nil
}

// siblingDirs lists the directories in parent other than live.
func siblingDirs(parent, live string) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(live)
	var names []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == base {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
