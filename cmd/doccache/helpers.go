package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/raphi011/doccache/internal/doccache"
	"github.com/raphi011/doccache/internal/snapshot"
	"github.com/raphi011/doccache/internal/storage"
)

// resolveSnapshot returns the snapshot named by args[0], or the latest one.
func resolveSnapshot(live string, args []string) (snapshot.Snapshot, error) {
	if len(args) > 0 {
		return snapshot.Find(live, args[0])
	}

	s, ok, err := snapshot.Latest(live)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if !ok {
		return snapshot.Snapshot{}, fmt.Errorf("no snapshots next to %s", live)
	}
	return s, nil
}

// completeSnapshots offers snapshot names for shell completion.
func completeSnapshots(live string) []string {
	snaps, err := snapshot.List(live)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(snaps))
	for i := len(snaps) - 1; i >= 0; i-- {
		names = append(names, snaps[i].Name)
	}
	return names
}

// lockCache takes the cache lock so no editor session starts while the
// live directory is modified.
func lockCache(live string) (unlock func(), err error) {
	lock := doccache.NewFileLock(filepath.Join(filepath.Dir(live), doccache.LockFileName))
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, doccache.ErrLocked) {
			return nil, fmt.Errorf("%s: %w", live, err)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return func() { lock.Unlock() }, nil
}

// cacheWritable reports whether live exists and both it and its parent are
// writable, the same condition an editor session needs for recovery.
func cacheWritable(live string) bool {
	if _, err := os.Stat(live); err != nil {
		return false
	}
	return storage.IsWritable(live) && storage.IsWritable(filepath.Dir(live))
}

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
