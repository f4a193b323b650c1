package doccache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/raphi011/doccache/internal/log"
	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/snapshot"
	"github.com/raphi011/doccache/internal/storage"
)

// ErrNoPath is returned by New when Config.Path is empty.
var ErrNoPath = errors.New("cache directory path is required")

// Config configures a Manager.
type Config struct {
	// Path is the live cache directory. Required.
	Path string
	// Keep bounds the number of snapshots retained next to Path.
	// Defaults to snapshot.DefaultKeep.
	Keep int
	// Logger receives debug messages for absorbed filesystem failures.
	Logger *log.Logger
	// Ordering is the initial document ordering, see SetOrdering.
	Ordering Ordering
	// NoLock skips the process lock next to Path.
	NoLock bool
	// Now returns the snapshot timestamp. Defaults to time.Now.
	Now func() time.Time
	// Names generates cache file names. Defaults to a process-wide
	// generator seeded from the clock.
	Names *NameGenerator
}

// Manager owns a live cache directory and the cache files of the documents
// it tracks.
type Manager struct {
	dir      string // absolute, no trailing separator
	previous string
	ordering Ordering

	files   map[DocumentID]string
	cancels map[DocumentID]func()

	snap  snapshot.Options
	names *NameGenerator
	log   *log.Logger
	lock  *FileLock

	closed bool
}

// New opens the cache directory at cfg.Path, creating it if needed.
//
// If the directory holds an index left by a previous session it is moved
// into a snapshot first, and PreviousPath reports where. Filesystem errors
// are logged and absorbed; the only errors returned are ErrNoPath and
// ErrLocked.
func New(cfg Config) (*Manager, error) {
	if cfg.Path == "" {
		return nil, ErrNoPath
	}

	dir, err := filepath.Abs(cfg.Path)
	if err != nil {
		dir = filepath.Clean(cfg.Path)
	}

	m := &Manager{
		dir:      dir,
		ordering: cfg.Ordering,
		files:    make(map[DocumentID]string),
		cancels:  make(map[DocumentID]func()),
		snap:     snapshot.Options{Now: cfg.Now, Keep: cfg.Keep},
		names:    cfg.Names,
		log:      cfg.Logger,
	}
	if m.names == nil {
		m.names = processNames()
	}
	if m.log == nil {
		m.log = log.Discard()
	}

	if err := os.MkdirAll(m.dir, storage.DirMode); err != nil {
		m.log.Debug("create cache directory failed", "path", m.dir, "error", err)
	}

	if !cfg.NoLock {
		lock := NewFileLock(filepath.Join(filepath.Dir(m.dir), LockFileName))
		if err := lock.TryLock(); err != nil {
			if errors.Is(err, ErrLocked) {
				return nil, err
			}
			m.log.Debug("lock cache directory failed", "path", m.dir, "error", err)
		} else {
			m.lock = lock
		}
	}

	names, err := storage.Files(m.dir)
	if err != nil {
		m.log.Debug("list cache directory failed", "path", m.dir, "error", err)
	}
	if len(names) > 0 && slices.Contains(names, mapping.FileName) {
		m.previous = m.takeSnapshot()
		m.log.Debug("previous session not claimed", "snapshot", m.previous)
	}

	return m, nil
}

// Close snapshots the live directory and releases the process lock.
// The snapshot is taken regardless of state so the next session can offer
// recovery. Calling Close more than once is a no-op.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}

	m.takeSnapshot()

	if m.lock == nil {
		return nil
	}
	return m.lock.Unlock()
}

func (m *Manager) takeSnapshot() string {
	target, err := snapshot.Take(m.dir, m.snap)
	if err != nil {
		m.log.Debug("snapshot failed", "path", m.dir, "snapshot", target, "error", err)
	}
	return target
}

// IsClean reports whether no previous-session state was found at startup.
func (m *Manager) IsClean() bool {
	return m.previous == ""
}

// PreviousPath returns the snapshot taken at startup, or "" if clean.
func (m *Manager) PreviousPath() string {
	return m.previous
}

// Path returns the live cache directory with a trailing separator.
func (m *Manager) Path() string {
	return m.dir + string(filepath.Separator)
}

// IsWritable reports whether the live directory and its parent are both
// writable. It is checked on each call.
func (m *Manager) IsWritable() bool {
	return storage.IsWritable(m.dir) && storage.IsWritable(filepath.Dir(m.dir))
}

// ParseMapping reads the index of the previous session, or of the live
// directory when clean. It returns the logical paths and the absolute cache
// file paths as parallel slices. An unreadable index yields empty slices.
func (m *Manager) ParseMapping() (files, datafiles []string) {
	dir := m.dir
	if m.previous != "" {
		dir = m.previous
	}

	entries, err := mapping.Load(mapping.Path(dir))
	if err != nil {
		m.log.Debug("read index failed", "path", dir, "error", err)
		return nil, nil
	}

	files = make([]string, 0, len(entries))
	datafiles = make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, e.Path)
		datafiles = append(datafiles, filepath.Join(dir, e.CacheFile))
	}
	return files, datafiles
}

// SetOrdering sets the document order used by UpdateMapping. A nil
// ordering has no documents.
func (m *Manager) SetOrdering(o Ordering) {
	m.ordering = o
}

// Add starts tracking doc under a new cache file name and rewrites the
// index. Documents implementing Notifier are observed until removed.
// Adding a tracked document only rewrites the index.
func (m *Manager) Add(doc Document) {
	id := doc.ID()
	if _, ok := m.files[id]; !ok {
		m.files[id] = m.names.Unique(m.nameTaken)
		if n, ok := doc.(Notifier); ok {
			m.cancels[id] = n.Observe(m)
		}
	}
	m.UpdateMapping()
}

func (m *Manager) nameTaken(name string) bool {
	for _, assigned := range m.files {
		if assigned == name {
			return true
		}
	}
	_, err := os.Lstat(filepath.Join(m.dir, name))
	return !errors.Is(err, os.ErrNotExist)
}

// Remove stops tracking doc. The index is rewritten before the cache file
// is deleted.
func (m *Manager) Remove(doc Document) {
	id := doc.ID()
	name, ok := m.files[id]
	if !ok {
		return
	}

	delete(m.files, id)
	if cancel, ok := m.cancels[id]; ok {
		cancel()
		delete(m.cancels, id)
	}

	m.UpdateMapping()

	path := filepath.Join(m.dir, name)
	if err := storage.RemoveIfExists(path); err != nil {
		m.log.Debug("remove cache file failed", "path", path, "error", err)
	}
}

// UpdateMapping rewrites the index from the current ordering. Untracked
// documents are skipped. A failed write leaves the previous index in place.
func (m *Manager) UpdateMapping() {
	var entries []mapping.Entry
	if m.ordering != nil {
		for i := range m.ordering.Count() {
			doc := m.ordering.Document(i)
			if doc == nil {
				continue
			}
			name, ok := m.files[doc.ID()]
			if !ok {
				continue
			}
			e := mapping.Entry{CacheFile: name, Path: doc.Filename()}
			if err := e.Validate(); err != nil {
				m.log.Debug("skip index entry", "document", doc.ID(), "error", err)
				continue
			}
			entries = append(entries, e)
		}
	}

	path := mapping.Path(m.dir)
	if err := mapping.Save(path, entries); err != nil {
		m.log.Debug("rewrite index failed", "path", path, "error", err)
	}
}

// ReplaceCacheFile replaces doc's cache file with a copy of src. It does
// nothing if doc is untracked or src already is the cache file.
func (m *Manager) ReplaceCacheFile(doc Document, src string) {
	dst, ok := m.CacheFile(doc)
	if !ok || filepath.Clean(src) == dst {
		return
	}
	if err := storage.ReplaceFile(src, dst); err != nil {
		m.log.Debug("replace cache file failed", "src", src, "dst", dst, "error", err)
	}
}

// WriteCacheFile has w write doc's contents to its cache file. The manager
// takes ownership of w and releases it however the call ends. Write errors
// are logged only; w reports them to its own caller.
func (m *Manager) WriteCacheFile(doc Document, w Writer) {
	if w == nil {
		return
	}
	defer release(w)

	path, ok := m.CacheFile(doc)
	if !ok {
		return
	}
	w.SetFileName(path)
	if err := w.Write(); err != nil {
		m.log.Debug("write cache file failed", "path", path, "error", err)
	}
}

// CacheFile returns the absolute path of doc's cache file.
func (m *Manager) CacheFile(doc Document) (string, bool) {
	if doc == nil {
		return "", false
	}
	name, ok := m.files[doc.ID()]
	if !ok {
		return "", false
	}
	return filepath.Join(m.dir, name), true
}

// Notify handles one document event.
func (m *Manager) Notify(ev Event) {
	switch ev.Kind {
	case EventRenamed:
		if _, ok := m.CacheFile(ev.Document); ok {
			m.UpdateMapping()
		}
	case EventReplaceCacheFile:
		m.ReplaceCacheFile(ev.Document, ev.Path)
	case EventWriteCacheFile:
		m.WriteCacheFile(ev.Document, ev.Writer)
	default:
		if ev.Writer != nil {
			release(ev.Writer)
		}
		m.log.Debug("ignore event", "kind", ev.Kind)
	}
}

// Drain handles events from ch in order until ch is closed or ctx is done.
func (m *Manager) Drain(ctx context.Context, ch <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			m.Notify(ev)
		}
	}
}
