package doccache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/raphi011/doccache/internal/mapping"
	"github.com/raphi011/doccache/internal/snapshot"
)

var testTime = time.Date(2026, 10, 14, 9, 30, 12, 0, time.UTC)

type testDoc struct {
	id       DocumentID
	filename string
	observer Observer
}

func (d *testDoc) ID() DocumentID   { return d.id }
func (d *testDoc) Filename() string { return d.filename }

// notifyingDoc pushes its own events like an editor document would.
type notifyingDoc struct {
	testDoc
}

func (d *notifyingDoc) Observe(o Observer) func() {
	d.observer = o
	return func() { d.observer = nil }
}

func (d *notifyingDoc) emit(ev Event) {
	if d.observer != nil {
		d.observer.Notify(ev)
	}
}

type docList []Document

func (l docList) Count() int              { return len(l) }
func (l docList) Document(i int) Document { return l[i] }

type testWriter struct {
	content  string
	err      error
	panics   bool
	path     string
	written  bool
	released bool
}

func (w *testWriter) SetFileName(path string) { w.path = path }

func (w *testWriter) Write() error {
	w.written = true
	if w.panics {
		panic("serializer failed")
	}
	if w.err != nil {
		return w.err
	}
	return os.WriteFile(w.path, []byte(w.content), 0600)
}

func (w *testWriter) Close() error {
	w.released = true
	return nil
}

func newManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testTime }
	}
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNew_NoPath(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); !errors.Is(err, ErrNoPath) {
		t.Errorf("New() error = %v, want ErrNoPath", err)
	}
}

func TestNew_CleanStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, live string)
	}{
		{"nonexistent", func(t *testing.T, live string) {}},
		{"empty", func(t *testing.T, live string) {
			if err := os.Mkdir(live, 0700); err != nil {
				t.Fatal(err)
			}
		}},
		{"files without index", func(t *testing.T, live string) {
			writeFile(t, filepath.Join(live, "fw_000001"), "orphan")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parent := t.TempDir()
			live := filepath.Join(parent, "Files")
			tt.setup(t, live)

			m := newManager(t, Config{Path: live})
			defer m.Close()

			if !m.IsClean() {
				t.Error("IsClean() = false, want true")
			}
			if m.PreviousPath() != "" {
				t.Errorf("PreviousPath() = %q, want empty", m.PreviousPath())
			}
			if info, err := os.Stat(live); err != nil || !info.IsDir() {
				t.Errorf("live directory missing: %v", err)
			}

			got := dirNames(t, parent)
			want := []string{LockFileName, "Files"}
			if !slices.Equal(got, want) {
				t.Errorf("parent contents = %v, want %v", got, want)
			}
		})
	}
}

func TestNew_UncleanStart(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	live := filepath.Join(parent, "Files")
	writeFile(t, filepath.Join(live, "fw_aaaaaa"), "first document")
	writeFile(t, filepath.Join(live, "fw_bbbbbb"), "second document")
	if err := mapping.Save(mapping.Path(live), []mapping.Entry{
		{CacheFile: "fw_aaaaaa", Path: "/home/me/My Letter.odt"},
		{CacheFile: "fw_bbbbbb", Path: ""},
	}); err != nil {
		t.Fatal(err)
	}

	m := newManager(t, Config{Path: live})
	defer m.Close()

	if m.IsClean() {
		t.Fatal("IsClean() = true, want false")
	}
	wantPrev := filepath.Join(parent, "20261014093012")
	if m.PreviousPath() != wantPrev {
		t.Fatalf("PreviousPath() = %q, want %q", m.PreviousPath(), wantPrev)
	}

	if got := dirNames(t, live); len(got) != 0 {
		t.Errorf("live directory = %v, want empty", got)
	}
	if got := readFile(t, filepath.Join(wantPrev, "fw_aaaaaa")); got != "first document" {
		t.Errorf("snapshot fw_aaaaaa = %q", got)
	}
	if got := readFile(t, filepath.Join(wantPrev, "fw_bbbbbb")); got != "second document" {
		t.Errorf("snapshot fw_bbbbbb = %q", got)
	}

	snaps, err := snapshot.List(live)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Errorf("got %d snapshots, want 1", len(snaps))
	}

	files, datafiles := m.ParseMapping()
	wantFiles := []string{"/home/me/My Letter.odt", ""}
	wantData := []string{
		filepath.Join(wantPrev, "fw_aaaaaa"),
		filepath.Join(wantPrev, "fw_bbbbbb"),
	}
	if !slices.Equal(files, wantFiles) {
		t.Errorf("ParseMapping() files = %q, want %q", files, wantFiles)
	}
	if !slices.Equal(datafiles, wantData) {
		t.Errorf("ParseMapping() datafiles = %q, want %q", datafiles, wantData)
	}
}

func TestNew_UncleanStartClockBehind(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	live := filepath.Join(parent, "Files")
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range snapshot.DefaultKeep {
		name := future.Add(time.Duration(i) * time.Hour).Format(snapshot.TimeFormat)
		if err := os.Mkdir(filepath.Join(parent, name), 0700); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(live, "fw_000001"), "unsaved work")
	if err := mapping.Save(mapping.Path(live), []mapping.Entry{{CacheFile: "fw_000001", Path: "/home/me/a.odt"}}); err != nil {
		t.Fatal(err)
	}

	m := newManager(t, Config{Path: live, NoLock: true})

	if m.IsClean() {
		t.Fatal("IsClean() = true, want false")
	}
	if _, err := os.Stat(m.PreviousPath()); err != nil {
		t.Fatalf("previous snapshot is gone: %v", err)
	}
	files, datafiles := m.ParseMapping()
	if !slices.Equal(files, []string{"/home/me/a.odt"}) {
		t.Errorf("ParseMapping() files = %q", files)
	}
	if len(datafiles) != 1 || readFile(t, datafiles[0]) != "unsaved work" {
		t.Errorf("ParseMapping() datafiles = %q", datafiles)
	}
}

func TestNew_RetentionBound(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	live := filepath.Join(parent, "Files")

	var want []string
	for i := range 8 {
		writeFile(t, filepath.Join(live, "fw_000000"), "content")
		if err := mapping.Save(mapping.Path(live), []mapping.Entry{{CacheFile: "fw_000000"}}); err != nil {
			t.Fatal(err)
		}

		at := testTime.Add(time.Duration(i) * time.Minute)
		m := newManager(t, Config{Path: live, NoLock: true, Now: func() time.Time { return at }})
		if m.IsClean() {
			t.Fatalf("session %d: IsClean() = true, want false", i)
		}
		if i >= 3 {
			want = append(want, at.Format(snapshot.TimeFormat))
		}
	}

	snaps, err := snapshot.List(live)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range snaps {
		got = append(got, s.Name)
	}
	if !slices.Equal(got, want) {
		t.Errorf("snapshots = %v, want %v", got, want)
	}
}

func TestNew_KeepOption(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	live := filepath.Join(parent, "Files")

	for i := range 4 {
		at := testTime.Add(time.Duration(i) * time.Second)
		m := newManager(t, Config{Path: live, Keep: 2, Now: func() time.Time { return at }})
		if err := m.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	snaps, err := snapshot.List(live)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Errorf("got %d snapshots, want 2", len(snaps))
	}
}

func TestNew_Locked(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")

	first := newManager(t, Config{Path: live})

	if _, err := New(Config{Path: live}); !errors.Is(err, ErrLocked) {
		t.Fatalf("second New() error = %v, want ErrLocked", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := New(Config{Path: live, Now: func() time.Time { return testTime.Add(time.Hour) }})
	if err != nil {
		t.Fatalf("New() after Close error = %v", err)
	}
	second.Close()
}

func TestNew_NoLock(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")

	first := newManager(t, Config{Path: live})
	defer first.Close()

	second, err := New(Config{Path: live, NoLock: true})
	if err != nil {
		t.Fatalf("New() with NoLock error = %v", err)
	}
	if second.lock != nil {
		t.Error("NoLock manager holds a lock")
	}
}

func TestManager_Path(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")
	m := newManager(t, Config{Path: live + "/"})
	defer m.Close()

	if want := live + string(filepath.Separator); m.Path() != want {
		t.Errorf("Path() = %q, want %q", m.Path(), want)
	}
	if !m.IsWritable() {
		t.Error("IsWritable() = false for a temp directory")
	}
}

func TestManager_RelativePath(t *testing.T) {
	t.Parallel()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(t.TempDir(), "Files")
	rel, err := filepath.Rel(wd, abs)
	if err != nil {
		t.Skipf("no relative path to temp dir: %v", err)
	}
	writeFile(t, filepath.Join(abs, "fw_000001"), "content")
	if err := mapping.Save(mapping.Path(abs), []mapping.Entry{{CacheFile: "fw_000001", Path: "a.odt"}}); err != nil {
		t.Fatal(err)
	}

	m := newManager(t, Config{Path: rel})
	defer m.Close()

	if want := abs + string(filepath.Separator); m.Path() != want {
		t.Errorf("Path() = %q, want %q", m.Path(), want)
	}
	_, datafiles := m.ParseMapping()
	if len(datafiles) != 1 || !filepath.IsAbs(datafiles[0]) {
		t.Errorf("ParseMapping() datafiles = %q, want one absolute path", datafiles)
	}
}

func TestManager_IsWritableReadOnlyParent(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	parent := t.TempDir()
	m := newManager(t, Config{Path: filepath.Join(parent, "Files"), NoLock: true})

	if err := os.Chmod(parent, 0500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(parent, 0700) })

	if m.IsWritable() {
		t.Error("IsWritable() = true with a read-only parent")
	}

	if err := os.Chmod(parent, 0700); err != nil {
		t.Fatal(err)
	}
	if !m.IsWritable() {
		t.Error("IsWritable() = false after restoring the parent")
	}
	m.Close()
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	live := filepath.Join(parent, "Files")
	m := newManager(t, Config{Path: live})

	doc := &testDoc{id: "a", filename: "/tmp/a.odt"}
	m.SetOrdering(docList{doc})
	m.Add(doc)
	m.WriteCacheFile(doc, &testWriter{content: "text"})
	cache, _ := m.CacheFile(doc)

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	snap := filepath.Join(parent, "20261014093012")
	if got := readFile(t, filepath.Join(snap, filepath.Base(cache))); got != "text" {
		t.Errorf("snapshot cache file = %q, want %q", got, "text")
	}
	if !mapping.Exists(snap) {
		t.Error("snapshot has no index")
	}
	if got := dirNames(t, live); len(got) != 0 {
		t.Errorf("live directory after Close = %v, want empty", got)
	}

	next := newManager(t, Config{Path: live, Now: func() time.Time { return testTime.Add(time.Hour) }})
	defer next.Close()
	if !next.IsClean() {
		t.Error("session after Close should start clean")
	}
}

func TestManager_CollisionAvoidance(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")

	// Occupy the first names the seeded generator will produce.
	probe := NewNameGenerator(42)
	occupied := []string{probe.Next(), probe.Next()}
	for _, name := range occupied {
		writeFile(t, filepath.Join(live, name), "existing")
	}

	m := newManager(t, Config{Path: live, Names: NewNameGenerator(42)})
	defer m.Close()

	seen := make(map[string]bool)
	for i := range 50 {
		doc := &testDoc{id: DocumentID(strings.Repeat("d", i+1))}
		m.Add(doc)

		path, ok := m.CacheFile(doc)
		if !ok {
			t.Fatalf("document %d not tracked", i)
		}
		name := filepath.Base(path)
		if slices.Contains(occupied, name) {
			t.Errorf("Add() assigned existing file %s", name)
		}
		if seen[name] {
			t.Errorf("Add() assigned %s twice", name)
		}
		if !IsCacheFileName(name) {
			t.Errorf("Add() assigned malformed name %q", name)
		}
		seen[name] = true
	}
}

func TestManager_AddTwice(t *testing.T) {
	t.Parallel()

	m := newManager(t, Config{Path: filepath.Join(t.TempDir(), "Files")})
	defer m.Close()

	doc := &testDoc{id: "a", filename: "/tmp/a.odt"}
	m.SetOrdering(docList{doc})
	m.Add(doc)
	first, _ := m.CacheFile(doc)
	m.Add(doc)
	second, _ := m.CacheFile(doc)

	if first != second {
		t.Errorf("re-adding changed cache file %s -> %s", first, second)
	}
	files, _ := m.ParseMapping()
	if len(files) != 1 {
		t.Errorf("index has %d entries, want 1", len(files))
	}
}

func TestManager_UpdateMappingOrder(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")
	m := newManager(t, Config{Path: live})
	defer m.Close()

	d1 := &testDoc{id: "1", filename: "/home/me/Quarterly Report Final.odt"}
	d2 := &testDoc{id: "2", filename: ""}
	d3 := &testDoc{id: "3", filename: "/home/me/notes.txt"}
	untracked := &testDoc{id: "x", filename: "/home/me/ignored.odt"}

	// Tracking order differs from the editor's tab order.
	m.Add(d3)
	m.Add(d1)
	m.Add(d2)
	m.SetOrdering(docList{d1, untracked, d2, d3})
	m.UpdateMapping()

	entries, err := mapping.Load(mapping.Path(live))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []*testDoc{d1, d2, d3}
	if len(entries) != len(want) {
		t.Fatalf("index has %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i, doc := range want {
		cache, _ := m.CacheFile(doc)
		if entries[i].CacheFile != filepath.Base(cache) {
			t.Errorf("entry %d cache file = %q, want %q", i, entries[i].CacheFile, filepath.Base(cache))
		}
		if entries[i].Path != doc.filename {
			t.Errorf("entry %d path = %q, want %q", i, entries[i].Path, doc.filename)
		}
	}

	data := readFile(t, mapping.Path(live))
	if !strings.HasPrefix(data, "\ufeff") {
		t.Error("index does not start with a BOM")
	}
}

func TestManager_NilOrdering(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")
	m := newManager(t, Config{Path: live})
	defer m.Close()

	m.Add(&testDoc{id: "a", filename: "/tmp/a.odt"})

	entries, err := mapping.Load(mapping.Path(live))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("index with nil ordering = %+v, want empty", entries)
	}
}

func TestManager_SkipsInvalidEntry(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")
	m := newManager(t, Config{Path: live})
	defer m.Close()

	good := &testDoc{id: "a", filename: "/tmp/a.odt"}
	bad := &testDoc{id: "b", filename: "/tmp/line\nbreak.odt"}
	m.SetOrdering(docList{good, bad})
	m.Add(good)
	m.Add(bad)

	files, _ := m.ParseMapping()
	if !slices.Equal(files, []string{"/tmp/a.odt"}) {
		t.Errorf("ParseMapping() files = %q, want only the valid entry", files)
	}
}

func TestManager_RemoveThenReread(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")
	m := newManager(t, Config{Path: live})
	defer m.Close()

	keep := &testDoc{id: "keep", filename: "/tmp/keep.odt"}
	gone := &testDoc{id: "gone", filename: "/tmp/gone.odt"}
	m.SetOrdering(docList{keep, gone})
	m.Add(keep)
	m.Add(gone)

	w := &testWriter{content: "draft"}
	m.WriteCacheFile(gone, w)
	cache, _ := m.CacheFile(gone)
	if got := readFile(t, cache); got != "draft" {
		t.Fatalf("cache file = %q, want %q", got, "draft")
	}

	m.Remove(gone)

	if _, err := os.Stat(cache); !os.IsNotExist(err) {
		t.Errorf("cache file still exists after Remove: %v", err)
	}
	if _, ok := m.CacheFile(gone); ok {
		t.Error("document still tracked after Remove")
	}
	files, datafiles := m.ParseMapping()
	if slices.Contains(files, gone.filename) || slices.Contains(datafiles, cache) {
		t.Errorf("index still references removed document: %q %q", files, datafiles)
	}
	if len(files) != 1 {
		t.Errorf("index has %d entries, want 1", len(files))
	}

	// Removing an untracked document is a no-op.
	m.Remove(gone)
}

func TestManager_ReplaceCacheFileSamePath(t *testing.T) {
	t.Parallel()

	live := filepath.Join(t.TempDir(), "Files")
	m := newManager(t, Config{Path: live})
	defer m.Close()

	doc := &testDoc{id: "a"}
	m.Add(doc)
	m.WriteCacheFile(doc, &testWriter{content: "original bytes"})
	cache, _ := m.CacheFile(doc)

	before, err := os.Stat(cache)
	if err != nil {
		t.Fatal(err)
	}

	for _, src := range []string{cache, filepath.Join(live, ".", filepath.Base(cache)), m.Path() + "/" + filepath.Base(cache)} {
		m.ReplaceCacheFile(doc, src)
	}

	after, err := os.Stat(cache)
	if err != nil {
		t.Fatalf("cache file missing after no-op replace: %v", err)
	}
	if !os.SameFile(before, after) {
		t.Error("cache file was recreated")
	}
	if got := readFile(t, cache); got != "original bytes" {
		t.Errorf("cache file = %q, want unchanged", got)
	}
}

func TestManager_ReplaceCacheFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := newManager(t, Config{Path: filepath.Join(dir, "Files")})
	defer m.Close()

	doc := &testDoc{id: "a"}
	m.Add(doc)
	m.WriteCacheFile(doc, &testWriter{content: "old"})
	cache, _ := m.CacheFile(doc)

	src := filepath.Join(dir, "prewritten.tmp")
	writeFile(t, src, "new contents")

	m.ReplaceCacheFile(doc, src)

	if got := readFile(t, cache); got != "new contents" {
		t.Errorf("cache file = %q, want %q", got, "new contents")
	}
	if got := readFile(t, src); got != "new contents" {
		t.Errorf("source modified: %q", got)
	}

	// A missing source keeps the current cache file.
	m.ReplaceCacheFile(doc, filepath.Join(dir, "missing.tmp"))
	if got := readFile(t, cache); got != "new contents" {
		t.Errorf("cache file after failed replace = %q", got)
	}

	// Untracked documents are ignored.
	m.ReplaceCacheFile(&testDoc{id: "other"}, src)
}

func TestManager_WriteCacheFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		tracked     bool
		writer      *testWriter
		wantWritten bool
	}{
		{"tracked", true, &testWriter{content: "x"}, true},
		{"write error", true, &testWriter{err: errors.New("disk full")}, true},
		{"untracked", false, &testWriter{content: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newManager(t, Config{Path: filepath.Join(t.TempDir(), "Files")})
			defer m.Close()

			doc := &testDoc{id: "a"}
			if tt.tracked {
				m.Add(doc)
			}

			m.WriteCacheFile(doc, tt.writer)

			if tt.writer.written != tt.wantWritten {
				t.Errorf("written = %v, want %v", tt.writer.written, tt.wantWritten)
			}
			if !tt.writer.released {
				t.Error("writer was not released")
			}
			if tt.tracked {
				cache, _ := m.CacheFile(doc)
				if tt.writer.path != cache {
					t.Errorf("writer path = %q, want %q", tt.writer.path, cache)
				}
			}
		})
	}
}

func TestManager_WriteCacheFilePanic(t *testing.T) {
	t.Parallel()

	m := newManager(t, Config{Path: filepath.Join(t.TempDir(), "Files")})
	defer m.Close()

	doc := &testDoc{id: "a"}
	m.Add(doc)
	w := &testWriter{panics: true}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		m.WriteCacheFile(doc, w)
	}()

	if !w.released {
		t.Error("writer was not released after panic")
	}
}

func TestManager_NotifierEvents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	live := filepath.Join(dir, "Files")
	m := newManager(t, Config{Path: live})
	defer m.Close()

	doc := &notifyingDoc{testDoc: testDoc{id: "a", filename: "/tmp/before.odt"}}
	m.SetOrdering(docList{doc})
	m.Add(doc)
	if doc.observer == nil {
		t.Fatal("Add() did not observe the document")
	}

	doc.filename = "/tmp/after rename.odt"
	doc.emit(Renamed(doc))
	if files, _ := m.ParseMapping(); !slices.Equal(files, []string{"/tmp/after rename.odt"}) {
		t.Errorf("index after rename = %q", files)
	}

	w := &testWriter{content: "serialized"}
	doc.emit(WriteCacheFile(doc, w))
	cache, _ := m.CacheFile(doc)
	if got := readFile(t, cache); got != "serialized" {
		t.Errorf("cache file = %q, want %q", got, "serialized")
	}
	if !w.released {
		t.Error("writer was not released")
	}

	src := filepath.Join(dir, "temp.odt")
	writeFile(t, src, "from temp")
	doc.emit(ReplaceCacheFile(doc, src))
	if got := readFile(t, cache); got != "from temp" {
		t.Errorf("cache file = %q, want %q", got, "from temp")
	}

	m.Remove(doc)
	if doc.observer != nil {
		t.Error("Remove() did not stop observing the document")
	}
}

func TestManager_Drain(t *testing.T) {
	t.Parallel()

	m := newManager(t, Config{Path: filepath.Join(t.TempDir(), "Files")})
	defer m.Close()

	tracked := &testDoc{id: "a", filename: "/tmp/a.odt"}
	untracked := &testDoc{id: "b"}
	m.SetOrdering(docList{tracked})
	m.Add(tracked)

	first := &testWriter{content: "one"}
	second := &testWriter{content: "two"}
	ignored := &testWriter{content: "never"}

	ch := make(chan Event, 4)
	ch <- WriteCacheFile(tracked, first)
	ch <- WriteCacheFile(untracked, ignored)
	ch <- WriteCacheFile(tracked, second)
	ch <- Renamed(untracked)
	close(ch)

	if err := m.Drain(context.Background(), ch); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	cache, _ := m.CacheFile(tracked)
	if got := readFile(t, cache); got != "two" {
		t.Errorf("cache file = %q, want events handled in order", got)
	}
	if ignored.written {
		t.Error("writer for untracked document was used")
	}
	for i, w := range []*testWriter{first, second, ignored} {
		if !w.released {
			t.Errorf("writer %d was not released", i)
		}
	}
}

func TestManager_DrainCancelled(t *testing.T) {
	t.Parallel()

	m := newManager(t, Config{Path: filepath.Join(t.TempDir(), "Files")})
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Drain(ctx, make(chan Event)); !errors.Is(err, context.Canceled) {
		t.Errorf("Drain() error = %v, want context.Canceled", err)
	}
}

func TestEventKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind EventKind
		want string
	}{
		{EventRenamed, "renamed"},
		{EventReplaceCacheFile, "replace-cache-file"},
		{EventWriteCacheFile, "write-cache-file"},
		{EventKind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
