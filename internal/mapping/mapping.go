// Package mapping reads and writes the cache index file.
//
// The index lives at <cache-dir>/mapping and holds one line per tracked
// document:
//
//	<cache_filename> <logical_path>
//
// The cache filename never contains a space. The logical path is everything
// after the first space and may itself contain spaces, or be empty for an
// unsaved document. Lines appear in the editor's document order.
//
// Files are written as UTF-8 with a leading byte-order mark. On read, a UTF-8
// or UTF-16 byte-order mark is detected and the text decoded accordingly;
// without one the file is taken as UTF-8.
package mapping

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/raphi011/doccache/internal/storage"
)

// FileName is the name of the index file inside a cache directory.
const FileName = "mapping"

// maxLineSize bounds a single index line.
const maxLineSize = 1 << 20

// bom is the UTF-8 encoded byte-order mark written at the start of the index.
const bom = "\ufeff"

// ErrInvalidEntry is returned when an entry cannot be represented on one line.
var ErrInvalidEntry = errors.New("invalid mapping entry")

// Entry pairs a cache file with the logical path of the document it shadows.
type Entry struct {
	CacheFile string // base name of the cache file, e.g. fw_00a1z9
	Path      string // document's last-known save location, "" if unsaved
}

// Path returns the path of the index file inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Read parses index lines from r. Lines with an empty cache filename are
// skipped.
func Read(r io.Reader) ([]Entry, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var entries []Entry
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		cacheFile, path, _ := strings.Cut(line, " ")
		if cacheFile == "" {
			continue
		}
		entries = append(entries, Entry{CacheFile: cacheFile, Path: path})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read mapping: %w", err)
	}

	return entries, nil
}

// Write encodes entries to w, preceded by a byte-order mark.
// Every line, including the last, is newline-terminated.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(bom)

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
		bw.WriteString(e.CacheFile)
		bw.WriteByte(' ')
		bw.WriteString(e.Path)
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// Validate reports whether e can be written as a single index line.
func (e Entry) Validate() error {
	if e.CacheFile == "" || strings.ContainsAny(e.CacheFile, " \r\n") {
		return fmt.Errorf("%w: cache file %q", ErrInvalidEntry, e.CacheFile)
	}
	if strings.ContainsAny(e.Path, "\r\n") {
		return fmt.Errorf("%w: path %q contains a line break", ErrInvalidEntry, e.Path)
	}
	return nil
}

// Load reads the index file at path.
// Returns an error wrapping os.ErrNotExist if the file is missing.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// Save replaces the index file at path with entries. The previous file is
// left untouched if encoding or writing fails.
func Save(path string, entries []Entry) error {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return err
	}

	if err := storage.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// Exists reports whether dir contains an index file.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && info.Mode().IsRegular()
}
