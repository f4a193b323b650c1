// Package history records past recoveries so that `doccache recover` can
// reuse the last destination and `doccache history` can list them.
package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/raphi011/doccache/internal/storage"
)

// MaxEntries bounds the number of recoveries kept, newest first.
const MaxEntries = 20

// Entry is one recovery.
type Entry struct {
	Snapshot  string    `json:"snapshot"`
	Dest      string    `json:"dest"`
	Documents int       `json:"documents"`
	Failed    int       `json:"failed,omitempty"`
	Time      time.Time `json:"time"`
}

// History stores past recoveries, newest first.
type History struct {
	Entries []Entry `json:"entries"`
}

// DefaultPath returns the path to the history file.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "doccache", "history.json")
}

// Load reads the history from path. A missing or corrupted file yields an
// empty history.
func Load(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &History{}, nil
		}
		return nil, err
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		// Corrupted - start fresh
		return &History{}, nil
	}

	return &h, nil
}

// Save writes the history to path atomically.
func (h *History) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}

	return storage.WriteFile(path, bytes.NewReader(data))
}

// Record prepends e to the history at path and trims it to MaxEntries.
func Record(path string, e Entry) error {
	h, err := Load(path)
	if err != nil {
		return err
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.Entries = append([]Entry{e}, h.Entries...)
	if len(h.Entries) > MaxEntries {
		h.Entries = h.Entries[:MaxEntries]
	}
	return h.Save(path)
}

// LastDest returns the destination of the most recent recovery, or "".
func LastDest(path string) (string, error) {
	h, err := Load(path)
	if err != nil {
		return "", err
	}
	if len(h.Entries) == 0 {
		return "", nil
	}
	return h.Entries[0].Dest, nil
}
