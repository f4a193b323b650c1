// Package storage provides the file operations the document cache is built on:
// atomic writes, whole-file copies, writability checks and directory sizes.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// Default permission bits for files and directories created by the cache.
const (
	DirMode  os.FileMode = 0o700
	FileMode os.FileMode = 0o600
)

// WriteFile atomically replaces path with the contents of r.
// The data goes to a temp file in the same directory which is then renamed
// over path, so a failed write leaves any previous file intact.
func WriteFile(path string, r io.Reader) error {
	if err := atomic.WriteFile(path, r); err != nil {
		return err
	}

	// atomic.WriteFile keeps the mode of an existing file but creates new
	// ones with the temp file's mode
	return os.Chmod(path, FileMode)
}

// ReplaceFile copies src over dst, removing dst first if it exists.
// dst is left alone if src cannot be opened.
func ReplaceFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := RemoveIfExists(dst); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, FileMode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst) // clean up partial dst
		return err
	}

	return out.Close()
}

// CopyFile copies src to dst, creating parent directories as needed.
// Uses O_CREATE|O_EXCL so an existing dst is never overwritten.
// Returns true if the file was copied, false if dst already existed.
func CopyFile(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if !srcInfo.Mode().IsRegular() {
		return false, fmt.Errorf("%s is not a regular file", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer dstFile.Close()

	srcFile, err := os.Open(src)
	if err != nil {
		os.Remove(dst) // clean up empty dst
		return false, err
	}
	defer srcFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst) // clean up partial dst
		return false, err
	}

	return true, nil
}

// RemoveIfExists removes a file, returning no error if it does not exist.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	return err
}

// IsWritable reports whether the current user may write to path.
func IsWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

// DirSize returns the total size of all regular files below dir.
func DirSize(dir string) (int64, error) {
	var size int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}

// Files returns the names of the regular files directly inside dir.
// A missing dir yields no names and no error.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
