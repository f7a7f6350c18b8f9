//go:build !tinygo

package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/merliot/ranger"
	"github.com/moby/sys/atomicwriter"
)

// File stores the identity as the whole content of one text file.  Saves go
// through a temp file and rename, so a reader sees the old identity or the
// new one, never part of either.
type File struct {
	path  string
	mount mount
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Mount creates the directory holding the identity file
func (f *File) Mount() error {
	return f.mount.do(func() error {
		dir := filepath.Dir(f.path)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create identity directory %q: %w", dir, err)
		}
		return nil
	})
}

// Load treats an unmounted store as empty
func (f *File) Load() (ranger.Identity, bool, error) {
	if err := f.Mount(); err != nil {
		return "", false, nil
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, readErr("read identity file: %w", err)
	}

	id := strings.TrimRight(string(data), "\r\n")
	if !ranger.ValidIdentity(id) {
		return "", false, readErr("identity file %q holds an invalid identity", f.path)
	}
	return ranger.Identity(id), true, nil
}

func (f *File) Save(id ranger.Identity) error {
	if err := checkIdentity(id); err != nil {
		return err
	}
	if err := f.Mount(); err != nil {
		return writeErr(err)
	}
	if err := atomicwriter.WriteFile(f.path, []byte(id), 0o600); err != nil {
		return writeErr(fmt.Errorf("write identity file: %w", err))
	}
	return nil
}
