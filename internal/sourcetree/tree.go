// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sourcetree exposes per-paper raw source files laid out as
// root/<id>/<filename>.
package sourcetree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"
)

// ErrInvalidID is returned for ids that do not name a directory below the
// root, such as "", "." or anything climbing out with "..".
var ErrInvalidID = errors.New("invalid paper id")

// Entry is a regular file in a paper directory. Open reads its content
// lazily so callers can stop before reading every file.
type Entry struct {
	Name string
	Size int64
	Open func() (string, error)
}

// Tree is a passive source of paper files.
type Tree interface {
	// Check reports whether the tree as a whole is reachable.
	Check() error
	// Exists reports whether a directory exists for id.
	Exists(id string) (bool, error)
	// Files lists the regular files directly under the id's directory in
	// discovery order.
	Files(id string) ([]Entry, error)
}

// Dir is a Tree backed by a directory on disk.
type Dir struct {
	Root string
}

// NewDir returns a Tree rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// Check fails when the root is missing or is not a directory.
func (d *Dir) Check() error {
	info, err := os.Stat(d.Root)
	if err != nil {
		return fmt.Errorf("raw source tree %s: %w", d.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("raw source tree %s: not a directory", d.Root)
	}
	return nil
}

// Exists reports whether root/<id> is a directory. Invalid ids and paths
// running through a regular file do not exist.
func (d *Dir) Exists(id string) (bool, error) {
	path, err := d.path(id)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// Files lists regular files under root/<id> ordered by name, which is the
// order os.ReadDir returns. Subdirectories and symlinks are skipped.
func (d *Dir) Files(id string) ([]Entry, error) {
	dir, err := d.path(id)
	if err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", de.Name(), err)
		}
		path := filepath.Join(dir, de.Name())
		entries = append(entries, Entry{
			Name: de.Name(),
			Size: info.Size(),
			Open: func() (string, error) {
				data, err := os.ReadFile(path)
				if err != nil {
					return "", err
				}
				return string(data), nil
			},
		})
	}
	return entries, nil
}

func (d *Dir) path(id string) (string, error) {
	rel := filepath.FromSlash(id)
	if !filepath.IsLocal(rel) || filepath.Clean(rel) == "." {
		return "", fmt.Errorf("%q: %w", id, ErrInvalidID)
	}
	return filepath.Join(d.Root, rel), nil
}

// Mem is an in-memory Tree. Files are listed in name order, like Dir.
type Mem map[string]map[string]string

// Check always succeeds.
func (m Mem) Check() error { return nil }

// Exists reports whether id has an entry.
func (m Mem) Exists(id string) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

// Files lists the files of id ordered by name.
func (m Mem) Files(id string) ([]Entry, error) {
	files, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, fs.ErrNotExist)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, len(names))
	for i, name := range names {
		content := files[name]
		entries[i] = Entry{
			Name: name,
			Size: int64(len(content)),
			Open: func() (string, error) { return content, nil },
		}
	}
	return entries, nil
}
