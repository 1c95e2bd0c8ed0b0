// Package fsio abstracts the filesystem operations needed to relocate table
// files: existence checks, directory creation, atomic-or-fail rename, and
// reads for statistics extraction.
package fsio

import (
	"context"
	"io"
)

// FileStatus describes a single directory entry.
type FileStatus struct {
	Path  string // full path
	Name  string // base name
	Size  int64
	IsDir bool
}

// File is a readable handle suitable for footer-based formats, which need
// random access plus the total size.
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer

	// Size returns the total length of the file in bytes.
	Size() int64
}

// FileIO is the filesystem capability consumed by the migrator.
//
// Rename must be atomic-or-fail on the local backend; a partially renamed
// file is not a supported outcome. Object-store backends emulate rename with
// copy+delete and are documented as such.
type FileIO interface {
	// Exists reports whether the path exists (file or directory).
	Exists(ctx context.Context, path string) (bool, error)

	// MkdirAll creates the directory and any missing parents. Creating an
	// existing directory is not an error.
	MkdirAll(ctx context.Context, path string) error

	// Rename moves a file from oldPath to newPath.
	Rename(ctx context.Context, oldPath, newPath string) error

	// List returns the entries directly under dir.
	List(ctx context.Context, dir string) ([]FileStatus, error)

	// Open opens the file for reading.
	Open(ctx context.Context, path string) (File, error)

	// ReadFile reads the whole file.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to path atomically (temp file + rename).
	WriteFile(ctx context.Context, path string, data []byte) error

	// Remove deletes a single file.
	Remove(ctx context.Context, path string) error

	// RemoveAll deletes a path and everything below it.
	RemoveAll(ctx context.Context, path string) error
}
