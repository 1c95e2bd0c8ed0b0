package fsio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local implements FileIO on the local filesystem. Rename maps to os.Rename,
// which is atomic on POSIX filesystems within one mount.
type Local struct{}

// NewLocal creates a local filesystem FileIO.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *Local) MkdirAll(ctx context.Context, path string) error {
	return os.MkdirAll(path, 0755)
}

func (l *Local) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}

func (l *Local) List(ctx context.Context, dir string) ([]FileStatus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	statuses := make([]FileStatus, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		statuses = append(statuses, FileStatus{
			Path:  filepath.Join(dir, entry.Name()),
			Name:  entry.Name(),
			Size:  info.Size(),
			IsDir: entry.IsDir(),
		})
	}
	return statuses, nil
}

func (l *Local) Open(ctx context.Context, path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &localFile{File: f, size: info.Size()}, nil
}

func (l *Local) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes atomically using a temp file plus rename.
func (l *Local) WriteFile(ctx context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		// Clean up temp file on rename failure
		os.Remove(tempPath)
		return fmt.Errorf("rename %s to %s: %w", tempPath, path, err)
	}
	return nil
}

func (l *Local) Remove(ctx context.Context, path string) error {
	return os.Remove(path)
}

func (l *Local) RemoveAll(ctx context.Context, path string) error {
	return os.RemoveAll(path)
}

type localFile struct {
	*os.File
	size int64
}

func (f *localFile) Size() int64 {
	return f.size
}
