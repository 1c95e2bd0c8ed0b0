package fsio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalWriteFileAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	fs := NewLocal()
	ctx := context.Background()

	path := filepath.Join(tmpDir, "nested", "dir", "file.json")
	if err := fs.WriteFile(ctx, path, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("unexpected content %q", data)
	}

	// No temp files should survive publication.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the published file, found %d entries", len(entries))
	}
}

func TestLocalRenameMovesWithoutCopy(t *testing.T) {
	tmpDir := t.TempDir()
	fs := NewLocal()
	ctx := context.Background()

	src := filepath.Join(tmpDir, "a.parquet")
	dst := filepath.Join(tmpDir, "dest", "a.parquet")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := fs.MkdirAll(ctx, filepath.Dir(dst)); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if err := fs.Rename(ctx, src, dst); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source should be gone after rename")
	}
	exists, err := fs.Exists(ctx, dst)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("destination should exist after rename")
	}
}

func TestLocalList(t *testing.T) {
	tmpDir := t.TempDir()
	fs := NewLocal()
	ctx := context.Background()

	for _, name := range []string{"part-0.avro", "part-1.avro", "_SUCCESS"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	entries, err := fs.List(ctx, tmpDir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	var dirs, files int
	for _, e := range entries {
		if e.IsDir {
			dirs++
			continue
		}
		files++
		if e.Size != 1 {
			t.Errorf("file %s: expected size 1, got %d", e.Name, e.Size)
		}
		if e.Path != filepath.Join(tmpDir, e.Name) {
			t.Errorf("file %s: path %q does not join dir and name", e.Name, e.Path)
		}
	}
	if dirs != 1 || files != 3 {
		t.Errorf("expected 1 dir and 3 files, got %d and %d", dirs, files)
	}
}

func TestLocalOpenReportsSize(t *testing.T) {
	tmpDir := t.TempDir()
	fs := NewLocal()
	ctx := context.Background()

	path := filepath.Join(tmpDir, "blob.bin")
	if err := os.WriteFile(path, make([]byte, 128), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := fs.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if f.Size() != 128 {
		t.Errorf("expected size 128, got %d", f.Size())
	}

	buf := make([]byte, 16)
	if _, err := f.ReadAt(buf, 64); err != nil {
		t.Errorf("ReadAt failed: %v", err)
	}
}

func TestLocalRemoveAll(t *testing.T) {
	tmpDir := t.TempDir()
	fs := NewLocal()
	ctx := context.Background()

	dir := filepath.Join(tmpDir, "table")
	if err := fs.WriteFile(ctx, filepath.Join(dir, "snapshot", "LATEST"), []byte("1")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fs.RemoveAll(ctx, dir); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	exists, err := fs.Exists(ctx, dir)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("directory should be gone")
	}
}
