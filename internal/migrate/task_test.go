package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hamba/avro/v2/ocf"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
	"github.com/leoyy0316/incubator-paimon/internal/stats"
	"github.com/leoyy0316/incubator-paimon/internal/table"
)

const eventAvroSchema = `{
	"type": "record",
	"name": "event",
	"fields": [
		{"name": "id", "type": "long"},
		{"name": "name", "type": "string"}
	]
}`

// writeAvroFile writes rows records to path as an avro object container file.
func writeAvroFile(t *testing.T, path string, start, rows int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc, err := ocf.NewEncoder(eventAvroSchema, f)
	if err != nil {
		t.Fatalf("avro encoder: %v", err)
	}
	for i := 0; i < rows; i++ {
		record := map[string]interface{}{
			"id":   int64(start + i),
			"name": fmt.Sprintf("row-%d", start+i),
		}
		if err := enc.Encode(record); err != nil {
			t.Fatalf("encode row: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func newAvroTask(t *testing.T, srcDir, destDir string, ledger *RollbackLedger) *MigrateTask {
	t.Helper()
	extractor, err := stats.ForFormat(stats.FormatAvro)
	if err != nil {
		t.Fatalf("ForFormat failed: %v", err)
	}
	return &MigrateTask{
		fs:        fsio.NewLocal(),
		format:    stats.FormatAvro,
		extractor: extractor,
		location:  srcDir,
		partition: table.PartitionKey{Name: "dt=2024-01-01"},
		destDir:   destDir,
		ledger:    ledger,
	}
}

func TestTaskRelocatesAndExtracts(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	destDir := filepath.Join(tmpDir, "dest", "bucket-0")

	writeAvroFile(t, filepath.Join(srcDir, "part-0.avro"), 0, 5)
	writeAvroFile(t, filepath.Join(srcDir, "part-1.avro"), 5, 3)

	ledger := NewRollbackLedger()
	task := newAvroTask(t, srcDir, destDir, ledger)

	msg, err := task.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(msg.Files) != 2 {
		t.Fatalf("expected 2 file entries, got %d", len(msg.Files))
	}
	var rows int64
	for _, f := range msg.Files {
		rows += f.RowCount
		if f.Format != stats.FormatAvro {
			t.Errorf("unexpected format %q", f.Format)
		}
		if f.SizeBytes == 0 {
			t.Errorf("file %s has zero size", f.Path)
		}
	}
	if rows != 8 {
		t.Errorf("expected 8 rows total, got %d", rows)
	}

	// Files moved, not copied.
	for _, name := range []string{"part-0.avro", "part-1.avro"} {
		if _, err := os.Stat(filepath.Join(srcDir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be gone from source", name)
		}
		if _, err := os.Stat(filepath.Join(destDir, name)); err != nil {
			t.Errorf("%s missing at destination: %v", name, err)
		}
	}
	if ledger.Len() != 2 {
		t.Errorf("expected 2 ledger entries, got %d", ledger.Len())
	}
}

func TestTaskSkipsHiddenFiles(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	destDir := filepath.Join(tmpDir, "dest")

	writeAvroFile(t, filepath.Join(srcDir, "part-0.avro"), 0, 2)
	for _, name := range []string{"_SUCCESS", ".hidden", "_metadata"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	task := newAvroTask(t, srcDir, destDir, NewRollbackLedger())
	msg, err := task.Execute(ctx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(msg.Files) != 1 {
		t.Errorf("hidden files should be skipped, got %d entries", len(msg.Files))
	}
	for _, name := range []string{"_SUCCESS", ".hidden", "_metadata"} {
		if _, err := os.Stat(filepath.Join(srcDir, name)); err != nil {
			t.Errorf("hidden file %s should stay in source: %v", name, err)
		}
	}
}

func TestTaskDestinationConflict(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	destDir := filepath.Join(tmpDir, "dest")

	writeAvroFile(t, filepath.Join(srcDir, "part-0.avro"), 0, 2)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Occupy the destination, as a prior partial attempt would.
	if err := os.WriteFile(filepath.Join(destDir, "part-0.avro"), []byte("stale"), 0o644); err != nil {
		t.Fatalf("write conflict file: %v", err)
	}

	task := newAvroTask(t, srcDir, destDir, NewRollbackLedger())
	_, err := task.Execute(ctx)
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	// Source file untouched.
	if _, err := os.Stat(filepath.Join(srcDir, "part-0.avro")); err != nil {
		t.Errorf("source file should remain: %v", err)
	}
}

func TestTaskLedgersBeforeFailing(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	destDir := filepath.Join(tmpDir, "dest")

	writeAvroFile(t, filepath.Join(srcDir, "a-part.avro"), 0, 2)
	// Not a valid container file; extraction will fail after the rename.
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "b-corrupt.avro"), []byte("not avro"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	ledger := NewRollbackLedger()
	task := newAvroTask(t, srcDir, destDir, ledger)
	if _, err := task.Execute(ctx); err == nil {
		t.Fatal("corrupt file should fail extraction")
	}

	// Both renames happened before extraction, so both must be ledgered.
	if ledger.Len() != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", ledger.Len())
	}
	if err := ledger.Unwind(ctx, fsio.NewLocal()); err != nil {
		t.Fatalf("Unwind failed: %v", err)
	}
	for _, name := range []string{"a-part.avro", "b-corrupt.avro"} {
		if _, err := os.Stat(filepath.Join(srcDir, name)); err != nil {
			t.Errorf("%s not restored: %v", name, err)
		}
	}
}
