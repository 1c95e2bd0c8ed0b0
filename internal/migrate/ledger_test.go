package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

func TestRollbackLedgerConcurrentRecord(t *testing.T) {
	ledger := NewRollbackLedger()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ledger.Record(
					fmt.Sprintf("/new/%d-%d", worker, j),
					fmt.Sprintf("/old/%d-%d", worker, j),
				)
			}
		}(i)
	}
	wg.Wait()

	if ledger.Len() != 800 {
		t.Errorf("expected 800 entries, got %d", ledger.Len())
	}
}

func TestRollbackLedgerUnwindRestores(t *testing.T) {
	ctx := context.Background()
	fs := fsio.NewLocal()
	tmpDir := t.TempDir()
	ledger := NewRollbackLedger()

	srcDir := filepath.Join(tmpDir, "src")
	dstDir := filepath.Join(tmpDir, "dst")
	for _, d := range []string{srcDir, dstDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	// Simulate three completed relocations.
	for i := 0; i < 3; i++ {
		origin := filepath.Join(srcDir, fmt.Sprintf("part-%d.avro", i))
		moved := filepath.Join(dstDir, fmt.Sprintf("part-%d.avro", i))
		if err := os.WriteFile(moved, []byte("data"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		ledger.Record(moved, origin)
	}

	if err := ledger.Unwind(ctx, fs); err != nil {
		t.Fatalf("Unwind failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		origin := filepath.Join(srcDir, fmt.Sprintf("part-%d.avro", i))
		if _, err := os.Stat(origin); err != nil {
			t.Errorf("file %d not restored: %v", i, err)
		}
		moved := filepath.Join(dstDir, fmt.Sprintf("part-%d.avro", i))
		if _, err := os.Stat(moved); !os.IsNotExist(err) {
			t.Errorf("file %d still at destination", i)
		}
	}
}

func TestRollbackLedgerUnwindSkipsMissing(t *testing.T) {
	ctx := context.Background()
	fs := fsio.NewLocal()
	tmpDir := t.TempDir()
	ledger := NewRollbackLedger()

	// Entry whose new path never materialized.
	ledger.Record(filepath.Join(tmpDir, "ghost"), filepath.Join(tmpDir, "origin"))

	if err := ledger.Unwind(ctx, fs); err != nil {
		t.Errorf("missing new path should be skipped, got %v", err)
	}
}

func TestRollbackLedgerUnwindIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := fsio.NewLocal()
	tmpDir := t.TempDir()
	ledger := NewRollbackLedger()

	origin := filepath.Join(tmpDir, "origin.avro")
	moved := filepath.Join(tmpDir, "moved.avro")
	if err := os.WriteFile(moved, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ledger.Record(moved, origin)

	if err := ledger.Unwind(ctx, fs); err != nil {
		t.Fatalf("first Unwind failed: %v", err)
	}
	if err := ledger.Unwind(ctx, fs); err != nil {
		t.Errorf("second Unwind should be a no-op, got %v", err)
	}
	if _, err := os.Stat(origin); err != nil {
		t.Errorf("origin missing after unwind: %v", err)
	}
}
