package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func avroTasks(t *testing.T, tmpDir string, n int, ledger *RollbackLedger) []*MigrateTask {
	t.Helper()
	tasks := make([]*MigrateTask, 0, n)
	for i := 0; i < n; i++ {
		srcDir := filepath.Join(tmpDir, fmt.Sprintf("src-%d", i))
		destDir := filepath.Join(tmpDir, fmt.Sprintf("dest-%d", i))
		writeAvroFile(t, filepath.Join(srcDir, "part-0.avro"), i*10, 2)
		tasks = append(tasks, newAvroTask(t, srcDir, destDir, ledger))
	}
	return tasks
}

func TestRunTasksCollectsAllResults(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	tasks := avroTasks(t, tmpDir, 5, NewRollbackLedger())
	messages, err := runTasks(ctx, 3, tasks)
	if err != nil {
		t.Fatalf("runTasks failed: %v", err)
	}
	if len(messages) != 5 {
		t.Errorf("expected 5 commit messages, got %d", len(messages))
	}
	for _, msg := range messages {
		if len(msg.Files) != 1 {
			t.Errorf("partition %s: expected 1 file, got %d", msg.Partition, len(msg.Files))
		}
	}
}

func TestRunTasksFailureStopsPipeline(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	ledger := NewRollbackLedger()

	tasks := avroTasks(t, tmpDir, 4, ledger)
	// Replace the first task's file with a corrupt one.
	corrupt := filepath.Join(tmpDir, "src-0", "part-0.avro")
	if err := os.WriteFile(corrupt, []byte("not avro"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	messages, err := runTasks(ctx, 1, tasks)
	if err == nil {
		t.Fatal("expected at least one task failure")
	}
	if messages != nil {
		t.Errorf("no messages should be returned on failure, got %d", len(messages))
	}
}

func TestRunTasksWorkerClamp(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	// More workers than tasks, and zero workers both degrade gracefully.
	tasks := avroTasks(t, tmpDir, 2, NewRollbackLedger())
	if _, err := runTasks(ctx, 100, tasks); err != nil {
		t.Errorf("oversized worker count failed: %v", err)
	}

	tasks = avroTasks(t, filepath.Join(tmpDir, "again"), 1, NewRollbackLedger())
	if _, err := runTasks(ctx, 0, tasks); err != nil {
		t.Errorf("zero worker count failed: %v", err)
	}
}

func TestRunTasksCancelledContext(t *testing.T) {
	tmpDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := avroTasks(t, tmpDir, 3, NewRollbackLedger())
	if _, err := runTasks(ctx, 2, tasks); err == nil {
		t.Error("cancelled context should surface as an error")
	}
}
