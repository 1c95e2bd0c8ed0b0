package migrate

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
	"github.com/leoyy0316/incubator-paimon/internal/logging"
	"github.com/leoyy0316/incubator-paimon/internal/metrics"
	"github.com/leoyy0316/incubator-paimon/internal/stats"
	"github.com/leoyy0316/incubator-paimon/internal/table"
)

// MigrateTask relocates one partition's files (or a whole unpartitioned
// table) into the target layout and produces the partition's commit message.
type MigrateTask struct {
	fs        fsio.FileIO
	format    string
	extractor stats.Extractor
	location  string // source directory
	partition table.PartitionKey
	destDir   string
	ledger    *RollbackLedger
}

// Partition returns the destination partition key of this task.
func (t *MigrateTask) Partition() table.PartitionKey {
	return t.partition
}

// hidden reports whether a directory entry is a hidden or temporary file of
// the source system.
func hidden(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

// Execute moves every data file under the source directory into the
// destination bucket, records each rename in the shared ledger before the
// next one starts, then extracts file metadata. Any error leaves already
// performed renames ledgered and recoverable.
func (t *MigrateTask) Execute(ctx context.Context) (*table.CommitMessage, error) {
	log := logging.TaskLogger(logging.CorrelationID(ctx), t.partition.String(), t.format, t.location)
	started := time.Now()
	if mm := metrics.Get(); mm != nil {
		mm.InFlightTasks.Inc()
		defer mm.InFlightTasks.Dec()
	}

	if err := t.fs.MkdirAll(ctx, t.destDir); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", t.destDir, err)
	}

	entries, err := t.fs.List(ctx, t.location)
	if err != nil {
		return nil, fmt.Errorf("list source %s: %w", t.location, err)
	}

	var moved []string
	for _, entry := range entries {
		if entry.IsDir || hidden(entry.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dest := path.Join(t.destDir, entry.Name)
		exists, err := t.fs.Exists(ctx, dest)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", dest, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		}

		if err := t.fs.Rename(ctx, entry.Path, dest); err != nil {
			return nil, err
		}
		t.ledger.Record(dest, entry.Path)
		moved = append(moved, dest)
	}

	log.Debug("relocated files", "count", len(moved), "dest", t.destDir)

	files := make([]table.FileEntry, 0, len(moved))
	var bytes int64
	for _, p := range moved {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta, err := t.extractor.Extract(ctx, t.fs, p)
		if err != nil {
			return nil, fmt.Errorf("extract metadata of %s: %w", p, err)
		}
		bytes += meta.SizeBytes
		files = append(files, toFileEntry(meta))
	}

	if mm := metrics.Get(); mm != nil {
		mm.PartitionsMigrated.WithLabelValues(t.format).Inc()
		mm.FilesRelocated.WithLabelValues(t.format).Add(float64(len(files)))
		mm.BytesRelocated.WithLabelValues(t.format).Add(float64(bytes))
		mm.TaskDuration.WithLabelValues(t.format).Observe(time.Since(started).Seconds())
	}
	return &table.CommitMessage{Partition: t.partition, Files: files}, nil
}

func toFileEntry(meta *stats.DataFileMeta) table.FileEntry {
	entry := table.FileEntry{
		Path:      meta.Path,
		Format:    meta.Format,
		SizeBytes: meta.SizeBytes,
		RowCount:  meta.RowCount,
	}
	if len(meta.Columns) > 0 {
		entry.Columns = make(map[string]table.ColumnStat, len(meta.Columns))
		for name, cs := range meta.Columns {
			entry.Columns[name] = table.ColumnStat{
				Min:       cs.Min,
				Max:       cs.Max,
				NullCount: cs.NullCount,
			}
		}
	}
	return entry
}
