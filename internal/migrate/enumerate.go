package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/leoyy0316/incubator-paimon/internal/catalog"
	"github.com/leoyy0316/incubator-paimon/internal/stats"
	"github.com/leoyy0316/incubator-paimon/internal/table"
)

// ResolveFormat maps a storage descriptor's serde marker to a format tag by
// substring match.
func ResolveFormat(serde string) (string, error) {
	marker := strings.ToLower(serde)
	switch {
	case strings.Contains(marker, "avro"):
		return stats.FormatAvro, nil
	case strings.Contains(marker, "parquet"):
		return stats.FormatParquet, nil
	case strings.Contains(marker, "orc"):
		return stats.FormatOrc, nil
	default:
		return "", &UnsupportedFormatError{Marker: serde}
	}
}

// planTasks enumerates the source partitions and builds one relocation task
// per partition, or a single implicit task for an unpartitioned table. The
// per-column key encoders are derived once from the target schema's
// partition-column order; the source's column order is irrelevant once names
// match.
func (m *Migrator) planTasks(
	ctx context.Context,
	src *catalog.Table,
	target *table.FileStoreTable,
	ledger *RollbackLedger,
) ([]*MigrateTask, error) {
	partitionNames, err := m.catalog.ListPartitionNames(ctx, m.source)
	if err != nil {
		return nil, fmt.Errorf("list partitions of %s: %w", m.source, err)
	}

	if len(partitionNames) == 0 {
		task, err := m.unpartitionedTask(src, target, ledger)
		if err != nil {
			return nil, err
		}
		return []*MigrateTask{task}, nil
	}

	targetFields, err := target.PartitionFields()
	if err != nil {
		return nil, err
	}
	encoder, err := table.NewRowEncoder(targetFields)
	if err != nil {
		return nil, err
	}

	tasks := make([]*MigrateTask, 0, len(partitionNames))
	seen := make(map[string]string, len(partitionNames))
	for _, name := range partitionNames {
		partition, err := m.catalog.GetPartition(ctx, m.source, name)
		if err != nil {
			return nil, err
		}
		spec, err := m.catalog.PartitionSpec(ctx, m.source, name)
		if err != nil {
			return nil, err
		}

		format, err := ResolveFormat(partition.SerdeLib)
		if err != nil {
			return nil, fmt.Errorf("partition %q: %w", name, err)
		}
		extractor, err := stats.ForFormat(format)
		if err != nil {
			return nil, err
		}

		key, err := encoder.Encode(spec)
		if err != nil {
			return nil, fmt.Errorf("partition %q: %w", name, err)
		}

		destDir := target.BucketPath(key)
		if prev, dup := seen[destDir]; dup {
			return nil, fmt.Errorf("partitions %q and %q map to the same destination %s", prev, name, destDir)
		}
		seen[destDir] = name

		tasks = append(tasks, &MigrateTask{
			fs:        m.fs,
			format:    format,
			extractor: extractor,
			location:  partition.Location,
			partition: key,
			destDir:   destDir,
			ledger:    ledger,
		})
	}
	return tasks, nil
}

// unpartitionedTask builds the single task covering a whole unpartitioned
// table, keyed by the empty partition key.
func (m *Migrator) unpartitionedTask(
	src *catalog.Table,
	target *table.FileStoreTable,
	ledger *RollbackLedger,
) (*MigrateTask, error) {
	format, err := ResolveFormat(src.SerdeLib)
	if err != nil {
		return nil, err
	}
	extractor, err := stats.ForFormat(format)
	if err != nil {
		return nil, err
	}

	return &MigrateTask{
		fs:        m.fs,
		format:    format,
		extractor: extractor,
		location:  src.Location,
		partition: table.EmptyKey,
		destDir:   target.BucketPath(table.EmptyKey),
		ledger:    ledger,
	}, nil
}
