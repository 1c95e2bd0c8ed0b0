package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leoyy0316/incubator-paimon/internal/audit"
	"github.com/leoyy0316/incubator-paimon/internal/catalog"
	"github.com/leoyy0316/incubator-paimon/internal/fsio"
	"github.com/leoyy0316/incubator-paimon/internal/logging"
	"github.com/leoyy0316/incubator-paimon/internal/metrics"
	"github.com/leoyy0316/incubator-paimon/internal/table"
)

// Result summarizes a completed migration.
type Result struct {
	Snapshot      *table.Snapshot
	Partitions    int
	Files         int
	TargetCreated bool
}

// Migrator drives one migration from a catalog table into a target lake
// table. A Migrator is single-use.
type Migrator struct {
	catalog   catalog.Catalog
	warehouse *table.Warehouse
	fs        fsio.FileIO

	source  catalog.Identifier
	target  catalog.Identifier
	options map[string]string

	workers    int
	dropSource bool

	audit audit.Emitter
	log   *slog.Logger
}

// Options configures a Migrator beyond its identities.
type Options struct {
	// Workers bounds the number of concurrent partition tasks.
	Workers int

	// TableOptions are merged into the target schema when the target has to
	// be created.
	TableOptions map[string]string

	// KeepSource leaves the source table registered after a successful
	// commit.
	KeepSource bool

	// Audit receives lifecycle events. Nil disables auditing.
	Audit audit.Emitter
}

// New builds a Migrator over an existing catalog, warehouse and file system.
func New(cat catalog.Catalog, wh *table.Warehouse, fs fsio.FileIO, source, target catalog.Identifier, opts Options) *Migrator {
	emitter := opts.Audit
	if emitter == nil {
		emitter, _ = audit.New(audit.Config{}, nil)
	}
	return &Migrator{
		catalog:    cat,
		warehouse:  wh,
		fs:         fs,
		source:     source,
		target:     target,
		options:    opts.TableOptions,
		workers:    opts.Workers,
		dropSource: !opts.KeepSource,
		audit:      emitter,
		log:        logging.Component("migrator"),
	}
}

// Execute runs the migration to completion. On success the target table holds
// exactly one new snapshot covering every relocated file and the source table
// has been dropped from its catalog. On failure every completed rename is
// undone and a target table created by this run is removed; the source table
// is never dropped on a failed run.
//
// The returned error may be ErrDropSourceFailed, in which case the commit
// itself succeeded and the Result is valid.
func (m *Migrator) Execute(ctx context.Context) (*Result, error) {
	correlationID := logging.GenerateCorrelationID()
	ctx = logging.WithCorrelationID(ctx, correlationID)
	log := m.log.With(
		"correlation_id", correlationID,
		"source", m.source.String(),
		"target", m.target.String(),
	)
	started := time.Now()

	result, err := m.run(ctx, log)

	if mm := metrics.Get(); mm != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
			if errors.Is(err, ErrDropSourceFailed) {
				outcome = "drop_source_failed"
			}
		}
		mm.MigrationDuration.WithLabelValues(m.source.String(), m.target.String(), outcome).
			Observe(time.Since(started).Seconds())
	}
	return result, err
}

func (m *Migrator) run(ctx context.Context, log *slog.Logger) (*Result, error) {
	exists, err := m.catalog.TableExists(ctx, m.source)
	if err != nil {
		return nil, fmt.Errorf("check source %s: %w", m.source, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, m.source)
	}

	primaryKeys, err := m.catalog.PrimaryKeys(ctx, m.source)
	if err != nil {
		return nil, fmt.Errorf("read primary keys of %s: %w", m.source, err)
	}
	if err := checkSourceTable(primaryKeys); err != nil {
		return nil, err
	}

	src, err := m.catalog.GetTable(ctx, m.source)
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", m.source, err)
	}

	target, createdHere, err := m.resolveTarget(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := checkTargetTable(target); err != nil {
		m.dropTargetIfCreated(ctx, createdHere, log)
		return nil, err
	}
	if err := checkCompatible(src, target); err != nil {
		m.dropTargetIfCreated(ctx, createdHere, log)
		return nil, err
	}

	ledger := NewRollbackLedger()
	tasks, err := m.planTasks(ctx, src, target, ledger)
	if err != nil {
		m.dropTargetIfCreated(ctx, createdHere, log)
		return nil, err
	}
	log.Info("migration planned", "partitions", len(tasks), "workers", m.workers)

	messages, err := runTasks(ctx, m.workers, tasks)
	if err != nil {
		m.recover(ctx, ledger, createdHere, log)
		m.emitRollback(ctx, err, log)
		return nil, fmt.Errorf("relocate partitions: %w", err)
	}

	snapshot, err := target.NewCommit().Commit(ctx, messages)
	if err != nil {
		m.recover(ctx, ledger, createdHere, log)
		commitErr := &CommitError{Err: err}
		m.emitRollback(ctx, commitErr, log)
		if mm := metrics.Get(); mm != nil {
			mm.CommitErrors.Inc()
		}
		return nil, commitErr
	}

	result := &Result{
		Snapshot:      snapshot,
		Partitions:    len(messages),
		Files:         int(snapshot.FileCount),
		TargetCreated: createdHere,
	}
	log.Info("migration committed",
		"snapshot_id", snapshot.ID,
		"partitions", result.Partitions,
		"files", result.Files,
	)
	m.emitMigrated(ctx, result, log)

	if m.dropSource {
		if err := m.catalog.DropTable(ctx, m.source); err != nil {
			log.Error("source table drop failed after commit", "error", err)
			return result, fmt.Errorf("%w: %s: %v", ErrDropSourceFailed, m.source, err)
		}
		log.Info("source table dropped", "table", m.source.String())
	}
	return result, nil
}

// resolveTarget opens the target table, creating it from the source schema
// when absent. The second return reports whether this run created it.
func (m *Migrator) resolveTarget(ctx context.Context, src *catalog.Table) (*table.FileStoreTable, bool, error) {
	exists, err := m.warehouse.TableExists(ctx, m.target)
	if err != nil {
		return nil, false, fmt.Errorf("check target %s: %w", m.target, err)
	}
	if exists {
		t, err := m.warehouse.GetTable(ctx, m.target)
		if err != nil {
			return nil, false, fmt.Errorf("open target %s: %w", m.target, err)
		}
		return t, false, nil
	}

	schema, err := table.FromSource(src, m.options)
	if err != nil {
		return nil, false, err
	}
	t, err := m.warehouse.CreateTable(ctx, m.target, schema)
	if err != nil {
		return nil, false, fmt.Errorf("create target %s: %w", m.target, err)
	}
	return t, true, nil
}

// recover unwinds every recorded rename and removes a target table this run
// created. Recovery errors are logged, not returned; the original failure is
// what the caller reports.
func (m *Migrator) recover(ctx context.Context, ledger *RollbackLedger, createdHere bool, log *slog.Logger) {
	// A fresh context: recovery must run even when the failure was a
	// cancellation.
	ctx = context.WithoutCancel(ctx)

	entries := ledger.Len()
	if err := ledger.Unwind(ctx, m.fs); err != nil {
		log.Error("rollback incomplete, files may remain in target layout", "error", err)
		if mm := metrics.Get(); mm != nil {
			mm.RollbackFailures.Inc()
		}
	} else if entries > 0 {
		log.Info("rollback complete", "entries", entries)
	}
	if mm := metrics.Get(); mm != nil {
		mm.RollbacksTotal.Inc()
		mm.RollbackEntries.Add(float64(entries))
	}

	m.dropTargetIfCreated(ctx, createdHere, log)
}

func (m *Migrator) dropTargetIfCreated(ctx context.Context, createdHere bool, log *slog.Logger) {
	if !createdHere {
		return
	}
	if err := m.warehouse.DropTable(context.WithoutCancel(ctx), m.target); err != nil {
		log.Error("could not remove created target table", "error", err)
	}
}

func (m *Migrator) emitMigrated(ctx context.Context, result *Result, log *slog.Logger) {
	e := &audit.Event{
		Version:     "1.0",
		EventType:   audit.EventMigrated,
		EventID:     audit.GenerateEventID(),
		Timestamp:   time.Now().UTC(),
		SourceTable: m.source.String(),
		TargetTable: m.target.String(),
		SnapshotID:  result.Snapshot.ID,
		Partitions:  result.Partitions,
		Files:       result.Files,
	}
	m.emit(ctx, e, log)
}

func (m *Migrator) emitRollback(ctx context.Context, cause error, log *slog.Logger) {
	e := &audit.Event{
		Version:     "1.0",
		EventType:   audit.EventRolledBack,
		EventID:     audit.GenerateEventID(),
		Timestamp:   time.Now().UTC(),
		SourceTable: m.source.String(),
		TargetTable: m.target.String(),
		Error:       cause.Error(),
	}
	m.emit(ctx, e, log)
}

// emit never fails the migration.
func (m *Migrator) emit(ctx context.Context, e *audit.Event, log *slog.Logger) {
	if err := m.audit.Emit(context.WithoutCancel(ctx), e); err != nil {
		log.Warn("audit emission failed", "event_type", e.EventType, "error", err)
		if mm := metrics.Get(); mm != nil {
			mm.AuditErrors.Inc()
		}
	}
}
