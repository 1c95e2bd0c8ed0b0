// Package catalog defines the source metastore capability consumed by the
// migrator: table lookup, schema access, partition listing, and table removal.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when the requested table is not known to the
// catalog.
var ErrTableNotFound = errors.New("table not found in catalog")

// Identifier names a table inside a database.
type Identifier struct {
	Database string
	Table    string
}

func (i Identifier) String() string {
	return fmt.Sprintf("%s.%s", i.Database, i.Table)
}

// Field is one column of a source schema: name, declared type, and an
// optional comment.
type Field struct {
	Name    string
	Type    string
	Comment string
}

// Table describes a source table as the catalog sees it.
type Table struct {
	ID Identifier

	// Location is the directory containing the table's files (unpartitioned
	// tables) or the parent of its partition directories.
	Location string

	// SerdeLib is the storage descriptor's serde marker; the migrator
	// resolves the file format from it by substring match.
	SerdeLib string

	// Fields are all columns, partition columns included, in schema order.
	Fields []Field

	// PartitionKeys are the partition columns in partition order. Empty for
	// unpartitioned tables.
	PartitionKeys []Field

	// Parameters are the table's free-form properties ("comment" among them).
	Parameters map[string]string
}

// Partition describes one partition of a source table.
type Partition struct {
	// Name is the canonical partition name, e.g. "dt=2024-01-01/region=eu".
	Name string

	// Location is the directory containing this partition's data files.
	Location string

	// SerdeLib is the partition's storage descriptor serde marker. Hive
	// allows per-partition formats, so this can differ from the table's.
	SerdeLib string
}

// Catalog is the metastore capability. Implementations: Postgres-backed
// metastore mirror and an in-memory catalog for tests and embedded use.
type Catalog interface {
	// TableExists reports whether the table is known to the catalog.
	TableExists(ctx context.Context, id Identifier) (bool, error)

	// GetTable returns the table descriptor, or ErrTableNotFound.
	GetTable(ctx context.Context, id Identifier) (*Table, error)

	// ListPartitionNames returns all partition names of the table. An
	// unpartitioned table yields an empty list.
	ListPartitionNames(ctx context.Context, id Identifier) ([]string, error)

	// GetPartition returns one partition's descriptor by name.
	GetPartition(ctx context.Context, id Identifier, name string) (*Partition, error)

	// PartitionSpec maps a partition name to its column-value pairs.
	PartitionSpec(ctx context.Context, id Identifier, name string) (map[string]string, error)

	// PrimaryKeys returns the table's primary-key column names, if any.
	PrimaryKeys(ctx context.Context, id Identifier) ([]string, error)

	// DropTable removes the table from the catalog. It does not touch data
	// files; by the time the migrator drops the source, its files have
	// already been relocated.
	DropTable(ctx context.Context, id Identifier) error
}
