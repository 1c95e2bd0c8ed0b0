package table

import (
	"path"

	"github.com/leoyy0316/incubator-paimon/internal/catalog"
	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

// Kind is the closed set of target table variants.
type Kind int

const (
	// KindAppendOnly tables accumulate immutable data files.
	KindAppendOnly Kind = iota

	// KindPrimaryKey tables merge rows on read and rewrite files on
	// compaction.
	KindPrimaryKey
)

func (k Kind) String() string {
	switch k {
	case KindAppendOnly:
		return "append-only"
	case KindPrimaryKey:
		return "primary-key"
	default:
		return "unknown"
	}
}

// SupportsDirectRelocation reports whether files can be moved into the
// table's layout without rewriting. Primary-key tables cannot accept foreign
// files: their LSM levels assume files written by their own writers.
func (k Kind) SupportsDirectRelocation() bool {
	return k == KindAppendOnly
}

// BucketMode describes how files are distributed inside a partition.
type BucketMode int

const (
	// BucketUnaware keeps a single logical bucket per partition.
	BucketUnaware BucketMode = iota

	// BucketFixed hash-distributes rows into a fixed bucket count.
	BucketFixed
)

func (m BucketMode) String() string {
	if m == BucketUnaware {
		return "unaware"
	}
	return "fixed"
}

// FileStoreTable is a handle on a target table: its identity, location,
// schema, and commit machinery.
type FileStoreTable struct {
	ID       catalog.Identifier
	Location string
	Schema   *Schema

	fs fsio.FileIO
}

// Kind derives the table variant from the schema.
func (t *FileStoreTable) Kind() Kind {
	if len(t.Schema.PrimaryKeys) > 0 {
		return KindPrimaryKey
	}
	return KindAppendOnly
}

// BucketMode derives the bucket layout from the schema options.
func (t *FileStoreTable) BucketMode() BucketMode {
	if t.Schema.Options[OptionBucket] == UnawareBucket {
		return BucketUnaware
	}
	return BucketFixed
}

// PartitionFields returns the partition columns in authoritative order.
func (t *FileStoreTable) PartitionFields() ([]DataField, error) {
	return t.Schema.PartitionFields()
}

// BucketPath returns the destination directory for a partition's single
// bucket: <location>/<k=v>/.../bucket-0, or <location>/bucket-0 for the
// implicit partition of an unpartitioned table.
func (t *FileStoreTable) BucketPath(key PartitionKey) string {
	if key.Name == "" {
		return path.Join(t.Location, "bucket-0")
	}
	return path.Join(t.Location, key.Name, "bucket-0")
}

// NewCommit creates a committer for this table.
func (t *FileStoreTable) NewCommit() *Committer {
	return &Committer{table: t}
}

func (t *FileStoreTable) schemaPath() string {
	return path.Join(t.Location, "schema", "schema-0")
}

func (t *FileStoreTable) snapshotDir() string {
	return path.Join(t.Location, "snapshot")
}

func (t *FileStoreTable) manifestDir() string {
	return path.Join(t.Location, "manifest")
}
