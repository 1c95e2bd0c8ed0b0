// Package stats extracts per-file metadata (row count, size, column
// statistics) from data files in the supported formats. The format set is
// closed: parquet, avro, and orc.
package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

// Format tags.
const (
	FormatParquet = "parquet"
	FormatAvro    = "avro"
	FormatOrc     = "orc"
)

// ErrUnknownFormat is returned for a tag outside the closed format set.
var ErrUnknownFormat = errors.New("unknown file format")

// ColumnStats holds the per-column statistics of one data file. Min and Max
// are canonical string renderings of the typed values; empty when the format
// carries no usable bounds for the column.
type ColumnStats struct {
	Min       string `json:"min,omitempty"`
	Max       string `json:"max,omitempty"`
	NullCount int64  `json:"null_count"`
}

// DataFileMeta describes one relocated data file for the target manifest.
type DataFileMeta struct {
	Path      string                 `json:"path"`
	Format    string                 `json:"format"`
	SizeBytes int64                  `json:"size_bytes"`
	RowCount  int64                  `json:"row_count"`
	Columns   map[string]ColumnStats `json:"columns,omitempty"`
}

// Extractor reads one file's metadata.
type Extractor interface {
	Extract(ctx context.Context, fs fsio.FileIO, path string) (*DataFileMeta, error)
}

var registry = map[string]Extractor{
	FormatParquet: parquetExtractor{},
	FormatAvro:    avroExtractor{},
	FormatOrc:     orcExtractor{},
}

// ForFormat returns the extractor for a format tag. An unrecognized tag is a
// hard error, raised before any extraction is attempted.
func ForFormat(tag string) (Extractor, error) {
	e, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, tag)
	}
	return e, nil
}
