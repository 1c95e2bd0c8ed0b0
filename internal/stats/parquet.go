package stats

import (
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

// parquetExtractor reads row counts and column bounds from parquet footers
// and column indexes. No row data is decoded.
type parquetExtractor struct{}

func (parquetExtractor) Extract(ctx context.Context, fs fsio.FileIO, path string) (*DataFileMeta, error) {
	f, err := fs.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pf, err := parquet.OpenFile(f, f.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	meta := &DataFileMeta{
		Path:      path,
		Format:    FormatParquet,
		SizeBytes: f.Size(),
		RowCount:  pf.NumRows(),
		Columns:   make(map[string]ColumnStats),
	}

	fields := pf.Schema().Fields()
	acc := make([]*columnAccumulator, len(fields))
	for i := range fields {
		acc[i] = &columnAccumulator{}
	}

	for _, rg := range pf.RowGroups() {
		for i, chunk := range rg.ColumnChunks() {
			if i >= len(fields) {
				break
			}
			idx, err := chunk.ColumnIndex()
			if err != nil {
				// No column index written for this chunk; null counts and
				// bounds stay unknown for the column.
				continue
			}
			typ := chunk.Type()
			for page := 0; page < idx.NumPages(); page++ {
				acc[i].nulls += idx.NullCount(page)
				if idx.NullPage(page) {
					continue
				}
				acc[i].observe(typ, idx.MinValue(page))
				acc[i].observe(typ, idx.MaxValue(page))
			}
		}
	}

	for i, field := range fields {
		meta.Columns[field.Name()] = acc[i].stats()
	}
	return meta, nil
}

// columnAccumulator folds page-level bounds into file-level bounds.
type columnAccumulator struct {
	nulls    int64
	hasBound bool
	min, max parquet.Value
}

func (a *columnAccumulator) observe(typ parquet.Type, v parquet.Value) {
	if v.IsNull() {
		return
	}
	if !a.hasBound {
		a.min, a.max = v, v
		a.hasBound = true
		return
	}
	if typ.Compare(v, a.min) < 0 {
		a.min = v
	}
	if typ.Compare(v, a.max) > 0 {
		a.max = v
	}
}

func (a *columnAccumulator) stats() ColumnStats {
	s := ColumnStats{NullCount: a.nulls}
	if a.hasBound {
		s.Min = a.min.String()
		s.Max = a.max.String()
	}
	return s
}
