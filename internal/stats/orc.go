package stats

import (
	"context"
	"fmt"

	"github.com/scritchley/orc"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

// orcExtractor scans an ORC file with a column cursor, counting rows and
// folding per-column bounds.
type orcExtractor struct{}

func (orcExtractor) Extract(ctx context.Context, fs fsio.FileIO, path string) (*DataFileMeta, error) {
	f, err := fs.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := orc.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open orc %s: %w", path, err)
	}

	meta := &DataFileMeta{
		Path:      path,
		Format:    FormatOrc,
		SizeBytes: f.Size(),
		Columns:   make(map[string]ColumnStats),
	}

	columns := r.Schema().Columns()
	acc := make([]*valueAccumulator, len(columns))
	for i := range acc {
		acc[i] = &valueAccumulator{}
	}

	cursor := r.Select(columns...)
	for cursor.Stripes() {
		for cursor.Next() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			meta.RowCount++
			row := cursor.Row()
			for i := range columns {
				if i < len(row) {
					acc[i].observe(row[i])
				}
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read orc %s: %w", path, err)
	}

	for i, name := range columns {
		meta.Columns[name] = acc[i].stats()
	}
	return meta, nil
}
