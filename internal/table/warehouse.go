package table

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/leoyy0316/incubator-paimon/internal/catalog"
	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

// Warehouse manages target tables under one root directory. Layout:
//
//	<root>/<database>.db/<table>/schema/schema-0
//	<root>/<database>.db/<table>/snapshot/...
//	<root>/<database>.db/<table>/manifest/...
//	<root>/<database>.db/<table>/<k=v>/.../bucket-0/<data files>
type Warehouse struct {
	fs   fsio.FileIO
	root string
}

// NewWarehouse creates a warehouse rooted at root.
func NewWarehouse(fs fsio.FileIO, root string) *Warehouse {
	return &Warehouse{fs: fs, root: root}
}

// TablePath returns the directory of a table.
func (w *Warehouse) TablePath(id catalog.Identifier) string {
	return path.Join(w.root, id.Database+".db", id.Table)
}

// TableExists reports whether the table has been created.
func (w *Warehouse) TableExists(ctx context.Context, id catalog.Identifier) (bool, error) {
	t := &FileStoreTable{Location: w.TablePath(id)}
	return w.fs.Exists(ctx, t.schemaPath())
}

// CreateTable materializes a new table with the given schema. Creating a
// table that already exists is an error.
func (w *Warehouse) CreateTable(ctx context.Context, id catalog.Identifier, schema *Schema) (*FileStoreTable, error) {
	exists, err := w.TableExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("table %s already exists in warehouse", id)
	}

	t := &FileStoreTable{
		ID:       id,
		Location: w.TablePath(id),
		Schema:   schema,
		fs:       w.fs,
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	if err := w.fs.WriteFile(ctx, t.schemaPath(), data); err != nil {
		return nil, fmt.Errorf("write schema for %s: %w", id, err)
	}
	return t, nil
}

// GetTable loads an existing table.
func (w *Warehouse) GetTable(ctx context.Context, id catalog.Identifier) (*FileStoreTable, error) {
	t := &FileStoreTable{
		ID:       id,
		Location: w.TablePath(id),
		fs:       w.fs,
	}

	data, err := w.fs.ReadFile(ctx, t.schemaPath())
	if err != nil {
		return nil, fmt.Errorf("read schema of %s: %w", id, err)
	}
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse schema of %s: %w", id, err)
	}
	t.Schema = &schema
	return t, nil
}

// DropTable removes the table directory and everything below it.
func (w *Warehouse) DropTable(ctx context.Context, id catalog.Identifier) error {
	return w.fs.RemoveAll(ctx, w.TablePath(id))
}
