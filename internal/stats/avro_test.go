package stats

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hamba/avro/v2/ocf"

	"github.com/leoyy0316/incubator-paimon/internal/fsio"
)

const userAvroSchema = `{
	"type": "record",
	"name": "user",
	"fields": [
		{"name": "id", "type": "long"},
		{"name": "name", "type": "string"}
	]
}`

func writeUserFile(t *testing.T, path string, rows int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc, err := ocf.NewEncoder(userAvroSchema, f)
	if err != nil {
		t.Fatalf("avro encoder: %v", err)
	}
	for i := 0; i < rows; i++ {
		record := map[string]interface{}{
			"id":   int64(i + 1),
			"name": fmt.Sprintf("user-%02d", i+1),
		}
		if err := enc.Encode(record); err != nil {
			t.Fatalf("encode row: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestAvroExtract(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.avro")
	writeUserFile(t, path, 9)

	extractor, err := ForFormat(FormatAvro)
	if err != nil {
		t.Fatalf("ForFormat failed: %v", err)
	}

	meta, err := extractor.Extract(ctx, fsio.NewLocal(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if meta.RowCount != 9 {
		t.Errorf("expected 9 rows, got %d", meta.RowCount)
	}
	if meta.Format != FormatAvro {
		t.Errorf("unexpected format %q", meta.Format)
	}
	if meta.SizeBytes == 0 {
		t.Error("size should be the container file size")
	}

	id := meta.Columns["id"]
	if id.Min != "1" || id.Max != "9" {
		t.Errorf("id bounds: min %q max %q", id.Min, id.Max)
	}
	if id.NullCount != 0 {
		t.Errorf("unexpected null count %d", id.NullCount)
	}

	name := meta.Columns["name"]
	if name.Min != "user-01" || name.Max != "user-09" {
		t.Errorf("name bounds: min %q max %q", name.Min, name.Max)
	}
}

func TestAvroExtractCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bad.avro")
	if err := os.WriteFile(path, []byte("definitely not avro"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	extractor, err := ForFormat(FormatAvro)
	if err != nil {
		t.Fatalf("ForFormat failed: %v", err)
	}
	if _, err := extractor.Extract(ctx, fsio.NewLocal(), path); err == nil {
		t.Error("corrupt container should fail extraction")
	}
}

func TestForFormatUnknown(t *testing.T) {
	if _, err := ForFormat("csv"); err == nil {
		t.Error("unknown format tag should be rejected")
	}
}
