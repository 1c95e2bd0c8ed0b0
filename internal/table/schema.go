// Package table models the target side of a migration: schemas, binary
// partition keys, the warehouse directory layout, and snapshot commits.
package table

import (
	"fmt"
	"strings"

	"github.com/leoyy0316/incubator-paimon/internal/catalog"
)

// Option keys understood by the target table.
const (
	OptionBucket = "bucket"

	// OptionHiveComment carries the source system's "comment" parameter for
	// backward compatibility with its comment convention.
	OptionHiveComment = "hive.comment"

	// UnawareBucket is the bucket option value selecting the unbucketed
	// layout: a single logical bucket per partition, no hash distribution.
	UnawareBucket = "-1"
)

// DataField is one column of a target schema.
type DataField struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

// Schema is the target table schema.
type Schema struct {
	Fields        []DataField       `json:"fields"`
	PartitionKeys []string          `json:"partition_keys,omitempty"`
	PrimaryKeys   []string          `json:"primary_keys,omitempty"`
	Options       map[string]string `json:"options,omitempty"`
	Comment       string            `json:"comment,omitempty"`
}

// PartitionFields returns the partition columns of the schema, in
// partition-key order. That order is authoritative for key encoding.
func (s *Schema) PartitionFields() ([]DataField, error) {
	byName := make(map[string]DataField, len(s.Fields))
	for _, f := range s.Fields {
		byName[f.Name] = f
	}

	fields := make([]DataField, 0, len(s.PartitionKeys))
	for _, key := range s.PartitionKeys {
		f, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("partition key %q is not a schema field", key)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// FromSource translates a source table descriptor into a target schema. The
// caller's options are forwarded verbatim, the bucket option is forced to the
// unbucketed layout, and a source "comment" parameter is carried under
// OptionHiveComment.
func FromSource(src *catalog.Table, options map[string]string) (*Schema, error) {
	opts := make(map[string]string, len(options)+2)
	for k, v := range options {
		opts[k] = v
	}
	opts[OptionBucket] = UnawareBucket
	if comment := src.Parameters["comment"]; comment != "" {
		opts[OptionHiveComment] = comment
	}

	schema := &Schema{
		Options: opts,
		Comment: src.Parameters["comment"],
	}

	for _, f := range src.PartitionKeys {
		schema.PartitionKeys = append(schema.PartitionKeys, f.Name)
	}

	for _, f := range src.Fields {
		t, err := TranslateType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		schema.Fields = append(schema.Fields, DataField{
			Name:    f.Name,
			Type:    t,
			Comment: f.Comment,
		})
	}

	return schema, nil
}

// TranslateType maps a source (hive-style) type name to the target type
// system.
func TranslateType(sourceType string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(sourceType))

	// Parameterized types keep their arguments.
	switch {
	case strings.HasPrefix(t, "decimal"):
		return t, nil
	case strings.HasPrefix(t, "varchar"), strings.HasPrefix(t, "char"):
		return "string", nil
	}

	switch t {
	case "tinyint", "smallint", "int":
		return "int", nil
	case "bigint":
		return "bigint", nil
	case "float":
		return "float", nil
	case "double":
		return "double", nil
	case "boolean":
		return "boolean", nil
	case "string", "binary":
		return t, nil
	case "date":
		return "date", nil
	case "timestamp":
		return "timestamp", nil
	default:
		return "", fmt.Errorf("unsupported source type %q", sourceType)
	}
}
