package table

import (
	"testing"

	"github.com/leoyy0316/incubator-paimon/internal/catalog"
)

func TestFromSourceForcesUnawareBucket(t *testing.T) {
	src := &catalog.Table{
		ID: catalog.Identifier{Database: "db", Table: "t"},
		Fields: []catalog.Field{
			{Name: "id", Type: "bigint"},
			{Name: "dt", Type: "string"},
		},
		PartitionKeys: []catalog.Field{{Name: "dt", Type: "string"}},
	}

	schema, err := FromSource(src, map[string]string{"bucket": "8", "custom": "x"})
	if err != nil {
		t.Fatalf("FromSource failed: %v", err)
	}
	if schema.Options[OptionBucket] != UnawareBucket {
		t.Errorf("bucket option must be forced to %s, got %s", UnawareBucket, schema.Options[OptionBucket])
	}
	if schema.Options["custom"] != "x" {
		t.Error("caller options must be preserved")
	}
	if len(schema.PartitionKeys) != 1 || schema.PartitionKeys[0] != "dt" {
		t.Errorf("unexpected partition keys %v", schema.PartitionKeys)
	}
}

func TestFromSourceCarriesComment(t *testing.T) {
	src := &catalog.Table{
		Fields:     []catalog.Field{{Name: "id", Type: "int"}},
		Parameters: map[string]string{"comment": "orders fact table"},
	}

	schema, err := FromSource(src, nil)
	if err != nil {
		t.Fatalf("FromSource failed: %v", err)
	}
	if schema.Options[OptionHiveComment] != "orders fact table" {
		t.Errorf("comment not carried: %v", schema.Options)
	}
	if schema.Comment != "orders fact table" {
		t.Errorf("schema comment not set: %q", schema.Comment)
	}
}

func TestFromSourceRejectsUnknownType(t *testing.T) {
	src := &catalog.Table{
		Fields: []catalog.Field{{Name: "u", Type: "uniontype<int,string>"}},
	}
	if _, err := FromSource(src, nil); err == nil {
		t.Error("unknown source type should be rejected")
	}
}

func TestTranslateType(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"tinyint", "int"},
		{"smallint", "int"},
		{"int", "int"},
		{"bigint", "bigint"},
		{"varchar(64)", "string"},
		{"char(2)", "string"},
		{"STRING", "string"},
		{"decimal(10,2)", "decimal(10,2)"},
		{"timestamp", "timestamp"},
		{"binary", "binary"},
	}
	for _, c := range cases {
		got, err := TranslateType(c.in)
		if err != nil {
			t.Errorf("TranslateType(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("TranslateType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPartitionFieldsOrder(t *testing.T) {
	s := &Schema{
		Fields: []DataField{
			{Name: "a", Type: "int"},
			{Name: "b", Type: "string"},
			{Name: "c", Type: "date"},
		},
		PartitionKeys: []string{"c", "a"},
	}

	fields, err := s.PartitionFields()
	if err != nil {
		t.Fatalf("PartitionFields failed: %v", err)
	}
	if len(fields) != 2 || fields[0].Name != "c" || fields[1].Name != "a" {
		t.Errorf("partition-key order not honored: %v", fields)
	}
}

func TestPartitionFieldsUnknownKey(t *testing.T) {
	s := &Schema{
		Fields:        []DataField{{Name: "a", Type: "int"}},
		PartitionKeys: []string{"missing"},
	}
	if _, err := s.PartitionFields(); err == nil {
		t.Error("partition key outside the schema should be an error")
	}
}
