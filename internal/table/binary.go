package table

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// hiveNullPartition is the sentinel the source system stores for a null
// partition value.
const hiveNullPartition = "__HIVE_DEFAULT_PARTITION__"

// PartitionKey addresses a partition's physical location in the target
// table: the binary encoding of its partition-column values plus the
// human-readable partition path ("" for unpartitioned tables).
type PartitionKey struct {
	Bytes []byte
	Name  string
}

// EmptyKey is the key of the single implicit partition of an unpartitioned
// table.
var EmptyKey = PartitionKey{}

func (k PartitionKey) String() string {
	if k.Name == "" {
		return "<unpartitioned>"
	}
	return k.Name
}

// Hex returns the key bytes in hex, for snapshots and logs.
func (k PartitionKey) Hex() string {
	return hex.EncodeToString(k.Bytes)
}

// valueSetter appends one typed partition value to the key buffer.
type valueSetter func(dst []byte, raw string) ([]byte, error)

// RowEncoder turns a partition value mapping into a PartitionKey. The
// per-column setters are derived once from the target schema's
// partition-column order; encoding is a pure function of (values, order).
type RowEncoder struct {
	fields  []DataField
	setters []valueSetter
}

// NewRowEncoder derives an encoder from the target partition columns.
func NewRowEncoder(fields []DataField) (*RowEncoder, error) {
	setters := make([]valueSetter, 0, len(fields))
	for _, f := range fields {
		setter, err := setterFor(f.Type)
		if err != nil {
			return nil, fmt.Errorf("partition column %q: %w", f.Name, err)
		}
		setters = append(setters, setter)
	}
	return &RowEncoder{fields: fields, setters: setters}, nil
}

// Encode builds the key for one partition. Every target partition column
// must be present in spec; the target order decides the byte layout.
func (e *RowEncoder) Encode(spec map[string]string) (PartitionKey, error) {
	var buf []byte
	segments := make([]string, 0, len(e.fields))

	for i, f := range e.fields {
		raw, ok := spec[f.Name]
		if !ok {
			return PartitionKey{}, fmt.Errorf("partition value for column %q missing", f.Name)
		}
		segments = append(segments, f.Name+"="+raw)

		if raw == hiveNullPartition {
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)

		var err error
		buf, err = e.setters[i](buf, raw)
		if err != nil {
			return PartitionKey{}, fmt.Errorf("partition column %q: encode %q: %w", f.Name, raw, err)
		}
	}

	return PartitionKey{Bytes: buf, Name: strings.Join(segments, "/")}, nil
}

func setterFor(dataType string) (valueSetter, error) {
	if strings.HasPrefix(dataType, "decimal") {
		return setString, nil
	}

	switch dataType {
	case "int":
		return func(dst []byte, raw string) ([]byte, error) {
			v, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return nil, err
			}
			return binary.BigEndian.AppendUint32(dst, uint32(v)), nil
		}, nil
	case "bigint":
		return func(dst []byte, raw string) ([]byte, error) {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, err
			}
			return binary.BigEndian.AppendUint64(dst, uint64(v)), nil
		}, nil
	case "float":
		return func(dst []byte, raw string) ([]byte, error) {
			v, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return nil, err
			}
			return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(v))), nil
		}, nil
	case "double":
		return func(dst []byte, raw string) ([]byte, error) {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, err
			}
			return binary.BigEndian.AppendUint64(dst, math.Float64bits(v)), nil
		}, nil
	case "boolean":
		return func(dst []byte, raw string) ([]byte, error) {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, err
			}
			if v {
				return append(dst, 1), nil
			}
			return append(dst, 0), nil
		}, nil
	case "date":
		return func(dst []byte, raw string) ([]byte, error) {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, err
			}
			days := t.Unix() / 86400
			return binary.BigEndian.AppendUint32(dst, uint32(days)), nil
		}, nil
	case "timestamp":
		return func(dst []byte, raw string) ([]byte, error) {
			t, err := time.Parse("2006-01-02 15:04:05", raw)
			if err != nil {
				return nil, err
			}
			return binary.BigEndian.AppendUint64(dst, uint64(t.UnixMicro())), nil
		}, nil
	case "string", "binary":
		return setString, nil
	default:
		return nil, fmt.Errorf("type %q cannot be a partition column", dataType)
	}
}

// setString length-prefixes the raw bytes so adjacent values cannot alias.
func setString(dst []byte, raw string) ([]byte, error) {
	dst = binary.AppendUvarint(dst, uint64(len(raw)))
	return append(dst, raw...), nil
}
