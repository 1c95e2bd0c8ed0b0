package stats

import (
	"fmt"
	"time"
)

// valueAccumulator tracks min/max/nulls for one column while scanning rows
// of a row-oriented format (avro, orc).
type valueAccumulator struct {
	nulls    int64
	hasBound bool
	min, max scalar
}

// scalar is the normalized form used for cross-row comparison.
type scalar struct {
	kind byte // 'f' float64, 's' string, 'b' bool
	f    float64
	s    string
	b    bool
}

func (a *valueAccumulator) observe(v interface{}) {
	if v == nil {
		a.nulls++
		return
	}
	sc, ok := normalize(v)
	if !ok {
		return
	}
	if !a.hasBound {
		a.min, a.max = sc, sc
		a.hasBound = true
		return
	}
	if sc.less(a.min) {
		a.min = sc
	}
	if a.max.less(sc) {
		a.max = sc
	}
}

func (a *valueAccumulator) stats() ColumnStats {
	s := ColumnStats{NullCount: a.nulls}
	if a.hasBound {
		s.Min = a.min.render()
		s.Max = a.max.render()
	}
	return s
}

func normalize(v interface{}) (scalar, bool) {
	switch x := v.(type) {
	case int:
		return scalar{kind: 'f', f: float64(x)}, true
	case int32:
		return scalar{kind: 'f', f: float64(x)}, true
	case int64:
		return scalar{kind: 'f', f: float64(x)}, true
	case float32:
		return scalar{kind: 'f', f: float64(x)}, true
	case float64:
		return scalar{kind: 'f', f: x}, true
	case string:
		return scalar{kind: 's', s: x}, true
	case []byte:
		return scalar{kind: 's', s: string(x)}, true
	case bool:
		return scalar{kind: 'b', b: x}, true
	case time.Time:
		return scalar{kind: 's', s: x.UTC().Format(time.RFC3339Nano)}, true
	default:
		// Nested or union-typed values carry no usable bounds.
		return scalar{}, false
	}
}

func (s scalar) less(o scalar) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case 'f':
		return s.f < o.f
	case 's':
		return s.s < o.s
	case 'b':
		return !s.b && o.b
	}
	return false
}

func (s scalar) render() string {
	switch s.kind {
	case 'f':
		return fmt.Sprintf("%v", s.f)
	case 's':
		return s.s
	case 'b':
		return fmt.Sprintf("%t", s.b)
	}
	return ""
}
