package catalog

import (
	"fmt"
	"strings"
)

// Partition names follow the hive convention "k1=v1/k2=v2" with %XX escaping
// of characters that would break path or name parsing.

const escapeChars = "\x01\"#%'*/:=?\\\x7f{}[]^"

// ParsePartitionName splits a partition name into its column-value pairs.
func ParsePartitionName(name string) (map[string]string, error) {
	spec := make(map[string]string)
	for _, part := range strings.Split(name, "/") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed partition name segment %q in %q", part, name)
		}
		spec[unescapePathName(k)] = unescapePathName(v)
	}
	return spec, nil
}

// FormatPartitionName builds a canonical partition name from a spec, using
// the given column order.
func FormatPartitionName(spec map[string]string, order []string) string {
	segments := make([]string, 0, len(order))
	for _, col := range order {
		segments = append(segments, escapePathName(col)+"="+escapePathName(spec[col]))
	}
	return strings.Join(segments, "/")
}

func escapePathName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || strings.IndexByte(escapeChars, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescapePathName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			var c byte
			if _, err := fmt.Sscanf(s[i+1:i+3], "%02X", &c); err == nil {
				b.WriteByte(c)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
