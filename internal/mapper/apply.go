package mapper

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ApplyMapping extracts each mapped source path from a remote record and
// coerces it to the target field's type. Unmappable or unparseable values
// become absent fields, never errors; the only record-level failure is a
// required target field ending up absent.
func ApplyMapping(record map[string]any, mapping map[string]string, targets []TargetField) (map[string]any, error) {
	out := make(map[string]any)

	for _, target := range targets {
		path := mapping[target.Key]
		if path == "" {
			continue // skip
		}
		raw, ok := Extract(record, path)
		if !ok {
			continue
		}
		if value, ok := Coerce(raw, target.Type); ok {
			out[target.Key] = value
		}
	}

	for _, target := range targets {
		if target.Required {
			if _, ok := out[target.Key]; !ok {
				return nil, fmt.Errorf("required field %q is absent after mapping", target.Key)
			}
		}
	}
	return out, nil
}

// Extract resolves a dotted path ("acf.community_name") inside a nested
// record. The second return value is false when any segment is missing.
func Extract(record map[string]any, path string) (any, bool) {
	var current any = record
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// FlattenPaths lists every dotted leaf path in a record, sorted. Used to
// derive the candidate source paths for suggestion from a sample record.
func FlattenPaths(record map[string]any) []string {
	var paths []string
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		m, ok := v.(map[string]any)
		if !ok || len(m) == 0 {
			if prefix != "" {
				paths = append(paths, prefix)
			}
			return
		}
		for k, child := range m {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			walk(p, child)
		}
	}
	walk("", record)
	sort.Strings(paths)
	return paths
}

// Coerce converts a raw JSON value to the target type. The boolean is
// false when the value cannot be represented, in which case the field is
// dropped. Shared by mapping application and AI extraction.
func Coerce(raw any, t FieldType) (any, bool) {
	switch t {
	case TypeNumber:
		f, ok := toFloat(raw)
		if !ok {
			return nil, false
		}
		return f, true

	case TypePrice:
		f, ok := toFloat(raw)
		if !ok {
			return nil, false
		}
		// Integer minor currency units: $1,234.50 -> 123450.
		return int64(math.Round(f * 100)), true

	case TypeArray:
		switch v := raw.(type) {
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := toString(item); ok {
					items = append(items, s)
				}
			}
			return items, true
		default:
			if s, ok := toString(raw); ok {
				return []string{s}, true
			}
			return nil, false
		}

	default: // TypeText
		s, ok := toString(raw)
		if !ok {
			return nil, false
		}
		return s, true
	}
}

// toString renders scalars as strings. Maps with a "rendered" key follow
// the WordPress {"rendered": "..."} convention.
func toString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case map[string]any:
		if rendered, ok := v["rendered"].(string); ok {
			return rendered, true
		}
		return "", false
	case nil:
		return "", false
	default:
		return "", false
	}
}

// toFloat parses numbers, tolerating currency formatting in strings
// ("$1,234.50").
func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		cleaned := strings.TrimSpace(v)
		cleaned = strings.TrimPrefix(cleaned, "$")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case map[string]any:
		if rendered, ok := v["rendered"]; ok {
			return toFloat(rendered)
		}
		return 0, false
	default:
		return 0, false
	}
}
