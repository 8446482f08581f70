package patchgate

import "strconv"

// Schema is a JSON Schema node as decoded from a JSON or YAML document.
// The engine works on raw decoded documents rather than a typed model so that
// draft 2020-12 keywords and their legacy spellings (tuple-form "items",
// "additionalItems", "definitions") can coexist in the same tree.
//
// Schemas are read-only for the lifetime of a validation call and may be
// shared across concurrent calls. All derived schemas produced during
// resolution are new transient values.
type Schema = map[string]any

// permissiveSchema returns the empty schema {}, which admits any traversal.
// It is the fallback for unsupported references, exceeded depth limits, and
// undeclared properties.
func permissiveSchema() Schema {
	return Schema{}
}

func asSchema(v any) (Schema, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// schemaValue interprets a raw value in schema position. Boolean schemas are
// legal in draft 2020-12: true behaves like {} and false admits nothing.
// The second return reports whether the value is usable as a schema at all.
func schemaValue(v any) (Schema, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case bool:
		if x {
			return permissiveSchema(), true
		}
		return nil, false
	default:
		return nil, false
	}
}

// typeSet returns the declared type names of a schema node. A "type" keyword
// may be a single string or an array of strings; absence yields nil.
func typeSet(s Schema) []string {
	raw, ok := s["type"]
	if !ok {
		return nil
	}
	switch t := raw.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if name, ok := v.(string); ok {
				out = append(out, name)
			}
		}
		return out
	default:
		return nil
	}
}

func hasType(s Schema, name string) bool {
	for _, t := range typeSet(s) {
		if t == name {
			return true
		}
	}
	return false
}

// asNonNegativeInt parses a numeric keyword value (maxItems, minLength, ...)
// which may decode as int, int64, uint64 or float64 depending on the source.
func asNonNegativeInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		if n >= 0 {
			return n, true
		}
	case int64:
		if n >= 0 && n <= int64(maxInt) {
			return int(n), true
		}
	case uint64:
		if n <= uint64(maxInt) {
			return int(n), true
		}
	case float64:
		if n >= 0 && n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

const maxInt = int(^uint(0) >> 1)

// canonicalIndex parses an array index token. Per RFC 6901 the token must be
// a base-10 integer with no sign and no leading zeros; the decimal round-trip
// check rejects "01", "+1", "1e2" and similar.
func canonicalIndex(token string) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, false
	}
	if strconv.Itoa(n) != token {
		return 0, false
	}
	return n, true
}

// cloneWithout returns a shallow copy of s with the named keywords removed.
func cloneWithout(s Schema, keywords ...string) Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range keywords {
		delete(out, k)
	}
	return out
}
