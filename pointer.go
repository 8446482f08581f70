package patchgate

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// parsePointer splits a JSON Pointer string into unescaped tokens. The empty
// string and "/" both denote the document root and yield no tokens. Any other
// pointer must start with "/"; otherwise ok is false.
func parsePointer(pointer string) (tokens []string, ok bool) {
	if pointer == "" || pointer == "/" {
		return nil, true
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, false
	}
	raw := strings.Split(pointer, "/")[1:]
	tokens = make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = unescapeToken(t)
	}
	return tokens, true
}

// unescapeToken decodes RFC 6901 escapes in a single pass: "~1" becomes "/"
// and "~0" becomes "~". A single pass guarantees produced characters are
// never re-interpreted, which a naive sequential ReplaceAll would get wrong
// for inputs like "~01".
func unescapeToken(token string) string {
	if !strings.Contains(token, "~") {
		return token
	}
	var b strings.Builder
	b.Grow(len(token))
	for i := 0; i < len(token); i++ {
		if token[i] == '~' && i+1 < len(token) {
			switch token[i+1] {
			case '1':
				b.WriteByte('/')
				i++
				continue
			case '0':
				b.WriteByte('~')
				i++
				continue
			}
		}
		b.WriteByte(token[i])
	}
	return b.String()
}

// IsValidPointer reports whether the pointer is structurally reachable in the
// schema. No data instance is consulted: the answer is "could this path
// plausibly exist", resolved conservatively (see the resolve priority order).
func IsValidPointer(pointer string, schema Schema) bool {
	return IsValidPointerOpts(pointer, schema, DefaultOptions())
}

// IsValidPointerOpts is IsValidPointer with explicit Options.
func IsValidPointerOpts(pointer string, schema Schema, opts Options) bool {
	tokens, ok := parsePointer(pointer)
	if !ok {
		return false
	}
	if len(tokens) == 0 {
		return true
	}

	opts = opts.normalized()
	log := opts.logger()
	rc := newResolveContext(schema, opts, log)

	cur := schema
	for _, token := range tokens {
		next, ok := rc.step(cur, token)
		if !ok {
			log.Debugf("pointer %q blocked at token %q (schema %s)", pointer, token, schemaSummary(cur, 1))
			return false
		}
		cur = next
	}
	return true
}

// SchemaAt walks the pointer through the schema and returns the resolved
// effective schema at that location, or ok == false when the pointer is not
// reachable. The root pointer returns the resolved root.
func SchemaAt(pointer string, schema Schema) (Schema, bool) {
	return SchemaAtOpts(pointer, schema, DefaultOptions())
}

// SchemaAtOpts is SchemaAt with explicit Options.
func SchemaAtOpts(pointer string, schema Schema, opts Options) (Schema, bool) {
	tokens, ok := parsePointer(pointer)
	if !ok {
		return nil, false
	}

	opts = opts.normalized()
	rc := newResolveContext(schema, opts, opts.logger())

	cur := schema
	for _, token := range tokens {
		next, ok := rc.step(cur, token)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return rc.resolve(cur, opts.MaxDepth), true
}

// step makes a single traversal decision: resolve the current schema, then
// compute the schema governing the given token, or report that traversal is
// blocked. Dispatch tries object shape first, then array shape; remaining
// scalar types never admit children.
func (rc *resolveContext) step(s Schema, token string) (Schema, bool) {
	eff := rc.resolve(s, rc.opts.MaxDepth)

	// A node pinned to a constant or enumerated value admits no further
	// structural children.
	if _, ok := eff["const"]; ok {
		return nil, false
	}
	if _, ok := eff["enum"]; ok {
		return nil, false
	}

	if objectShaped(eff) {
		if next, ok := rc.stepObject(eff, token); ok {
			return next, true
		}
	}
	if arrayShaped(eff) {
		if next, ok := rc.stepArray(eff, token); ok {
			return next, true
		}
	}
	return nil, false
}

// objectShaped reports whether object dispatch applies: an explicit object
// type, object keywords, or no declared type at all (untyped schemas are
// permissive).
func objectShaped(s Schema) bool {
	if hasType(s, "object") {
		return true
	}
	if _, ok := s["properties"]; ok {
		return true
	}
	if _, ok := s["patternProperties"]; ok {
		return true
	}
	return len(typeSet(s)) == 0
}

func arrayShaped(s Schema) bool {
	if hasType(s, "array") {
		return true
	}
	if _, ok := s["items"]; ok {
		return true
	}
	if _, ok := s["prefixItems"]; ok {
		return true
	}
	return false
}

// stepObject resolves a property token against an object-shaped schema.
// Precedence: explicit properties, then patternProperties, then the
// propertyNames gate, then additionalProperties, then dependentSchemas, and
// finally the permissive default {}.
func (rc *resolveContext) stepObject(s Schema, token string) (Schema, bool) {
	if props, ok := asSchema(s["properties"]); ok {
		if raw, declared := props[token]; declared {
			return schemaValue(raw)
		}
	}

	if patterns, ok := asSchema(s["patternProperties"]); ok {
		// Deterministic order: map iteration would make "first matching
		// entry" depend on runtime hashing.
		keys := make([]string, 0, len(patterns))
		for k := range patterns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, pattern := range keys {
			re, err := regexp.Compile(pattern)
			if err != nil {
				rc.log.Debugf("skipping unsupported patternProperties pattern %q: %v", pattern, err)
				continue
			}
			if re.MatchString(token) {
				return schemaValue(patterns[pattern])
			}
		}
	}

	if raw, ok := s["propertyNames"]; ok {
		if !rc.tokenSatisfiesNames(raw, token) {
			return nil, false
		}
	}

	if raw, ok := s["additionalProperties"]; ok {
		switch ap := raw.(type) {
		case bool:
			if !ap {
				return nil, false
			}
			return permissiveSchema(), true
		case map[string]any:
			return ap, true
		}
	}

	if deps, ok := asSchema(s["dependentSchemas"]); ok {
		if raw, declared := deps[token]; declared {
			return schemaValue(raw)
		}
	}

	return permissiveSchema(), true
}

// tokenSatisfiesNames checks a token against a propertyNames schema. Only
// shape constraints are honored: const, enum, pattern, minLength, maxLength.
// Unsupported patterns are skipped rather than treated as violations.
func (rc *resolveContext) tokenSatisfiesNames(raw any, token string) bool {
	names, ok := schemaValue(raw)
	if !ok {
		// propertyNames: false admits no properties at all.
		if b, isBool := raw.(bool); isBool && !b {
			return false
		}
		return true
	}
	names = rc.resolve(names, rc.opts.MaxDepth)

	if c, ok := asString(names["const"]); ok && c != token {
		return false
	}
	if enum, ok := asSlice(names["enum"]); ok {
		found := false
		for _, v := range enum {
			if s, ok := asString(v); ok && s == token {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if pattern, ok := asString(names["pattern"]); ok {
		if re, err := regexp.Compile(pattern); err == nil {
			if !re.MatchString(token) {
				return false
			}
		} else {
			rc.log.Debugf("skipping unsupported propertyNames pattern %q: %v", pattern, err)
		}
	}
	length := utf8.RuneCountInString(token)
	if n, ok := asNonNegativeInt(names["minLength"]); ok && length < n {
		return false
	}
	if n, ok := asNonNegativeInt(names["maxLength"]); ok && length > n {
		return false
	}
	return true
}

// stepArray resolves an index token against an array-shaped schema. The
// token must be a canonical non-negative decimal integer. prefixItems is the
// draft 2020-12 tuple form with "items" as the overflow schema; the legacy
// tuple form is an array-valued "items" with "additionalItems" as overflow.
func (rc *resolveContext) stepArray(s Schema, token string) (Schema, bool) {
	idx, ok := canonicalIndex(token)
	if !ok {
		return nil, false
	}

	if n, ok := asNonNegativeInt(s["maxItems"]); ok && idx >= n {
		return nil, false
	}

	if prefix, ok := asSlice(s["prefixItems"]); ok {
		if idx < len(prefix) {
			return positionalSchema(prefix[idx])
		}
		return overflowSchema(s["items"])
	}

	if tuple, ok := asSlice(s["items"]); ok {
		if idx < len(tuple) {
			return positionalSchema(tuple[idx])
		}
		return overflowSchema(s["additionalItems"])
	}

	switch items := s["items"].(type) {
	case map[string]any:
		return items, true
	case bool:
		if !items {
			return nil, false
		}
	}
	return permissiveSchema(), true
}

func positionalSchema(raw any) (Schema, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case bool:
		if !v {
			return nil, false
		}
	}
	return permissiveSchema(), true
}

// overflowSchema applies the items/additionalItems rule for indexes past the
// tuple prefix: false rejects, an object schema is used, anything else
// defaults to the permissive {}.
func overflowSchema(raw any) (Schema, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case bool:
		if !v {
			return nil, false
		}
	}
	return permissiveSchema(), true
}
