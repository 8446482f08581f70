package patchgate

// mergeSchemas folds two schema nodes into one, used by allOf folding and by
// the if/then/else union. The policy is keyword-wise:
//
//   - properties, patternProperties: key-wise union, right wins on collision
//   - required: set union
//   - type: intersection of the allowed type sets; an empty intersection
//     omits "type" from the result rather than rejecting the merge
//   - minProperties: maximum (more restrictive)
//   - maxProperties: minimum (more restrictive)
//   - everything else: right-hand wins
//
// The single merge implementation is shared between schema resolution and the
// patch validator's parent lookups so the two call paths cannot drift.
func mergeSchemas(left, right Schema) Schema {
	if len(left) == 0 {
		return cloneWithout(right)
	}
	if len(right) == 0 {
		return cloneWithout(left)
	}

	out := cloneWithout(left)
	for k, v := range right {
		switch k {
		case "properties", "patternProperties":
			out[k] = mergeKeywise(left[k], v)
		case "required":
			out[k] = unionStrings(left[k], v)
		case "type":
			if types := intersectTypes(left["type"], v); types != nil {
				out[k] = types
			} else {
				delete(out, "type")
			}
		case "minProperties":
			out[k] = pickBound(left[k], v, true)
		case "maxProperties":
			out[k] = pickBound(left[k], v, false)
		default:
			out[k] = v
		}
	}
	return out
}

func mergeKeywise(left, right any) any {
	lm, lok := asSchema(left)
	rm, rok := asSchema(right)
	if !lok {
		return right
	}
	if !rok {
		return left
	}
	out := make(Schema, len(lm)+len(rm))
	for k, v := range lm {
		out[k] = v
	}
	for k, v := range rm {
		out[k] = v
	}
	return out
}

func unionStrings(left, right any) []any {
	seen := make(map[string]bool)
	var out []any
	for _, raw := range []any{left, right} {
		items, ok := asSlice(raw)
		if !ok {
			continue
		}
		for _, v := range items {
			s, ok := asString(v)
			if !ok || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// intersectTypes intersects two "type" values, each a string or an array of
// strings. A nil return means the intersection is empty and the keyword
// should be dropped from the merged schema.
func intersectTypes(left, right any) any {
	lt := rawTypeSet(left)
	rt := rawTypeSet(right)
	if lt == nil {
		return right
	}
	if rt == nil {
		return left
	}
	rset := make(map[string]bool, len(rt))
	for _, t := range rt {
		rset[t] = true
	}
	var out []any
	for _, t := range lt {
		if rset[t] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func rawTypeSet(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := asString(x); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// pickBound keeps the more restrictive of two numeric bounds: the maximum for
// lower bounds, the minimum for upper bounds. Non-numeric values fall back to
// right-hand-wins.
func pickBound(left, right any, wantMax bool) any {
	ln, lok := asNonNegativeInt(left)
	rn, rok := asNonNegativeInt(right)
	if !lok || !rok {
		return right
	}
	if wantMax == (ln > rn) {
		return left
	}
	return right
}
