package patchgate

import "strings"

// resolveContext carries the per-call transient state used while collapsing
// reference and composition keywords. A fresh context is built at the start
// of each public validation call and discarded at the end; it is never
// shared across calls.
type resolveContext struct {
	root Schema

	// defs is the flattened definition map: "$defs" merged with the legacy
	// "definitions" keyword, with "$defs" winning on name collision.
	defs map[string]Schema

	// anchors maps "$anchor"/"$dynamicAnchor" names to the nodes declaring
	// them. Built once per call by a best-effort pre-pass over the root.
	anchors map[string]Schema

	// refStack guards against reference cycles within a single resolution
	// chain. Keyed by the reference string, not node identity, so the same
	// node can be revisited via different non-cyclic paths.
	refStack map[string]bool

	opts Options
	log  Logger
}

// newResolveContext builds the per-call context: the flattened definitions
// map and the anchor index.
func newResolveContext(root Schema, opts Options, log Logger) *resolveContext {
	rc := &resolveContext{
		root:     root,
		defs:     make(map[string]Schema),
		anchors:  make(map[string]Schema),
		refStack: make(map[string]bool),
		opts:     opts,
		log:      log,
	}

	if defs, ok := asSchema(root["definitions"]); ok {
		for name, v := range defs {
			if s, ok := schemaValue(v); ok {
				rc.defs[name] = s
			}
		}
	}
	if defs, ok := asSchema(root["$defs"]); ok {
		for name, v := range defs {
			if s, ok := schemaValue(v); ok {
				rc.defs[name] = s
			}
		}
	}

	rc.indexAnchors(root, opts.MaxDepth)
	return rc
}

// indexAnchors walks properties and definition containers recursively,
// recording anchor declarations. This is a best-effort index: anchors
// declared outside these containers are not discovered.
func (rc *resolveContext) indexAnchors(s Schema, depth int) {
	if depth <= 0 {
		return
	}
	if name, ok := asString(s["$anchor"]); ok && name != "" {
		rc.anchors[name] = s
	}
	if name, ok := asString(s["$dynamicAnchor"]); ok && name != "" {
		rc.anchors[name] = s
	}
	for _, container := range []string{"properties", "$defs", "definitions"} {
		children, ok := asSchema(s[container])
		if !ok {
			continue
		}
		for _, v := range children {
			if child, ok := asSchema(v); ok {
				rc.indexAnchors(child, depth-1)
			}
		}
	}
}

// resolve collapses a schema node's reference and composition keywords into a
// single effective schema usable for one traversal decision. The first
// matching branch wins:
//
//  1. $ref / $dynamicRef: resolve the target, then resolve that recursively
//  2. allOf: fold all branches together over the node's own keywords
//  3. anyOf / oneOf: the first branch only (documented approximation)
//  4. not: stripped and ignored
//  5. if/then/else: then and else merged, conditionals stripped
//  6. otherwise the node is returned unchanged
//
// Resolution never mutates its input; every transformation produces a new
// transient schema. Unsupported or cyclic references degrade to the
// permissive empty schema rather than failing.
func (rc *resolveContext) resolve(s Schema, depth int) Schema {
	if s == nil {
		return permissiveSchema()
	}
	if depth <= 0 {
		rc.log.Warnf("schema resolution depth limit reached, widening to {}")
		return permissiveSchema()
	}

	if ref, ok := asString(s["$ref"]); ok {
		return rc.resolveRef(ref, depth)
	}
	if ref, ok := asString(s["$dynamicRef"]); ok {
		// Static reachability treats $dynamicRef like $ref.
		return rc.resolveRef(ref, depth)
	}

	if branches, ok := asSlice(s["allOf"]); ok {
		merged := cloneWithout(s, "allOf")
		for _, raw := range branches {
			branch, ok := asSchema(raw)
			if !ok {
				continue
			}
			merged = mergeSchemas(merged, rc.resolve(branch, depth-1))
		}
		return rc.resolve(merged, depth-1)
	}

	for _, kw := range []string{"anyOf", "oneOf"} {
		branches, ok := asSlice(s[kw])
		if !ok {
			continue
		}
		for _, raw := range branches {
			if branch, ok := asSchema(raw); ok {
				rc.log.Debugf("resolving %s to first branch %s", kw, schemaSummary(branch, 1))
				return rc.resolve(branch, depth-1)
			}
		}
		return rc.resolve(cloneWithout(s, kw), depth-1)
	}

	if _, ok := s["not"]; ok {
		return rc.resolve(cloneWithout(s, "not"), depth-1)
	}

	if _, ok := s["if"]; ok {
		merged := cloneWithout(s, "if", "then", "else")
		if branch, ok := asSchema(s["then"]); ok {
			merged = mergeSchemas(merged, rc.resolve(branch, depth-1))
		}
		if branch, ok := asSchema(s["else"]); ok {
			merged = mergeSchemas(merged, rc.resolve(branch, depth-1))
		}
		return merged
	}

	return s
}

// resolveRef resolves a reference string to its target node and then resolves
// the target. Cycles return the permissive schema immediately; the guard
// entry is removed on exit so the same reference can be resolved again on an
// independent chain at a later traversal step.
func (rc *resolveContext) resolveRef(ref string, depth int) Schema {
	if rc.refStack[ref] {
		rc.log.Debugf("reference cycle on %q, widening to {}", ref)
		return permissiveSchema()
	}
	if len(rc.refStack) >= rc.opts.MaxRefDepth {
		rc.log.Warnf("reference chain limit reached at %q, widening to {}", ref)
		return permissiveSchema()
	}

	rc.refStack[ref] = true
	defer delete(rc.refStack, ref)

	target, ok := rc.lookupRef(ref)
	if !ok {
		rc.log.Debugf("unresolvable reference %q, widening to {}", ref)
		return permissiveSchema()
	}
	return rc.resolve(target, depth-1)
}

// lookupRef locates the node a reference string points at. Supported forms
// are in-document only: "#" (the root), "#/a/b/c" (a JSON Pointer fragment)
// and "#name" (a bare anchor). External and relative references are not
// supported; the engine performs no I/O.
func (rc *resolveContext) lookupRef(ref string) (Schema, bool) {
	if !strings.HasPrefix(ref, "#") {
		return nil, false
	}
	fragment := ref[1:]
	if fragment == "" {
		return rc.root, true
	}

	if !strings.HasPrefix(fragment, "/") {
		// Bare anchor. Fall back to the flattened definitions when the
		// pre-pass did not discover a matching anchor.
		if s, ok := rc.anchors[fragment]; ok {
			return s, true
		}
		if s, ok := rc.defs[fragment]; ok {
			return s, true
		}
		return nil, false
	}

	// JSON Pointer fragment walked from the root document value.
	cur := any(rc.root)
	for _, token := range strings.Split(fragment, "/")[1:] {
		token = unescapeToken(token)
		switch x := cur.(type) {
		case map[string]any:
			next, ok := x[token]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, ok := canonicalIndex(token)
			if !ok || idx >= len(x) {
				return nil, false
			}
			cur = x[idx]
		default:
			return nil, false
		}
	}
	return schemaValue(cur)
}
