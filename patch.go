package patchgate

import "strings"

// Operation is a single RFC 6902 patch operation. From and Value are only
// meaningful for the operations that use them.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

const (
	opAdd     = "add"
	opRemove  = "remove"
	opReplace = "replace"
	opMove    = "move"
	opCopy    = "copy"
	opTest    = "test"
)

// rawOp is an operation with member presence tracked, so that a missing
// "value" member can be told apart from an explicit null.
type rawOp struct {
	op    string
	hasOp bool

	path         string
	hasPath      bool
	pathIsString bool

	from         string
	hasFrom      bool
	fromIsString bool

	hasValue bool

	// bad is set when the batch element was not an object at all.
	bad *OpError
}

// ValidatePatch checks an RFC 6902 patch batch against a schema without a
// data instance. The batch may be a []Operation, a []map[string]any, or a
// []any as decoded from JSON. Validation is fail-fast within an operation and
// accumulating across operations: every invalid operation contributes one
// error, indexed by its position in the batch.
func ValidatePatch(ops any, schema Schema) Result {
	return ValidatePatchOpts(ops, schema, DefaultOptions())
}

// ValidatePatchOpts is ValidatePatch with explicit Options.
func ValidatePatchOpts(ops any, schema Schema, opts Options) Result {
	raws, err := coerceBatch(ops)
	if err != nil {
		return Result{Errors: []OpError{*err}}
	}

	opts = opts.normalized()
	v := &patchValidator{
		rc:   newResolveContext(schema, opts, opts.logger()),
		opts: opts,
	}

	var errs []OpError
	for i, op := range raws {
		if err := v.checkOp(i, op); err != nil {
			errs = append(errs, *err)
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// coerceBatch normalizes the accepted batch representations into rawOps.
func coerceBatch(ops any) ([]rawOp, *OpError) {
	switch batch := ops.(type) {
	case []Operation:
		out := make([]rawOp, len(batch))
		for i, op := range batch {
			// Typed operations cannot distinguish an absent value from an
			// explicit null, so the value is treated as present.
			out[i] = rawOp{
				op: op.Op, hasOp: true,
				path: op.Path, hasPath: true, pathIsString: true,
				from: op.From, hasFrom: true, fromIsString: true,
				hasValue: true,
			}
		}
		return out, nil
	case []map[string]any:
		out := make([]rawOp, len(batch))
		for i, m := range batch {
			out[i] = rawOpFromMap(m)
		}
		return out, nil
	case []any:
		out := make([]rawOp, len(batch))
		for i, elem := range batch {
			m, ok := elem.(map[string]any)
			if !ok {
				out[i] = rawOp{bad: errp(opError(i, KindOperationShape, "operation must be an object, got %T", elem))}
				continue
			}
			out[i] = rawOpFromMap(m)
		}
		return out, nil
	default:
		e := batchError("patch must be an array of operations, got %T", ops)
		return nil, &e
	}
}

func rawOpFromMap(m map[string]any) rawOp {
	var op rawOp
	if raw, ok := m["op"]; ok {
		op.hasOp = true
		op.op, _ = raw.(string)
	}
	if raw, ok := m["path"]; ok {
		op.hasPath = true
		op.path, op.pathIsString = raw.(string)
	}
	if raw, ok := m["from"]; ok {
		op.hasFrom = true
		op.from, op.fromIsString = raw.(string)
	}
	_, op.hasValue = m["value"]
	return op
}

type patchValidator struct {
	rc   *resolveContext
	opts Options
}

// checkOp validates one operation: shape first, then pointer syntax, then
// schema reachability and the semantic rules for its op kind. The first
// failure wins.
func (v *patchValidator) checkOp(i int, op rawOp) *OpError {
	if op.bad != nil {
		return op.bad
	}
	if !op.hasOp {
		return errp(opError(i, KindOperationShape, "missing %q member", "op"))
	}
	switch op.op {
	case opAdd, opRemove, opReplace, opMove, opCopy, opTest:
	default:
		return errp(opError(i, KindOperationShape, "unknown op %q", op.op))
	}

	if !op.hasPath {
		return errp(opError(i, KindOperationShape, "%s: missing %q member", op.op, "path"))
	}
	if !op.pathIsString {
		return errp(opError(i, KindOperationShape, "%s: %q member must be a string", op.op, "path"))
	}

	switch op.op {
	case opAdd, opReplace, opTest:
		if !op.hasValue {
			return errp(opError(i, KindOperationShape, "%s: missing %q member", op.op, "value"))
		}
	case opMove, opCopy:
		if !op.hasFrom {
			return errp(opError(i, KindOperationShape, "%s: missing %q member", op.op, "from"))
		}
		if !op.fromIsString {
			return errp(opError(i, KindOperationShape, "%s: %q member must be a string", op.op, "from"))
		}
	}

	path, ok := parsePointer(op.path)
	if !ok {
		return errp(opError(i, KindPath, "%s: invalid pointer %q", op.op, op.path))
	}

	switch op.op {
	case opAdd:
		return v.checkTarget(i, op.op, op.path, path)

	case opReplace, opTest:
		if !v.reachable(path) {
			return errp(opError(i, KindPath, "%s: path %q is not reachable in the schema", op.op, op.path))
		}
		return nil

	case opRemove:
		if !v.reachable(path) {
			return errp(opError(i, KindPath, "remove: path %q is not reachable in the schema", op.path))
		}
		return v.checkRequired(i, opRemove, op.path, path)

	case opMove, opCopy:
		from, ok := parsePointer(op.from)
		if !ok {
			return errp(opError(i, KindPath, "%s: invalid pointer %q", op.op, op.from))
		}
		if !v.reachable(from) {
			return errp(opError(i, KindPath, "%s: from %q is not reachable in the schema", op.op, op.from))
		}
		if op.op == opMove {
			if err := v.checkRequired(i, opMove, op.from, from); err != nil {
				return err
			}
			if strings.HasPrefix(op.path, op.from+"/") {
				return errp(opError(i, KindSemantic, "move: destination %q is a descendant of source %q", op.path, op.from))
			}
		}
		return v.checkTarget(i, op.op, op.path, path)
	}
	return nil
}

// checkTarget validates an add-style destination: the parent location must be
// reachable. The final token itself may name a property or index that does
// not exist yet, including the "-" append marker.
func (v *patchValidator) checkTarget(i int, op, pointer string, tokens []string) *OpError {
	if len(tokens) == 0 {
		// Root replacement is always allowed.
		return nil
	}
	if !v.reachable(tokens[:len(tokens)-1]) {
		return errp(opError(i, KindPath, "%s: parent of path %q is not reachable in the schema", op, pointer))
	}
	return nil
}

// checkRequired rejects removing (or moving away) a property that the parent
// schema declares required.
func (v *patchValidator) checkRequired(i int, op, pointer string, tokens []string) *OpError {
	if len(tokens) == 0 {
		return nil
	}
	parent, ok := v.schemaAt(tokens[:len(tokens)-1])
	if !ok {
		return nil
	}
	name := tokens[len(tokens)-1]
	if req, ok := asSlice(parent["required"]); ok {
		for _, r := range req {
			if s, ok := asString(r); ok && s == name {
				return errp(opError(i, KindSemantic, "%s: property %q is required by the schema", op, name))
			}
		}
	}
	return nil
}

// reachable walks already-parsed tokens from the root schema.
func (v *patchValidator) reachable(tokens []string) bool {
	cur := v.rc.root
	for _, token := range tokens {
		next, ok := v.rc.step(cur, token)
		if !ok {
			return false
		}
		cur = next
	}
	return true
}

// schemaAt returns the resolved schema at already-parsed tokens.
func (v *patchValidator) schemaAt(tokens []string) (Schema, bool) {
	cur := v.rc.root
	for _, token := range tokens {
		next, ok := v.rc.step(cur, token)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return v.rc.resolve(cur, v.opts.MaxDepth), true
}

func errp(e OpError) *OpError { return &e }
