package patchgate

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustPatch(t *testing.T, src string) any {
	t.Helper()
	var ops any
	if err := json.Unmarshal([]byte(src), &ops); err != nil {
		t.Fatalf("bad patch literal: %v", err)
	}
	return ops
}

func docSchema(t *testing.T) Schema {
	t.Helper()
	return mustSchema(t, `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name":  {"type": "string"},
			"age":   {"type": "integer"},
			"items": {"type": "array", "items": {"type": "string"}},
			"a":     {"type": "object", "properties": {"b": {}}}
		},
		"additionalProperties": false
	}`)
}

func TestValidatePatch_ValidBatch(t *testing.T) {
	ops := mustPatch(t, `[
		{"op": "add", "path": "/name", "value": "alice"},
		{"op": "replace", "path": "/age", "value": 30},
		{"op": "test", "path": "/name", "value": "alice"},
		{"op": "add", "path": "/items/-", "value": "x"},
		{"op": "copy", "from": "/name", "path": "/age"},
		{"op": "remove", "path": "/age"}
	]`)
	res := ValidatePatch(ops, docSchema(t))
	if !res.Valid {
		t.Fatalf("batch should be valid, got errors: %v", res.Errors)
	}
}

func TestValidatePatch_RemoveRequiredProperty(t *testing.T) {
	ops := mustPatch(t, `[{"op": "remove", "path": "/name"}]`)
	res := ValidatePatch(ops, docSchema(t))
	if res.Valid {
		t.Fatal("removing a required property should fail")
	}
	if len(res.Errors) != 1 || res.Errors[0].Kind != KindSemantic {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidatePatch_MoveFromRequiredProperty(t *testing.T) {
	ops := mustPatch(t, `[{"op": "move", "from": "/name", "path": "/age"}]`)
	res := ValidatePatch(ops, docSchema(t))
	if res.Valid {
		t.Fatal("moving away a required property should fail")
	}
	if res.Errors[0].Kind != KindSemantic {
		t.Errorf("kind = %v, want semantic", res.Errors[0].Kind)
	}
}

func TestValidatePatch_MoveIntoOwnDescendant(t *testing.T) {
	ops := mustPatch(t, `[{"op": "move", "from": "/a", "path": "/a/b"}]`)
	res := ValidatePatch(ops, docSchema(t))
	if res.Valid {
		t.Fatal("moving a node into its own descendant should fail")
	}
	if res.Errors[0].Kind != KindSemantic {
		t.Errorf("kind = %v, want semantic", res.Errors[0].Kind)
	}
}

func TestValidatePatch_MoveToSelfIsAllowed(t *testing.T) {
	ops := mustPatch(t, `[{"op": "move", "from": "/a", "path": "/a"}]`)
	res := ValidatePatch(ops, docSchema(t))
	if !res.Valid {
		t.Fatalf("move to self is a no-op, got errors: %v", res.Errors)
	}
}

func TestValidatePatch_AddChecksParentOnly(t *testing.T) {
	// Only the parent location must be reachable for add; the final token
	// names the property being created and is not itself resolved. The root
	// is always reachable, so this passes even with a closed root object.
	s := docSchema(t)
	res := ValidatePatch(mustPatch(t, `[{"op": "add", "path": "/extra", "value": 1}]`), s)
	if !res.Valid {
		t.Fatalf("add with a reachable parent should be valid, got errors: %v", res.Errors)
	}
}

func TestValidatePatch_AddParentReachable(t *testing.T) {
	s := docSchema(t)
	res := ValidatePatch(mustPatch(t, `[{"op": "add", "path": "/a/anything", "value": 1}]`), s)
	if !res.Valid {
		t.Fatalf("parent /a is reachable, got errors: %v", res.Errors)
	}
}

func TestValidatePatch_AddParentUnreachable(t *testing.T) {
	s := docSchema(t)
	res := ValidatePatch(mustPatch(t, `[{"op": "add", "path": "/nope/child", "value": 1}]`), s)
	if res.Valid {
		t.Fatal("parent /nope is blocked by additionalProperties: false")
	}
	if res.Errors[0].Kind != KindPath {
		t.Errorf("kind = %v, want path", res.Errors[0].Kind)
	}
}

func TestValidatePatch_AddRootReplacement(t *testing.T) {
	res := ValidatePatch(mustPatch(t, `[{"op": "add", "path": "", "value": {}}]`), docSchema(t))
	if !res.Valid {
		t.Fatalf("root replacement should be allowed, got errors: %v", res.Errors)
	}
}

func TestValidatePatch_ReplaceUnreachablePath(t *testing.T) {
	res := ValidatePatch(mustPatch(t, `[{"op": "replace", "path": "/nope", "value": 1}]`), docSchema(t))
	if res.Valid {
		t.Fatal("replace of an unreachable path should fail")
	}
	if res.Errors[0].Kind != KindPath {
		t.Errorf("kind = %v, want path", res.Errors[0].Kind)
	}
}

func TestValidatePatch_ErrorIndexing(t *testing.T) {
	ops := mustPatch(t, `[
		{"op": "remove", "path": "/name"},
		{"op": "replace", "path": "/age", "value": 1},
		{"op": "frobnicate", "path": "/age"}
	]`)
	res := ValidatePatch(ops, docSchema(t))
	if res.Valid {
		t.Fatal("batch should be invalid")
	}
	var got []int
	for _, e := range res.Errors {
		got = append(got, e.OpIndex)
	}
	if diff := cmp.Diff([]int{0, 2}, got); diff != "" {
		t.Errorf("error indexes mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatePatch_OperationShape(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing op", `[{"path": "/name", "value": 1}]`},
		{"unknown op", `[{"op": "merge", "path": "/name"}]`},
		{"missing path", `[{"op": "add", "value": 1}]`},
		{"non-string path", `[{"op": "add", "path": 3, "value": 1}]`},
		{"add without value", `[{"op": "add", "path": "/name"}]`},
		{"replace without value", `[{"op": "replace", "path": "/name"}]`},
		{"test without value", `[{"op": "test", "path": "/name"}]`},
		{"move without from", `[{"op": "move", "path": "/age"}]`},
		{"copy without from", `[{"op": "copy", "path": "/age"}]`},
		{"non-object element", `[42]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidatePatch(mustPatch(t, tc.src), docSchema(t))
			if res.Valid {
				t.Fatal("expected invalid")
			}
			if res.Errors[0].Kind != KindOperationShape {
				t.Errorf("kind = %v, want operation", res.Errors[0].Kind)
			}
			if res.Errors[0].OpIndex != 0 {
				t.Errorf("OpIndex = %d, want 0", res.Errors[0].OpIndex)
			}
		})
	}
}

func TestValidatePatch_ExplicitNullValue(t *testing.T) {
	res := ValidatePatch(mustPatch(t, `[{"op": "add", "path": "/age", "value": null}]`), docSchema(t))
	if !res.Valid {
		t.Fatalf("explicit null value is present, got errors: %v", res.Errors)
	}
}

func TestValidatePatch_BatchShape(t *testing.T) {
	for _, src := range []string{`{"op": "add"}`, `"nope"`, `3`} {
		res := ValidatePatch(mustPatch(t, src), docSchema(t))
		if res.Valid {
			t.Errorf("%s: expected invalid", src)
		}
		if res.Errors[0].OpIndex != -1 || res.Errors[0].Kind != KindBatchShape {
			t.Errorf("%s: unexpected error %+v", src, res.Errors[0])
		}
	}
}

func TestValidatePatch_InvalidPointerSyntax(t *testing.T) {
	res := ValidatePatch(mustPatch(t, `[{"op": "remove", "path": "name"}]`), docSchema(t))
	if res.Valid {
		t.Fatal("pointer without leading slash should fail")
	}
	if res.Errors[0].Kind != KindPath {
		t.Errorf("kind = %v, want path", res.Errors[0].Kind)
	}
}

func TestValidatePatch_TypedOperations(t *testing.T) {
	ops := []Operation{
		{Op: "add", Path: "/age", Value: 30},
		{Op: "move", From: "/age", Path: "/name"},
	}
	res := ValidatePatch(ops, docSchema(t))
	if !res.Valid {
		t.Fatalf("typed batch should be valid, got errors: %v", res.Errors)
	}
}

func TestValidatePatch_EmptyBatch(t *testing.T) {
	res := ValidatePatch(mustPatch(t, `[]`), docSchema(t))
	if !res.Valid {
		t.Fatal("an empty batch is trivially valid")
	}
}

func TestOpError_Error(t *testing.T) {
	e := opError(2, KindPath, "path %q is not reachable in the schema", "/x")
	if got, want := e.Error(), `op 2: path "/x" is not reachable in the schema`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	b := batchError("patch must be an array of operations, got %T", "x")
	if got, want := b.Error(), "patch must be an array of operations, got string"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
