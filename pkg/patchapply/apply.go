// Package patchapply applies schema-validated RFC 6902 patches to a concrete
// JSON document. Validation always runs first: a batch that could not apply
// to any document admitted by the schema is rejected before the document is
// touched.
package patchapply

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/patchgate/patchgate"
)

// ValidationError wraps the validation result of a rejected batch.
type ValidationError struct {
	Result patchgate.Result
}

func (e *ValidationError) Error() string {
	if len(e.Result.Errors) == 1 {
		return fmt.Sprintf("patch rejected by schema validation: %s", e.Result.Errors[0].Error())
	}
	return fmt.Sprintf("patch rejected by schema validation: %d errors (first: %s)",
		len(e.Result.Errors), e.Result.Errors[0].Error())
}

// Apply validates ops against the schema and, when valid, applies them to the
// document. The returned bytes are the patched document. A validation failure
// returns a *ValidationError carrying every per-operation error.
func Apply(doc []byte, ops []patchgate.Operation, schema patchgate.Schema) ([]byte, error) {
	return ApplyOpts(doc, ops, schema, patchgate.DefaultOptions())
}

// ApplyOpts is Apply with explicit validation Options.
func ApplyOpts(doc []byte, ops []patchgate.Operation, schema patchgate.Schema, opts patchgate.Options) ([]byte, error) {
	if res := patchgate.ValidatePatchOpts(ops, schema, opts); !res.Valid {
		return nil, &ValidationError{Result: res}
	}

	encoded, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	out, err := patch.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}
