package patchgate

import "fmt"

// ErrorKind classifies a validation error.
type ErrorKind int

const (
	// KindBatchShape reports that the patch input is not a sequence of
	// operations at all. These errors carry OpIndex == -1.
	KindBatchShape ErrorKind = iota

	// KindOperationShape reports a malformed operation: missing required
	// field, wrong field type, or unrecognized op value.
	KindOperationShape

	// KindPath reports that a path or parent path does not resolve against
	// the schema.
	KindPath

	// KindSemantic reports a violated patch invariant: removing or moving a
	// required property, or moving a node into its own descendant.
	KindSemantic
)

func (k ErrorKind) String() string {
	switch k {
	case KindBatchShape:
		return "batch"
	case KindOperationShape:
		return "operation"
	case KindPath:
		return "path"
	case KindSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// OpError is a single validation error tagged with the index of the
// originating operation. Batch-level errors use OpIndex == -1.
type OpError struct {
	OpIndex int
	Kind    ErrorKind
	Message string
}

func (e OpError) Error() string {
	if e.OpIndex < 0 {
		return e.Message
	}
	return fmt.Sprintf("op %d: %s", e.OpIndex, e.Message)
}

// Result is the outcome of validating a patch batch. Errors are accumulated
// across operations; errors in one operation never abort its siblings.
type Result struct {
	Valid  bool
	Errors []OpError
}

func batchError(format string, args ...any) OpError {
	return OpError{OpIndex: -1, Kind: KindBatchShape, Message: fmt.Sprintf(format, args...)}
}

func opError(index int, kind ErrorKind, format string, args ...any) OpError {
	return OpError{OpIndex: index, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
