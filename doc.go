// Package patchgate validates JSON Pointers and RFC 6902 patches against a
// JSON Schema without a data instance.
//
// The engine answers a structural question: could this path, or this patch,
// plausibly apply to some document admitted by the schema? It resolves draft
// 2020-12 composition ($ref, allOf, anyOf/oneOf, if/then/else) conservatively
// and walks pointer tokens through the resolved shape. Anything the engine
// cannot understand widens to the permissive empty schema rather than
// rejecting, so a false "invalid" is never produced by an unsupported
// construct.
//
// Three entry points cover the public surface:
//
//	IsValidPointer("/user/name", schema)         // pointer reachability
//	SchemaAt("/user", schema)                    // resolved schema at a path
//	ValidatePatch(ops, schema)                   // whole RFC 6902 batch
//
// All entry points are safe for concurrent use; schemas are never mutated.
package patchgate
