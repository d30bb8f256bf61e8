// Package codegen compiles MIR documents into React/TSX source bundles.
//
// Generation consumes the same canonical tree and adapter resolutions as
// the live renderer. Literal values are serialized as JSON, references
// become accessor expressions over props, state, list items and the data
// scope, and events become handler expressions. Malformed input degrades to
// best-effort output plus diagnostics.
package codegen
