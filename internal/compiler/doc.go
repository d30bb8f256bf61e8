// Package compiler validates MIR documents against the authoring contract.
//
// Validation runs the same migration and canonicalization path as rendering,
// then applies checks rendering does not need: required ids and types,
// well-formed data and list declarations, resolvable emptyNodeId targets and
// unambiguous references. ValidateBytes additionally checks raw input
// against a CUE structural schema before decoding.
package compiler
