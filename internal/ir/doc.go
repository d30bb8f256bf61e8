// Package ir builds the canonical intermediate representation of a MIR
// document.
//
// Normalize walks the authored tree once and produces a Tree whose nodes are
// guaranteed to carry a non-empty id and type, a structural path, defensive
// copies of style/props/data/list, and normalized events. Problems found on
// the way are reported as diagnostics, never as errors.
//
// Key design constraints:
//   - Pure and deterministic: identical input structure yields identical ids,
//     types and paths
//   - Each canonical node exclusively owns its children; no back pointers
//   - A flat id index is built once per pass for O(1) lookups
//   - Nothing is cached across calls
package ir
