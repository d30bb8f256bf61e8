// Package mir defines the MIR document model: the declarative, author-editable
// description of a component tree, its parameters/state, and opaque logic and
// animation blocks.
//
// This package contains type definitions, tagged value references and the
// decode/migration path only. Every other internal package imports mir; mir
// imports nothing internal.
//
// Key design constraints:
//   - Documents are read-only snapshots; nothing downstream mutates them
//   - Value references are a closed sum type (see Ref), never duck-typed maps
//   - Diagnostics are values returned alongside results, never errors
package mir
