// Package resolve implements value-reference resolution against a layered
// context of params, state, scoped data and the current list item/index.
//
// Resolution is synchronous and side-effect free. Missing paths and
// non-object intermediates resolve to nil; nothing here panics or returns an
// error for malformed input.
package resolve
