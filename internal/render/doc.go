// Package render builds live view-trees from MIR documents.
//
// Every Render call is a complete pass: the document is canonicalized,
// references are resolved against the supplied params, state and data,
// lists are expanded, Route nodes are matched and each node's element is
// chosen through the adapter registry. The resulting View carries a flat
// key index used for delegated event dispatch and selection.
package render
