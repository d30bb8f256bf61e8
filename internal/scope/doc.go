// Package scope computes the data visible to a subtree and drives
// array-template iteration for nodes that declare a list.
package scope
