// Package route matches request paths against a route manifest.
//
// Matching is top-down, one path segment at a time. At each level the
// candidate children are ranked literal > dynamic (":name") > wildcard ("*");
// index routes match only when nothing remains. A candidate that cannot
// complete the match is abandoned and the next-ranked sibling is tried; no
// match at all is a normal outcome, not an error.
package route
