// Package adapter maps canonical node types to output-target elements.
//
// A Registry consults an ordered list of groups (project overrides, then
// component libraries, then native tags). The first group holding a
// definite resolution for a tag wins. Tags nobody maps degrade to a
// passthrough element with a warning diagnostic; resolution never fails.
//
// Icons resolve through an IconRegistry. Providers load asynchronously;
// resolution against a provider that is not ready yields a deferred
// placeholder, and subscribers are told when the provider settles.
package adapter
