// Package harness runs conformance scenarios against the MIR pipeline.
//
// # Scenario Format
//
// Scenarios are YAML files. LoadDir treats every .yaml file in a directory
// as a scenario, so documents and manifests next to them are kept as JSON:
//
//	name: user_route
//	description: "Nested route selects the user page"
//	mode: route            # render | compile | validate | route
//	document: card.json    # relative to the scenario file
//	manifest: routes.json
//	pages:
//	  user: user.json
//	input:
//	  params: { title: Hello }
//	  current_path: /users/42
//	route:
//	  path: /users/42
//	assertions:
//	  - type: route_match
//	    routes: [root, users]
//	    params: { id: "42" }
//
// # Assertion Types
//
//   - diagnostic_codes: the distinct diagnostic codes equal codes (any order)
//   - has_diagnostic: a diagnostic with code is present
//   - issue_codes: validator issue codes equal codes, in order
//   - valid: the validator reported no issues (or some, with valid: false)
//   - rendered_keys: the view's node keys in pre-order equal keys
//   - node: the view node with key matches expect (subset of its JSON form)
//   - bundle_files: the bundle's file paths equal files (any order)
//   - file_contains: the bundle file contains the given text
//   - route_match: the route match selects routes, params and page
//
// # Golden Output
//
// RunWithGolden compares a canonical JSON snapshot of the mode's output
// with testdata/golden/{scenario.Name}.golden.
package harness
