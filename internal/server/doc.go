// Package server exposes the render, compile, validate and route pipeline
// over HTTP for editor previews.
//
// Endpoints:
//
//	POST /api/render                  render a document to a view tree
//	POST /api/compile                 compile a document to an export bundle
//	POST /api/validate                validate a document
//	POST /api/routes/match            match a path against a route manifest
//	GET  /api/icons                   icon provider states
//	POST /api/icons/{provider}/ensure load an icon provider
//	GET  /api/bundles                 archived bundles
//	GET  /api/bundles/{id}            one archived bundle
//	GET  /ws/icons                    websocket stream of provider events
package server
