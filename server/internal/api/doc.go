// Package api implements the small HTTP status surface for flowlens-server.
//
// New(hub, publicURL) returns an http.Handler that serves:
//
//	GET /health           — process status + connected-observer count
//	GET /api/webhook-url  — the ingestion URL the provider should deliver to
//
// All endpoints respond with Content-Type: application/json and return 405
// for non-GET methods. No external HTTP framework is used.
package api
