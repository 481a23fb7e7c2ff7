// Package ingest implements the provider-facing webhook endpoint.
//
// It handles two request shapes on the same path: the provider's GET
// handshake probe (echo the challenge token) and POSTed event envelopes,
// which are normalized and handed to the broadcast hub. No payload is ever
// fatal — unrecognized shapes fall through to the normalizer's fallback
// variant, and structurally unparseable bodies get a 400 response.
package ingest
