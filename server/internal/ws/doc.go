// Package ws implements the WebSocket broadcast hub for flowlens-server.
//
// The Hub owns the set of connected observer connections. Broadcast
// serializes a normalized event once and attempts delivery to every
// registered connection; a connection that cannot keep up is dropped so it
// never blocks delivery to the others. Each connection receives events in
// Broadcast order (per-connection FIFO); there is no acknowledgment, retry,
// or cross-connection ordering guarantee.
package ws
