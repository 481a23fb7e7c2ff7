// Package stream maintains the observer's WebSocket connection to
// flowlens-server.
//
// The Manager is a small state machine (connecting → open → closed) that
// dials the server's fan-out endpoint, forwards decoded events to its
// callback, and on any closure reports the drop and redials after a fixed
// delay — indefinitely, with no backoff growth. That is a deliberate
// simplicity trade-off: flowlens targets a handful of supervised observers,
// not internet-scale fan-in. Cancelling the run context is the only way to
// make the closed state permanent.
package stream
