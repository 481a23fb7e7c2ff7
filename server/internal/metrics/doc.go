// Package metrics tracks ingestion and fan-out counters for the server and
// exposes them in Prometheus text exposition format at /metrics.
//
// The registry is deliberately small: normalized events by kind, rejected
// payloads, and the current number of connected observers. Counters are
// monotonic; the observer count is read live from the hub at scrape time.
package metrics
