// Package types defines shared Go types used by both the server and observer.
// These are the canonical in-memory representations of normalized webhook
// events, separate from the provider's heterogeneous payload shapes.
package types
