// Package dashboard maintains the observer's view of the event stream: a
// 24-slot hour-of-day histogram of event/error volume and a capped log of
// the most recent events.
//
// Buckets are keyed by hour of day, not by absolute hour — two events 24+
// hours apart with the same local hour accumulate into the same slot. That
// bounds memory to a fixed 24 slots and makes the histogram a "typical hour
// of day" view rather than a true trailing-24h window; the coarseness is a
// known, accepted property of the display.
//
// The reducer is fed from two places: real events arriving over the stream,
// which are always folded in, and the demo-data Simulator, which keeps the
// display moving when no real traffic arrives and is gated by the live flag.
package dashboard
