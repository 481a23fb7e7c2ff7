// Package normalize converts the provider's heterogeneous webhook payloads
// into the canonical types.LogEvent shape.
//
// Normalization is total: classification probes the raw event body and sorts
// it into one of three variants — flow execution, alert, or unknown — and a
// pure mapping per variant produces the LogEvent. Payloads that match no
// known shape fall through to a generic fallback event instead of erroring.
package normalize
