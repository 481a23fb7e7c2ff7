package normalize

import (
	"encoding/json"
	"time"
)

// variant identifies which payload shape a raw event body matched.
type variant int

const (
	variantUnknown variant = iota
	variantFlow
	variantAlert
)

// probe is the union of all fields the classifier looks at. Decoding into it
// never fails the pipeline — an undecodable body simply classifies as unknown.
type probe struct {
	// Flow-execution fields.
	FlowID   string       `json:"flowId"`
	FlowName string       `json:"flowName"`
	FlowType string       `json:"flowType"`
	Metrics  *flowMetrics `json:"metrics"`

	// Alert fields.
	AlertName string   `json:"alertName"`
	Name      string   `json:"name"`
	Severity  string   `json:"severity"`
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Value     *float64 `json:"value"`
	URL       string   `json:"url"`
	FlowRunID string   `json:"flowRunId"`

	// Shared fields.
	SandboxName string          `json:"sandboxName"`
	CreatedAt   json.RawMessage `json:"createdAt"`
}

type flowMetrics struct {
	StatusSummary   *statusSummary   `json:"statusSummary"`
	DurationSummary *durationSummary `json:"durationSummary"`
	SizeSummary     *sizeSummary     `json:"sizeSummary"`
	FileSummary     *fileSummary     `json:"fileSummary"`
}

type statusSummary struct {
	Status string `json:"status"`
}

type durationSummary struct {
	StartedAtUTC   int64 `json:"startedAtUTC"`
	CompletedAtUTC int64 `json:"completedAtUTC"`
}

type sizeSummary struct {
	InputBytes int64 `json:"inputBytes"`
}

type fileSummary struct {
	InputFileCount int64 `json:"inputFileCount"`
}

// classify decodes raw and determines which variant it is. Shapes are tried
// in order: flow execution first, then alert, then unknown.
func classify(raw []byte) (probe, variant) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return probe{}, variantUnknown
	}

	switch {
	case p.FlowID != "" && p.Metrics != nil:
		return p, variantFlow
	case p.AlertName != "" || p.Severity != "":
		return p, variantAlert
	default:
		return p, variantUnknown
	}
}

// createdAt resolves the event's creation time. The provider sends createdAt
// either as epoch milliseconds or as an RFC3339 string; when it is absent or
// unreadable the receipt time is used.
func (p probe) createdAt(receivedAt time.Time) time.Time {
	if len(p.CreatedAt) == 0 {
		return receivedAt
	}

	var ms int64
	if err := json.Unmarshal(p.CreatedAt, &ms); err == nil {
		return time.UnixMilli(ms)
	}

	var s string
	if err := json.Unmarshal(p.CreatedAt, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return receivedAt
}
