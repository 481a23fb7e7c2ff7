package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowlens/flowlens/pkg/types"
)

// maxUnknownPreview bounds the textual dump embedded in fallback messages.
const maxUnknownPreview = 100

// Normalize converts a raw event body into the canonical LogEvent. It is a
// total function: any body, including invalid JSON, yields a usable event.
//
// eventID is the provider's correlation identifier; when empty a fresh UUID
// is assigned so downstream consumers never see an empty ID. receivedAt is
// used as the timestamp for payloads that carry no creation time.
func Normalize(eventID string, raw []byte, receivedAt time.Time) types.LogEvent {
	if eventID == "" {
		eventID = uuid.NewString()
	}

	p, v := classify(raw)
	switch v {
	case variantFlow:
		return mapFlow(eventID, p, receivedAt)
	case variantAlert:
		return mapAlert(eventID, p, receivedAt)
	default:
		return mapUnknown(eventID, raw, receivedAt)
	}
}

// mapFlow builds a LogEvent from a flow-execution payload. Any status other
// than "success" marks the run as an error.
func mapFlow(eventID string, p probe, receivedAt time.Time) types.LogEvent {
	status := "unknown"
	if p.Metrics.StatusSummary != nil && p.Metrics.StatusSummary.Status != "" {
		status = p.Metrics.StatusSummary.Status
	}
	failed := status != "success"

	name := p.FlowName
	if name == "" {
		name = p.FlowID
	}
	msg := fmt.Sprintf("Flow %s completed successfully", name)
	if failed {
		msg = fmt.Sprintf("Flow %s failed with status: %s", name, status)
	}

	var duration int64
	if d := p.Metrics.DurationSummary; d != nil {
		duration = d.CompletedAtUTC - d.StartedAtUTC
	}
	var inputBytes int64
	if s := p.Metrics.SizeSummary; s != nil {
		inputBytes = s.InputBytes
	}
	var inputFiles int64
	if f := p.Metrics.FileSummary; f != nil {
		inputFiles = f.InputFileCount
	}

	kind, severity := types.KindEvent, types.SeverityInfo
	if failed {
		kind, severity = types.KindError, types.SeverityError
	}

	return types.LogEvent{
		ID:        eventID,
		Timestamp: p.createdAt(receivedAt),
		Kind:      kind,
		Severity:  severity,
		Message:   msg,
		Source:    fmt.Sprintf("%s-%s", orDefault(p.FlowType, "flow"), orDefault(p.SandboxName, "unknown")),
		Metadata: map[string]any{
			"flowId":         p.FlowID,
			"flowName":       p.FlowName,
			"flowType":       p.FlowType,
			"sandboxName":    p.SandboxName,
			"duration":       duration,
			"inputBytes":     inputBytes,
			"inputFileCount": inputFiles,
			"status":         status,
		},
	}
}

// mapAlert builds a LogEvent from an alert payload. High severity or a FAILED
// status classifies the alert as an error.
func mapAlert(eventID string, p probe, receivedAt time.Time) types.LogEvent {
	isError := p.Severity == "high" || p.Status == "FAILED"

	severity := types.SeverityInfo
	switch p.Severity {
	case "high":
		severity = types.SeverityError
	case "medium":
		severity = types.SeverityWarning
	}

	msg := p.Message
	if msg == "" {
		msg = fmt.Sprintf("Alert: %s", orDefault(p.AlertName, orDefault(p.Name, "Unknown alert")))
	}

	kind := types.KindEvent
	if isError {
		kind = types.KindError
	}

	meta := map[string]any{
		"alertName":   p.AlertName,
		"status":      p.Status,
		"url":         p.URL,
		"flowId":      p.FlowID,
		"flowRunId":   p.FlowRunID,
		"sandboxName": p.SandboxName,
	}
	if p.Value != nil {
		meta["value"] = *p.Value
	}

	return types.LogEvent{
		ID:        eventID,
		Timestamp: p.createdAt(receivedAt),
		Kind:      kind,
		Severity:  severity,
		Message:   msg,
		Source:    fmt.Sprintf("alert-%s", orDefault(p.SandboxName, "unknown")),
		Metadata:  meta,
	}
}

// mapUnknown is the fallback for payloads matching neither known shape. The
// message embeds a truncated dump of the body; the body itself is carried in
// metadata untouched for presentation to inspect.
func mapUnknown(eventID string, raw []byte, receivedAt time.Time) types.LogEvent {
	preview := compactPreview(raw)

	var meta map[string]any
	// Best effort — a non-object body simply leaves metadata empty.
	json.Unmarshal(raw, &meta) //nolint:errcheck

	return types.LogEvent{
		ID:        eventID,
		Timestamp: receivedAt,
		Kind:      types.KindEvent,
		Severity:  types.SeverityInfo,
		Message:   fmt.Sprintf("Unknown event type received: %s...", preview),
		Source:    "unknown",
		Metadata:  meta,
	}
}

// compactPreview returns the first maxUnknownPreview bytes of raw with
// insignificant whitespace removed.
func compactPreview(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		raw = buf.Bytes()
	}
	if len(raw) > maxUnknownPreview {
		raw = raw[:maxUnknownPreview]
	}
	return string(raw)
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
