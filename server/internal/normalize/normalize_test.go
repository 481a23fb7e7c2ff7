package normalize_test

import (
	"strings"
	"testing"
	"time"

	"github.com/flowlens/flowlens/pkg/types"
	"github.com/flowlens/flowlens/server/internal/normalize"
)

var receivedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func norm(t *testing.T, id, body string) types.LogEvent {
	t.Helper()
	return normalize.Normalize(id, []byte(body), receivedAt)
}

// --- flow-execution payloads ------------------------------------------------

func TestNormalize_FlowSuccess(t *testing.T) {
	ev := norm(t, "e1", `{
		"flowId": "f1", "flowName": "ingest", "flowType": "batch", "sandboxName": "prod",
		"metrics": {
			"statusSummary": {"status": "success"},
			"durationSummary": {"startedAtUTC": 1000, "completedAtUTC": 5000}
		}
	}`)

	if ev.Kind != types.KindEvent {
		t.Errorf("Kind: got %q, want event", ev.Kind)
	}
	if ev.Severity != types.SeverityInfo {
		t.Errorf("Severity: got %q, want info", ev.Severity)
	}
	if ev.Message != "Flow ingest completed successfully" {
		t.Errorf("Message: got %q", ev.Message)
	}
	if ev.Source != "batch-prod" {
		t.Errorf("Source: got %q, want batch-prod", ev.Source)
	}
	if d := ev.Metadata["duration"]; d != int64(4000) {
		t.Errorf("metadata duration: got %v, want 4000", d)
	}
	if ev.Metadata["status"] != "success" {
		t.Errorf("metadata status: got %v, want success", ev.Metadata["status"])
	}
}

func TestNormalize_FlowFailure_MessageContainsStatus(t *testing.T) {
	for _, status := range []string{"failed", "timeout", "partialSuccess"} {
		ev := norm(t, "e1", `{
			"flowId": "f1", "sandboxName": "dev",
			"metrics": {"statusSummary": {"status": "`+status+`"}}
		}`)

		if ev.Kind != types.KindError {
			t.Errorf("%s: Kind: got %q, want error", status, ev.Kind)
		}
		if ev.Severity != types.SeverityError {
			t.Errorf("%s: Severity: got %q, want error", status, ev.Severity)
		}
		if !strings.Contains(ev.Message, status) {
			t.Errorf("%s: Message %q does not contain status", status, ev.Message)
		}
	}
}

func TestNormalize_FlowMissingName_UsesID(t *testing.T) {
	ev := norm(t, "e1", `{"flowId": "f-42", "metrics": {"statusSummary": {"status": "success"}}}`)
	if ev.Message != "Flow f-42 completed successfully" {
		t.Errorf("Message: got %q", ev.Message)
	}
	// flowType and sandboxName both absent — source falls back per-part.
	if ev.Source != "flow-unknown" {
		t.Errorf("Source: got %q, want flow-unknown", ev.Source)
	}
}

func TestNormalize_FlowMissingStatusSummary_IsError(t *testing.T) {
	// No status summary means status "unknown", which is not "success".
	ev := norm(t, "e1", `{"flowId": "f1", "metrics": {}}`)
	if ev.Kind != types.KindError {
		t.Errorf("Kind: got %q, want error", ev.Kind)
	}
	if !strings.Contains(ev.Message, "unknown") {
		t.Errorf("Message %q should carry the unknown status", ev.Message)
	}
	if d := ev.Metadata["duration"]; d != int64(0) {
		t.Errorf("duration: got %v, want 0", d)
	}
}

func TestNormalize_FlowCreatedAtMillis(t *testing.T) {
	ev := norm(t, "e1", `{"flowId": "f1", "createdAt": 1717243200000,
		"metrics": {"statusSummary": {"status": "success"}}}`)
	want := time.UnixMilli(1717243200000)
	if !ev.Timestamp.Equal(want) {
		t.Errorf("Timestamp: got %v, want %v", ev.Timestamp, want)
	}
}

func TestNormalize_FlowCreatedAtRFC3339(t *testing.T) {
	ev := norm(t, "e1", `{"flowId": "f1", "createdAt": "2024-05-01T08:30:00Z",
		"metrics": {"statusSummary": {"status": "success"}}}`)
	want := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	if !ev.Timestamp.Equal(want) {
		t.Errorf("Timestamp: got %v, want %v", ev.Timestamp, want)
	}
}

// --- alert payloads ---------------------------------------------------------

func TestNormalize_AlertHighSeverity(t *testing.T) {
	ev := norm(t, "e2", `{"alertName": "disk_full", "severity": "high", "sandboxName": "prod"}`)

	if ev.Kind != types.KindError {
		t.Errorf("Kind: got %q, want error", ev.Kind)
	}
	if ev.Severity != types.SeverityError {
		t.Errorf("Severity: got %q, want error", ev.Severity)
	}
	if ev.Source != "alert-prod" {
		t.Errorf("Source: got %q, want alert-prod", ev.Source)
	}
	if ev.Message != "Alert: disk_full" {
		t.Errorf("Message: got %q", ev.Message)
	}
}

func TestNormalize_AlertSeverityMapping(t *testing.T) {
	cases := []struct {
		severity string
		want     string
	}{
		{"high", types.SeverityError},
		{"medium", types.SeverityWarning},
		{"low", types.SeverityInfo},
		{"whatever", types.SeverityInfo},
	}
	for _, c := range cases {
		ev := norm(t, "e2", `{"alertName": "a", "severity": "`+c.severity+`"}`)
		if ev.Severity != c.want {
			t.Errorf("severity %q: got %q, want %q", c.severity, ev.Severity, c.want)
		}
	}
}

func TestNormalize_AlertFailedStatus_IsError(t *testing.T) {
	ev := norm(t, "e2", `{"alertName": "sync_lag", "severity": "low", "status": "FAILED"}`)
	if ev.Kind != types.KindError {
		t.Errorf("Kind: got %q, want error", ev.Kind)
	}
	// Severity mapping is independent of the FAILED status.
	if ev.Severity != types.SeverityInfo {
		t.Errorf("Severity: got %q, want info", ev.Severity)
	}
}

func TestNormalize_AlertExplicitMessage_Preserved(t *testing.T) {
	ev := norm(t, "e2", `{"alertName": "a", "severity": "medium", "message": "queue depth over threshold"}`)
	if ev.Message != "queue depth over threshold" {
		t.Errorf("Message: got %q", ev.Message)
	}
}

func TestNormalize_AlertMetadata(t *testing.T) {
	ev := norm(t, "e2", `{"alertName": "lag", "severity": "medium", "value": 93.5,
		"url": "https://platform.example/run/9", "flowId": "f9", "flowRunId": "r9", "sandboxName": "stage"}`)

	if v := ev.Metadata["value"]; v != 93.5 {
		t.Errorf("metadata value: got %v, want 93.5", v)
	}
	if ev.Metadata["flowRunId"] != "r9" {
		t.Errorf("metadata flowRunId: got %v", ev.Metadata["flowRunId"])
	}
	if ev.Metadata["url"] != "https://platform.example/run/9" {
		t.Errorf("metadata url: got %v", ev.Metadata["url"])
	}
}

// --- fallback ---------------------------------------------------------------

func TestNormalize_UnknownShape_NeverFails(t *testing.T) {
	bodies := []string{
		`{"somethingElse": true}`,
		`{}`,
		`[1, 2, 3]`,
		`"just a string"`,
		`not json at all`,
		``,
	}
	for _, body := range bodies {
		ev := norm(t, "e3", body)
		if ev.Kind != types.KindEvent {
			t.Errorf("%q: Kind: got %q, want event", body, ev.Kind)
		}
		if ev.Severity != types.SeverityInfo {
			t.Errorf("%q: Severity: got %q, want info", body, ev.Severity)
		}
		if ev.Source != "unknown" {
			t.Errorf("%q: Source: got %q, want unknown", body, ev.Source)
		}
		if !ev.Timestamp.Equal(receivedAt) {
			t.Errorf("%q: Timestamp: got %v, want receipt time", body, ev.Timestamp)
		}
	}
}

func TestNormalize_UnknownShape_TruncatesPreview(t *testing.T) {
	long := `{"k": "` + strings.Repeat("x", 500) + `"}`
	ev := norm(t, "e3", long)

	const prefix = "Unknown event type received: "
	if !strings.HasPrefix(ev.Message, prefix) {
		t.Fatalf("Message: got %q", ev.Message)
	}
	if !strings.HasSuffix(ev.Message, "...") {
		t.Errorf("Message should end with ellipsis: %q", ev.Message)
	}
	preview := strings.TrimSuffix(strings.TrimPrefix(ev.Message, prefix), "...")
	if len(preview) != 100 {
		t.Errorf("preview length: got %d, want 100", len(preview))
	}
}

func TestNormalize_UnknownShape_MetadataCarriesBody(t *testing.T) {
	ev := norm(t, "e3", `{"custom": "field", "n": 7}`)
	if ev.Metadata["custom"] != "field" {
		t.Errorf("metadata custom: got %v", ev.Metadata["custom"])
	}
}

func TestNormalize_EmptyEventID_Assigned(t *testing.T) {
	ev := norm(t, "", `{"alertName": "a", "severity": "low"}`)
	if ev.ID == "" {
		t.Error("ID: empty, want generated identifier")
	}
}

func TestNormalize_ProviderID_Preserved(t *testing.T) {
	ev := norm(t, "evt-123", `{"alertName": "a", "severity": "low"}`)
	if ev.ID != "evt-123" {
		t.Errorf("ID: got %q, want evt-123", ev.ID)
	}
}
