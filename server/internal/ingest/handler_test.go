package ingest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flowlens/flowlens/pkg/types"
	"github.com/flowlens/flowlens/server/internal/ingest"
	"github.com/flowlens/flowlens/server/internal/metrics"
)

// captureHub records broadcast events for assertions.
type captureHub struct {
	events []types.LogEvent
}

func (c *captureHub) Broadcast(ev types.LogEvent) { c.events = append(c.events, ev) }

func newHandler() (*ingest.Handler, *captureHub) {
	hub := &captureHub{}
	return ingest.New(hub, metrics.New(nil)), hub
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
	return m
}

// --- handshake --------------------------------------------------------------

func TestChallenge_EchoedVerbatim(t *testing.T) {
	h, hub := newHandler()
	rr := do(t, h, http.MethodGet, "/webhook?challenge=abc123", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "abc123") {
		t.Errorf("body %q does not contain the challenge token", rr.Body.String())
	}
	if len(hub.events) != 0 {
		t.Errorf("handshake must have no side effects; broadcast %d events", len(hub.events))
	}
}

func TestChallenge_Missing_MethodNotAllowed(t *testing.T) {
	h, hub := newHandler()
	rr := do(t, h, http.MethodGet, "/webhook", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
	if len(hub.events) != 0 {
		t.Errorf("challenge-less GET must have no side effects; broadcast %d events", len(hub.events))
	}
}

// --- event submission -------------------------------------------------------

func TestPost_FlowEvent_NormalizedAndBroadcast(t *testing.T) {
	h, hub := newHandler()
	rr := do(t, h, http.MethodPost, "/webhook", `{
		"event_id": "e1",
		"event": {
			"flowId": "f1", "flowName": "ingest", "flowType": "batch", "sandboxName": "prod",
			"metrics": {
				"statusSummary": {"status": "success"},
				"durationSummary": {"startedAtUTC": 1000, "completedAtUTC": 5000}
			}
		}
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	resp := decode(t, rr)
	if resp["success"] != true {
		t.Errorf("success: got %v, want true", resp["success"])
	}
	if resp["eventId"] != "e1" {
		t.Errorf("eventId: got %v, want e1", resp["eventId"])
	}

	if len(hub.events) != 1 {
		t.Fatalf("broadcast events: got %d, want 1", len(hub.events))
	}
	ev := hub.events[0]
	if ev.Kind != types.KindEvent {
		t.Errorf("Kind: got %q, want event", ev.Kind)
	}
	if ev.Message != "Flow ingest completed successfully" {
		t.Errorf("Message: got %q", ev.Message)
	}
	if ev.Metadata["duration"] != int64(4000) {
		t.Errorf("duration: got %v, want 4000", ev.Metadata["duration"])
	}
}

func TestPost_AlertEvent_NormalizedAndBroadcast(t *testing.T) {
	h, hub := newHandler()
	rr := do(t, h, http.MethodPost, "/webhook",
		`{"event_id": "e2", "event": {"alertName": "disk_full", "severity": "high", "sandboxName": "prod"}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if len(hub.events) != 1 {
		t.Fatalf("broadcast events: got %d, want 1", len(hub.events))
	}
	ev := hub.events[0]
	if ev.Kind != types.KindError || ev.Severity != types.SeverityError {
		t.Errorf("kind/severity: got %q/%q, want error/error", ev.Kind, ev.Severity)
	}
	if ev.Source != "alert-prod" {
		t.Errorf("Source: got %q, want alert-prod", ev.Source)
	}
}

func TestPost_UnknownShape_StillAccepted(t *testing.T) {
	h, hub := newHandler()
	rr := do(t, h, http.MethodPost, "/webhook",
		`{"event_id": "e3", "event": {"surprise": true}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if len(hub.events) != 1 {
		t.Fatalf("broadcast events: got %d, want 1", len(hub.events))
	}
	if hub.events[0].Source != "unknown" {
		t.Errorf("Source: got %q, want unknown", hub.events[0].Source)
	}
}

func TestPost_InvalidJSON_BadRequest(t *testing.T) {
	h, hub := newHandler()
	rr := do(t, h, http.MethodPost, "/webhook", `{not json`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	resp := decode(t, rr)
	if resp["success"] != false {
		t.Errorf("success: got %v, want false", resp["success"])
	}
	if resp["error"] != "Invalid payload format" {
		t.Errorf("error: got %v", resp["error"])
	}
	if len(hub.events) != 0 {
		t.Errorf("rejected payload must not broadcast; got %d events", len(hub.events))
	}
}

func TestPost_MissingEventBody_BadRequest(t *testing.T) {
	for _, body := range []string{`{"event_id": "e1"}`, `{"event_id": "e1", "event": null}`} {
		h, _ := newHandler()
		rr := do(t, h, http.MethodPost, "/webhook", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status: got %d, want 400", body, rr.Code)
		}
	}
}

func TestPost_MissingEventID_AssignedNotEmpty(t *testing.T) {
	h, hub := newHandler()
	rr := do(t, h, http.MethodPost, "/webhook",
		`{"event": {"alertName": "a", "severity": "low"}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decode(t, rr)
	if resp["eventId"] == "" || resp["eventId"] == nil {
		t.Error("eventId: empty, want assigned identifier")
	}
	if hub.events[0].ID == "" {
		t.Error("broadcast event ID: empty")
	}
}

// --- other methods ----------------------------------------------------------

func TestOtherMethods_NotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		h, _ := newHandler()
		rr := do(t, h, method, "/webhook", "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: status: got %d, want 405", method, rr.Code)
		}
	}
}
