package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/flowlens/flowlens/pkg/types"
	"github.com/flowlens/flowlens/server/internal/metrics"
	"github.com/flowlens/flowlens/server/internal/normalize"
)

// Broadcaster delivers a normalized event to all connected observers.
// Implemented by ws.Hub.
type Broadcaster interface {
	Broadcast(types.LogEvent)
}

// envelope is the provider's outer POST body shape.
type envelope struct {
	EventID string          `json:"event_id"`
	Event   json.RawMessage `json:"event"`
}

// ackResponse is the body returned for an accepted event.
type ackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"eventId"`
}

// rejectResponse is the body returned for an unparseable POST.
type rejectResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handler bridges the provider's webhook to the normalizer and the hub.
//
// GET with a challenge query parameter is the provider's handshake probe:
// the token is echoed back verbatim with no other side effect. POST carries
// an event envelope; the event body is normalized and broadcast.
type Handler struct {
	hub Broadcaster
	reg *metrics.Registry
	now func() time.Time // injectable for deterministic tests
}

// New creates a webhook Handler wired to the given hub and metrics registry.
func New(hub Broadcaster, reg *metrics.Registry) *Handler {
	return &Handler{hub: hub, reg: reg, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Query().Get("challenge") != "":
		h.challenge(w, r.URL.Query().Get("challenge"))
	case r.Method == http.MethodPost:
		h.event(w, r)
	default:
		// Includes a GET without a challenge token; only the handshake
		// probe is served on GET.
		jsonResp(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

// challenge echoes the provider's verification token.
func (h *Handler) challenge(w http.ResponseWriter, token string) {
	slog.Info("ingest: challenge validation", "challenge", token)
	jsonResp(w, http.StatusOK, map[string]string{"challenge": token})
}

// event parses the POST body, normalizes it, and fans it out. A body that is
// not a JSON object with an event member is rejected with 400; the provider
// owns its own retry policy, so the rejection is final from our side.
func (h *Handler) event(w http.ResponseWriter, r *http.Request) {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.reject(w, "decode", err)
		return
	}
	if len(env.Event) == 0 || string(env.Event) == "null" {
		h.reject(w, "missing event body", nil)
		return
	}

	ev := normalize.Normalize(env.EventID, env.Event, h.now())
	h.hub.Broadcast(ev)
	h.reg.EventNormalized(ev.Kind)

	slog.Info("ingest: event processed",
		"id", ev.ID,
		"kind", ev.Kind,
		"source", ev.Source,
		"message", ev.Message,
	)

	jsonResp(w, http.StatusOK, ackResponse{
		Success: true,
		Message: "Event processed successfully",
		EventID: ev.ID,
	})
}

func (h *Handler) reject(w http.ResponseWriter, reason string, err error) {
	h.reg.PayloadRejected()
	slog.Warn("ingest: rejected payload", "reason", reason, "err", err)
	jsonResp(w, http.StatusBadRequest, rejectResponse{
		Success: false,
		Error:   "Invalid payload format",
	})
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
