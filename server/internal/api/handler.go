package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// ClientCounter reports how many observers are currently connected.
// Implemented by ws.Hub.
type ClientCounter interface {
	Count() int
}

// Handler serves the process status and webhook discovery endpoints.
type Handler struct {
	hub ClientCounter
	mux *http.ServeMux

	// publicURL returns the configured externally reachable base URL, or
	// empty. Read per request so config hot-reloads take effect; when empty
	// the discovery endpoint derives a base from the request instead.
	publicURL func() string
}

// New creates a Handler wired to the given hub and registers all routes.
// publicURL may be nil.
func New(hub ClientCounter, publicURL func() string) http.Handler {
	if publicURL == nil {
		publicURL = func() string { return "" }
	}
	h := &Handler{
		hub:       hub,
		mux:       http.NewServeMux(),
		publicURL: publicURL,
	}

	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/api/webhook-url", h.webhookURL)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /health — process liveness and connected-observer count.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:           "healthy",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: h.hub.Count(),
	})
}

// webhookURL returns GET /api/webhook-url — where the provider should send
// events. Observers display this so operators can paste it into the
// provider's subscription form.
func (h *Handler) webhookURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	base := strings.TrimSuffix(h.publicURL(), "/")
	if base == "" {
		base = requestBase(r)
	}
	jsonResp(w, http.StatusOK, WebhookURLResponse{WebhookURL: base + "/webhook"})
}

// requestBase reconstructs the externally visible scheme and host from the
// request, honoring X-Forwarded-Proto set by a reverse proxy.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
