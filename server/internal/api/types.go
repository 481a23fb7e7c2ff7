package api

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"` // RFC3339
	ConnectedClients int    `json:"connectedClients"`
}

// WebhookURLResponse is the payload for GET /api/webhook-url.
type WebhookURLResponse struct {
	WebhookURL string `json:"webhookUrl"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
