package types

import "time"

// ChatRequest is the inbound body of POST /api/chat.
type ChatRequest struct {
	UserID    string `json:"userId"`
	Query     string `json:"query"`
	ProductID string `json:"productId,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the single client-facing error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HealthProbeResult is the outcome of one dependency check.
type HealthProbeResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// SystemStatus aggregates one diagnostic run. OK is true only if every probe is.
type SystemStatus struct {
	OK        bool                `json:"ok"`
	Message   string              `json:"message"`
	CheckedAt time.Time           `json:"checkedAt"`
	Probes    []HealthProbeResult `json:"probes"`
}
