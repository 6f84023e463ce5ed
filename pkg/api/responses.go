package api

import "github.com/codeready-toolchain/ganaudit/pkg/audit"

// ThoughtResponse is returned by POST /api/v1/thoughts.
type ThoughtResponse struct {
	SessionID string       `json:"sessionId"`
	Review    audit.Review `json:"review"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the uniform error envelope returned for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
