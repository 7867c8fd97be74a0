package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HealthStatus is the status value a healthy server reports.
const HealthStatus = "healthy"

// Health is the liveness payload from the server.
type Health struct {
	// Status is the canonical status field, e.g. "healthy".
	Status string

	// Raw is the full decoded payload for callers that want more than
	// the status.
	Raw map[string]any
}

// Healthy reports whether the payload declares the server healthy.
func (h *Health) Healthy() bool {
	return h != nil && h.Status == HealthStatus
}

// HealthCheck probes the liveness endpoint without authentication and
// returns the structured payload.
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: health check failed (status %d): %s", ErrProtocol, status, serverMessage(body))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode health response: %v", ErrProtocol, err)
	}

	h := &Health{Raw: raw}
	if s, ok := raw["status"].(string); ok {
		h.Status = s
	}
	return h, nil
}

// IsHealthy wraps HealthCheck for callers that only want to probe for
// availability: it never returns an error, downgrading every failure
// kind to false.
func (c *Client) IsHealthy(ctx context.Context) bool {
	h, err := c.HealthCheck(ctx)
	return err == nil && h.Healthy()
}
