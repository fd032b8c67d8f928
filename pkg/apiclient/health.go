package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// HealthResponse is the envelope returned by the /health endpoints.
type HealthResponse[T any] struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      T      `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// LoaderHealth reports the streaming loader.
type LoaderHealth struct {
	Pending       int    `json:"pending"`
	Resident      int    `json:"resident"`
	ResidentBytes int    `json:"resident_bytes"`
	LastError     string `json:"last_error,omitempty"`
	LastErrorAt   string `json:"last_error_at,omitempty"`
}

// Ready reports whether the server is ready to serve library requests.
// An unready server yields an error carrying the reason.
func (c *Client) Ready(ctx context.Context) error {
	var resp HealthResponse[map[string]any]
	err := c.get(ctx, "/health/ready", &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		// The health envelope is not a problem document; the raw body
		// ends up in Detail.
		var body HealthResponse[map[string]any]
		if json.Unmarshal([]byte(apiErr.Detail), &body) == nil && body.Error != "" {
			return fmt.Errorf("server not ready: %s", body.Error)
		}
		return errors.New("server not ready")
	}
	return err
}

// Loader returns the streaming loader statistics.
func (c *Client) Loader(ctx context.Context) (*LoaderHealth, error) {
	var resp HealthResponse[LoaderHealth]
	if err := c.get(ctx, "/health/loader", &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
