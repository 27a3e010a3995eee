package apiclient

import (
	"context"
	"net/http"

	"langteacher/types"
)

// HealthCheck reports backend liveness and server time.
func (c *Client) HealthCheck(ctx context.Context) (*types.Health, error) {
	return call[types.Health](ctx, c, &request{method: http.MethodGet, path: "/health"})
}

// ServiceInfo returns the backend's name and version.
func (c *Client) ServiceInfo(ctx context.Context) (*types.ServiceInfo, error) {
	return call[types.ServiceInfo](ctx, c, &request{method: http.MethodGet, path: "/"})
}
