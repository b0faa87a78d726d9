package clients

import (
	"context"
	"net/http"

	"colonnine/backend/services/console/internal/models"
)

// AdminClient wraps the admin-only endpoints.
type AdminClient struct {
	base *BaseClient
}

// NewAdminClient returns client.
func NewAdminClient(base *BaseClient) *AdminClient {
	return &AdminClient{base: base}
}

// CreateUser registers a user on behalf of an administrator.
func (c *AdminClient) CreateUser(ctx context.Context, reg models.Registration) error {
	return c.base.DoJSON(ctx, http.MethodPost, "/api/admin/utenti", reg, nil)
}

// Statistics fetches the usage report and monthly forecast.
func (c *AdminClient) Statistics(ctx context.Context) (*models.Statistics, error) {
	var stats models.Statistics
	if err := c.base.DoJSON(ctx, http.MethodGet, "/api/admin/statistiche", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
