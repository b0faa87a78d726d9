package clients

import (
	"context"
	"net/http"

	"colonnine/backend/services/console/internal/models"
)

// StationsClient reads and creates charging stations.
type StationsClient struct {
	base *BaseClient
}

// NewStationsClient returns client.
func NewStationsClient(base *BaseClient) *StationsClient {
	return &StationsClient{base: base}
}

// ListStations fetches the full station collection.
func (c *StationsClient) ListStations(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	if err := c.base.DoJSON(ctx, http.MethodGet, "/api/colonnine", nil, &stations); err != nil {
		return nil, err
	}
	if stations == nil {
		stations = []models.Station{}
	}
	return stations, nil
}

// CreateStation adds a station (admin only, enforced by the backend).
func (c *StationsClient) CreateStation(ctx context.Context, station models.NewStation) error {
	return c.base.DoJSON(ctx, http.MethodPost, "/api/colonnine", station, nil)
}
