package clients

import (
	"context"
	"net/http"

	"colonnine/backend/services/console/internal/models"
)

// ReservationsClient covers the user side: vehicles and bookings.
type ReservationsClient struct {
	base *BaseClient
}

// NewReservationsClient returns client.
func NewReservationsClient(base *BaseClient) *ReservationsClient {
	return &ReservationsClient{base: base}
}

// ListVehicles fetches the vehicles of the logged in user.
func (c *ReservationsClient) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := c.base.DoJSON(ctx, http.MethodGet, "/api/veicoli", nil, &vehicles); err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// CreateReservation books a station slot.
func (c *ReservationsClient) CreateReservation(ctx context.Context, reservation models.Reservation) error {
	return c.base.DoJSON(ctx, http.MethodPost, "/api/prenotazioni", reservation, nil)
}
