package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ErrLocationNotFound is returned when the geocoder has no match for an address.
var ErrLocationNotFound = errors.New("location not found")

// GeocoderClient talks to a LocationIQ compatible /v1/search endpoint.
type GeocoderClient struct {
	base   *BaseClient
	apiKey string
}

// NewGeocoderClient returns client.
func NewGeocoderClient(baseURL, apiKey string, httpClient HTTPDoer, recorder Recorder) *GeocoderClient {
	return &GeocoderClient{
		base:   NewBaseClient(baseURL, httpClient, recorder),
		apiKey: apiKey,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Search returns latitude and longitude of the best match for address.
func (c *GeocoderClient) Search(ctx context.Context, address string) (float64, float64, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	status, body, err := c.base.Do(ctx, http.MethodGet, "/v1/search?"+q.Encode(), nil, nil)
	if err != nil {
		return 0, 0, err
	}
	if status == http.StatusNotFound {
		return 0, 0, ErrLocationNotFound
	}
	if status != http.StatusOK {
		return 0, 0, newAPIError(status, body)
	}

	var results []searchResult
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("geocoder: decode response: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, ErrLocationNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder: parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoder: parse longitude: %w", err)
	}
	return lat, lng, nil
}
