package clients

// BackendClient bundles every endpoint group behind one session-bearing HTTP client.
type BackendClient struct {
	*AuthClient
	*StationsClient
	*ReservationsClient
	*AdminClient
}

// NewBackendClient builds the endpoint groups on a shared base client.
func NewBackendClient(baseURL string, httpClient HTTPDoer, recorder Recorder) *BackendClient {
	base := NewBaseClient(baseURL, httpClient, recorder)
	return &BackendClient{
		AuthClient:         NewAuthClient(base),
		StationsClient:     NewStationsClient(base),
		ReservationsClient: NewReservationsClient(base),
		AdminClient:        NewAdminClient(base),
	}
}
