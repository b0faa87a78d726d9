package syncer

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"colonnine/backend/services/console/internal/clients"
	"colonnine/backend/services/console/internal/form"
	"colonnine/backend/services/console/internal/models"
	"colonnine/backend/services/console/internal/notify"
	"colonnine/backend/services/console/internal/view"
)

type fakeBackend struct {
	mu sync.Mutex

	identity     *models.Identity
	loginErr     error
	checkAuth    *models.Identity
	stations     []models.Station
	stationsErr  error
	listStations func(ctx context.Context) ([]models.Station, error)
	vehicles     []models.Vehicle
	stats        *models.Statistics
	mutationErr  error

	calls map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) Login(context.Context, models.Credentials) (*models.Identity, error) {
	f.hit("login")
	return f.identity, f.loginErr
}

func (f *fakeBackend) Register(context.Context, models.Registration) error {
	f.hit("register")
	return f.mutationErr
}

func (f *fakeBackend) Logout(context.Context) error {
	f.hit("logout")
	return f.mutationErr
}

func (f *fakeBackend) CheckAuth(context.Context) (*models.Identity, error) {
	f.hit("check-auth")
	return f.checkAuth, nil
}

func (f *fakeBackend) ListStations(ctx context.Context) ([]models.Station, error) {
	f.hit("stations")
	if f.listStations != nil {
		return f.listStations(ctx)
	}
	return f.stations, f.stationsErr
}

func (f *fakeBackend) CreateStation(context.Context, models.NewStation) error {
	f.hit("create-station")
	return f.mutationErr
}

func (f *fakeBackend) CreateUser(context.Context, models.Registration) error {
	f.hit("create-user")
	return f.mutationErr
}

func (f *fakeBackend) Statistics(context.Context) (*models.Statistics, error) {
	f.hit("statistics")
	return f.stats, nil
}

func (f *fakeBackend) ListVehicles(context.Context) ([]models.Vehicle, error) {
	f.hit("vehicles")
	return f.vehicles, nil
}

func (f *fakeBackend) CreateReservation(context.Context, models.Reservation) error {
	f.hit("reservation")
	return f.mutationErr
}

type capturePresenter struct {
	mu    sync.Mutex
	views []view.View
}

func (p *capturePresenter) Present(v view.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
}

func newTestController(t *testing.T, backend Backend) *Controller {
	t.Helper()
	c := NewController(Deps{
		Backend:        backend,
		Presenter:      &capturePresenter{},
		Now:            func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
		NotifyLifetime: time.Hour,
	})
	t.Cleanup(c.Close)
	return c
}

func lastMessage(t *testing.T, v view.View) notify.Notification {
	t.Helper()
	if len(v.Notifications) == 0 {
		t.Fatalf("no notification rendered")
	}
	return v.Notifications[len(v.Notifications)-1]
}

func TestAdminLoginScenario(t *testing.T) {
	backend := newFakeBackend()
	backend.identity = &models.Identity{ID: 1, Name: "Ada", Role: models.RoleAdmin}
	backend.stations = []models.Station{{ID: 1, Classification: models.ClassificationHigh}}
	c := newTestController(t, backend)

	v := c.View()
	if !v.Panels.AuthForms || v.Panels.IdentityBanner || v.Panels.Admin || v.Panels.User || v.Panels.Statistics {
		t.Fatalf("initial panels %+v", v.Panels)
	}

	v, err := c.Login(context.Background(), form.Login{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !v.Panels.Admin || v.Panels.User || v.Panels.Statistics || v.Panels.AuthForms {
		t.Fatalf("admin panels %+v", v.Panels)
	}
	if v.Banner == nil || v.Banner.Role != "Tipo: admin" {
		t.Fatalf("banner %+v", v.Banner)
	}
	if len(v.Map.Markers) != 1 || backend.count("stations") != 1 {
		t.Fatalf("stations not refreshed after login")
	}
	if n := lastMessage(t, v); n.Message != MsgLoginOK || n.Kind != notify.KindSuccess {
		t.Fatalf("notification %+v", n)
	}
}

func TestLoginErrorKeepsRole(t *testing.T) {
	backend := newFakeBackend()
	backend.loginErr = &clients.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	c := newTestController(t, backend)

	v, err := c.Login(context.Background(), form.Login{Email: "a@b.it", Password: "bad"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if c.Session() != nil || !v.Panels.AuthForms {
		t.Fatalf("failed login changed the session")
	}
	if n := lastMessage(t, v); n.Message != "Invalid credentials" || n.Kind != notify.KindDanger {
		t.Fatalf("notification %+v", n)
	}
}

func TestTransportErrorUsesGenericMessage(t *testing.T) {
	backend := newFakeBackend()
	backend.mutationErr = clients.ErrUnavailable
	c := newTestController(t, backend)

	v, err := c.Register(context.Background(), form.Registration{Email: "a@b.it", Password: "x", Name: "A", Surname: "B"})
	if !errors.Is(err, clients.ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if n := lastMessage(t, v); n.Message != MsgConnection {
		t.Fatalf("notification %+v", n)
	}
}

func TestReservationValidationSkipsNetwork(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	v, err := c.CreateReservation(context.Background(), form.Reservation{
		VehicleID: 1, StationID: 2, Start: "2024-06-01T12:00", End: "2024-06-01T10:00", EnergyKWh: 10,
	})
	if !form.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.count("reservation") != 0 {
		t.Fatalf("request issued despite validation failure")
	}
	if n := lastMessage(t, v); n.Message != form.MsgEndBeforeStart {
		t.Fatalf("notification %+v", n)
	}
}

func TestFailedRefreshKeepsPreviousCache(t *testing.T) {
	backend := newFakeBackend()
	backend.stations = []models.Station{{ID: 1}, {ID: 2}}
	c := newTestController(t, backend)

	if _, err := c.RefreshStations(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	backend.stationsErr = clients.ErrUnavailable
	v, err := c.RefreshStations(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(v.List.Cards) != 2 {
		t.Fatalf("cache was cleared on failure: %+v", v.List)
	}
	if c.FetchState(FetchStations) != StatusFailed {
		t.Fatalf("fetch state = %s", c.FetchState(FetchStations))
	}
	if n := lastMessage(t, v); n.Message != MsgStationsFailed {
		t.Fatalf("notification %+v", n)
	}
}

func TestStaleResponseWins(t *testing.T) {
	type reply struct {
		stations []models.Station
	}
	started := make(chan chan reply, 2)
	backend := newFakeBackend()
	backend.listStations = func(ctx context.Context) ([]models.Station, error) {
		ch := make(chan reply)
		started <- ch
		r := <-ch
		return r.stations, nil
	}
	c := newTestController(t, backend)

	done := make(chan struct{}, 2)
	go func() { _, _ = c.RefreshStations(context.Background()); done <- struct{}{} }()
	first := <-started
	go func() { _, _ = c.RefreshStations(context.Background()); done <- struct{}{} }()
	second := <-started

	if c.FetchState(FetchStations) != StatusInFlight {
		t.Fatalf("fetch state = %s", c.FetchState(FetchStations))
	}

	second <- reply{stations: []models.Station{{ID: 20}, {ID: 21}}}
	<-done
	first <- reply{stations: []models.Station{{ID: 10}}}
	<-done

	v := c.View()
	if len(v.List.Cards) != 1 || v.List.Cards[0].StationID != 10 {
		t.Fatalf("expected the later-resolving first response to win, got %+v", v.List.Cards)
	}
	if len(v.Map.Markers) != 1 || v.Map.Markers[0].StationID != 10 {
		t.Fatalf("markers diverged from cards: %+v", v.Map.Markers)
	}
	if c.FetchState(FetchStations) != StatusSucceeded {
		t.Fatalf("fetch state = %s", c.FetchState(FetchStations))
	}
}

func TestBookingRequiresUser(t *testing.T) {
	backend := newFakeBackend()
	c := newTestController(t, backend)

	v, err := c.OpenBooking(context.Background(), 3)
	if !errors.Is(err, ErrNotAllowed) || v.Booking != nil {
		t.Fatalf("anonymous booking allowed: %v %+v", err, v.Booking)
	}
	if n := lastMessage(t, v); n.Kind != notify.KindWarning || n.Message != MsgBookingNotAllowed {
		t.Fatalf("notification %+v", n)
	}
	if backend.count("vehicles") != 0 {
		t.Fatalf("vehicles loaded for anonymous booking")
	}
}

func TestUserBookingFlow(t *testing.T) {
	backend := newFakeBackend()
	backend.identity = &models.Identity{ID: 4, Name: "Ugo", Role: models.RoleUser}
	backend.stations = []models.Station{{ID: 3, Address: "Via Po 3"}}
	backend.vehicles = []models.Vehicle{{ID: 8, Make: "Fiat", Model: "500e", Plate: "AB123CD"}}
	c := newTestController(t, backend)

	if _, err := c.Login(context.Background(), form.Login{Email: "u@b.it", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	v, err := c.OpenBooking(context.Background(), 3)
	if err != nil {
		t.Fatalf("open booking: %v", err)
	}
	if v.Booking == nil || v.Booking.StationID != 3 || len(v.Booking.Vehicles) != 1 {
		t.Fatalf("booking dialog %+v", v.Booking)
	}
	if len(v.List.Cards[0].Actions) != 1 {
		t.Fatalf("user card lacks booking action")
	}

	v, err = c.CreateReservation(context.Background(), form.Reservation{
		VehicleID: 8, StationID: 3, Start: "2024-06-01T10:00", End: "2024-06-01T11:00", EnergyKWh: 15,
	})
	if err != nil {
		t.Fatalf("reservation: %v", err)
	}
	if v.Booking != nil {
		t.Fatalf("dialog still open after success")
	}
	if n := lastMessage(t, v); n.Message != MsgReservationCreated {
		t.Fatalf("notification %+v", n)
	}
}

func TestLogoutClearsSessionData(t *testing.T) {
	backend := newFakeBackend()
	backend.identity = &models.Identity{ID: 4, Role: models.RoleUser}
	backend.vehicles = []models.Vehicle{{ID: 8}}
	c := newTestController(t, backend)

	if _, err := c.Login(context.Background(), form.Login{Email: "u@b.it", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	v, err := c.Logout(context.Background())
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.Session() != nil || !v.Panels.AuthForms || v.Vehicles != nil {
		t.Fatalf("session data survived logout: %+v", v.Panels)
	}
	if n := lastMessage(t, v); n.Kind != notify.KindInfo || n.Message != MsgLogoutOK {
		t.Fatalf("notification %+v", n)
	}
	if backend.count("stations") != 2 {
		t.Fatalf("stations refreshed %d times, want 2", backend.count("stations"))
	}
}

func TestStatisticsResetOnSessionChange(t *testing.T) {
	backend := newFakeBackend()
	backend.identity = &models.Identity{ID: 1, Role: models.RoleAdmin}
	backend.stats = &models.Statistics{Stations: []models.StationUsage{{StationID: 1, Uses: 3}, {StationID: 2, Uses: 7}, {StationID: 3, Uses: 20}}}
	c := newTestController(t, backend)

	if _, err := c.Login(context.Background(), form.Login{Email: "a@b.it", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	v, err := c.LoadStatistics(context.Background())
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if !v.Panels.Statistics || v.Statistics == nil || len(v.Statistics.Rows) != 3 {
		t.Fatalf("statistics not shown: %+v", v.Panels)
	}

	if _, err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := c.Login(context.Background(), form.Login{Email: "a@b.it", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if v := c.View(); v.Panels.Statistics || v.Statistics != nil {
		t.Fatalf("statistics survived a session change")
	}
}

func TestShowRegisterThenRegister(t *testing.T) {
	c := newTestController(t, newFakeBackend())

	if v := c.ShowRegister(); v.Panels.AuthMode != view.AuthModeRegister {
		t.Fatalf("mode = %s", v.Panels.AuthMode)
	}
	v, err := c.Register(context.Background(), form.Registration{Email: "a@b.it", Password: "x", Name: "A", Surname: "B"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if v.Panels.AuthMode != view.AuthModeLogin {
		t.Fatalf("registration should switch back to login, mode = %s", v.Panels.AuthMode)
	}
	if n := lastMessage(t, v); n.Message != MsgRegisterOK {
		t.Fatalf("notification %+v", n)
	}
}

type stubGeocoder struct {
	lat, lng float64
	err      error
}

func (g stubGeocoder) Search(context.Context, string) (float64, float64, error) {
	return g.lat, g.lng, g.err
}

func TestLocateStation(t *testing.T) {
	backend := newFakeBackend()
	backend.identity = &models.Identity{ID: 1, Role: models.RoleAdmin}

	disabled := newTestController(t, backend)
	v, err := disabled.LocateStation(context.Background(), "Via Roma 1, Milano")
	if !errors.Is(err, ErrGeocoderDisabled) || lastMessage(t, v).Message != MsgGeoUnsupported {
		t.Fatalf("disabled geocoder: %v", err)
	}

	c := NewController(Deps{Backend: backend, Geocoder: stubGeocoder{lat: 45.46421, lng: 9.189982}})
	defer c.Close()
	if _, err := c.Login(context.Background(), form.Login{Email: "a@b.it", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	v, err = c.LocateStation(context.Background(), "Piazza del Duomo, Milano")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if v.Draft == nil || v.Draft.Latitude != "45.464210" || v.Draft.Longitude != "9.189982" {
		t.Fatalf("draft = %+v", v.Draft)
	}

	failing := NewController(Deps{Backend: backend, Geocoder: stubGeocoder{err: errors.New("no match")}})
	defer failing.Close()
	v, err = failing.LocateStation(context.Background(), "nowhere")
	if err == nil || lastMessage(t, v).Message != MsgGeoFailed {
		t.Fatalf("failed lookup: %v", err)
	}
}

func TestCheckAuthRestoresUserSession(t *testing.T) {
	backend := newFakeBackend()
	backend.checkAuth = &models.Identity{ID: 2, Name: "Ugo", Role: models.RoleUser}
	backend.vehicles = []models.Vehicle{{ID: 1}}
	c := newTestController(t, backend)

	v := c.Init(context.Background())
	if !v.Panels.User || v.Vehicles == nil || len(v.Vehicles.Cards) != 1 {
		t.Fatalf("user session not restored: %+v", v.Panels)
	}
	if backend.count("stations") != 1 || backend.count("check-auth") != 1 {
		t.Fatalf("init calls: %+v", backend.calls)
	}
}

func TestRoleChangeMovesSessionVersion(t *testing.T) {
	backend := newFakeBackend()
	backend.stations = []models.Station{{ID: 7, Address: "Via Roma 1", Latitude: 45.4, Longitude: 9.1}}
	backend.identity = &models.Identity{ID: 2, Name: "Ugo", Role: models.RoleUser}
	c := newTestController(t, backend)
	ctx := context.Background()

	userView, _ := c.Login(ctx, form.Login{Email: "u@example.com", Password: "pw"})
	if len(userView.Map.Markers) != 1 || len(userView.Map.Markers[0].Popup.Actions) != 1 {
		t.Fatalf("user markers = %+v", userView.Map.Markers)
	}

	backend.identity = &models.Identity{ID: 1, Name: "Ada", Role: models.RoleAdmin}
	backend.stationsErr = clients.ErrUnavailable
	adminView, _ := c.Login(ctx, form.Login{Email: "a@example.com", Password: "pw"})

	if adminView.Version != userView.Version {
		t.Fatalf("cache version moved without a replace: %d -> %d", userView.Version, adminView.Version)
	}
	if adminView.SessionVersion == userView.SessionVersion {
		t.Fatalf("session version unchanged across role change")
	}
	if !adminView.Panels.Admin || len(adminView.Map.Markers[0].Popup.Actions) != 0 {
		t.Fatalf("admin view keeps user actions: %+v", adminView.Map.Markers[0].Popup)
	}
}
