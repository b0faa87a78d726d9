package syncer

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/form"
	"colonnine/backend/services/console/internal/models"
	"colonnine/backend/services/console/internal/notify"
	"colonnine/backend/services/console/internal/view"
)

// Init runs the page-load sequence: station load and auth check, concurrently.
func (c *Controller) Init(ctx context.Context) view.View {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.RefreshStations(ctx)
	}()
	go func() {
		defer wg.Done()
		_, _ = c.CheckAuth(ctx)
	}()
	wg.Wait()
	return c.View()
}

// CheckAuth restores a backend session. Failures are logged only.
func (c *Controller) CheckAuth(ctx context.Context) (view.View, error) {
	c.beginFetch(FetchAuth)
	identity, err := c.backend.CheckAuth(ctx)

	c.mu.Lock()
	c.endFetchLocked(FetchAuth, err)
	if err != nil {
		c.logger.Warn("auth check failed", zap.Error(err))
		v := c.renderLocked()
		c.mu.Unlock()
		return v, err
	}
	if identity != nil {
		c.setSessionLocked(identity)
	}
	v := c.renderLocked()
	c.mu.Unlock()

	if identity != nil && identity.Role == models.RoleUser {
		return c.RefreshVehicles(ctx)
	}
	return v, nil
}

// RefreshStations replaces the station collection. On failure the previous collection stays.
func (c *Controller) RefreshStations(ctx context.Context) (view.View, error) {
	c.beginFetch(FetchStations)
	stations, err := c.backend.ListStations(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endFetchLocked(FetchStations, err)
	if err != nil {
		c.logger.Error("load stations failed", zap.Error(err))
		c.notifyLocked(notify.KindDanger, MsgStationsFailed)
		return c.renderLocked(), err
	}
	c.cache.ReplaceStations(stations)
	return c.renderLocked(), nil
}

// RefreshVehicles replaces the vehicle collection of the signed in user.
func (c *Controller) RefreshVehicles(ctx context.Context) (view.View, error) {
	c.beginFetch(FetchVehicles)
	vehicles, err := c.backend.ListVehicles(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endFetchLocked(FetchVehicles, err)
	if err != nil {
		c.logger.Error("load vehicles failed", zap.Error(err))
		c.notifyLocked(notify.KindDanger, MsgVehiclesFailed)
		return c.renderLocked(), err
	}
	c.cache.ReplaceVehicles(vehicles)
	return c.renderLocked(), nil
}

// Login validates credentials, opens a session and reloads stations.
func (c *Controller) Login(ctx context.Context, f form.Login) (view.View, error) {
	if err := f.Validate(); err != nil {
		return c.reject(err)
	}
	identity, err := c.backend.Login(ctx, f.Payload())
	if err != nil {
		c.logger.Info("login rejected", zap.String("email", f.Email), zap.Error(err))
		return c.reject(err)
	}

	c.mu.Lock()
	c.setSessionLocked(identity)
	c.authMode = view.AuthModeLogin
	c.notifyLocked(notify.KindSuccess, MsgLoginOK)
	c.renderLocked()
	c.mu.Unlock()

	v, _ := c.RefreshStations(ctx)
	if identity.Role == models.RoleUser {
		v, _ = c.RefreshVehicles(ctx)
	}
	return v, nil
}

// Register creates an account and switches the auth forms back to login.
func (c *Controller) Register(ctx context.Context, f form.Registration) (view.View, error) {
	if err := f.Validate(); err != nil {
		return c.reject(err)
	}
	if err := c.backend.Register(ctx, f.Payload()); err != nil {
		return c.reject(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.authMode = view.AuthModeLogin
	c.notifyLocked(notify.KindSuccess, MsgRegisterOK)
	return c.renderLocked(), nil
}

// Logout closes the backend session, clears session data and reloads stations.
func (c *Controller) Logout(ctx context.Context) (view.View, error) {
	if err := c.backend.Logout(ctx); err != nil {
		c.logger.Error("logout failed", zap.Error(err))
		c.mu.Lock()
		defer c.mu.Unlock()
		c.notifyLocked(notify.KindDanger, MsgLogoutFailed)
		return c.renderLocked(), err
	}

	c.mu.Lock()
	c.setSessionLocked(nil)
	c.cache.ReplaceVehicles(nil)
	c.authMode = view.AuthModeLogin
	c.notifyLocked(notify.KindInfo, MsgLogoutOK)
	c.renderLocked()
	c.mu.Unlock()

	v, _ := c.RefreshStations(ctx)
	return v, nil
}

// AddStation creates a station and reloads the collection.
func (c *Controller) AddStation(ctx context.Context, f form.Station) (view.View, error) {
	if err := f.Validate(); err != nil {
		return c.reject(err)
	}
	if err := c.backend.CreateStation(ctx, f.Payload()); err != nil {
		return c.reject(err)
	}

	c.mu.Lock()
	c.draft = nil
	c.notifyLocked(notify.KindSuccess, MsgStationAdded)
	c.renderLocked()
	c.mu.Unlock()

	v, _ := c.RefreshStations(ctx)
	return v, nil
}

// AddUser creates a user account on behalf of an administrator.
func (c *Controller) AddUser(ctx context.Context, f form.Registration) (view.View, error) {
	if err := f.Validate(); err != nil {
		return c.reject(err)
	}
	if err := c.backend.CreateUser(ctx, f.Payload()); err != nil {
		return c.reject(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyLocked(notify.KindSuccess, MsgUserAdded)
	return c.renderLocked(), nil
}

// OpenBooking opens the reservation dialog for stationID. Only users may book.
func (c *Controller) OpenBooking(ctx context.Context, stationID int64) (view.View, error) {
	c.mu.Lock()
	if c.session.Role() != models.RoleUser {
		c.notifyLocked(notify.KindWarning, MsgBookingNotAllowed)
		v := c.renderLocked()
		c.mu.Unlock()
		return v, ErrNotAllowed
	}
	c.bookingFor = stationID
	c.renderLocked()
	c.mu.Unlock()

	return c.RefreshVehicles(ctx)
}

// CloseBooking dismisses the reservation dialog.
func (c *Controller) CloseBooking() view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bookingFor = 0
	return c.renderLocked()
}

// CreateReservation submits the booking dialog.
func (c *Controller) CreateReservation(ctx context.Context, f form.Reservation) (view.View, error) {
	if err := f.Validate(); err != nil {
		return c.reject(err)
	}
	if err := c.backend.CreateReservation(ctx, f.Payload()); err != nil {
		return c.reject(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bookingFor = 0
	c.notifyLocked(notify.KindSuccess, MsgReservationCreated)
	return c.renderLocked(), nil
}

// LoadStatistics fetches the admin report and opens the statistics section.
func (c *Controller) LoadStatistics(ctx context.Context) (view.View, error) {
	c.beginFetch(FetchStatistics)
	stats, err := c.backend.Statistics(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endFetchLocked(FetchStatistics, err)
	if err != nil {
		c.logger.Error("load statistics failed", zap.Error(err))
		c.notifyLocked(notify.KindDanger, MsgStatisticsFailed)
		return c.renderLocked(), err
	}
	c.statistics = stats
	return c.renderLocked(), nil
}

// ShowLogin switches the auth forms to login.
func (c *Controller) ShowLogin() view.View {
	return c.setAuthMode(view.AuthModeLogin)
}

// ShowRegister switches the auth forms to registration.
func (c *Controller) ShowRegister() view.View {
	return c.setAuthMode(view.AuthModeRegister)
}

func (c *Controller) setAuthMode(mode view.AuthMode) view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authMode = mode
	return c.renderLocked()
}

// LocateStation geocodes address and pre-fills the add-station form with the coordinates.
func (c *Controller) LocateStation(ctx context.Context, address string) (view.View, error) {
	address = strings.TrimSpace(address)
	if c.geocoder == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.notifyLocked(notify.KindWarning, MsgGeoUnsupported)
		return c.renderLocked(), ErrGeocoderDisabled
	}
	if address == "" {
		return c.reject(&form.ValidationError{Message: form.MsgRequiredFields})
	}

	lat, lng, err := c.geocoder.Search(ctx, address)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("geocoding failed", zap.String("address", address), zap.Error(err))
		c.notifyLocked(notify.KindWarning, MsgGeoFailed)
		return c.renderLocked(), err
	}
	c.draft = &view.StationDraft{
		Address:   address,
		Latitude:  formatCoordinate(lat),
		Longitude: formatCoordinate(lng),
	}
	return c.renderLocked(), nil
}
