package syncer

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/clients"
	"colonnine/backend/services/console/internal/form"
	"colonnine/backend/services/console/internal/models"
	"colonnine/backend/services/console/internal/notify"
	"colonnine/backend/services/console/internal/state"
	"colonnine/backend/services/console/internal/view"
)

// User facing messages.
const (
	MsgLoginOK            = "Login effettuato con successo!"
	MsgRegisterOK         = "Registrazione completata! Ora puoi effettuare il login."
	MsgLogoutOK           = "Logout effettuato"
	MsgLogoutFailed       = "Errore durante il logout"
	MsgConnection         = "Errore di connessione"
	MsgStationsFailed     = "Errore nel caricamento delle colonnine"
	MsgVehiclesFailed     = "Errore nel caricamento dei veicoli"
	MsgStatisticsFailed   = "Errore nel caricamento delle statistiche"
	MsgStationAdded       = "Colonnina aggiunta con successo!"
	MsgUserAdded          = "Utente aggiunto con successo!"
	MsgBookingNotAllowed  = "Devi essere un utente registrato per prenotare"
	MsgReservationCreated = "Prenotazione creata con successo!"
	MsgGeoUnsupported     = "Geolocalizzazione non supportata"
	MsgGeoFailed          = "Impossibile ottenere la posizione corrente"
)

// ErrNotAllowed is returned when the current role cannot perform an action.
var ErrNotAllowed = errors.New("syncer: action not allowed for current role")

// ErrGeocoderDisabled is returned by LocateStation when no geocoder is configured.
var ErrGeocoderDisabled = errors.New("syncer: geocoder not configured")

// Backend is the REST collaborator.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.Identity, error)
	Register(ctx context.Context, reg models.Registration) error
	Logout(ctx context.Context) error
	CheckAuth(ctx context.Context) (*models.Identity, error)
	ListStations(ctx context.Context) ([]models.Station, error)
	CreateStation(ctx context.Context, station models.NewStation) error
	CreateUser(ctx context.Context, reg models.Registration) error
	Statistics(ctx context.Context) (*models.Statistics, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	CreateReservation(ctx context.Context, reservation models.Reservation) error
}

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Search(ctx context.Context, address string) (lat, lng float64, err error)
}

// Presenter receives every rendered view. Present is called with the controller lock held and
// must not block.
type Presenter interface {
	Present(v view.View)
}

// Observer collects controller metrics.
type Observer interface {
	ObserveFetch(kind, status string)
	ObserveNotification(kind string)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, string)  {}
func (nopObserver) ObserveNotification(string) {}

// Deps configures a Controller. Backend is required.
type Deps struct {
	Backend        Backend
	Geocoder       Geocoder
	Presenter      Presenter
	Observer       Observer
	Logger         *zap.Logger
	Now            func() time.Time
	NotifyLifetime time.Duration
}

// Controller sequences fetch, cache replace and re-render for one workspace. Its mutex plays
// the role of the UI thread: state is only touched while it is held and backend calls never
// run under it.
type Controller struct {
	mu sync.Mutex

	backend   Backend
	geocoder  Geocoder
	presenter Presenter
	observer  Observer
	logger    *zap.Logger
	now       func() time.Time

	session *state.SessionState
	cache   *state.Cache
	notes   *notify.Center
	fetches map[FetchKind]*fetchState

	authMode   view.AuthMode
	statistics *models.Statistics
	bookingFor int64
	draft      *view.StationDraft
}

// NewController builds a controller with empty state.
func NewController(deps Deps) *Controller {
	c := &Controller{
		backend:   deps.Backend,
		geocoder:  deps.Geocoder,
		presenter: deps.Presenter,
		observer:  deps.Observer,
		logger:    deps.Logger,
		now:       deps.Now,
		session:   &state.SessionState{},
		cache:     &state.Cache{},
		fetches:   make(map[FetchKind]*fetchState),
		authMode:  view.AuthModeLogin,
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.notes = notify.NewCenter(notify.Options{
		Lifetime: deps.NotifyLifetime,
		Now:      c.now,
		OnExpire: c.rerender,
	})
	return c
}

// Close stops pending notification timers.
func (c *Controller) Close() {
	c.notes.Stop()
}

// Session returns the current identity or nil.
func (c *Controller) Session() *models.Identity {
	return c.session.Get()
}

// View renders the current state without side effects on the presenter.
func (c *Controller) View() view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildLocked()
}

func (c *Controller) rerender() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderLocked()
}

func (c *Controller) buildLocked() view.View {
	return view.Render(view.Input{
		Session:        c.session.Get(),
		SessionVersion: c.session.Version(),
		Snapshot:       c.cache.Snapshot(),
		AuthMode:       c.authMode,
		Statistics:     c.statistics,
		BookingFor:     c.bookingFor,
		Draft:          c.draft,
		Notifications:  c.notes.Active(),
		Fetches:        c.fetchesLocked(),
		Now:            c.now(),
	})
}

func (c *Controller) renderLocked() view.View {
	v := c.buildLocked()
	if c.presenter != nil {
		c.presenter.Present(v)
	}
	return v
}

func (c *Controller) notifyLocked(kind notify.Kind, message string) {
	c.notes.Push(kind, message)
	c.observer.ObserveNotification(string(kind))
}

// setSessionLocked is the only writer of the session. Any change drops per-session extras.
func (c *Controller) setSessionLocked(identity *models.Identity) {
	c.session.Set(identity)
	c.statistics = nil
	c.bookingFor = 0
	c.draft = nil
}

// reject surfaces err as a danger notification and renders.
func (c *Controller) reject(err error) (view.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyLocked(notify.KindDanger, messageFor(err))
	return c.renderLocked(), err
}

// messageFor picks the text for a failed mutation: validation and backend messages verbatim,
// transport failures as the generic connectivity message.
func messageFor(err error) string {
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgConnection
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
