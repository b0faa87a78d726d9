package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/form"
	"colonnine/backend/services/console/internal/http/middleware"
	"colonnine/backend/services/console/internal/syncer"
	"colonnine/backend/services/console/internal/view"
	"colonnine/backend/services/console/internal/workspace"
)

const maxActionBody = 64 << 10

type actionFunc func(ctx context.Context, c *syncer.Controller, body []byte) (view.View, error)

type action struct {
	run actionFunc
	// persist saves the workspace's backend cookies after the action.
	persist bool
}

// ActionHandlers dispatches POST /actions/{kind} to the workspace controller and answers
// with the resulting view frame.
type ActionHandlers struct {
	page     *view.Page
	registry *workspace.Registry
	logger   *zap.Logger
	actions  map[string]action
}

// NewActionHandlers returns handler.
func NewActionHandlers(page *view.Page, registry *workspace.Registry, logger *zap.Logger) *ActionHandlers {
	return &ActionHandlers{
		page:     page,
		registry: registry,
		logger:   logger,
		actions: map[string]action{
			"login":         {run: withForm((*syncer.Controller).Login), persist: true},
			"register":      {run: withForm((*syncer.Controller).Register), persist: true},
			"logout":        {run: noForm((*syncer.Controller).Logout), persist: true},
			"refresh":       {run: noForm((*syncer.Controller).RefreshStations)},
			"stations":      {run: withForm((*syncer.Controller).AddStation)},
			"users":         {run: withForm((*syncer.Controller).AddUser)},
			"reservations":  {run: withForm((*syncer.Controller).CreateReservation)},
			"statistics":    {run: noForm((*syncer.Controller).LoadStatistics)},
			view.ActionBook: {run: openBooking},
			"close-booking": {run: local((*syncer.Controller).CloseBooking)},
			"show-login":    {run: local((*syncer.Controller).ShowLogin)},
			"show-register": {run: local((*syncer.Controller).ShowRegister)},
			"locate":        {run: locate},
		},
	}
}

// Handle serves POST /actions/<kind>.
func (h *ActionHandlers) Handle(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimPrefix(r.URL.Path, "/actions/")
	act, ok := h.actions[kind]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	middleware.SetRoute(r.Context(), "/actions/"+kind)
	space, ok := workspace.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "workspace missing")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	v, runErr := act.run(r.Context(), space.Controller, body)
	if errors.Is(runErr, errBadRequest) {
		writeError(w, http.StatusBadRequest, runErr.Error())
		return
	}
	if runErr != nil {
		h.logger.Debug("action rejected",
			zap.String("action", kind),
			zap.String("workspace_id", space.ID),
			zap.Error(runErr),
		)
	}

	if act.persist {
		if err := h.registry.Persist(r.Context(), space); err != nil {
			h.logger.Warn("persist backend cookies failed", zap.String("workspace_id", space.ID), zap.Error(err))
		}
	}

	frame, err := h.page.Frame(v)
	if err != nil {
		h.logger.Error("render view failed", zap.String("workspace_id", space.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	writeJSON(w, statusFor(runErr), frame)
}

var errBadRequest = errors.New("invalid request body")

func decode(body []byte, dst interface{}) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func withForm[F any](fn func(*syncer.Controller, context.Context, F) (view.View, error)) actionFunc {
	return func(ctx context.Context, c *syncer.Controller, body []byte) (view.View, error) {
		var f F
		if err := decode(body, &f); err != nil {
			return view.View{}, err
		}
		return fn(c, ctx, f)
	}
}

func noForm(fn func(*syncer.Controller, context.Context) (view.View, error)) actionFunc {
	return func(ctx context.Context, c *syncer.Controller, _ []byte) (view.View, error) {
		return fn(c, ctx)
	}
}

func local(fn func(*syncer.Controller) view.View) actionFunc {
	return func(_ context.Context, c *syncer.Controller, _ []byte) (view.View, error) {
		return fn(c), nil
	}
}

func openBooking(ctx context.Context, c *syncer.Controller, body []byte) (view.View, error) {
	var payload struct {
		StationID int64 `json:"station_id"`
	}
	if err := decode(body, &payload); err != nil {
		return view.View{}, err
	}
	if payload.StationID <= 0 {
		return view.View{}, fmt.Errorf("%w: station_id required", errBadRequest)
	}
	return c.OpenBooking(ctx, payload.StationID)
}

func locate(ctx context.Context, c *syncer.Controller, body []byte) (view.View, error) {
	var f form.Station
	if err := decode(body, &f); err != nil {
		return view.View{}, err
	}
	return c.LocateStation(ctx, f.Address)
}
