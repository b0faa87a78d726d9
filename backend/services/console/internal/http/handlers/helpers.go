package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"colonnine/backend/services/console/internal/clients"
	"colonnine/backend/services/console/internal/form"
	"colonnine/backend/services/console/internal/syncer"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps an action error to the response status. The body is still the rendered view,
// which already carries the user facing notification.
func statusFor(err error) int {
	var apiErr *clients.APIError
	switch {
	case err == nil:
		return http.StatusOK
	case form.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, syncer.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, syncer.ErrGeocoderDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, clients.ErrLocationNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	case errors.Is(err, clients.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
