package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"colonnine/backend/services/console/internal/models"
)

// Messages shown to the user when a form is rejected locally.
const (
	MsgLoginRequired      = "Inserisci email e password"
	MsgRequiredFields     = "Compila tutti i campi obbligatori"
	MsgAllFields          = "Compila tutti i campi"
	MsgEndBeforeStart     = "La data di fine deve essere successiva alla data di inizio"
	MsgInvalidCoordinates = "Coordinate non valide"
	MsgInvalidDate        = "Data non valida"
)

// DateTimeLayout is the datetime-local input layout used on the wire.
const DateTimeLayout = "2006-01-02T15:04"

// ValidationError is a local rejection; no request has been sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Login is the sign-in form.
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (f Login) Validate() error {
	if blank(f.Email, f.Password) {
		return invalid(MsgLoginRequired)
	}
	return nil
}

// Payload returns the backend request body.
func (f Login) Payload() models.Credentials {
	return models.Credentials{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

// Registration serves both self sign-up and the admin "add user" form.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"nome"`
	Surname  string `json:"cognome"`
	Phone    string `json:"telefono"`
	Address  string `json:"indirizzo"`
	City     string `json:"citta"`
}

// Validate requires email, password, name and surname.
func (f Registration) Validate() error {
	if blank(f.Email, f.Password, f.Name, f.Surname) {
		return invalid(MsgRequiredFields)
	}
	return nil
}

// Payload returns the backend request body.
func (f Registration) Payload() models.Registration {
	return models.Registration{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Name:     strings.TrimSpace(f.Name),
		Surname:  strings.TrimSpace(f.Surname),
		Phone:    strings.TrimSpace(f.Phone),
		Address:  strings.TrimSpace(f.Address),
		City:     strings.TrimSpace(f.City),
	}
}

// Station is the admin "add station" form. Pointers distinguish missing from zero.
type Station struct {
	Address      string   `json:"indirizzo"`
	Latitude     *float64 `json:"latitudine"`
	Longitude    *float64 `json:"longitudine"`
	PowerKW      *float64 `json:"potenza_kw"`
	Neighborhood string   `json:"nil"`
}

// Validate requires address, coordinates and a positive power rating.
func (f Station) Validate() error {
	if blank(f.Address) || f.Latitude == nil || f.Longitude == nil || f.PowerKW == nil || *f.PowerKW <= 0 {
		return invalid(MsgRequiredFields)
	}
	if *f.Latitude < -90 || *f.Latitude > 90 || *f.Longitude < -180 || *f.Longitude > 180 {
		return invalid(MsgInvalidCoordinates)
	}
	return nil
}

// Payload returns the backend request body. Call only after Validate.
func (f Station) Payload() models.NewStation {
	return models.NewStation{
		Address:      strings.TrimSpace(f.Address),
		Latitude:     *f.Latitude,
		Longitude:    *f.Longitude,
		PowerKW:      *f.PowerKW,
		Neighborhood: strings.TrimSpace(f.Neighborhood),
	}
}

// Reservation is the booking dialog form.
type Reservation struct {
	VehicleID int64   `json:"id_veicolo"`
	StationID int64   `json:"id_colonnina"`
	Start     string  `json:"data_ora_inizio"`
	End       string  `json:"data_ora_fine"`
	EnergyKWh float64 `json:"energia_kwh"`
}

// ParseDateTime accepts the datetime-local layout and RFC 3339.
func ParseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateTimeLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("form: parse datetime %q: %w", raw, err)
	}
	return t, nil
}

// Validate requires every field and a start strictly before the end.
func (f Reservation) Validate() error {
	if f.VehicleID <= 0 || f.StationID <= 0 || blank(f.Start, f.End) || f.EnergyKWh <= 0 {
		return invalid(MsgAllFields)
	}
	start, err := ParseDateTime(f.Start)
	if err != nil {
		return invalid(MsgInvalidDate)
	}
	end, err := ParseDateTime(f.End)
	if err != nil {
		return invalid(MsgInvalidDate)
	}
	if !start.Before(end) {
		return invalid(MsgEndBeforeStart)
	}
	return nil
}

// Payload returns the backend request body.
func (f Reservation) Payload() models.Reservation {
	return models.Reservation{
		VehicleID: f.VehicleID,
		StationID: f.StationID,
		Start:     strings.TrimSpace(f.Start),
		End:       strings.TrimSpace(f.End),
		EnergyKWh: f.EnergyKWh,
	}
}
