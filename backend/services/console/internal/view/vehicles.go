package view

import (
	"fmt"
	"strconv"
	"time"

	"colonnine/backend/services/console/internal/models"
)

const (
	registeredLayout = "02/01/2006"
	inputLayout      = "2006-01-02T15:04"
	noVehicles       = "Nessun veicolo registrato"
)

// VehicleCard is one entry of the user's vehicle list.
type VehicleCard struct {
	VehicleID  int64  `json:"vehicle_id"`
	Title      string `json:"title"`
	Plate      string `json:"plate"`
	Registered string `json:"registered"`
}

// VehiclesView is the user panel vehicle list.
type VehiclesView struct {
	Notice string        `json:"notice,omitempty"`
	Cards  []VehicleCard `json:"cards"`
}

// Option is a select entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// BookingDialog is the open reservation form for one station.
type BookingDialog struct {
	StationID int64    `json:"station_id"`
	Address   string   `json:"address,omitempty"`
	Vehicles  []Option `json:"vehicles"`
	MinStart  string   `json:"min_start"`
	MinEnd    string   `json:"min_end"`
}

func projectVehicles(vehicles []models.Vehicle) *VehiclesView {
	vv := &VehiclesView{Cards: make([]VehicleCard, 0, len(vehicles))}
	if len(vehicles) == 0 {
		vv.Notice = noVehicles
		return vv
	}
	for _, v := range vehicles {
		card := VehicleCard{
			VehicleID: v.ID,
			Title:     v.Make + " " + v.Model,
			Plate:     v.Plate,
		}
		if !v.CreatedAt.IsZero() {
			card.Registered = v.CreatedAt.Format(registeredLayout)
		}
		vv.Cards = append(vv.Cards, card)
	}
	return vv
}

func vehicleOptions(vehicles []models.Vehicle) []Option {
	opts := make([]Option, 0, len(vehicles))
	for _, v := range vehicles {
		opts = append(opts, Option{
			Value: strconv.FormatInt(v.ID, 10),
			Label: fmt.Sprintf("%s %s (%s)", v.Make, v.Model, v.Plate),
		})
	}
	return opts
}

func projectBooking(stationID int64, stations []models.Station, vehicles []models.Vehicle, now time.Time) *BookingDialog {
	dialog := &BookingDialog{
		StationID: stationID,
		Vehicles:  vehicleOptions(vehicles),
		MinStart:  now.Format(inputLayout),
		MinEnd:    now.Add(time.Hour).Format(inputLayout),
	}
	for _, s := range stations {
		if s.ID == stationID {
			dialog.Address = s.Address
			break
		}
	}
	return dialog
}
