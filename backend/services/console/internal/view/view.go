package view

import (
	"time"

	"colonnine/backend/services/console/internal/models"
	"colonnine/backend/services/console/internal/notify"
	"colonnine/backend/services/console/internal/state"
)

// StationDraft carries coordinates found by the geocoder into the add-station form.
type StationDraft struct {
	Address   string `json:"address"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Input is everything a render reads. The caller assembles it under the workspace lock.
type Input struct {
	Session        *models.Identity
	SessionVersion uint64
	Snapshot       state.Snapshot
	AuthMode       AuthMode
	Statistics     *models.Statistics
	BookingFor     int64
	Draft          *StationDraft
	Notifications  []notify.Notification
	Fetches        map[string]string
	Now            time.Time
}

// View is the full presentation state of a workspace. Version tracks the cache and
// SessionVersion the identity; the map is redrawn when either moves.
type View struct {
	Version        uint64                `json:"version"`
	SessionVersion uint64                `json:"session_version"`
	Panels         Panels                `json:"panels"`
	Banner         *Banner               `json:"banner,omitempty"`
	Map            MapView               `json:"map"`
	List           ListView              `json:"list"`
	Vehicles       *VehiclesView         `json:"vehicles,omitempty"`
	Booking        *BookingDialog        `json:"booking,omitempty"`
	Statistics     *StatisticsView       `json:"statistics,omitempty"`
	Draft          *StationDraft         `json:"draft,omitempty"`
	Notifications  []notify.Notification `json:"notifications"`
	Fetches        map[string]string     `json:"fetches,omitempty"`
}

// Render projects the input into a View. It has no side effects.
func Render(in Input) View {
	role := models.RoleNone
	if in.Session != nil {
		role = in.Session.Role
	}

	mapView, listView := projectStations(in.Snapshot.Stations, role)
	v := View{
		Version:        in.Snapshot.Version,
		SessionVersion: in.SessionVersion,
		Panels:         ProjectPanels(in.Session, in.AuthMode),
		Banner:         projectBanner(in.Session),
		Map:            mapView,
		List:           listView,
		Notifications:  in.Notifications,
		Fetches:        in.Fetches,
	}
	if v.Notifications == nil {
		v.Notifications = []notify.Notification{}
	}

	switch role {
	case models.RoleUser:
		v.Vehicles = projectVehicles(in.Snapshot.Vehicles)
		if in.BookingFor > 0 {
			now := in.Now
			if now.IsZero() {
				now = time.Now()
			}
			v.Booking = projectBooking(in.BookingFor, in.Snapshot.Stations, in.Snapshot.Vehicles, now)
		}
	case models.RoleAdmin:
		if in.Statistics != nil {
			v.Statistics = ProjectStatistics(in.Statistics)
			v.Panels.Statistics = true
		}
		v.Draft = in.Draft
	}
	return v
}
