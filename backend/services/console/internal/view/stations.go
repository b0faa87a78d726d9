package view

import (
	"fmt"
	"strconv"

	"colonnine/backend/services/console/internal/models"
)

// ActionBook opens the booking dialog for a station. Kinds double as action endpoint names.
const ActionBook = "booking"

// Action is a declarative control binding: the page wires it to POST /actions/<kind>.
type Action struct {
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	StationID int64  `json:"station_id"`
}

// StationSummary is the body shared by a marker popup and a list card.
type StationSummary struct {
	StationID      int64    `json:"station_id"`
	Address        string   `json:"address"`
	Power          string   `json:"power"`
	Uses           int      `json:"uses"`
	Classification string   `json:"classification"`
	Badge          string   `json:"badge"`
	Neighborhood   string   `json:"neighborhood,omitempty"`
	Actions        []Action `json:"actions,omitempty"`
}

// Marker is one map pin.
type Marker struct {
	StationID int64          `json:"station_id"`
	Lat       float64        `json:"lat"`
	Lng       float64        `json:"lng"`
	Color     string         `json:"color"`
	Popup     StationSummary `json:"popup"`
}

// LatLng is a map coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a south-west / north-east box.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
}

// Viewport tells the map either to fit Bounds or to centre on Center at Zoom.
type Viewport struct {
	Bounds *Bounds `json:"bounds,omitempty"`
	Center *LatLng `json:"center,omitempty"`
	Zoom   int     `json:"zoom,omitempty"`
}

// MapView is the marker projection.
type MapView struct {
	Markers  []Marker `json:"markers"`
	Viewport Viewport `json:"viewport"`
}

// ListView is the card projection.
type ListView struct {
	Title  string           `json:"title,omitempty"`
	Notice string           `json:"notice,omitempty"`
	Cards  []StationSummary `json:"cards"`
}

const (
	boundsPadding = 0.1
	defaultZoom   = 6
	noStations    = "Nessuna colonnina disponibile"
)

var defaultCenter = LatLng{Lat: 41.9028, Lng: 12.4964}

func formatPower(kw models.Float) string {
	return strconv.FormatFloat(float64(kw), 'f', -1, 64) + " kW"
}

func summarize(s models.Station, role models.Role) StationSummary {
	summary := StationSummary{
		StationID:      s.ID,
		Address:        s.Address,
		Power:          formatPower(s.PowerKW),
		Uses:           s.TotalUses,
		Classification: string(s.Classification),
		Badge:          BadgeColor(s.Classification),
		Neighborhood:   s.Neighborhood,
	}
	if role == models.RoleUser {
		summary.Actions = []Action{{Kind: ActionBook, Label: "Prenota", StationID: s.ID}}
	}
	return summary
}

// projectStations builds markers and cards from the same slice in one pass.
func projectStations(stations []models.Station, role models.Role) (MapView, ListView) {
	mv := MapView{Markers: make([]Marker, 0, len(stations))}
	lv := ListView{Cards: make([]StationSummary, 0, len(stations))}

	for _, s := range stations {
		summary := summarize(s, role)
		mv.Markers = append(mv.Markers, Marker{
			StationID: s.ID,
			Lat:       float64(s.Latitude),
			Lng:       float64(s.Longitude),
			Color:     MarkerColor(s.Classification),
			Popup:     summary,
		})
		lv.Cards = append(lv.Cards, summary)
	}

	mv.Viewport = fitViewport(mv.Markers)
	if len(stations) == 0 {
		lv.Notice = noStations
	} else {
		lv.Title = fmt.Sprintf("Colonnine di Ricarica (%d)", len(stations))
	}
	return mv, lv
}

func fitViewport(markers []Marker) Viewport {
	if len(markers) == 0 {
		center := defaultCenter
		return Viewport{Center: &center, Zoom: defaultZoom}
	}

	b := Bounds{
		SouthWest: LatLng{Lat: markers[0].Lat, Lng: markers[0].Lng},
		NorthEast: LatLng{Lat: markers[0].Lat, Lng: markers[0].Lng},
	}
	for _, m := range markers[1:] {
		b.SouthWest.Lat = min(b.SouthWest.Lat, m.Lat)
		b.SouthWest.Lng = min(b.SouthWest.Lng, m.Lng)
		b.NorthEast.Lat = max(b.NorthEast.Lat, m.Lat)
		b.NorthEast.Lng = max(b.NorthEast.Lng, m.Lng)
	}

	latPad := (b.NorthEast.Lat - b.SouthWest.Lat) * boundsPadding
	lngPad := (b.NorthEast.Lng - b.SouthWest.Lng) * boundsPadding
	b.SouthWest.Lat -= latPad
	b.SouthWest.Lng -= lngPad
	b.NorthEast.Lat += latPad
	b.NorthEast.Lng += lngPad
	return Viewport{Bounds: &b}
}
