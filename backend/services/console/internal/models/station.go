package models

// Classification is the operational tier the backend stores on a station.
type Classification string

// Wire values of Classification. Anything else is treated as unknown.
const (
	ClassificationNone   Classification = "nessuno"
	ClassificationLow    Classification = "basso"
	ClassificationMedium Classification = "medio"
	ClassificationHigh   Classification = "alto"
)

// Known reports whether c is one of the four recognised tiers.
func (c Classification) Known() bool {
	switch c {
	case ClassificationNone, ClassificationLow, ClassificationMedium, ClassificationHigh:
		return true
	}
	return false
}

// Station mirrors a colonnina returned by GET /api/colonnine.
type Station struct {
	ID             int64          `json:"id_colonnina"`
	Address        string         `json:"indirizzo"`
	Latitude       Float          `json:"latitudine"`
	Longitude      Float          `json:"longitudine"`
	PowerKW        Float          `json:"potenza_kw"`
	TotalUses      int            `json:"utilizzi_totali"`
	AverageEnergy  Float          `json:"energia_media"`
	Classification Classification `json:"classificazione"`
	Neighborhood   string         `json:"nil"`
}

// NewStation is the admin payload for POST /api/colonnine.
type NewStation struct {
	Address      string  `json:"indirizzo"`
	Latitude     float64 `json:"latitudine"`
	Longitude    float64 `json:"longitudine"`
	PowerKW      float64 `json:"potenza_kw"`
	Neighborhood string  `json:"nil"`
}
