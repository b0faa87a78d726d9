package models

// StationUsage is one row of the admin usage report.
type StationUsage struct {
	StationID     int64  `json:"id_colonnina"`
	Address       string `json:"indirizzo"`
	Uses          int    `json:"utilizzi"`
	AverageEnergy Float  `json:"energia_media"`
	TotalEnergy   Float  `json:"energia_totale"`
}

// MonthlyDemand aggregates reservations per calendar month (1-12).
type MonthlyDemand struct {
	Month         int   `json:"mese"`
	Reservations  int   `json:"prenotazioni"`
	AverageEnergy Float `json:"energia_media"`
}

// Statistics is the GET /api/admin/statistiche payload.
type Statistics struct {
	Stations []StationUsage  `json:"stats_colonnine"`
	Forecast []MonthlyDemand `json:"previsioni"`
}
