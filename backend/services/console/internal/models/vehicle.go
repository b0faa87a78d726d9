package models

// Vehicle belongs to the authenticated user (GET /api/veicoli).
type Vehicle struct {
	ID        int64     `json:"id_veicolo"`
	Make      string    `json:"marca"`
	Model     string    `json:"modello"`
	Plate     string    `json:"targa"`
	CreatedAt Timestamp `json:"created_at"`
}

// Reservation is the submission payload for POST /api/prenotazioni. It is never cached.
type Reservation struct {
	VehicleID int64   `json:"id_veicolo"`
	StationID int64   `json:"id_colonnina"`
	Start     string  `json:"data_ora_inizio"`
	End       string  `json:"data_ora_fine"`
	EnergyKWh float64 `json:"energia_kwh"`
}
