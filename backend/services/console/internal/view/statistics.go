package view

import (
	"strconv"

	"colonnine/backend/services/console/internal/models"
)

const (
	chartTopStations = 8
	chartLabelRunes  = 20
)

// StatisticsRow is one line of the admin usage table.
type StatisticsRow struct {
	StationID     int64  `json:"station_id"`
	Address       string `json:"address"`
	Uses          int    `json:"uses"`
	TotalEnergy   string `json:"total_energy"`
	AverageEnergy string `json:"average_energy"`
	Tier          string `json:"tier"`
	Badge         string `json:"badge"`
}

// Series is one dataset of a chart.
type Series struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Chart is handed to the charting library as is.
type Chart struct {
	Type   string   `json:"type"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// StatisticsView is the admin reporting section.
type StatisticsView struct {
	Rows          []StatisticsRow `json:"rows"`
	UsageChart    Chart           `json:"usage_chart"`
	ForecastChart Chart           `json:"forecast_chart"`
}

func formatEnergy(v models.Float) string {
	return strconv.FormatFloat(float64(v), 'f', 2, 64)
}

func chartLabel(address string) string {
	runes := []rune(address)
	if len(runes) > chartLabelRunes {
		runes = runes[:chartLabelRunes]
	}
	return string(runes) + "..."
}

func monthLabel(month int) string {
	if month >= 1 && month <= len(monthLabels) {
		return monthLabels[month-1]
	}
	return strconv.Itoa(month)
}

// ProjectStatistics builds table and charts from a statistics payload.
func ProjectStatistics(stats *models.Statistics) *StatisticsView {
	if stats == nil {
		return nil
	}

	sv := &StatisticsView{Rows: make([]StatisticsRow, 0, len(stats.Stations))}
	for _, s := range stats.Stations {
		tier := UsageTier(s.Uses)
		sv.Rows = append(sv.Rows, StatisticsRow{
			StationID:     s.StationID,
			Address:       s.Address,
			Uses:          s.Uses,
			TotalEnergy:   formatEnergy(s.TotalEnergy),
			AverageEnergy: formatEnergy(s.AverageEnergy),
			Tier:          string(tier),
			Badge:         BadgeColor(tier),
		})
	}

	top := stats.Stations
	if len(top) > chartTopStations {
		top = top[:chartTopStations]
	}
	usage := Series{Label: "Numero di Utilizzi", Data: make([]float64, 0, len(top))}
	sv.UsageChart = Chart{Type: "bar", Labels: make([]string, 0, len(top))}
	for _, s := range top {
		sv.UsageChart.Labels = append(sv.UsageChart.Labels, chartLabel(s.Address))
		usage.Data = append(usage.Data, float64(s.Uses))
	}
	sv.UsageChart.Series = []Series{usage}

	demand := Series{Label: "Prenotazioni", Data: make([]float64, 0, len(stats.Forecast))}
	sv.ForecastChart = Chart{Type: "line", Labels: make([]string, 0, len(stats.Forecast))}
	for _, f := range stats.Forecast {
		sv.ForecastChart.Labels = append(sv.ForecastChart.Labels, monthLabel(f.Month))
		demand.Data = append(demand.Data, float64(f.Reservations))
	}
	sv.ForecastChart.Series = []Series{demand}

	return sv
}
