package view

import "colonnine/backend/services/console/internal/models"

var markerColors = map[models.Classification]string{
	models.ClassificationNone:   "gray",
	models.ClassificationLow:    "green",
	models.ClassificationMedium: "orange",
	models.ClassificationHigh:   "red",
}

var badgeColors = map[models.Classification]string{
	models.ClassificationNone:   "secondary",
	models.ClassificationLow:    "success",
	models.ClassificationMedium: "warning",
	models.ClassificationHigh:   "danger",
}

const (
	defaultMarkerColor = "blue"
	defaultBadgeColor  = "primary"
)

// MarkerColor maps a stored classification to the map pin colour.
func MarkerColor(c models.Classification) string {
	if color, ok := markerColors[c]; ok {
		return color
	}
	return defaultMarkerColor
}

// BadgeColor maps a classification to the badge style.
func BadgeColor(c models.Classification) string {
	if color, ok := badgeColors[c]; ok {
		return color
	}
	return defaultBadgeColor
}

// UsageTier derives the reporting tier from a usage count. It ignores the stored classification.
func UsageTier(uses int) models.Classification {
	switch {
	case uses < 5:
		return models.ClassificationLow
	case uses < 15:
		return models.ClassificationMedium
	default:
		return models.ClassificationHigh
	}
}

var monthLabels = [12]string{"Gen", "Feb", "Mar", "Apr", "Mag", "Giu", "Lug", "Ago", "Set", "Ott", "Nov", "Dic"}
