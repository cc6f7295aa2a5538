package process

import (
	"math"

	"github.com/law-makers/mallcrawl/pkg/models"
)

// Presence weights for the data quality score. They sum to 6.8.
const (
	weightName         = 1.0
	weightURL          = 1.0
	weightPropertyType = 0.8
	weightStatus       = 0.8
	weightCoordinates  = 0.9
	weightCountry      = 0.5
	weightCity         = 0.5
	weightArea         = 0.6
	weightStores       = 0.4
	weightOpeningYear  = 0.3

	totalWeight = weightName + weightURL + weightPropertyType + weightStatus +
		weightCoordinates + weightCountry + weightCity + weightArea +
		weightStores + weightOpeningYear
)

// Score computes the data quality score of rec from its current fields.
// It never reads DataQualityScore.
func Score(rec *models.ValidatedRecord) float64 {
	var achieved float64
	if rec.Name != "" {
		achieved += weightName
	}
	if rec.URL != "" {
		achieved += weightURL
	}
	if rec.PropertyType != "" && rec.PropertyType != models.PropertyUnknown {
		achieved += weightPropertyType
	}
	if rec.Status != "" && rec.Status != models.StatusUnknown {
		achieved += weightStatus
	}
	if rec.HasCoordinates() {
		achieved += weightCoordinates
	}
	if rec.Country != "" {
		achieved += weightCountry
	}
	if rec.City != "" {
		achieved += weightCity
	}
	if positive(rec.GLASqft) || positive(rec.GLASqm) || positive(rec.MallSizeSqm) {
		achieved += weightArea
	}
	if positive(rec.StoresCount) {
		achieved += weightStores
	}
	if rec.OpeningYear != nil {
		achieved += weightOpeningYear
	}
	return math.Min(achieved/totalWeight, 1)
}

func positive(v *int) bool {
	return v != nil && *v > 0
}
