package process

import (
	"github.com/law-makers/mallcrawl/internal/engine/extract"
	"github.com/law-makers/mallcrawl/pkg/models"
)

const unknownBucket = "unknown"

// Stats summarizes a processed batch.
func Stats(valid []models.ValidatedRecord, invalid, duplicates, enriched int) models.ProcessingStats {
	stats := models.ProcessingStats{
		TotalInputRecords:        len(valid) + invalid + duplicates,
		ValidRecords:             len(valid),
		InvalidRecords:           invalid,
		DuplicatesRemoved:        duplicates,
		EnrichedRecords:          enriched,
		PropertyTypeDistribution: make(map[string]int),
		StatusDistribution:       make(map[string]int),
		CountryDistribution:      make(map[string]int),
	}
	if stats.TotalInputRecords > 0 {
		stats.ValidationSuccessRate = float64(len(valid)) / float64(stats.TotalInputRecords)
	}

	var total float64
	for i := range valid {
		rec := &valid[i]
		total += rec.DataQualityScore

		stats.PropertyTypeDistribution[orUnknown(string(rec.PropertyType))]++
		stats.StatusDistribution[orUnknown(string(rec.Status))]++
		stats.CountryDistribution[orUnknown(rec.Country)]++

		if rec.HasCoordinates() {
			stats.CoordinatesAvailable++
		}
		stats.QualityDistribution.Add(rec.DataQualityScore)
	}
	if len(valid) > 0 {
		stats.AverageQualityScore = total / float64(len(valid))
	}
	return stats
}

func orUnknown(s string) string {
	if s == "" {
		return unknownBucket
	}
	return s
}

// ValidateCoordinates audits coordinate presence and range across records.
func ValidateCoordinates(records []models.ValidatedRecord) models.CoordinateReport {
	report := models.CoordinateReport{TotalRecords: len(records)}
	for i := range records {
		rec := &records[i]
		if !rec.HasCoordinates() {
			report.MissingCoordinates++
			continue
		}
		if extract.ValidCoordinates(*rec.Latitude, *rec.Longitude) {
			report.ValidCoordinates++
			continue
		}
		report.InvalidCoordinates++
		report.Issues = append(report.Issues, models.CoordinateIssue{
			Name:      rec.Name,
			URL:       rec.URL,
			Latitude:  *rec.Latitude,
			Longitude: *rec.Longitude,
			Error:     "coordinates out of valid range",
		})
	}
	return report
}
