package storage

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/pkg/models"
)

var baseColumns = []string{
	"name", "url", "property_type", "status", "country", "city",
	"address", "phone", "email", "website", "gla_sqft", "gla_sqm",
	"stores_count", "parking_spaces", "opening_year",
	"post_id", "user_id", "data_id", "data_type",
	"last_updated", "data_quality_score",
}

// Columns returns the CSV header. Coordinates go right after city.
func Columns(includeCoordinates bool) []string {
	if !includeCoordinates {
		return append([]string(nil), baseColumns...)
	}
	cols := make([]string, 0, len(baseColumns)+2)
	cols = append(cols, baseColumns[:6]...)
	cols = append(cols, "latitude", "longitude")
	return append(cols, baseColumns[6:]...)
}

func csvRow(r *models.ValidatedRecord, includeCoordinates bool) []string {
	row := []string{
		r.Name, r.URL, string(r.PropertyType), string(r.Status), r.Country, r.City,
	}
	if includeCoordinates {
		row = append(row, formatFloat(r.Latitude), formatFloat(r.Longitude))
	}
	lastUpdated := ""
	if !r.LastUpdated.IsZero() {
		lastUpdated = r.LastUpdated.Format(time.RFC3339)
	}
	return append(row,
		r.Address, r.Phone, r.Email, r.Website,
		formatInt(r.GLASqft), formatInt(r.GLASqm),
		formatInt(r.StoresCount), formatInt(r.ParkingSpaces), formatInt(r.OpeningYear),
		r.PostID, r.UserID, r.DataID, r.DataType,
		lastUpdated, strconv.FormatFloat(r.DataQualityScore, 'f', -1, 64),
	)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// StoreCSV writes mecsr_malls_{timestamp}.csv.
func (s *Store) StoreCSV(records []models.ValidatedRecord) (*models.StoreResult, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns(s.opts.IncludeCoordinates)); err != nil {
		return nil, engine.PersistenceError("encode csv header", err)
	}
	for i := range records {
		if err := w.Write(csvRow(&records[i], s.opts.IncludeCoordinates)); err != nil {
			return nil, engine.PersistenceError("encode csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, engine.PersistenceError("encode csv", err)
	}

	path := s.timestampedPath("csv")
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return nil, engine.PersistenceError("write csv export", err)
	}
	return &models.StoreResult{
		Success:       true,
		Format:        models.FormatCSV,
		RecordsStored: len(records),
		StoragePath:   path,
	}, nil
}
