package storage

import (
	"encoding/json"
	"time"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/pkg/models"
)

// Export is the JSON document written by StoreJSON.
type Export struct {
	Malls    []models.ValidatedRecord `json:"malls"`
	Metadata ExportMetadata           `json:"metadata"`
}

type ExportMetadata struct {
	TotalRecords       int            `json:"total_records"`
	ExportTimestamp    time.Time      `json:"export_timestamp"`
	DataQualitySummary QualitySummary `json:"data_quality_summary"`
	Source             string         `json:"source"`
}

// QualitySummary aggregates record quality for an export.
type QualitySummary struct {
	TotalRecords           int                        `json:"total_records"`
	AverageQualityScore    float64                    `json:"average_quality_score"`
	QualityDistribution    models.QualityDistribution `json:"quality_distribution"`
	RecordsWithCoordinates int                        `json:"records_with_coordinates"`
	RecordsWithCountry     int                        `json:"records_with_country"`
	RecordsWithCity        int                        `json:"records_with_city"`
}

// Summarize computes the quality summary of records.
func Summarize(records []models.ValidatedRecord) QualitySummary {
	q := QualitySummary{TotalRecords: len(records)}
	if len(records) == 0 {
		return q
	}
	var total float64
	for i := range records {
		r := &records[i]
		total += r.DataQualityScore
		q.QualityDistribution.Add(r.DataQualityScore)
		if r.HasCoordinates() {
			q.RecordsWithCoordinates++
		}
		if r.Country != "" {
			q.RecordsWithCountry++
		}
		if r.City != "" {
			q.RecordsWithCity++
		}
	}
	q.AverageQualityScore = total / float64(len(records))
	return q
}

// StoreJSON writes mecsr_malls_{timestamp}.json.
func (s *Store) StoreJSON(records []models.ValidatedRecord) (*models.StoreResult, error) {
	if records == nil {
		records = []models.ValidatedRecord{}
	}
	doc := Export{
		Malls: records,
		Metadata: ExportMetadata{
			TotalRecords:       len(records),
			ExportTimestamp:    s.now(),
			DataQualitySummary: Summarize(records),
			Source:             exportSource,
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, engine.PersistenceError("encode json export", err)
	}

	path := s.timestampedPath("json")
	if err := writeAtomic(path, data); err != nil {
		return nil, engine.PersistenceError("write json export", err)
	}
	return &models.StoreResult{
		Success:       true,
		Format:        models.FormatJSON,
		RecordsStored: len(records),
		StoragePath:   path,
	}, nil
}

// LoadJSON reads an export written by StoreJSON.
func LoadJSON(path string) (*Export, error) {
	data, err := readInput(path, "json export")
	if err != nil {
		return nil, err
	}
	var doc Export
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "decode json export", err)
	}
	return &doc, nil
}
