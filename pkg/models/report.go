package models

import "time"

// OutcomeKind classifies what happened to one URL in a run.
type OutcomeKind string

const (
	OutcomeSuccess  OutcomeKind = "success"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome is the per-URL result emitted by the crawler.
type Outcome struct {
	URL        string           `json:"url"`
	Kind       OutcomeKind      `json:"kind"`
	Record     *ValidatedRecord `json:"record,omitempty"`
	Rejection  *RejectedRecord  `json:"rejection,omitempty"`
	Fields     *ExtractedFields `json:"-"`
	Error      string           `json:"error,omitempty"`
	StatusCode int              `json:"status_code,omitempty"`
	Latency    time.Duration    `json:"latency_ns"`
}

// QualityDistribution buckets records by data quality score.
type QualityDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

// Add places a score in its bucket: excellent >= 0.9, good >= 0.7, fair >= 0.5.
func (d *QualityDistribution) Add(score float64) {
	switch {
	case score >= 0.9:
		d.Excellent++
	case score >= 0.7:
		d.Good++
	case score >= 0.5:
		d.Fair++
	default:
		d.Poor++
	}
}

// Total returns the number of bucketed records.
func (d QualityDistribution) Total() int {
	return d.Excellent + d.Good + d.Fair + d.Poor
}

// RunStats is the running aggregate kept by the crawler and written into checkpoints.
type RunStats struct {
	Processed     int            `json:"processed"`
	Succeeded     int            `json:"succeeded"`
	Failed        int            `json:"failed"`
	Rejected      int            `json:"rejected"`
	TotalLatency  time.Duration  `json:"total_latency_ns"`
	FieldPresence map[string]int `json:"field_presence,omitempty"`
}

// AverageLatency returns mean fetch latency over processed URLs.
func (s RunStats) AverageLatency() time.Duration {
	if s.Processed == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Processed)
}

// RunState is the crawler state machine position.
type RunState string

const (
	StateInit        RunState = "INIT"
	StateResume      RunState = "RESUME"
	StateProcessing  RunState = "PROCESSING"
	StateFinalizing  RunState = "FINALIZING"
	StateDone        RunState = "DONE"
	StateInterrupted RunState = "INTERRUPTED"
)

// FailedURL records a fetch failure for diagnostics.
type FailedURL struct {
	URL        string `json:"url"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
}

// RunReport summarizes one crawler run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	State      RunState      `json:"state"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`

	TotalURLs   int `json:"total_urls"`
	SkippedURLs int `json:"skipped_urls"`
	Batches     int `json:"batches"`
	BatchesDone int `json:"batches_done"`

	Stats              RunStats `json:"stats"`
	SuccessRate        float64  `json:"success_rate"`
	Throughput         float64  `json:"throughput_per_second"`
	DuplicatesRemoved  int      `json:"duplicates_removed"`
	CheckpointsWritten int      `json:"checkpoints_written"`

	QualityDistribution QualityDistribution `json:"quality_distribution"`
	AverageQuality      float64             `json:"average_quality"`
	DataCompleteness    map[string]float64  `json:"data_completeness,omitempty"`

	Records    []ValidatedRecord `json:"records,omitempty"`
	Rejections []RejectedRecord  `json:"rejections,omitempty"`
	Failures   []FailedURL       `json:"failures,omitempty"`
	Outcomes   []Outcome         `json:"-"`

	Storage *StoreResult `json:"storage,omitempty"`
}

// ProcessingStats describes one processor batch.
type ProcessingStats struct {
	TotalInputRecords        int                 `json:"total_input_records"`
	ValidRecords             int                 `json:"valid_records"`
	InvalidRecords           int                 `json:"invalid_records"`
	DuplicatesRemoved        int                 `json:"duplicates_removed"`
	EnrichedRecords          int                 `json:"enriched_records"`
	ValidationSuccessRate    float64             `json:"validation_success_rate"`
	PropertyTypeDistribution map[string]int      `json:"property_type_distribution"`
	StatusDistribution       map[string]int      `json:"status_distribution"`
	CountryDistribution      map[string]int      `json:"country_distribution"`
	QualityDistribution      QualityDistribution `json:"quality_score_distribution"`
	CoordinatesAvailable     int                 `json:"coordinates_available"`
	AverageQualityScore      float64             `json:"average_quality_score"`
}

// ProcessingResult is returned by the record processor.
type ProcessingResult struct {
	Valid             []ValidatedRecord `json:"valid"`
	Invalid           []RejectedRecord  `json:"invalid"`
	DuplicatesRemoved int               `json:"duplicates_removed"`
	EnrichedCount     int               `json:"enriched_count"`
	Stats             ProcessingStats   `json:"stats"`
}

// CoordinateIssue describes a record whose coordinates are out of range.
type CoordinateIssue struct {
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     string  `json:"error"`
}

// CoordinateReport is the result of a coordinate audit over records.
type CoordinateReport struct {
	TotalRecords       int               `json:"total_records"`
	ValidCoordinates   int               `json:"valid_coordinates"`
	InvalidCoordinates int               `json:"invalid_coordinates"`
	MissingCoordinates int               `json:"missing_coordinates"`
	Issues             []CoordinateIssue `json:"validation_errors,omitempty"`
}
