// Package process validates, deduplicates, enriches and scores extracted
// mall records.
package process

import (
	"time"

	"github.com/law-makers/mallcrawl/internal/engine"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// Processor is stateless apart from its site base and clock; it is safe for
// concurrent use.
type Processor struct {
	baseURL string
	now     func() time.Time
}

// New creates a Processor that absolutizes relative URLs against baseURL.
func New(baseURL string) *Processor {
	return &Processor{baseURL: baseURL, now: time.Now}
}

// WithClock replaces the time source used for LastUpdated and year bounds.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process runs validation, URL normalization, deduplication, enrichment and
// scoring, in that order. Every input ends up in exactly one of Valid,
// Invalid or the duplicate count.
func (p *Processor) Process(batch []models.ExtractedFields) *models.ProcessingResult {
	now := p.now()
	result := &models.ProcessingResult{}

	candidates := make([]models.ValidatedRecord, 0, len(batch))
	for _, f := range batch {
		rec, err := Validate(f, now)
		if err == nil {
			rec.URL, err = p.NormalizeURL(rec.URL)
			if err != nil {
				err = engine.ValidationError("url", err)
			}
		}
		if err != nil {
			result.Invalid = append(result.Invalid, models.RejectedRecord{Input: f, Reason: err.Error()})
			continue
		}
		candidates = append(candidates, rec)
	}

	result.Valid, result.DuplicatesRemoved = Deduplicate(candidates)

	for i := range result.Valid {
		if enrich(&result.Valid[i], now) {
			result.EnrichedCount++
		}
		result.Valid[i].DataQualityScore = Score(&result.Valid[i])
	}

	result.Stats = Stats(result.Valid, len(result.Invalid), result.DuplicatesRemoved, result.EnrichedCount)

	log.Debug().
		Int("input", len(batch)).
		Int("valid", len(result.Valid)).
		Int("invalid", len(result.Invalid)).
		Int("duplicates", result.DuplicatesRemoved).
		Int("enriched", result.EnrichedCount).
		Msg("Processed batch")

	return result
}

// NormalizeURL makes raw absolute against the site base, lower-cases the
// scheme and host, IDNA-encodes the host and drops any fragment.
func (p *Processor) NormalizeURL(raw string) (string, error) {
	return urlutil.Normalize(p.baseURL, raw)
}

// Deduplicate keeps the first record for each URL and reports how many
// were dropped.
func Deduplicate(records []models.ValidatedRecord) ([]models.ValidatedRecord, int) {
	seen := make(map[string]bool, len(records))
	unique := make([]models.ValidatedRecord, 0, len(records))
	for _, rec := range records {
		if seen[rec.URL] {
			continue
		}
		seen[rec.URL] = true
		unique = append(unique, rec)
	}
	return unique, len(records) - len(unique)
}
