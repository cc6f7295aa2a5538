package batch

import (
	"sort"
	"time"

	"github.com/law-makers/mallcrawl/internal/engine/process"
	"github.com/law-makers/mallcrawl/pkg/models"
)

// Field presence keys tallied per successful extraction.
const (
	fieldName        = "name"
	fieldCoordinates = "coordinates"
	fieldAddress     = "address"
	fieldCountry     = "country"
	fieldCity        = "city"
	fieldArea        = "property_details"
	fieldStores      = "stores_count"
	fieldYear        = "opening_year"
	fieldContact     = "contact_info"
	fieldTenants     = "tenants"
	fieldImages      = "images"
	fieldDescription = "descriptions"
)

// runState is the mutable bookkeeping of one run. Only the Run goroutine
// touches it, between batches.
type runState struct {
	report    *models.RunReport
	started   time.Time
	completed map[string]struct{}
	failed    map[string]struct{}
	lastOK    string
}

func newRunState(runID string, total int) *runState {
	now := time.Now()
	return &runState{
		report: &models.RunReport{
			RunID:     runID,
			State:     models.StateInit,
			StartedAt: now,
			TotalURLs: total,
			Stats:     models.RunStats{FieldPresence: make(map[string]int)},
		},
		started:   now,
		completed: make(map[string]struct{}),
		failed:    make(map[string]struct{}),
	}
}

// resume drops URLs the checkpoint completed and carries its completed and
// failed sets forward. Failed URLs stay in the work list.
func (r *runState) resume(cp *models.RunCheckpoint, urls []string) []string {
	done := cp.Completed()
	for u := range done {
		r.completed[u] = struct{}{}
	}
	for _, u := range cp.FailedURLs {
		r.failed[u] = struct{}{}
	}
	r.lastOK = cp.LastSuccessfulURL

	remaining := Pending(urls, cp)
	r.report.SkippedURLs += len(urls) - len(remaining)
	return remaining
}

// Pending returns the urls a run resumed from cp still has to visit, in
// order. A nil checkpoint leaves urls unchanged.
func Pending(urls []string, cp *models.RunCheckpoint) []string {
	if cp == nil {
		return urls
	}
	done := cp.Completed()
	remaining := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := done[u]; !ok {
			remaining = append(remaining, u)
		}
	}
	return remaining
}

// absorb folds a finished batch into the running statistics.
func (r *runState) absorb(outcomes []models.Outcome) {
	rep := r.report
	for i := range outcomes {
		o := &outcomes[i]
		rep.Stats.Processed++
		rep.Stats.TotalLatency += o.Latency

		switch o.Kind {
		case models.OutcomeSuccess:
			rep.Stats.Succeeded++
			rep.Records = append(rep.Records, *o.Record)
			r.markCompleted(o.URL)
			r.lastOK = o.URL
		case models.OutcomeRejected:
			rep.Stats.Rejected++
			rep.Rejections = append(rep.Rejections, *o.Rejection)
			r.markCompleted(o.URL)
		default:
			rep.Stats.Failed++
			rep.Failures = append(rep.Failures, models.FailedURL{URL: o.URL, Error: o.Error, StatusCode: o.StatusCode})
			r.failed[o.URL] = struct{}{}
		}

		if o.Fields != nil {
			tallyFields(rep.Stats.FieldPresence, o.Fields)
		}
		o.Fields = nil
	}
	rep.Outcomes = append(rep.Outcomes, outcomes...)
}

// markCompleted records a URL whose markup was extracted, whether the record
// was kept or rejected. Rejections are deterministic, so retrying is pointless.
func (r *runState) markCompleted(u string) {
	r.completed[u] = struct{}{}
	delete(r.failed, u)
}

func tallyFields(presence map[string]int, f *models.ExtractedFields) {
	inc := func(key string, ok bool) {
		if ok {
			presence[key]++
		}
	}
	inc(fieldName, f.Name != nil)
	inc(fieldCoordinates, f.Latitude != nil && f.Longitude != nil)
	inc(fieldAddress, f.FullAddress != nil)
	inc(fieldCountry, f.Country != nil)
	inc(fieldCity, f.City != nil)
	inc(fieldArea, f.GLASQM != nil || f.MallSizeSQM != nil)
	inc(fieldStores, f.RetailOutlets != nil)
	inc(fieldYear, f.YearBuilt != nil)
	inc(fieldContact, len(f.Phones) > 0 || len(f.Emails) > 0 || f.Website != nil)
	inc(fieldTenants, len(f.Tenants) > 0)
	inc(fieldImages, f.ImageURL != nil)
	inc(fieldDescription, f.Description != nil)
}

func (r *runState) checkpoint(batchIndex int) *models.RunCheckpoint {
	stats := r.report.Stats
	stats.FieldPresence = make(map[string]int, len(r.report.Stats.FieldPresence))
	for k, v := range r.report.Stats.FieldPresence {
		stats.FieldPresence[k] = v
	}
	return &models.RunCheckpoint{
		Version:           models.CheckpointVersion,
		RunID:             r.report.RunID,
		Timestamp:         time.Now(),
		CompletedURLs:     sortedKeys(r.completed),
		FailedURLs:        sortedKeys(r.failed),
		CurrentBatch:      batchIndex,
		TotalBatches:      r.report.Batches,
		PerformanceStats:  stats,
		LastSuccessfulURL: r.lastOK,
	}
}

// finalize deduplicates records across batches and computes summary figures.
func (r *runState) finalize() {
	rep := r.report
	rep.Records, rep.DuplicatesRemoved = process.Deduplicate(rep.Records)

	if rep.Stats.Processed > 0 {
		rep.SuccessRate = float64(rep.Stats.Succeeded) / float64(rep.Stats.Processed)
	}
	if elapsed := time.Since(r.started).Seconds(); elapsed > 0 {
		rep.Throughput = float64(rep.Stats.Processed) / elapsed
	}

	var total float64
	for i := range rep.Records {
		score := rep.Records[i].DataQualityScore
		total += score
		rep.QualityDistribution.Add(score)
	}
	if n := len(rep.Records); n > 0 {
		rep.AverageQuality = total / float64(n)
	}
	rep.DataCompleteness = Completeness(rep.Records)
}

func (r *runState) done() {
	r.report.State = models.StateDone
	r.stamp()
}

func (r *runState) interrupt() *models.RunReport {
	r.report.State = models.StateInterrupted
	r.stamp()
	return r.report
}

func (r *runState) stamp() {
	r.report.FinishedAt = time.Now()
	r.report.Duration = r.report.FinishedAt.Sub(r.started)
}

// Completeness returns, per field, the percentage of records that carry it.
func Completeness(records []models.ValidatedRecord) map[string]float64 {
	if len(records) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for i := range records {
		rec := &records[i]
		has := func(key string, ok bool) {
			if ok {
				counts[key]++
			}
		}
		has(fieldCoordinates, rec.HasCoordinates())
		has(fieldAddress, rec.Address != "")
		has(fieldCountry, rec.Country != "")
		has(fieldCity, rec.City != "")
		has(fieldArea, rec.GLASqm != nil || rec.MallSizeSqm != nil)
		has(fieldStores, rec.StoresCount != nil)
		has(fieldYear, rec.OpeningYear != nil)
		has(fieldContact, rec.Phone != "" || rec.Email != "" || rec.Website != "")
		has(fieldTenants, len(rec.Tenants) > 0)
		has(fieldImages, rec.ImageURL != "")
		has(fieldDescription, rec.Description != "")
	}

	out := make(map[string]float64, len(counts))
	for key, n := range counts {
		out[key] = float64(n) / float64(len(records)) * 100
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
