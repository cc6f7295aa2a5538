package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/engine/extract"
	"github.com/law-makers/mallcrawl/internal/engine/process"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const site = "https://www.mecsr.org"

func mallURL(slug string) string {
	return site + "/directory-shopping-centres/" + slug + "/"
}

func mallPage(name string) string {
	return fmt.Sprintf(`<html><body><h1>%s - Shopping Centre</h1><p>GLA in SQM: 50,000</p></body></html>`, name)
}

type mockFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	delay  time.Duration
	calls  []string
	starts []time.Time
}

func (m *mockFetcher) Name() string { return "mock" }
func (m *mockFetcher) Close() error { return nil }

func (m *mockFetcher) Fetch(ctx context.Context, u string) models.FetchResult {
	m.mu.Lock()
	m.calls = append(m.calls, u)
	m.starts = append(m.starts, time.Now())
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return models.FetchResult{URL: u, Error: ctx.Err().Error()}
		}
	}

	page, ok := m.pages[u]
	if !ok {
		return models.FetchResult{URL: u, Error: "dial tcp: connection refused", Elapsed: time.Millisecond}
	}
	return models.FetchResult{URL: u, Success: true, StatusCode: 200, Content: page, Elapsed: time.Millisecond, FetchedAt: time.Now()}
}

func (m *mockFetcher) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.calls...)
	sort.Strings(out)
	return out
}

type memoryCheckpoints struct {
	mu    sync.Mutex
	saved []*models.RunCheckpoint
}

func (m *memoryCheckpoints) SaveCheckpoint(_ context.Context, cp *models.RunCheckpoint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, cp)
	return fmt.Sprintf("checkpoint_%d.json", len(m.saved)), nil
}

type memorySink struct {
	stored []models.ValidatedRecord
	err    error
}

func (m *memorySink) Store(_ context.Context, records []models.ValidatedRecord, format models.OutputFormat) (*models.StoreResult, error) {
	if m.err != nil {
		return &models.StoreResult{Format: format, Error: m.err.Error()}, m.err
	}
	m.stored = append(m.stored, records...)
	return &models.StoreResult{Success: true, Format: format, RecordsStored: len(records)}, nil
}

func newCrawler(f engine.Fetcher, cps CheckpointStore, sink Sink) *Crawler {
	return New(f, extract.New(site, 0), process.New(site), cps, sink)
}

func fastOptions() Options {
	return Options{Concurrency: 4, RequestsPerMinute: 60000, BatchSize: 2, Format: models.FormatJSON}
}

func TestRun_MixedOutcomes(t *testing.T) {
	good1, good2, broken, nameless := mallURL("alpha-mall"), mallURL("beta-mall"), mallURL("gone"), site+"/x/"
	f := &mockFetcher{pages: map[string]string{
		good1:    mallPage("Alpha Mall"),
		good2:    mallPage("Beta Mall"),
		nameless: "<html><body></body></html>",
	}}
	sink := &memorySink{}
	cps := &memoryCheckpoints{}

	report, err := newCrawler(f, cps, sink).Run(context.Background(), []string{good1, broken, good2, nameless}, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, models.StateDone, report.State)
	assert.Equal(t, 4, report.Stats.Processed)
	assert.Equal(t, 2, report.Stats.Succeeded)
	assert.Equal(t, 1, report.Stats.Failed)
	assert.Equal(t, 1, report.Stats.Rejected)
	assert.InDelta(t, 0.5, report.SuccessRate, 1e-9)
	assert.Equal(t, 2, report.Batches)
	assert.Equal(t, 2, report.BatchesDone)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken, report.Failures[0].URL)
	require.Len(t, report.Rejections, 1)
	assert.Equal(t, nameless, report.Rejections[0].Input.URL)

	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, good1, report.Outcomes[0].URL, "outcomes keep dispatch order")
	assert.Equal(t, models.OutcomeFailed, report.Outcomes[1].Kind)
	assert.Equal(t, models.OutcomeSuccess, report.Outcomes[2].Kind)
	assert.Equal(t, models.OutcomeRejected, report.Outcomes[3].Kind)

	require.Len(t, sink.stored, 2)
	assert.Equal(t, "Alpha Mall", sink.stored[0].Name)
	require.NotNil(t, sink.stored[0].GLASqm)
	assert.Equal(t, 50000, *sink.stored[0].GLASqm)
	require.NotNil(t, report.Storage)
	assert.Equal(t, 2, report.Storage.RecordsStored)

	assert.Equal(t, 2, report.Stats.FieldPresence[fieldName])
	assert.Equal(t, 2, report.QualityDistribution.Total())

	require.NotEmpty(t, cps.saved, "final checkpoint is written")
	final := cps.saved[len(cps.saved)-1]
	assert.Equal(t, models.CheckpointVersion, final.Version)
	assert.Equal(t, report.RunID, final.RunID)
	assert.ElementsMatch(t, []string{good1, good2, nameless}, final.CompletedURLs)
	assert.Equal(t, []string{broken}, final.FailedURLs)
	assert.Equal(t, 2, final.CurrentBatch)
}

func TestRun_Resume(t *testing.T) {
	a, b, c, d := mallURL("a-mall"), mallURL("b-mall"), mallURL("c-mall"), mallURL("d-mall")
	f := &mockFetcher{pages: map[string]string{
		a: mallPage("A Mall"), b: mallPage("B Mall"), c: mallPage("C Mall"), d: mallPage("D Mall"),
	}}
	cps := &memoryCheckpoints{}
	prior := &models.RunCheckpoint{
		Version:       models.CheckpointVersion,
		RunID:         "earlier",
		CompletedURLs: []string{a, b},
	}

	opts := fastOptions()
	opts.ResumeFrom = prior
	report, err := newCrawler(f, cps, nil).Run(context.Background(), []string{a, b, c, d}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{c, d}, f.called())
	assert.Equal(t, 2, report.SkippedURLs)
	assert.Equal(t, 2, report.Stats.Processed)

	final := cps.saved[len(cps.saved)-1]
	assert.ElementsMatch(t, []string{a, b, c, d}, final.CompletedURLs, "prior completions carry forward")
}

type countingProgress struct{ n int }

func (p *countingProgress) Add(n int) error { p.n += n; return nil }

func TestPending(t *testing.T) {
	a, b, c := mallURL("a-mall"), mallURL("b-mall"), mallURL("c-mall")
	urls := []string{a, b, c}

	assert.Equal(t, urls, Pending(urls, nil))
	cp := &models.RunCheckpoint{CompletedURLs: []string{b, mallURL("gone-mall")}}
	assert.Equal(t, []string{a, c}, Pending(urls, cp))
}

func TestRun_ResumeProgressMatchesPending(t *testing.T) {
	a, b, c := mallURL("a-mall"), mallURL("b-mall"), mallURL("c-mall")
	f := &mockFetcher{pages: map[string]string{a: mallPage("A Mall"), b: mallPage("B Mall"), c: mallPage("C Mall")}}
	cp := &models.RunCheckpoint{Version: models.CheckpointVersion, CompletedURLs: []string{a, mallURL("gone-mall")}}
	urls := []string{a, b, c}

	progress := &countingProgress{}
	opts := fastOptions()
	opts.ResumeFrom = cp
	opts.Progress = progress
	_, err := newCrawler(f, &memoryCheckpoints{}, nil).Run(context.Background(), urls, opts)
	require.NoError(t, err)

	assert.Equal(t, len(Pending(urls, cp)), progress.n)
	assert.Equal(t, 2, progress.n)
}

func TestRun_ResumeRetriesFailed(t *testing.T) {
	a, b := mallURL("a-mall"), mallURL("b-mall")
	f := &mockFetcher{pages: map[string]string{a: mallPage("A Mall"), b: mallPage("B Mall")}}
	cps := &memoryCheckpoints{}

	opts := fastOptions()
	opts.ResumeFrom = &models.RunCheckpoint{Version: models.CheckpointVersion, CompletedURLs: []string{a}, FailedURLs: []string{b}}
	_, err := newCrawler(f, cps, nil).Run(context.Background(), []string{a, b}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{b}, f.called())
	final := cps.saved[len(cps.saved)-1]
	assert.Empty(t, final.FailedURLs)
	assert.ElementsMatch(t, []string{a, b}, final.CompletedURLs)
}

func TestRun_Pacing(t *testing.T) {
	if testing.Short() {
		t.Skip("pacing test sleeps for several seconds")
	}
	urls := []string{mallURL("a-mall"), mallURL("b-mall"), mallURL("c-mall")}
	f := &mockFetcher{pages: map[string]string{}}

	start := time.Now()
	_, err := newCrawler(f, nil, nil).Run(context.Background(), urls, Options{
		Concurrency:       1,
		RequestsPerMinute: 30,
		BatchSize:         10,
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 4*time.Second)
	require.Len(t, f.starts, 3)
	assert.GreaterOrEqual(t, f.starts[1].Sub(f.starts[0]), 2*time.Second)
	assert.GreaterOrEqual(t, f.starts[2].Sub(f.starts[1]), 2*time.Second)
}

func TestRun_EmptyInput(t *testing.T) {
	f := &mockFetcher{}
	sink := &memorySink{}
	report, err := newCrawler(f, nil, sink).Run(context.Background(), nil, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, models.StateDone, report.State)
	assert.Zero(t, report.Stats.Processed)
	assert.Zero(t, report.Batches)
	assert.Empty(t, f.called())
	assert.Empty(t, sink.stored)
	assert.Nil(t, report.Storage)
}

func TestRun_AllFailuresDoNotAbort(t *testing.T) {
	f := &mockFetcher{pages: map[string]string{}}
	urls := []string{mallURL("a"), mallURL("b"), mallURL("c"), mallURL("d")}
	report, err := newCrawler(f, nil, &memorySink{}).Run(context.Background(), urls, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, models.StateDone, report.State)
	assert.Equal(t, 2, report.BatchesDone)
	assert.Equal(t, 4, report.Stats.Failed)
	assert.Zero(t, report.SuccessRate)
	assert.Len(t, f.called(), 4)
}

func TestRun_InvalidOptions(t *testing.T) {
	f := &mockFetcher{}
	c := newCrawler(f, nil, nil)
	for name, opts := range map[string]Options{
		"concurrency": {Concurrency: 0, RequestsPerMinute: 30, BatchSize: 1},
		"rate":        {Concurrency: 1, RequestsPerMinute: -1, BatchSize: 1},
		"batch":       {Concurrency: 1, RequestsPerMinute: 30, BatchSize: 0},
		"checkpoint":  {Concurrency: 1, RequestsPerMinute: 30, BatchSize: 1, CheckpointEvery: -2},
		"format":      {Concurrency: 1, RequestsPerMinute: 30, BatchSize: 1, Format: "xml"},
	} {
		report, err := c.Run(context.Background(), []string{mallURL("a")}, opts)
		require.Error(t, err, name)
		assert.True(t, engine.IsConfiguration(err), name)
		assert.Nil(t, report, name)
	}
	assert.Empty(t, f.called())
}

func TestRun_CheckpointCadence(t *testing.T) {
	var urls []string
	pages := map[string]string{}
	for i := 0; i < 5; i++ {
		u := mallURL(fmt.Sprintf("mall-%d", i))
		urls = append(urls, u)
		pages[u] = mallPage(fmt.Sprintf("Mall Number %d", i))
	}
	cps := &memoryCheckpoints{}
	opts := fastOptions()
	opts.BatchSize = 1
	opts.CheckpointEvery = 2

	report, err := newCrawler(&mockFetcher{pages: pages}, cps, nil).Run(context.Background(), urls, opts)
	require.NoError(t, err)

	require.Len(t, cps.saved, 3)
	assert.Equal(t, 2, cps.saved[0].CurrentBatch)
	assert.Len(t, cps.saved[0].CompletedURLs, 2)
	assert.Equal(t, 4, cps.saved[1].CurrentBatch)
	assert.Equal(t, 5, cps.saved[2].CurrentBatch)
	assert.Equal(t, 5, cps.saved[2].TotalBatches)
	assert.Equal(t, 3, report.CheckpointsWritten)
}

func TestRun_Interrupted(t *testing.T) {
	pages := map[string]string{mallURL("a"): mallPage("A Mall"), mallURL("b"): mallPage("B Mall")}
	f := &mockFetcher{pages: pages, delay: 200 * time.Millisecond}
	cps := &memoryCheckpoints{}
	sink := &memorySink{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := newCrawler(f, cps, sink).Run(ctx, []string{mallURL("a"), mallURL("b")}, fastOptions())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, report)
	assert.Equal(t, models.StateInterrupted, report.State)
	assert.Zero(t, report.Stats.Processed, "in-flight URLs are neither completed nor failed")
	assert.Empty(t, cps.saved)
	assert.Empty(t, sink.stored)
}

func TestRun_SinkFailure(t *testing.T) {
	u := mallURL("alpha-mall")
	f := &mockFetcher{pages: map[string]string{u: mallPage("Alpha Mall")}}
	sink := &memorySink{err: errors.New("disk full")}

	report, err := newCrawler(f, nil, sink).Run(context.Background(), []string{u}, fastOptions())
	require.Error(t, err)
	assert.True(t, engine.IsPersistence(err))
	require.NotNil(t, report)
	assert.Len(t, report.Records, 1, "records stay available after a sink failure")
	require.NotNil(t, report.Storage)
	assert.False(t, report.Storage.Success)
}

func TestRun_DeduplicatesAcrossBatches(t *testing.T) {
	u := mallURL("alpha-mall")
	f := &mockFetcher{pages: map[string]string{u: mallPage("Alpha Mall")}}
	opts := fastOptions()
	opts.BatchSize = 1

	report, err := newCrawler(f, nil, nil).Run(context.Background(), []string{u, u}, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Succeeded)
	assert.Len(t, report.Records, 1)
	assert.Equal(t, 1, report.DuplicatesRemoved)
}

func TestPartition(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e"}
	batches := Partition(urls, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"e"}, batches[2])
	assert.Len(t, Partition(urls, 5), 1)
	assert.Nil(t, Partition(nil, 3))
}

func TestCompleteness(t *testing.T) {
	records := []models.ValidatedRecord{
		{Country: "Qatar", Latitude: models.Ptr(1.0), Longitude: models.Ptr(2.0)},
		{Country: "Oman"},
	}
	c := Completeness(records)
	assert.InDelta(t, 100.0, c[fieldCountry], 1e-9)
	assert.InDelta(t, 50.0, c[fieldCoordinates], 1e-9)
	assert.Zero(t, c[fieldCity])
}

func TestOptimalConcurrency(t *testing.T) {
	n := OptimalConcurrency(false)
	assert.Positive(t, n)
	assert.LessOrEqual(t, n, maxAutoConcurrency)
	assert.Positive(t, OptimalConcurrency(true))
}
