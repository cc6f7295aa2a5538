// internal/engine/batch/crawler.go
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/engine/extract"
	"github.com/law-makers/mallcrawl/internal/engine/process"
	"github.com/law-makers/mallcrawl/internal/ratelimit"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// DefaultCheckpointEvery is the checkpoint cadence, in batches, when
// Options.CheckpointEvery is zero.
const DefaultCheckpointEvery = 10

// CheckpointStore persists run snapshots.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp *models.RunCheckpoint) (string, error)
}

// Sink persists validated records in a given format.
type Sink interface {
	Store(ctx context.Context, records []models.ValidatedRecord, format models.OutputFormat) (*models.StoreResult, error)
}

// Progress receives the number of URLs finished after each batch.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
}

// Options control one crawl run.
type Options struct {
	Concurrency       int
	RequestsPerMinute int
	BatchSize         int
	// CheckpointEvery writes a checkpoint after this many batches. Zero
	// means DefaultCheckpointEvery.
	CheckpointEvery int
	// ResumeFrom skips URLs the checkpoint lists as completed.
	ResumeFrom *models.RunCheckpoint
	// Format selects the sink output. Empty skips storage.
	Format   models.OutputFormat
	Progress Progress
}

func (o *Options) validate() error {
	if o.Concurrency <= 0 {
		return engine.ConfigurationError(fmt.Sprintf("concurrency must be positive, got %d", o.Concurrency))
	}
	if o.RequestsPerMinute <= 0 {
		return engine.ConfigurationError(fmt.Sprintf("requests per minute must be positive, got %d", o.RequestsPerMinute))
	}
	if o.BatchSize <= 0 {
		return engine.ConfigurationError(fmt.Sprintf("batch size must be positive, got %d", o.BatchSize))
	}
	if o.CheckpointEvery < 0 {
		return engine.ConfigurationError(fmt.Sprintf("checkpoint interval must not be negative, got %d", o.CheckpointEvery))
	}
	if o.CheckpointEvery == 0 {
		o.CheckpointEvery = DefaultCheckpointEvery
	}
	if o.Format != "" {
		if _, ok := models.ParseOutputFormat(string(o.Format)); !ok {
			return engine.ConfigurationError(fmt.Sprintf("unknown output format %q", o.Format))
		}
	}
	return nil
}

// Crawler turns a list of detail-page URLs into validated records. It
// holds no per-run state, so one Crawler can serve consecutive runs.
type Crawler struct {
	fetcher     engine.Fetcher
	extractor   *extract.Extractor
	processor   *process.Processor
	checkpoints CheckpointStore
	sink        Sink
}

// New creates a Crawler. checkpoints and sink may be nil.
func New(f engine.Fetcher, e *extract.Extractor, p *process.Processor, checkpoints CheckpointStore, sink Sink) *Crawler {
	return &Crawler{
		fetcher:     f,
		extractor:   e,
		processor:   p,
		checkpoints: checkpoints,
		sink:        sink,
	}
}

// Partition splits urls into consecutive batches of at most size.
func Partition(urls []string, size int) [][]string {
	if size <= 0 || len(urls) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(urls)+size-1)/size)
	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		batches = append(batches, urls[start:end])
	}
	return batches
}

// Run crawls urls in sequential batches. Fetch failures and validation
// rejections are recorded as outcomes and never abort the run. A sink
// failure is returned as a persistence error alongside the full report. If
// ctx is cancelled, Run returns the partial report and ctx.Err() without
// writing a checkpoint or storing records.
func (c *Crawler) Run(ctx context.Context, urls []string, opts Options) (*models.RunReport, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	run := newRunState(uuid.NewString(), len(urls))
	report := run.report
	logger := log.With().Str("run_id", report.RunID).Logger()

	if opts.ResumeFrom != nil {
		report.State = models.StateResume
		urls = run.resume(opts.ResumeFrom, urls)
		logger.Info().
			Str("from_run", opts.ResumeFrom.RunID).
			Int("skipped", report.SkippedURLs).
			Int("remaining", len(urls)).
			Msg("Resuming from checkpoint")
	}

	batches := Partition(urls, opts.BatchSize)
	report.Batches = len(batches)

	pacer := ratelimit.NewPacer(opts.RequestsPerMinute)
	gate := semaphore.NewWeighted(int64(opts.Concurrency))

	for i, batch := range batches {
		report.State = models.StateProcessing
		logger.Debug().Int("batch", i+1).Int("of", len(batches)).Int("urls", len(batch)).Msg("Processing batch")

		outcomes, err := c.runBatch(ctx, batch, gate, pacer)
		if err != nil {
			return run.interrupt(), err
		}
		run.absorb(outcomes)
		report.BatchesDone = i + 1

		if opts.Progress != nil {
			_ = opts.Progress.Add(len(batch))
		}

		if (i+1)%opts.CheckpointEvery == 0 && i+1 < len(batches) {
			c.writeCheckpoint(ctx, run, i+1)
		}
	}

	report.State = models.StateFinalizing
	run.finalize()
	c.writeCheckpoint(ctx, run, len(batches))

	if err := c.store(ctx, report, opts.Format); err != nil {
		run.done()
		return report, err
	}

	run.done()
	logger.Info().
		Int("processed", report.Stats.Processed).
		Int("succeeded", report.Stats.Succeeded).
		Int("failed", report.Stats.Failed).
		Int("rejected", report.Stats.Rejected).
		Dur("duration", report.Duration).
		Msg("Crawl finished")
	return report, nil
}

// runBatch processes one batch with bounded concurrency. Outcomes are
// stored by dispatch index. A cancelled context discards the whole batch.
func (c *Crawler) runBatch(ctx context.Context, urls []string, gate *semaphore.Weighted, pacer *ratelimit.Pacer) ([]models.Outcome, error) {
	outcomes := make([]models.Outcome, len(urls))
	var wg sync.WaitGroup

	for i, u := range urls {
		if err := gate.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer gate.Release(1)

			if err := pacer.AwaitSlot(ctx); err != nil {
				return
			}
			outcomes[i] = c.processURL(ctx, u)
		}(i, u)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// processURL runs fetch, extract and validate for one URL.
func (c *Crawler) processURL(ctx context.Context, u string) models.Outcome {
	start := time.Now()
	res := c.fetcher.Fetch(ctx, u)
	latency := res.Elapsed
	if latency == 0 {
		latency = time.Since(start)
	}

	out := models.Outcome{URL: u, StatusCode: res.StatusCode, Latency: latency}
	if !res.Success {
		out.Kind = models.OutcomeFailed
		out.Error = res.Error
		log.Debug().Str("url", u).Str("error", res.Error).Msg("Fetch failed")
		return out
	}

	page := res.Page()
	fields := c.extractor.Extract(page.Markup, u)
	out.Fields = &fields

	result := c.processor.Process([]models.ExtractedFields{fields})
	switch {
	case len(result.Valid) == 1:
		out.Kind = models.OutcomeSuccess
		out.Record = &result.Valid[0]
	case len(result.Invalid) == 1:
		out.Kind = models.OutcomeRejected
		out.Rejection = &result.Invalid[0]
		out.Error = result.Invalid[0].Reason
		log.Debug().Str("url", u).Str("reason", out.Error).Msg("Record rejected")
	}
	return out
}

func (c *Crawler) writeCheckpoint(ctx context.Context, run *runState, batchIndex int) {
	if c.checkpoints == nil {
		return
	}
	cp := run.checkpoint(batchIndex)
	path, err := c.checkpoints.SaveCheckpoint(ctx, cp)
	if err != nil {
		log.Warn().Err(err).Str("run_id", cp.RunID).Msg("Failed to write checkpoint")
		return
	}
	run.report.CheckpointsWritten++
	log.Debug().Str("path", path).Int("batch", batchIndex).Msg("Checkpoint written")
}

func (c *Crawler) store(ctx context.Context, report *models.RunReport, format models.OutputFormat) error {
	if c.sink == nil || format == "" {
		return nil
	}
	if len(report.Records) == 0 {
		log.Info().Msg("No records to store")
		return nil
	}

	result, err := c.sink.Store(ctx, report.Records, format)
	report.Storage = result
	if err != nil {
		var ee *engine.EngineError
		if errors.As(err, &ee) && ee.Code == engine.ErrCodePersistence {
			return err
		}
		return engine.PersistenceError(fmt.Sprintf("store %d records as %s", len(report.Records), format), err)
	}
	return nil
}
