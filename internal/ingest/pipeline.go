// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/gamescout/internal/catalog"
	"github.com/tomtom215/gamescout/internal/logging"
	"github.com/tomtom215/gamescout/internal/metrics"
	"github.com/tomtom215/gamescout/internal/models"
	"github.com/tomtom215/gamescout/internal/steamapi"
)

// Options tunes a Pipeline run.
type Options struct {
	Workers          int
	ProgressEvery    int
	ReviewCount      int
	RequireReviews   bool
	AbortOnForbidden bool

	// Resume skips identifiers the progress ledger marks as finished.
	// Without it the ledger is cleared at start.
	Resume bool

	// BreakerWait is how long a worker waits before retrying an item that
	// hit an open circuit. 0 disables the retry.
	BreakerWait time.Duration

	// FinalizeTimeout bounds the final write, which runs even after
	// cancellation.
	FinalizeTimeout time.Duration
}

// Pipeline drives enumeration, fetching and collection for one crawl.
type Pipeline struct {
	enum      catalog.Enumerator
	fetcher   *Fetcher
	collector *Collector
	progress  ProgressTracker
	opts      Options

	// collected holds the ids present when a resumed run started. Workers
	// only read it.
	collected map[models.AppID]bool

	mu    sync.RWMutex
	stats *RunStats
}

// NewPipeline wires a crawl. progress may be nil.
func NewPipeline(enum catalog.Enumerator, fetcher *Fetcher, collector *Collector, progress ProgressTracker, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.FinalizeTimeout <= 0 {
		opts.FinalizeTimeout = 2 * time.Minute
	}
	return &Pipeline{
		enum:      enum,
		fetcher:   fetcher,
		collector: collector,
		progress:  progress,
		opts:      opts,
	}
}

// result is one worker outcome, applied by the ordering goroutine.
type result struct {
	ref     models.AppRef
	app     models.AppRecord
	reviews []models.ReviewRecord
	counts  FilterCounts
	resumed bool
	err     error
}

type outcomeMark struct {
	id      models.AppID
	outcome Outcome
}

// Run crawls every enumerated identifier. Results are applied in
// enumeration order regardless of worker count. The collection is finalized
// on every exit path. A fatal error (forbidden access, unusable catalog)
// stops the run and is returned together with the statistics gathered.
func (p *Pipeline) Run(ctx context.Context) (out *RunStats, err error) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.GenerateRunID()
		ctx = logging.ContextWithRunID(ctx, runID)
	}
	log := logging.Ctx(ctx)

	stats := newRunStats(runID)
	p.mu.Lock()
	p.stats = stats
	p.mu.Unlock()

	if p.progress != nil && !p.opts.Resume {
		if err := p.progress.Clear(ctx); err != nil {
			return p.Stats(), fmt.Errorf("clear progress ledger: %w", err)
		}
	}
	if p.progress != nil && p.opts.Resume {
		p.collected = p.collector.IDs()
		p.loadPrevious(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pending []outcomeMark
	defer func() {
		fctx, fcancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.FinalizeTimeout)
		defer fcancel()

		ferr := p.collector.Finalize(fctx)
		if ferr == nil {
			p.flushOutcomes(fctx, pending)
		}
		p.mu.Lock()
		stats.EndTime = time.Now()
		stats.Checkpoints = int64(p.collector.Writes())
		p.mu.Unlock()
		p.saveStats(fctx)

		if ferr != nil {
			log.Error().Err(ferr).Msg("Final write failed")
			if err == nil {
				err = ferr
			}
		}
		log.Info().
			Int64("processed", stats.Processed).
			Int64("accepted", stats.Accepted).
			Int64("filtered", stats.Filtered).
			Int64("errors", stats.Errors).
			Int64("resumed", stats.Resumed).
			Int64("reviews", stats.ReviewsKept).
			Int64("checkpoints", stats.Checkpoints).
			Dur("duration", stats.Duration()).
			Bool("aborted", stats.Aborted).
			Msg("Crawl finished")
		out = p.Stats()
	}()

	jobs := make(chan models.AppRef, p.opts.Workers)
	results := make(chan result, p.opts.Workers)

	var enumErr error
	var enumWG sync.WaitGroup
	enumWG.Add(1)
	go func() {
		defer enumWG.Done()
		defer close(jobs)
		enumErr = p.enum.Enumerate(runCtx, func(ref models.AppRef) error {
			p.mu.Lock()
			stats.Enumerated++
			p.mu.Unlock()
			select {
			case jobs <- ref:
				return nil
			case <-runCtx.Done():
				return runCtx.Err()
			}
		})
	}()

	var workers sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for ref := range jobs {
				res := p.process(runCtx, ref)
				select {
				case results <- res:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	log.Info().Int("workers", p.opts.Workers).Bool("resume", p.opts.Resume).Msg("Crawl started")

	var fatal error
	buffered := make(map[int]result)
	next := 0
	for res := range results {
		if fatal != nil || runCtx.Err() != nil {
			continue // drain
		}
		buffered[res.ref.Index] = res
		for {
			r, ok := buffered[next]
			if !ok {
				break
			}
			delete(buffered, next)
			next++

			mark, stop := p.apply(runCtx, r)
			if stop != nil {
				fatal = stop
				cancel()
				break
			}
			if mark != nil {
				pending = append(pending, *mark)
			}
			p.afterItem(runCtx, &pending)
		}
	}
	enumWG.Wait()

	switch {
	case fatal != nil:
		p.abort(fatal)
		return p.Stats(), fatal
	case enumErr != nil && ctx.Err() == nil:
		fatal = fmt.Errorf("enumerate catalog: %w", enumErr)
		p.abort(fatal)
		return p.Stats(), fatal
	case ctx.Err() != nil:
		log.Warn().Msg("Crawl interrupted, finalizing collected data")
		return p.Stats(), ctx.Err()
	}
	return p.Stats(), nil
}

func (p *Pipeline) abort(err error) {
	p.mu.Lock()
	p.stats.Aborted = true
	p.mu.Unlock()
	logging.Error().Err(err).Msg("Crawl aborted")
}

// loadPrevious links a resumed run to the run it continues.
func (p *Pipeline) loadPrevious(ctx context.Context) {
	prev, err := p.progress.LoadStats(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load previous crawl statistics")
		return
	}
	if prev == nil {
		return
	}
	p.mu.Lock()
	p.stats.ResumedFrom = prev.RunID
	p.mu.Unlock()
	logging.Info().
		Str("previous_run_id", prev.RunID).
		Int64("previous_processed", prev.Processed).
		Int64("previous_accepted", prev.Accepted).
		Int("carried_over", len(p.collected)).
		Msg("Resuming crawl")
}

// process fetches one identifier on a worker goroutine.
func (p *Pipeline) process(ctx context.Context, ref models.AppRef) result {
	if p.opts.Resume && p.progress != nil {
		outcome, ok, err := p.progress.Outcome(ctx, ref.ID)
		if err != nil {
			logging.Warn().Err(err).Int64("app_id", int64(ref.ID)).Msg("Progress lookup failed")
		} else if ok && outcome.Done() && (outcome != OutcomeAccepted || p.collected[ref.ID]) {
			// an accepted id is only finished if its record was carried over
			return result{ref: ref, resumed: true}
		}
	}

	res := p.fetchOne(ctx, ref)
	if errors.Is(res.err, steamapi.ErrCircuitOpen) && p.opts.BreakerWait > 0 {
		logging.Warn().
			Int64("app_id", int64(ref.ID)).
			Dur("wait", p.opts.BreakerWait).
			Msg("Circuit open, waiting before retry")
		if err := steamapi.Sleep(ctx, p.opts.BreakerWait); err != nil {
			return result{ref: ref, err: err}
		}
		res = p.fetchOne(ctx, ref)
	}
	return res
}

func (p *Pipeline) fetchOne(ctx context.Context, ref models.AppRef) result {
	res := result{ref: ref}
	res.app, res.err = p.fetcher.FetchDetail(ctx, ref)
	if res.err != nil {
		return res
	}
	res.reviews, res.counts, res.err = p.fetcher.FetchReviews(ctx, ref.ID, p.opts.ReviewCount)
	if res.err != nil {
		res.err = fmt.Errorf("reviews for %d: %w", ref.ID, res.err)
		return res
	}
	if p.opts.RequireReviews && len(res.reviews) == 0 {
		res.err = skip(ref.ID, SkipNoReviews)
	}
	return res
}

// isFatal reports errors that end the run.
func (p *Pipeline) isFatal(err error) bool {
	if errors.Is(err, steamapi.ErrEmptyOrMalformedCatalog) {
		return true
	}
	return p.opts.AbortOnForbidden && errors.Is(err, steamapi.ErrForbidden)
}

// apply records one result in order. It returns the ledger mark to persist
// at the next write, or a non-nil error when the run must stop.
func (p *Pipeline) apply(ctx context.Context, r result) (*outcomeMark, error) {
	if r.err != nil && ctx.Err() != nil && (errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded)) {
		return nil, r.err
	}
	if r.err != nil && p.isFatal(r.err) {
		return nil, r.err
	}

	log := logging.Ctx(ctx).With().Int64("app_id", int64(r.ref.ID)).Logger()

	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Processed++
	s.LastProcessedID = r.ref.ID
	s.ReviewsFiltered += int64(r.counts.Total())

	var outcome Outcome
	switch {
	case r.resumed:
		s.Resumed++
		metrics.ItemsProcessed.WithLabelValues("resumed").Inc()
	case r.err == nil:
		p.collector.Accumulate(r.app, r.reviews)
		s.Accepted++
		s.ReviewsKept += int64(len(r.reviews))
		outcome = OutcomeAccepted
		metrics.ItemsProcessed.WithLabelValues("accepted").Inc()
		log.Debug().Str("name", r.app.Name).Int("reviews", len(r.reviews)).Msg("App accepted")
	case errors.Is(r.err, ErrSkip):
		reason := SkipReasonOf(r.err)
		s.Filtered++
		s.FilteredBy[reason]++
		outcome = OutcomeFiltered
		metrics.ItemsProcessed.WithLabelValues("filtered").Inc()
		metrics.ItemsFiltered.WithLabelValues(string(reason)).Inc()
		log.Debug().Str("reason", string(reason)).Msg("App filtered")
	default:
		s.Errors++
		outcome = OutcomeError
		metrics.ItemsProcessed.WithLabelValues("error").Inc()
		log.Warn().Err(r.err).Msg("App skipped after error")
	}
	p.collector.MarkProcessed()

	if outcome == "" {
		return nil, nil
	}
	return &outcomeMark{id: r.ref.ID, outcome: outcome}, nil
}

// afterItem logs progress and writes checkpoints on their cadence.
func (p *Pipeline) afterItem(ctx context.Context, pending *[]outcomeMark) {
	stats := p.Stats()

	if p.opts.ProgressEvery > 0 && stats.Processed%int64(p.opts.ProgressEvery) == 0 {
		logging.Ctx(ctx).Info().
			Int64("processed", stats.Processed).
			Int64("enumerated", stats.Enumerated).
			Int64("accepted", stats.Accepted).
			Int64("filtered", stats.Filtered).
			Int64("errors", stats.Errors).
			Int("collected", p.collector.Len()).
			Float64("items_per_second", stats.ItemsPerSecond()).
			Msg("Crawl progress")
	}

	if !p.collector.Due() {
		return
	}
	if _, err := p.collector.CheckpointIfDue(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Int64("processed", stats.Processed).Msg("Checkpoint failed")
		return
	}
	p.flushOutcomes(ctx, *pending)
	*pending = (*pending)[:0]

	p.mu.Lock()
	p.stats.Checkpoints = int64(p.collector.Writes())
	p.mu.Unlock()
	p.saveStats(ctx)
}

// flushOutcomes persists ledger marks once the data they describe is on disk.
func (p *Pipeline) flushOutcomes(ctx context.Context, marks []outcomeMark) {
	if p.progress == nil {
		return
	}
	for _, m := range marks {
		if err := p.progress.MarkOutcome(ctx, m.id, m.outcome); err != nil {
			logging.Warn().Err(err).Int64("app_id", int64(m.id)).Msg("Failed to record progress")
			return
		}
	}
}

func (p *Pipeline) saveStats(ctx context.Context) {
	if p.progress == nil {
		return
	}
	if err := p.progress.SaveStats(ctx, p.Stats()); err != nil {
		logging.Warn().Err(err).Msg("Failed to save progress")
	}
}

// Stats returns a copy of the current run statistics.
func (p *Pipeline) Stats() *RunStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stats == nil {
		return &RunStats{}
	}
	return p.stats.Clone()
}
