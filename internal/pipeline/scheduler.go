package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/leadscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Scheduler defaults.
const (
	// DefaultConcurrency is the number of sites crawled at once.
	DefaultConcurrency = 3

	// DefaultReleaseDelay is how long a finished crawl keeps its slot.
	DefaultReleaseDelay = 2 * time.Second
)

// ErrNoSeeds is returned when a run is started without seed URLs.
var ErrNoSeeds = errors.New("no seed URLs")

// SiteCrawler crawls one site and returns its finalized record.
// Failures are reported on the record, never as an error.
type SiteCrawler interface {
	CrawlSite(ctx context.Context, index int, seedURL string) *model.SiteRecord
}

// ProgressFunc is called after every finished site with the statistics
// so far. Calls are serialized.
type ProgressFunc func(record *model.SiteRecord, stats model.RunStatistics)

// Scheduler runs site crawls concurrently under a fixed concurrency cap.
//
// Each crawl holds its slot for the whole crawl and for a release delay
// afterwards, which paces the aggregate request rate of the run. Failed
// crawls are not retried.
type Scheduler struct {
	// crawler is shared by all tasks and must be safe for concurrent use.
	crawler SiteCrawler

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// releaseDelay is the time a slot stays taken after its crawl ends.
	releaseDelay time.Duration

	logger   *slog.Logger
	progress ProgressFunc
	now      func() time.Time

	// completeMu serializes completion handling and progress callbacks.
	completeMu sync.Mutex
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithConcurrency sets the maximum number of concurrent crawls.
// Default is 3 if not specified.
func WithConcurrency(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithReleaseDelay sets how long a slot stays taken after a crawl ends.
func WithReleaseDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.releaseDelay = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithProgress sets the callback invoked after every finished site.
func WithProgress(fn ProgressFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.progress = fn
	}
}

// WithSchedulerClock sets the clock used for run timing and skipped records.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler creates a Scheduler around crawler.
func NewScheduler(crawler SiteCrawler, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		crawler:      crawler,
		concurrency:  DefaultConcurrency,
		releaseDelay: DefaultReleaseDelay,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Run crawls every seed and returns the records ordered by seed index,
// with indexes starting at 1.
//
// One failed site never fails the run. When ctx is cancelled, in-flight
// crawls are aborted and sites that have not started are recorded as
// skipped; the partial result is returned together with ctx.Err().
func (s *Scheduler) Run(ctx context.Context, seeds []string, query string) (*model.RunResult, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}

	s.logger.Info("starting crawl",
		"total_sites", len(seeds),
		"concurrency", s.concurrency,
	)

	result := &model.RunResult{
		RunID:     uuid.NewString(),
		Query:     query,
		StartedAt: s.now(),
	}

	agg := NewAggregator(len(seeds))
	agg.Start(result.StartedAt)

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, seed := range seeds {
		index := i + 1
		g.Go(func() error {
			var record *model.SiteRecord
			if ctx.Err() != nil {
				record = model.NewSkippedRecord(index, seed, s.now())
			} else {
				s.logger.Debug("crawling site", "url", seed, "index", index, "total", len(seeds))
				record = s.crawler.CrawlSite(ctx, index, seed)
			}

			s.complete(agg, record)

			if !record.Skipped {
				s.hold(ctx)
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // tasks never return errors

	result.Stats = agg.Finish(s.now())
	result.Records = agg.Results()

	s.logger.Info("crawl complete",
		"total_sites", result.Stats.Total,
		"success", result.Stats.Success,
		"errors", result.Stats.Errors,
		"skipped", result.Stats.Skipped,
		"elapsed", result.Stats.Elapsed,
	)

	return result, ctx.Err()
}

// complete adds record to agg and reports it. Holding completeMu across
// both keeps progress statistics monotonic.
func (s *Scheduler) complete(agg *Aggregator, record *model.SiteRecord) {
	s.completeMu.Lock()
	defer s.completeMu.Unlock()

	stats := agg.Add(record)
	if record.Success {
		s.logger.Info("site completed",
			"index", record.Index,
			"url", record.URL,
			"emails", len(record.Emails),
			"phones", len(record.Phones),
			"social", record.SocialCount(),
		)
	} else {
		s.logger.Warn("site failed",
			"index", record.Index,
			"url", record.URL,
			"reason", record.ErrorReason,
		)
	}

	if s.progress != nil {
		s.progress(record, stats)
	}
}

// hold keeps the caller's slot for the release delay.
func (s *Scheduler) hold(ctx context.Context) {
	if s.releaseDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.releaseDelay):
	}
}
