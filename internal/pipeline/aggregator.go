package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/nao1215/leadscan/internal/model"
)

// Aggregator collects finalized records from concurrent crawls and keeps
// the run statistics. It is safe for concurrent use.
type Aggregator struct {
	mu      sync.Mutex
	records []*model.SiteRecord
	stats   model.RunStatistics
	started time.Time
}

// NewAggregator creates an Aggregator for a run of total seeds.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{
		records: make([]*model.SiteRecord, 0, total),
		stats:   model.RunStatistics{Total: total},
	}
}

// Start marks the beginning of dispatch.
func (a *Aggregator) Start(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = now
}

// Add stores a record in completion order and returns the statistics
// including it.
func (a *Aggregator) Add(record *model.SiteRecord) model.RunStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append(a.records, record)
	a.stats.Add(record)
	return a.stats
}

// Finish records the elapsed wall-clock time of the run.
func (a *Aggregator) Finish(now time.Time) model.RunStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started.IsZero() {
		a.stats.Elapsed = now.Sub(a.started)
	}
	return a.stats
}

// Results returns the records ordered by seed index.
func (a *Aggregator) Results() []*model.SiteRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]*model.SiteRecord, len(a.records))
	copy(results, a.records)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return results
}

// Stats returns a snapshot of the statistics.
func (a *Aggregator) Stats() model.RunStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
