package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/nao1215/leadscan/internal/model"
)

func TestAggregator(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(50)
	start := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	agg.Start(start)

	var wg sync.WaitGroup
	for i := 50; i >= 1; i-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := model.NewSiteRecord(i, "https://example.com")
			if i%5 == 0 {
				r.Fail("timeout")
			} else {
				r.Succeed()
				r.Emails = []string{"a@example.com"}
			}
			agg.Add(r)
		}()
	}
	wg.Wait()

	stats := agg.Finish(start.Add(3 * time.Second))
	if stats.Elapsed != 3*time.Second {
		t.Errorf("expected elapsed 3s, got %v", stats.Elapsed)
	}
	if stats.Processed != 50 || stats.Errors != 10 || stats.Success != 40 || stats.TotalEmails != 40 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	results := agg.Results()
	for i, r := range results {
		if r.Index != i+1 {
			t.Fatalf("position %d: expected index %d, got %d", i, i+1, r.Index)
		}
	}
	if agg.Stats() != stats {
		t.Errorf("expected Stats to match Finish, got %+v", agg.Stats())
	}
}
