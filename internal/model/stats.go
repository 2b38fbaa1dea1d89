package model

import "time"

// RunStatistics summarizes one crawl run.
type RunStatistics struct {
	// Total is the number of seed URLs in the run.
	Total int `json:"total"`

	// Processed counts finalized records, including skipped ones.
	Processed int `json:"processed"`

	// Success counts sites whose seed page loaded.
	Success int `json:"success"`

	// Errors counts sites that failed, excluding skipped ones.
	Errors int `json:"errors"`

	// Skipped counts sites that never started because the run was cancelled.
	Skipped int `json:"skipped"`

	// TotalEmails is the sum of unique emails over all sites.
	TotalEmails int `json:"total_emails"`

	// TotalPhones is the sum of unique phones over all sites.
	TotalPhones int `json:"total_phones"`

	// TotalSocial is the number of platform links found over all sites.
	TotalSocial int `json:"total_social"`

	// Elapsed is the wall-clock time from dispatch to completion.
	Elapsed time.Duration `json:"elapsed"`
}

// Add folds one finalized record into the statistics.
func (s *RunStatistics) Add(r *SiteRecord) {
	s.Processed++
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Success:
		s.Success++
		s.TotalEmails += len(r.Emails)
		s.TotalPhones += len(r.Phones)
		s.TotalSocial += r.SocialCount()
	default:
		s.Errors++
	}
}

// RunResult is the complete output of one run.
type RunResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Query is a free-form label for the run (search query or list name).
	Query string `json:"query,omitempty"`

	// StartedAt is when dispatch began.
	StartedAt time.Time `json:"started_at"`

	// Records are ordered by Index ascending.
	Records []*SiteRecord `json:"records"`

	// Stats are the aggregate counters for the run.
	Stats RunStatistics `json:"stats"`
}
