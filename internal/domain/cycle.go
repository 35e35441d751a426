package domain

import "time"

// SourceResult holds what happened to a single source during one cycle.
type SourceResult struct {
	SourceID      string
	Candidates    int
	Accepted      int
	Rejected      int
	Skipped       int // entries dropped by the parser
	PublishErrors int
	Err           error
	Abandoned     bool
	Duration      time.Duration
}

// Failed reports whether the source counts as failed for the cycle.
func (r SourceResult) Failed() bool {
	return r.Err != nil
}

// CycleStats holds aggregate counters of one ingestion cycle.
type CycleStats struct {
	CycleID            string
	SourcesAttempted   int
	SourcesFailed      int
	CandidatesSeen     int
	ArticlesAccepted   int
	DuplicatesRejected int
	Results            []SourceResult
	Duration           time.Duration
}

// Add folds a completed source result into the totals.
func (s *CycleStats) Add(r SourceResult) {
	s.Results = append(s.Results, r)
	if r.Abandoned {
		return
	}
	s.SourcesAttempted++
	if r.Failed() {
		s.SourcesFailed++
	}
	s.CandidatesSeen += r.Candidates
	s.ArticlesAccepted += r.Accepted
	s.DuplicatesRejected += r.Rejected
}
