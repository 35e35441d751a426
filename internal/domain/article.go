package domain

import "time"

// LanguageUnknown is stored when detection cannot decide on a language.
const LanguageUnknown = "unknown"

// CategoryGeneral is used when a feed entry carries no category.
const CategoryGeneral = "general"

// Source is one configured feed endpoint. It is immutable during a run.
type Source struct {
	ID           string
	Country      string
	AgencyName   string
	FeedURL      string
	LanguageHint string
	MinInterval  time.Duration // overrides the dispatcher default when non-zero
}

// RawFeedPayload is what the fetcher hands to the parser.
type RawFeedPayload struct {
	SourceID    string
	Body        []byte
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Elapsed     time.Duration
	Attempts    int
}

// ArticleCandidate is a normalized feed entry that has not been deduplicated yet.
type ArticleCandidate struct {
	Title       string
	URL         string
	PublishedAt *time.Time
	Summary     string
	SourceID    string
	Agency      string
	Country     string
	Language    string
	Category    string
}

type Article struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	URL         string     `db:"url" json:"url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	Source      string     `db:"source" json:"source"`
	Agency      string     `db:"agency" json:"agency"`
	Country     string     `db:"country" json:"country"`
	Summary     string     `db:"summary" json:"summary"`
	Language    string     `db:"language" json:"language"`
	Category    string     `db:"category" json:"category"`
	ContentHash string     `db:"content_hash" json:"content_hash"`
	ScrapedAt   time.Time  `db:"scraped_at" json:"scraped_at"`
}

// SourceState is the per-source bookkeeping row updated after every attempt.
type SourceState struct {
	SourceID            string     `db:"source_id" json:"source_id"`
	LastAttemptAt       time.Time  `db:"last_attempt_at" json:"last_attempt_at"`
	LastSuccessAt       *time.Time `db:"last_success_at" json:"last_success_at"`
	LastError           string     `db:"last_error" json:"last_error"`
	ConsecutiveFailures int        `db:"consecutive_failures" json:"consecutive_failures"`
	TotalAccepted       int64      `db:"total_accepted" json:"total_accepted"`
}
