package domain

import "time"

type SortField string

const (
	SortPublishedAt SortField = "published_at"
	SortTitle       SortField = "title"
	SortSource      SortField = "source"
	SortCountry     SortField = "country"
	SortScrapedAt   SortField = "scraped_at"
)

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// DateRange bounds published_at. From is inclusive, Until is exclusive.
// Articles without a published_at never fall inside a range.
type DateRange struct {
	From  *time.Time
	Until *time.Time
}

// Filter is conjunctive; zero-valued fields impose no constraint.
type Filter struct {
	Country  string
	Source   string
	Language string
	Dates    DateRange
	Keyword  string
}

type Sort struct {
	Field SortField
	Order SortOrder
}

// DefaultSort is published_at descending; nulls last and id ascending are always applied.
var DefaultSort = Sort{Field: SortPublishedAt, Order: SortDesc}

type Page struct {
	Limit  int
	Offset int
}

type QueryResult struct {
	Articles []Article
	Total    int
}

type Count struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

type SourceCount struct {
	Source  string `db:"source" json:"source"`
	Country string `db:"country" json:"country"`
	Count   int    `db:"count" json:"count"`
}

type DayCount struct {
	Date  string `db:"date" json:"date"`
	Count int    `db:"count" json:"count"`
}

type Statistics struct {
	Total          int        `json:"total_articles"`
	ByCountry      []Count    `json:"articles_by_country"`
	ByLanguage     []Count    `json:"articles_by_language"`
	BySource       []Count    `json:"articles_by_source"`
	RecentActivity []DayCount `json:"recent_activity"`
	LatestScrape   *time.Time `json:"latest_scrape"`
}
