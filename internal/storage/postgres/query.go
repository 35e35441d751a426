package postgres

import (
	"fmt"
	"strings"

	"news_ingest/internal/domain"
)

// Limits bound page sizes.
type Limits struct {
	Default int
	Max     int
}

var sortColumns = map[domain.SortField]string{
	domain.SortPublishedAt: "published_at",
	domain.SortTitle:       "title",
	domain.SortSource:      "source",
	domain.SortCountry:     "country",
	domain.SortScrapedAt:   "scraped_at",
}

// whereClause renders f as a conjunctive WHERE clause with positional args
// starting at $1. An empty filter renders an empty clause.
func whereClause(f domain.Filter) (string, []any, error) {
	if f.Dates.From != nil && f.Dates.Until != nil && f.Dates.From.After(*f.Dates.Until) {
		return "", nil, domain.InvalidFilter("date_from %s is after date_to %s",
			f.Dates.From.Format("2006-01-02T15:04:05Z07:00"), f.Dates.Until.Format("2006-01-02T15:04:05Z07:00"))
	}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.Country != "" {
		add("country = ?", f.Country)
	}
	if f.Source != "" {
		add("source = ?", f.Source)
	}
	if f.Language != "" {
		add("language = ?", f.Language)
	}
	if f.Dates.From != nil {
		add("published_at >= ?", *f.Dates.From)
	}
	if f.Dates.Until != nil {
		add("published_at < ?", *f.Dates.Until)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		add(`(title ILIKE ? OR summary ILIKE ?)`, likePattern(kw))
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// orderClause always puts nulls last and breaks ties by id ascending.
func orderClause(s domain.Sort) (string, error) {
	if s.Field == "" {
		s.Field = domain.DefaultSort.Field
	}
	if s.Order == "" {
		s.Order = domain.DefaultSort.Order
	}

	col, ok := sortColumns[domain.SortField(strings.ToLower(string(s.Field)))]
	if !ok {
		return "", domain.InvalidFilter("unknown sort field %q", s.Field)
	}

	var dir string
	switch domain.SortOrder(strings.ToLower(string(s.Order))) {
	case domain.SortAsc:
		dir = "ASC"
	case domain.SortDesc:
		dir = "DESC"
	default:
		return "", domain.InvalidFilter("unknown sort order %q", s.Order)
	}

	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id ASC", col, dir), nil
}

func (l Limits) page(p domain.Page) (domain.Page, error) {
	if p.Offset < 0 {
		return p, domain.InvalidFilter("offset must not be negative, got %d", p.Offset)
	}
	if p.Limit <= 0 {
		p.Limit = l.Default
	}
	if l.Max > 0 && p.Limit > l.Max {
		p.Limit = l.Max
	}
	return p, nil
}

func likePattern(kw string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(kw) + "%"
}
