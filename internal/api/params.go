package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"news_ingest/internal/domain"
)

const dateOnly = "2006-01-02"

func filterFromQuery(c *gin.Context) (domain.Filter, error) {
	f := domain.Filter{
		Country:  strings.TrimSpace(c.Query("country")),
		Source:   strings.TrimSpace(c.Query("source")),
		Language: strings.TrimSpace(c.Query("language")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}

	from, err := parseBound(c.Query("date_from"), "date_from", false)
	if err != nil {
		return f, err
	}
	until, err := parseBound(c.Query("date_to"), "date_to", true)
	if err != nil {
		return f, err
	}
	f.Dates = domain.DateRange{From: from, Until: until}
	return f, nil
}

// parseBound accepts RFC 3339 timestamps or bare dates. A bare date_to
// covers the whole day, so it becomes midnight of the following day.
func parseBound(raw, name string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.InvalidFilter("%s must be YYYY-MM-DD or RFC 3339, got %q", name, raw)
	}
	t = t.UTC()
	return &t, nil
}

func sortFromQuery(c *gin.Context) domain.Sort {
	return domain.Sort{
		Field: domain.SortField(c.DefaultQuery("sort_by", string(domain.DefaultSort.Field))),
		Order: domain.SortOrder(c.DefaultQuery("sort_order", string(domain.DefaultSort.Order))),
	}
}

func (s *Server) pageFromQuery(c *gin.Context) (domain.Page, error) {
	limit, err := intParam(c, "limit", 0)
	if err != nil {
		return domain.Page{}, err
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		return domain.Page{}, err
	}
	if offset < 0 {
		return domain.Page{}, domain.InvalidFilter("offset must not be negative, got %d", offset)
	}
	return domain.Page{Limit: s.clampLimit(limit), Offset: offset}, nil
}

func (s *Server) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.limits.DefaultLimit
	}
	if s.limits.MaxLimit > 0 && limit > s.limits.MaxLimit {
		limit = s.limits.MaxLimit
	}
	return limit
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidFilter("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"current_page"`
}

func newPagination(total int, page domain.Page) Pagination {
	p := Pagination{Total: total, Limit: page.Limit, Offset: page.Offset}
	if page.Limit > 0 {
		p.Pages = (total + page.Limit - 1) / page.Limit
		p.CurrentPage = page.Offset/page.Limit + 1
	}
	return p
}
