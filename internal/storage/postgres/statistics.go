package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"news_ingest/internal/domain"
)

const recentActivityDays = 7

func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, "SELECT COUNT(*) FROM articles"); err != nil {
		return 0, storeError("count articles", err)
	}
	return n, nil
}

// Statistics aggregates the corpus from a single snapshot.
func (s *ArticleStore) Statistics(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		ByCountry:      []domain.Count{},
		ByLanguage:     []domain.Count{},
		BySource:       []domain.Count{},
		RecentActivity: []domain.DayCount{},
	}

	err := s.tx.WithSnapshot(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		if err := sqlx.GetContext(ctx, exec, &stats.Total, "SELECT COUNT(*) FROM articles"); err != nil {
			return fmt.Errorf("count articles: %w", err)
		}

		for col, dest := range map[string]*[]domain.Count{
			"country":  &stats.ByCountry,
			"language": &stats.ByLanguage,
			"source":   &stats.BySource,
		} {
			query := fmt.Sprintf(
				"SELECT %[1]s AS key, COUNT(*) AS count FROM articles GROUP BY %[1]s ORDER BY count DESC, key ASC", col)
			if err := sqlx.SelectContext(ctx, exec, dest, query); err != nil {
				return fmt.Errorf("count by %s: %w", col, err)
			}
		}

		since := time.Now().UTC().AddDate(0, 0, -recentActivityDays)
		if err := sqlx.SelectContext(ctx, exec, &stats.RecentActivity, `
			SELECT to_char(published_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS date, COUNT(*) AS count
			FROM articles
			WHERE published_at >= $1
			GROUP BY 1
			ORDER BY 1 DESC`, since); err != nil {
			return fmt.Errorf("recent activity: %w", err)
		}

		var latest *time.Time
		if err := exec.QueryRowxContext(ctx, "SELECT MAX(scraped_at) FROM articles").Scan(&latest); err != nil {
			return fmt.Errorf("latest scrape: %w", err)
		}
		if latest != nil {
			t := latest.UTC()
			stats.LatestScrape = &t
		}
		return nil
	})
	if err != nil {
		return nil, storeError("statistics", err)
	}
	return stats, nil
}

// Countries lists article counts per country, largest first.
func (s *ArticleStore) Countries(ctx context.Context) ([]domain.Count, error) {
	counts := []domain.Count{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &counts,
		"SELECT country AS key, COUNT(*) AS count FROM articles GROUP BY country ORDER BY count DESC, key ASC")
	if err != nil {
		return nil, storeError("list countries", err)
	}
	return counts, nil
}

// Sources lists article counts per source, optionally within one country.
func (s *ArticleStore) Sources(ctx context.Context, country string) ([]domain.SourceCount, error) {
	query := "SELECT source, country, COUNT(*) AS count FROM articles"
	var args []any
	if country != "" {
		query += " WHERE country = $1"
		args = append(args, country)
	}
	query += " GROUP BY source, country ORDER BY count DESC, source ASC"

	counts := []domain.SourceCount{}
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &counts, query, args...); err != nil {
		return nil, storeError("list sources", err)
	}
	return counts, nil
}
