package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"news_ingest/internal/domain"
)

type ArticleReader interface {
	Get(ctx context.Context, id int64) (*domain.Article, error)
	Query(ctx context.Context, f domain.Filter, sort domain.Sort, page domain.Page) (*domain.QueryResult, error)
	Search(ctx context.Context, keyword string, limit int) ([]domain.Article, error)
	Countries(ctx context.Context) ([]domain.Count, error)
	Sources(ctx context.Context, country string) ([]domain.SourceCount, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	EachArticle(ctx context.Context, fn func(domain.Article) error) error
}

// StatisticsReader is the store or the Redis cache in front of it.
type StatisticsReader interface {
	Statistics(ctx context.Context) (*domain.Statistics, error)
}

type FeedStateReader interface {
	List(ctx context.Context) ([]domain.SourceState, error)
}
