package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"news_ingest/internal/dedup"
	"news_ingest/internal/domain"
	"news_ingest/internal/parser"
)

type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) (*domain.RawFeedPayload, error)
}

type Parser interface {
	Parse(payload *domain.RawFeedPayload, src domain.Source) (*parser.Batch, error)
}

type Deduplicator interface {
	Submit(ctx context.Context, candidate domain.ArticleCandidate) (dedup.Decision, error)
}

type SourceStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SourceState, error)
	Update(ctx context.Context, state *domain.SourceState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article) error
	Close() error
}

// StatsInvalidator drops cached statistics after new articles land.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}
