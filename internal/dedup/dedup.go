// Package dedup decides whether a candidate is a new article or a repeat.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"news_ingest/internal/domain"
)

const stripes = 256

// Inserter persists an article unless its content_hash already exists, in
// which case it reports the existing id with inserted == false.
type Inserter interface {
	Insert(ctx context.Context, article *domain.Article) (id int64, inserted bool, err error)
}

type Config struct {
	StoreRetries int
	RetryBackoff time.Duration
}

// Decision is the outcome for one candidate.
type Decision struct {
	Accepted    bool
	Article     domain.Article // set when Accepted
	DuplicateOf int64          // set when rejected
}

type Deduplicator struct {
	store        Inserter
	index        Index
	storeRetries int
	retryBackoff time.Duration
	locks        [stripes]sync.Mutex
	now          func() time.Time
	logger       *slog.Logger
}

// New creates a deduplicator. A nil index is replaced by an empty MemoryIndex.
func New(store Inserter, index Index, cfg Config, logger *slog.Logger) *Deduplicator {
	if index == nil {
		index = NewMemoryIndex()
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return &Deduplicator{
		store:        store,
		index:        index,
		storeRetries: cfg.StoreRetries,
		retryBackoff: cfg.RetryBackoff,
		now:          time.Now,
		logger:       logger.With("component", "dedup"),
	}
}

// Submit accepts c if no article with the same content hash exists yet.
// Concurrent submissions of one hash are serialized, so exactly one of them
// is accepted and every other one is rejected with the winner's id.
func (d *Deduplicator) Submit(ctx context.Context, c domain.ArticleCandidate) (Decision, error) {
	hash := ContentHash(c.Title, c.URL)

	mu := d.lock(hash)
	mu.Lock()
	defer mu.Unlock()

	if id, ok := d.index.Lookup(ctx, hash); ok {
		return Decision{DuplicateOf: id}, nil
	}

	article := domain.Article{
		Title:       c.Title,
		URL:         c.URL,
		PublishedAt: c.PublishedAt,
		Source:      c.SourceID,
		Agency:      c.Agency,
		Country:     c.Country,
		Summary:     c.Summary,
		Language:    c.Language,
		Category:    c.Category,
		ContentHash: hash,
		ScrapedAt:   d.now().UTC().Truncate(time.Microsecond),
	}
	if article.Language == "" {
		article.Language = domain.LanguageUnknown
	}

	id, inserted, err := d.insert(ctx, &article)
	if err != nil {
		return Decision{}, fmt.Errorf("insert article: %w", err)
	}

	d.index.Remember(ctx, hash, id)
	if !inserted {
		return Decision{DuplicateOf: id}, nil
	}

	article.ID = id
	return Decision{Accepted: true, Article: article}, nil
}

func (d *Deduplicator) insert(ctx context.Context, article *domain.Article) (int64, bool, error) {
	var (
		id       int64
		inserted bool
	)
	op := func() error {
		var err error
		id, inserted, err = d.store.Insert(ctx, article)
		if err != nil && !domain.IsTransientStoreError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.retryBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(d.storeRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		d.logger.Warn("store insert failed, retrying", "hash", article.ContentHash, "backoff", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return 0, false, err
	}
	return id, inserted, nil
}

func (d *Deduplicator) lock(hash string) *sync.Mutex {
	n, err := strconv.ParseUint(hash[:4], 16, 32)
	if err != nil {
		return &d.locks[0]
	}
	return &d.locks[n%stripes]
}
