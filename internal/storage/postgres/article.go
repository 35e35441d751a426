package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"news_ingest/internal/domain"
)

const articleColumns = `id, title, url, published_at, source, agency, country, summary,
	language, category, content_hash, scraped_at`

// ArticleStore is the durable article store. The unique constraint on
// content_hash is the authority on duplicates.
type ArticleStore struct {
	db     *sqlx.DB
	tx     *TransactionManager
	limits Limits
}

func NewArticleStore(db *sqlx.DB, limits Limits) *ArticleStore {
	if limits.Default <= 0 {
		limits.Default = 100
	}
	return &ArticleStore{db: db, tx: NewTransactionManager(db), limits: limits}
}

// Insert stores article unless its content_hash exists. On conflict it
// returns the existing id and inserted == false.
func (s *ArticleStore) Insert(ctx context.Context, article *domain.Article) (int64, bool, error) {
	query := `
		INSERT INTO articles (
			title, url, published_at, source, agency, country, summary,
			language, category, content_hash, scraped_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id`

	exec := GetExecutor(ctx, s.db)

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		article.Title,
		article.URL,
		article.PublishedAt,
		article.Source,
		article.Agency,
		article.Country,
		article.Summary,
		article.Language,
		article.Category,
		article.ContentHash,
		article.ScrapedAt,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		err = exec.QueryRowxContext(ctx,
			"SELECT id FROM articles WHERE content_hash = $1",
			article.ContentHash,
		).Scan(&id)
		if err != nil {
			return 0, false, storeError("find duplicate", err)
		}
		return id, false, nil
	}
	if err != nil {
		return 0, false, storeError("insert article", err)
	}

	return id, true, nil
}

func (s *ArticleStore) Get(ctx context.Context, id int64) (*domain.Article, error) {
	var a domain.Article
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &a,
		"SELECT "+articleColumns+" FROM articles WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeError("get article", err)
	}
	toUTC(&a)
	return &a, nil
}

// Query returns one page of articles matching f plus the total match count,
// both read from the same snapshot.
func (s *ArticleStore) Query(ctx context.Context, f domain.Filter, sort domain.Sort, page domain.Page) (*domain.QueryResult, error) {
	where, args, err := whereClause(f)
	if err != nil {
		return nil, err
	}
	order, err := orderClause(sort)
	if err != nil {
		return nil, err
	}
	page, err = s.limits.page(page)
	if err != nil {
		return nil, err
	}

	result := &domain.QueryResult{Articles: []domain.Article{}}
	err = s.tx.WithSnapshot(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		if err := sqlx.GetContext(ctx, exec, &result.Total, "SELECT COUNT(*) FROM articles"+where, args...); err != nil {
			return fmt.Errorf("count articles: %w", err)
		}

		n := len(args)
		query := fmt.Sprintf("SELECT %s FROM articles%s%s LIMIT $%d OFFSET $%d", articleColumns, where, order, n+1, n+2)
		pageArgs := append(append([]any{}, args...), page.Limit, page.Offset)
		if err := sqlx.SelectContext(ctx, exec, &result.Articles, query, pageArgs...); err != nil {
			return fmt.Errorf("select articles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("query articles", err)
	}

	for i := range result.Articles {
		toUTC(&result.Articles[i])
	}
	return result, nil
}

// Search ranks keyword matches: a title hit scores 3, a summary hit 2.
func (s *ArticleStore) Search(ctx context.Context, keyword string, limit int) ([]domain.Article, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, domain.InvalidFilter("search keyword is required")
	}
	page, err := s.limits.page(domain.Page{Limit: limit})
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE title ILIKE $1 OR summary ILIKE $1
		ORDER BY
			(CASE WHEN title ILIKE $1 THEN 3 ELSE 0 END +
			 CASE WHEN summary ILIKE $1 THEN 2 ELSE 0 END) DESC,
			published_at DESC NULLS LAST,
			id ASC
		LIMIT $2`

	articles := []domain.Article{}
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &articles, query, likePattern(keyword), page.Limit); err != nil {
		return nil, storeError("search articles", err)
	}
	for i := range articles {
		toUTC(&articles[i])
	}
	return articles, nil
}

// EachArticle streams every article in id order.
func (s *ArticleStore) EachArticle(ctx context.Context, fn func(domain.Article) error) error {
	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx,
		"SELECT "+articleColumns+" FROM articles ORDER BY id ASC")
	if err != nil {
		return storeError("scan articles", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Article
		if err := rows.StructScan(&a); err != nil {
			return storeError("scan articles", err)
		}
		toUTC(&a)
		if err := fn(a); err != nil {
			return err
		}
	}
	return storeError("scan articles", rows.Err())
}

// EachHash streams every persisted content hash with its article id.
func (s *ArticleStore) EachHash(ctx context.Context, fn func(hash string, id int64) error) error {
	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, "SELECT content_hash, id FROM articles")
	if err != nil {
		return storeError("scan hashes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hash string
			id   int64
		)
		if err := rows.Scan(&hash, &id); err != nil {
			return storeError("scan hashes", err)
		}
		if err := fn(hash, id); err != nil {
			return err
		}
	}
	return storeError("scan hashes", rows.Err())
}

func toUTC(a *domain.Article) {
	a.ScrapedAt = a.ScrapedAt.UTC()
	if a.PublishedAt != nil {
		t := a.PublishedAt.UTC()
		a.PublishedAt = &t
	}
}

// Ping reports whether the database is reachable.
func (s *ArticleStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
