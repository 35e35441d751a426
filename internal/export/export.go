package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"news_ingest/internal/domain"
)

// Header is the CSV column order.
var Header = []string{
	"id", "title", "url", "published_at", "source", "agency", "country",
	"summary", "language", "category", "content_hash", "scraped_at",
}

// ArticleSource streams every stored article.
type ArticleSource interface {
	EachArticle(ctx context.Context, fn func(domain.Article) error) error
}

// Document is the JSON export shape.
type Document struct {
	ExportedAt    time.Time        `json:"exported_at"`
	TotalArticles int              `json:"total_articles"`
	Articles      []domain.Article `json:"articles"`
}

// WriteCSV streams all articles as CSV rows and returns the row count.
func WriteCSV(ctx context.Context, w io.Writer, src ArticleSource) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	n := 0
	err := src.EachArticle(ctx, func(a domain.Article) error {
		if err := cw.Write(record(a)); err != nil {
			return fmt.Errorf("write article %d: %w", a.ID, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

// WriteJSON writes one indented document holding every article.
func WriteJSON(ctx context.Context, w io.Writer, src ArticleSource, now time.Time) (int, error) {
	doc := Document{ExportedAt: now.UTC(), Articles: []domain.Article{}}
	err := src.EachArticle(ctx, func(a domain.Article) error {
		doc.Articles = append(doc.Articles, a)
		return nil
	})
	if err != nil {
		return 0, err
	}
	doc.TotalArticles = len(doc.Articles)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return 0, fmt.Errorf("encode json: %w", err)
	}
	return doc.TotalArticles, nil
}

func record(a domain.Article) []string {
	published := ""
	if a.PublishedAt != nil {
		published = a.PublishedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Title,
		a.URL,
		published,
		a.Source,
		a.Agency,
		a.Country,
		a.Summary,
		a.Language,
		a.Category,
		a.ContentHash,
		a.ScrapedAt.UTC().Format(time.RFC3339Nano),
	}
}
