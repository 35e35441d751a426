// Package parser turns raw feed documents into normalized article candidates.
package parser

import (
	"errors"
	"iter"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"news_ingest/internal/domain"
	"news_ingest/internal/language"
)

var errUnknownFormat = errors.New("payload is not an RSS, Atom or JSON feed")

// Config holds normalization settings.
type Config struct {
	SummaryMaxRunes int
}

// Parser selects a dialect adapter for a payload and normalizes its entries.
type Parser struct {
	summaryMaxRunes int
	detector        language.Detector
	logger          *slog.Logger
}

func New(cfg Config, detector language.Detector, logger *slog.Logger) *Parser {
	return &Parser{
		summaryMaxRunes: cfg.SummaryMaxRunes,
		detector:        detector,
		logger:          logger.With("component", "parser"),
	}
}

// Parse decodes payload. A payload that is not a feed at all yields an empty
// batch together with a *domain.ParseError; the batch is never nil.
func (p *Parser) Parse(payload *domain.RawFeedPayload, src domain.Source) (*Batch, error) {
	b := &Batch{parser: p, src: src, logger: p.logger.With("source", src.ID)}

	d := detect(payload.Body)
	if d == nil {
		return b, &domain.ParseError{Kind: domain.ParseInvalidFormat, SourceID: src.ID, Err: errUnknownFormat}
	}

	doc, err := d.Decode(payload.Body)
	if err != nil {
		return b, &domain.ParseError{Kind: domain.ParseInvalidFormat, SourceID: src.ID, Err: err}
	}

	b.dialect = d.Name()
	b.feedLanguage = primaryTag(doc.Language)
	b.entries = doc.Entries
	return b, nil
}

// Batch is a finite, single-use sequence of candidates. Entries are
// normalized lazily, in feed order, while the sequence is consumed.
type Batch struct {
	parser       *Parser
	src          domain.Source
	dialect      string
	feedLanguage string
	entries      []rawEntry
	consumed     atomic.Bool
	skipped      atomic.Int64
	logger       *slog.Logger
}

// Len is the number of raw entries in the feed.
func (b *Batch) Len() int { return len(b.entries) }

// Dialect names the adapter that decoded the feed, empty for invalid payloads.
func (b *Batch) Dialect() string { return b.dialect }

// Skipped is the number of entries dropped during normalization so far.
func (b *Batch) Skipped() int { return int(b.skipped.Load()) }

// All yields the normalized candidates. Only the first call yields anything.
func (b *Batch) All() iter.Seq[domain.ArticleCandidate] {
	return func(yield func(domain.ArticleCandidate) bool) {
		if !b.consumed.CompareAndSwap(false, true) {
			return
		}
		for i, e := range b.entries {
			c, reason := b.normalize(e)
			if reason != "" {
				b.skipped.Add(1)
				b.logger.Warn("skipping feed entry", "index", i, "reason", reason)
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

func (b *Batch) normalize(e rawEntry) (domain.ArticleCandidate, string) {
	title := cleanText(e.Title)
	if title == "" {
		return domain.ArticleCandidate{}, "missing title"
	}

	link, ok := absoluteURL(e.Link)
	if !ok {
		return domain.ArticleCandidate{}, "missing or relative url"
	}

	summary := truncate(cleanText(e.Summary), b.parser.summaryMaxRunes)

	publishedAt := e.PublishedAt
	if publishedAt == nil {
		publishedAt = parseDate(e.Published)
	}
	if publishedAt != nil {
		t := publishedAt.UTC()
		publishedAt = &t
	}

	category := strings.TrimSpace(e.Category)
	if category == "" {
		category = domain.CategoryGeneral
	}

	return domain.ArticleCandidate{
		Title:       title,
		URL:         link,
		PublishedAt: publishedAt,
		Summary:     summary,
		SourceID:    b.src.ID,
		Agency:      b.src.AgencyName,
		Country:     b.src.Country,
		Language:    b.language(title, summary),
		Category:    category,
	}, ""
}

func (b *Batch) language(title, summary string) string {
	if hint := primaryTag(b.src.LanguageHint); hint != "" {
		return hint
	}
	if b.feedLanguage != "" {
		return b.feedLanguage
	}
	if b.parser.detector == nil {
		return domain.LanguageUnknown
	}
	return b.parser.detector.Detect(strings.TrimSpace(title + " " + summary))
}

func absoluteURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

// primaryTag reduces "en-US" or "en_gb" to "en".
func primaryTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxRunes]))
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04 -0700",
	"02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
