package parser

import (
	"bytes"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	jsonfeed "github.com/mmcdole/gofeed/json"
	"github.com/mmcdole/gofeed/rss"
)

// rawEntry is the dialect-neutral shape every adapter maps its items into.
type rawEntry struct {
	Title       string
	Link        string
	Summary     string
	Published   string
	PublishedAt *time.Time
	Category    string
}

type document struct {
	Language string
	Entries  []rawEntry
}

// dialect decodes one feed format.
type dialect interface {
	Name() string
	Decode(body []byte) (*document, error)
}

func detect(body []byte) dialect {
	switch gofeed.DetectFeedType(bytes.NewReader(body)) {
	case gofeed.FeedTypeRSS:
		return rssDialect{}
	case gofeed.FeedTypeAtom:
		return atomDialect{}
	case gofeed.FeedTypeJSON:
		return jsonDialect{}
	}
	return nil
}

// rssDialect covers RSS 0.9x, 2.0 and RDF.
type rssDialect struct{}

func (rssDialect) Name() string { return "rss" }

func (rssDialect) Decode(body []byte) (*document, error) {
	fp := &rss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	doc := &document{Language: feed.Language, Entries: make([]rawEntry, 0, len(feed.Items))}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		e := rawEntry{
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.Description,
			Published:   item.PubDate,
			PublishedAt: item.PubDateParsed,
		}
		if e.Link == "" && item.GUID != nil && !strings.EqualFold(item.GUID.IsPermalink, "false") {
			e.Link = item.GUID.Value
		}
		if e.Summary == "" {
			e.Summary = item.Content
		}
		if e.Published == "" && item.DublinCoreExt != nil && len(item.DublinCoreExt.Date) > 0 {
			e.Published = item.DublinCoreExt.Date[0]
		}
		for _, c := range item.Categories {
			if c != nil && strings.TrimSpace(c.Value) != "" {
				e.Category = c.Value
				break
			}
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, nil
}

type atomDialect struct{}

func (atomDialect) Name() string { return "atom" }

func (atomDialect) Decode(body []byte) (*document, error) {
	fp := &atom.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	doc := &document{Language: feed.Language, Entries: make([]rawEntry, 0, len(feed.Entries))}
	for _, entry := range feed.Entries {
		if entry == nil {
			continue
		}
		e := rawEntry{
			Title:       entry.Title,
			Summary:     entry.Summary,
			Published:   entry.Published,
			PublishedAt: entry.PublishedParsed,
		}
		for _, l := range entry.Links {
			if l != nil && (l.Rel == "" || l.Rel == "alternate") {
				e.Link = l.Href
				break
			}
		}
		if e.Summary == "" && entry.Content != nil {
			e.Summary = entry.Content.Value
		}
		if e.PublishedAt == nil && e.Published == "" {
			e.Published = entry.Updated
			e.PublishedAt = entry.UpdatedParsed
		}
		for _, c := range entry.Categories {
			if c == nil {
				continue
			}
			if c.Label != "" {
				e.Category = c.Label
				break
			}
			if c.Term != "" {
				e.Category = c.Term
				break
			}
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, nil
}

type jsonDialect struct{}

func (jsonDialect) Name() string { return "json" }

func (jsonDialect) Decode(body []byte) (*document, error) {
	fp := &jsonfeed.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	doc := &document{Entries: make([]rawEntry, 0, len(feed.Items))}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		e := rawEntry{
			Title:     item.Title,
			Link:      item.URL,
			Summary:   item.Summary,
			Published: item.DatePublished,
		}
		if e.Link == "" {
			e.Link = item.ExternalURL
		}
		if e.Summary == "" {
			e.Summary = item.ContentHTML
		}
		if e.Summary == "" {
			e.Summary = item.ContentText
		}
		if len(item.Tags) > 0 {
			e.Category = item.Tags[0]
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, nil
}
