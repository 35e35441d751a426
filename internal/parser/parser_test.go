package parser

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_ingest/internal/domain"
	"news_ingest/internal/language"
	"news_ingest/internal/logging"
)

type recordingDetector struct {
	mu    sync.Mutex
	texts []string
	code  string
}

func (d *recordingDetector) Detect(text string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, text)
	return d.code
}

func payload(t *testing.T, name string) *domain.RawFeedPayload {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return &domain.RawFeedPayload{SourceID: "wire", Body: body, StatusCode: 200}
}

func testSource() domain.Source {
	return domain.Source{ID: "wire", Country: "Kenya", AgencyName: "Example Wire", FeedURL: "https://wire.example.com/rss"}
}

func newParser(d language.Detector) *Parser {
	return New(Config{SummaryMaxRunes: 1000}, d, logging.Discard())
}

func TestParse_RSS(t *testing.T) {
	det := &recordingDetector{code: "en"}
	batch, err := newParser(det).Parse(payload(t, "rss.xml"), testSource())
	require.NoError(t, err)
	assert.Equal(t, "rss", batch.Dialect())
	assert.Equal(t, 5, batch.Len())

	got := slices.Collect(batch.All())
	require.Len(t, got, 3)
	assert.Equal(t, 2, batch.Skipped())

	first := got[0]
	assert.Equal(t, "Floods hit the coast", first.Title)
	assert.Equal(t, "https://wire.example.com/news/floods", first.URL)
	assert.Equal(t, "Heavy rain caused flooding.", first.Summary)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, "Weather", first.Category)
	assert.Equal(t, "wire", first.SourceID)
	assert.Equal(t, "Kenya", first.Country)
	assert.Equal(t, "Example Wire", first.Agency)
	assert.Equal(t, "en", first.Language)

	second := got[1]
	assert.Equal(t, "Markets rally", second.Title)
	require.NotNil(t, second.PublishedAt)
	assert.True(t, second.PublishedAt.Equal(time.Date(2006, 1, 3, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, domain.CategoryGeneral, second.Category)

	third := got[2]
	assert.Equal(t, "https://wire.example.com/news/undated", third.URL)
	assert.Nil(t, third.PublishedAt)

	assert.Contains(t, det.texts, "Floods hit the coast Heavy rain caused flooding.")
}

func TestParse_Atom(t *testing.T) {
	det := &recordingDetector{code: "en"}
	batch, err := newParser(det).Parse(payload(t, "atom.xml"), testSource())
	require.NoError(t, err)
	assert.Equal(t, "atom", batch.Dialect())

	got := slices.Collect(batch.All())
	require.Len(t, got, 2)

	assert.Equal(t, "Élections régionales", got[0].Title)
	assert.Equal(t, "https://agence.example.fr/articles/1", got[0].URL)
	assert.Equal(t, "Les résultats sont attendus ce soir.", got[0].Summary)
	assert.Equal(t, "politique", got[0].Category)
	require.NotNil(t, got[0].PublishedAt)
	assert.True(t, got[0].PublishedAt.Equal(time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)))

	assert.Equal(t, "Body text.", got[1].Summary)
	require.NotNil(t, got[1].PublishedAt)
	assert.True(t, got[1].PublishedAt.Equal(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)))

	assert.Equal(t, "en", got[0].Language)
	assert.Len(t, det.texts, 2)
}

func TestParse_FeedLanguageSkipsDetection(t *testing.T) {
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>x</title><language>fr-FR</language>` +
		`<item><title>Grève nationale</title><link>https://x.example.fr/a</link></item>` +
		`</channel></rss>`

	det := &recordingDetector{code: "en"}
	batch, err := newParser(det).Parse(&domain.RawFeedPayload{Body: []byte(body)}, testSource())
	require.NoError(t, err)

	got := slices.Collect(batch.All())
	require.Len(t, got, 1)
	assert.Equal(t, "fr", got[0].Language)
	assert.Empty(t, det.texts)
}

func TestParse_JSONFeed(t *testing.T) {
	batch, err := newParser(language.Fixed("en")).Parse(payload(t, "feed.json"), testSource())
	require.NoError(t, err)
	assert.Equal(t, "json", batch.Dialect())

	got := slices.Collect(batch.All())
	require.Len(t, got, 2)
	assert.Equal(t, "The launch moved to Friday.", got[0].Summary)
	assert.Equal(t, "science", got[0].Category)
	require.NotNil(t, got[0].PublishedAt)
	assert.Equal(t, "https://elsewhere.example.org/story", got[1].URL)
	assert.Equal(t, "Plain text body.", got[1].Summary)
	assert.Nil(t, got[1].PublishedAt)
}

func TestParse_SourceHintSkipsDetection(t *testing.T) {
	det := &recordingDetector{code: "en"}
	src := testSource()
	src.LanguageHint = "SW"

	batch, err := newParser(det).Parse(payload(t, "rss.xml"), src)
	require.NoError(t, err)
	for c := range batch.All() {
		assert.Equal(t, "sw", c.Language)
	}
	assert.Empty(t, det.texts)
}

func TestParse_InvalidPayload(t *testing.T) {
	for name, body := range map[string][]byte{
		"binary": {0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a},
		"html":   []byte("<html><body><h1>Not a feed</h1></body></html>"),
		"text":   []byte("hello world"),
	} {
		t.Run(name, func(t *testing.T) {
			batch, err := newParser(language.Fixed("en")).Parse(&domain.RawFeedPayload{Body: body}, testSource())

			var pe *domain.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, domain.ParseInvalidFormat, pe.Kind)
			assert.Equal(t, "wire", pe.SourceID)

			require.NotNil(t, batch)
			assert.Empty(t, slices.Collect(batch.All()))
		})
	}
}

func TestBatch_SingleUse(t *testing.T) {
	batch, err := newParser(language.Fixed("en")).Parse(payload(t, "rss.xml"), testSource())
	require.NoError(t, err)

	assert.Len(t, slices.Collect(batch.All()), 3)
	assert.Empty(t, slices.Collect(batch.All()))
}

func TestBatch_EarlyStop(t *testing.T) {
	batch, err := newParser(language.Fixed("en")).Parse(payload(t, "rss.xml"), testSource())
	require.NoError(t, err)

	var titles []string
	for c := range batch.All() {
		titles = append(titles, c.Title)
		break
	}
	assert.Equal(t, []string{"Floods hit the coast"}, titles)
	assert.Empty(t, slices.Collect(batch.All()))
}

func TestParse_SummaryTruncation(t *testing.T) {
	long := strings.Repeat("ä", 1500)
	body := `<?xml version="1.0"?><rss version="2.0"><channel><title>x</title>` +
		`<item><title>Long</title><link>https://x.example.com/a</link><description>` + long + `</description></item>` +
		`</channel></rss>`

	p := New(Config{SummaryMaxRunes: 1000}, language.Fixed("de"), logging.Discard())
	batch, err := p.Parse(&domain.RawFeedPayload{Body: []byte(body)}, testSource())
	require.NoError(t, err)

	got := slices.Collect(batch.All())
	require.Len(t, got, 1)
	assert.Equal(t, 1000, len([]rune(got[0].Summary)))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain   text\n\twith  spaces ", "plain text with spaces"},
		{"<p>one</p><p>two</p>", "one two"},
		{"AT&amp;T reports", "AT&T reports"},
		{"<style>p{}</style>visible", "visible"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanText(tt.in))
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://a.example.com/x", "https://a.example.com/x", true},
		{" http://a.example.com/x ", "http://a.example.com/x", true},
		{"/relative/path", "", false},
		{"a.example.com/x", "", false},
		{"ftp://a.example.com/x", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := absoluteURL(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 2, 5, 14, 30, 0, 0, time.UTC)
	for _, s := range []string{
		"Mon, 05 Feb 2024 14:30:00 +0000",
		"Mon, 5 Feb 2024 14:30:00 +0000",
		"2024-02-05T14:30:00Z",
		"2024-02-05 14:30:00",
		"05 Feb 2024 14:30:00",
	} {
		got := parseDate(s)
		require.NotNil(t, got, s)
		assert.True(t, got.Equal(want), s)
	}
	assert.Nil(t, parseDate("yesterday"))
	assert.Nil(t, parseDate(""))
}

func TestPrimaryTag(t *testing.T) {
	assert.Equal(t, "en", primaryTag("en-US"))
	assert.Equal(t, "pt", primaryTag("pt_BR"))
	assert.Equal(t, "fr", primaryTag(" FR "))
	assert.Equal(t, "", primaryTag(""))
}
