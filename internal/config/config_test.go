package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: bbc
    country: United Kingdom
    agency: BBC News
    url: https://feeds.bbci.co.uk/news/rss.xml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)
	assert.Equal(t, "NewsIngest/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, 5, cfg.Dispatch.MaxConcurrency)
	assert.Equal(t, time.Second, cfg.Dispatch.MinInterval)
	assert.Equal(t, "@every 6h", cfg.Dispatch.Schedule)
	assert.Equal(t, 1000, cfg.Normalize.SummaryMaxRunes)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("NEWS_DB_PASSWORD", "s3cret")
	path := writeConfig(t, `
database:
  host: db
  user: news
  password: ${NEWS_DB_PASSWORD}
  dbname: news
sources:
  - id: ndtv
    url: https://feeds.feedburner.com/ndtvnews-top-stories
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "host=db port=5432 user=news password=s3cret dbname=news sslmode=disable", cfg.Database.DSN())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		c := &Config{Sources: []SourceConfig{{ID: "a", URL: "https://a.example/rss"}}}
		c.setDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "no sources", mutate: func(c *Config) { c.Sources = nil }, wantErr: ErrNoSources},
		{name: "missing id", mutate: func(c *Config) { c.Sources[0].ID = "" }, wantErr: ErrSourceMissingID},
		{name: "missing url", mutate: func(c *Config) { c.Sources[0].URL = "" }, wantErr: ErrSourceMissingURL},
		{
			name:    "duplicate id",
			mutate:  func(c *Config) { c.Sources = append(c.Sources, SourceConfig{ID: "a", URL: "https://b.example"}) },
			wantErr: ErrDuplicateSourceID,
		},
		{name: "bad concurrency", mutate: func(c *Config) { c.Dispatch.MaxConcurrency = -1 }, wantErr: ErrInvalidConcurrency},
		{name: "bad retries", mutate: func(c *Config) { c.Fetch.MaxRetries = -3 }, wantErr: ErrInvalidRetries},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestDomainSources(t *testing.T) {
	c := &Config{Sources: []SourceConfig{{
		ID:          "hindu",
		Country:     "India",
		Agency:      "The Hindu",
		URL:         "https://www.thehindu.com/news/national/feeder/default.rss",
		Language:    "en",
		MinInterval: 3 * time.Second,
	}}}

	sources := c.DomainSources()
	require.Len(t, sources, 1)
	assert.Equal(t, "hindu", sources[0].ID)
	assert.Equal(t, "India", sources[0].Country)
	assert.Equal(t, "The Hindu", sources[0].AgencyName)
	assert.Equal(t, "en", sources[0].LanguageHint)
	assert.Equal(t, 3*time.Second, sources[0].MinInterval)
}
