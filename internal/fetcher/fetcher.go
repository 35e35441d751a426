package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"news_ingest/internal/domain"
)

// Config holds fetcher configuration.
type Config struct {
	Timeout        time.Duration
	UserAgent      string
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxBodyBytes   int64
}

// Waiter admits a request to a source. The dispatcher's rate gate implements it.
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Fetcher retrieves raw feed documents over HTTP.
type Fetcher struct {
	httpClient     *http.Client
	userAgent      string
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxBodyBytes   int64
	gate           Waiter
	logger         *slog.Logger
}

// New creates a fetcher. gate may be nil.
func New(cfg Config, gate Waiter, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent:      cfg.UserAgent,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		maxBodyBytes:   cfg.MaxBodyBytes,
		gate:           gate,
		logger:         logger.With("component", "fetcher"),
	}
}

// Fetch downloads the feed of src. Transient failures are retried with
// exponential backoff; the terminal error is always a *domain.FetchError
// unless ctx was cancelled.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (*domain.RawFeedPayload, error) {
	start := time.Now()
	attempts := 0

	var payload *domain.RawFeedPayload
	op := func() error {
		if f.gate != nil {
			if err := f.gate.Wait(ctx, src.ID); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempts++

		p, err := f.doRequest(ctx, src)
		if err != nil {
			var fe *domain.FetchError
			if errors.As(err, &fe) && fe.Transient() && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		payload = p
		return nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warn("request failed, retrying",
			"source", src.ID,
			"attempt", attempts,
			"backoff", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, f.policy(ctx), notify); err != nil {
		return nil, err
	}

	payload.Attempts = attempts
	payload.Elapsed = time.Since(start)
	return payload, nil
}

func (f *Fetcher) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialBackoff
	b.MaxInterval = f.maxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.maxRetries)), ctx)
}

func (f *Fetcher) doRequest(ctx context.Context, src domain.Source) (*domain.RawFeedPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FeedURL, nil)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchMalformed, URL: src.FeedURL, Err: err}
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, &domain.FetchError{
			Kind: domain.FetchMalformed,
			URL:  src.FeedURL,
			Err:  fmt.Errorf("unsupported scheme %q", req.URL.Scheme),
		}
	}

	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, classify(src.FeedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &domain.FetchError{Kind: domain.FetchHTTPStatus, StatusCode: resp.StatusCode, URL: src.FeedURL}
	}

	reader := io.Reader(resp.Body)
	if f.maxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBodyBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, classify(src.FeedURL, err)
	}
	if f.maxBodyBytes > 0 && int64(len(body)) > f.maxBodyBytes {
		return nil, &domain.FetchError{
			Kind: domain.FetchMalformed,
			URL:  src.FeedURL,
			Err:  fmt.Errorf("body exceeds %d bytes", f.maxBodyBytes),
		}
	}
	if len(body) == 0 {
		return nil, &domain.FetchError{Kind: domain.FetchMalformed, URL: src.FeedURL, Err: errors.New("empty body")}
	}

	return &domain.RawFeedPayload{
		SourceID:    src.ID,
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func classify(rawURL string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	kind := domain.FetchConnectionRefused
	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.FetchTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = domain.FetchTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = domain.FetchConnectionRefused
	case errors.As(err, &urlErr) && urlErr.Op == "parse":
		kind = domain.FetchMalformed
	}

	return &domain.FetchError{Kind: kind, URL: rawURL, Err: err}
}
