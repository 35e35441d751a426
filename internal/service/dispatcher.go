package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"news_ingest/internal/config"
	"news_ingest/internal/domain"
)

// Dispatcher drives ingestion cycles over the configured sources.
type Dispatcher struct {
	sources   []domain.Source
	fetcher   Fetcher
	parser    Parser
	dedup     Deduplicator
	states    SourceStateStore
	txManager TransactionManager
	publisher Publisher
	stats     StatsInvalidator
	logger    *slog.Logger
	config    config.DispatchConfig
	now       func() time.Time
}

// NewDispatcher wires a dispatcher. publisher may be nil.
func NewDispatcher(
	sources []domain.Source,
	fetcher Fetcher,
	parser Parser,
	dedup Deduplicator,
	states SourceStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.DispatchConfig,
) *Dispatcher {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	return &Dispatcher{
		sources:   sources,
		fetcher:   fetcher,
		parser:    parser,
		dedup:     dedup,
		states:    states,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("component", "dispatcher"),
		config:    cfg,
		now:       time.Now,
	}
}

// SetStatsInvalidator registers a cache to drop after cycles that accepted articles.
func (d *Dispatcher) SetStatsInvalidator(inv StatsInvalidator) {
	d.stats = inv
}

// Cycle runs one cycle over the configured sources, bounded by the cycle timeout.
func (d *Dispatcher) Cycle(ctx context.Context) (*domain.CycleStats, error) {
	if d.config.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.CycleTimeout)
		defer cancel()
	}
	return d.RunCycle(ctx, d.sources)
}

// RunCycle fetches every distinct source at most once with at most
// MaxConcurrency sources in flight. A failing source never stops the others.
//
// When ctx is cancelled, sources that have not started are skipped and
// in-flight sources get GracePeriod to finish before their context is
// cancelled too. Skipped and abandoned sources are left out of the counters.
// The returned stats are never nil; the error is non-nil only when the
// cycle was cut short.
func (d *Dispatcher) RunCycle(ctx context.Context, sources []domain.Source) (*domain.CycleStats, error) {
	start := time.Now()
	stats := &domain.CycleStats{CycleID: uuid.NewString()}
	logger := d.logger.With("cycle_id", stats.CycleID)

	logger.Info("starting cycle", "sources", len(sources), "max_concurrency", d.config.MaxConcurrency)

	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()
	var grace *time.Timer
	var graceMu sync.Mutex
	stopGrace := context.AfterFunc(ctx, func() {
		graceMu.Lock()
		defer graceMu.Unlock()
		grace = time.AfterFunc(d.config.GracePeriod, cancelWork)
	})
	defer func() {
		stopGrace()
		graceMu.Lock()
		if grace != nil {
			grace.Stop()
		}
		graceMu.Unlock()
	}()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.config.MaxConcurrency)

	for _, src := range distinct(sources) {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r := d.runSource(ctx, workCtx, src, logger.With("source", src.ID))
			mu.Lock()
			stats.Add(r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(stats.Results, func(i, j int) bool {
		return stats.Results[i].SourceID < stats.Results[j].SourceID
	})
	stats.Duration = time.Since(start)

	logger.Info("cycle completed",
		"sources_attempted", stats.SourcesAttempted,
		"sources_failed", stats.SourcesFailed,
		"candidates_seen", stats.CandidatesSeen,
		"articles_accepted", stats.ArticlesAccepted,
		"duplicates_rejected", stats.DuplicatesRejected,
		"duration", stats.Duration,
	)

	if stats.ArticlesAccepted > 0 && d.stats != nil {
		if err := d.stats.Invalidate(workCtx); err != nil {
			logger.Warn("failed to invalidate statistics cache", "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("cycle interrupted: %w", err)
	}
	return stats, nil
}

// runSource fetches, parses and deduplicates one source. ctx is the cycle
// context and only gates whether the source starts; work runs on workCtx.
func (d *Dispatcher) runSource(ctx, workCtx context.Context, src domain.Source, logger *slog.Logger) (result domain.SourceResult) {
	result.SourceID = src.ID
	if ctx.Err() != nil {
		result.Abandoned = true
		return result
	}

	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	payload, err := d.fetcher.Fetch(workCtx, src)
	if err != nil {
		if workCtx.Err() != nil {
			logger.Warn("source abandoned during fetch", "error", err)
			result.Abandoned = true
			return result
		}
		logger.Warn("fetch failed", "error", err)
		result.Err = err
		d.recordState(workCtx, src.ID, result, logger)
		return result
	}

	logger.Debug("fetched feed", "bytes", len(payload.Body), "attempts", payload.Attempts, "elapsed", payload.Elapsed)

	batch, err := d.parser.Parse(payload, src)
	if err != nil {
		logger.Warn("feed could not be parsed", "error", err)
		result.Err = err
		d.recordState(workCtx, src.ID, result, logger)
		return result
	}

	for candidate := range batch.All() {
		if workCtx.Err() != nil {
			break
		}
		result.Candidates++

		decision, err := d.dedup.Submit(workCtx, candidate)
		if err != nil {
			if workCtx.Err() == nil {
				result.Err = err
			}
			break
		}

		if !decision.Accepted {
			result.Rejected++
			continue
		}
		result.Accepted++

		if d.publisher != nil {
			if err := d.publisher.Publish(workCtx, &decision.Article); err != nil {
				logger.Warn("failed to publish article", "article_id", decision.Article.ID, "error", err)
				result.PublishErrors++
			}
		}
	}
	result.Skipped = batch.Skipped()

	if workCtx.Err() != nil {
		logger.Warn("source abandoned during ingestion", "accepted", result.Accepted)
		result.Abandoned = true
		return result
	}

	if result.Err != nil {
		logger.Error("store failed", "error", result.Err)
	} else {
		logger.Info("source completed",
			"candidates", result.Candidates,
			"accepted", result.Accepted,
			"rejected", result.Rejected,
			"skipped", result.Skipped,
		)
	}

	d.recordState(workCtx, src.ID, result, logger)
	return result
}

// recordState updates the per-source bookkeeping row in one transaction.
func (d *Dispatcher) recordState(ctx context.Context, sourceID string, r domain.SourceResult, logger *slog.Logger) {
	if d.states == nil || d.txManager == nil {
		return
	}

	now := d.now().UTC()
	err := d.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		state, err := d.states.Get(txCtx, sourceID)
		if err != nil {
			return fmt.Errorf("get source state: %w", err)
		}

		state.SourceID = sourceID
		state.LastAttemptAt = now
		state.TotalAccepted += int64(r.Accepted)
		if r.Err != nil {
			state.LastError = r.Err.Error()
			state.ConsecutiveFailures++
		} else {
			state.LastSuccessAt = &now
			state.LastError = ""
			state.ConsecutiveFailures = 0
		}

		if err := d.states.Update(txCtx, state); err != nil {
			return fmt.Errorf("update source state: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("failed to record source state", "error", err)
	}
}

func distinct(sources []domain.Source) []domain.Source {
	seen := make(map[string]struct{}, len(sources))
	out := make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
