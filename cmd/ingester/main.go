package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_ingest/internal/config"
	"news_ingest/internal/dedup"
	"news_ingest/internal/fetcher"
	"news_ingest/internal/language"
	"news_ingest/internal/logging"
	"news_ingest/internal/parser"
	"news_ingest/internal/publisher"
	"news_ingest/internal/ratelimit"
	"news_ingest/internal/scheduler"
	"news_ingest/internal/service"
	"news_ingest/internal/storage/postgres"
	"news_ingest/internal/storage/redis"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single ingestion cycle and exit")
	flag.Parse()

	logger := logging.New("info", "json", os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *once, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ingester stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, once bool, logger *slog.Logger) error {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("applied migrations", "versions", applied)
	}

	articleStore := postgres.NewArticleStore(db, postgres.Limits{
		Default: cfg.API.DefaultLimit,
		Max:     cfg.API.MaxLimit,
	})
	stateStore := postgres.NewSourceStateStore(db)
	txManager := postgres.NewTransactionManager(db)

	memIndex := dedup.NewMemoryIndex()
	loaded, err := memIndex.Load(ctx, articleStore)
	if err != nil {
		return fmt.Errorf("rebuild dedup index: %w", err)
	}
	logger.Info("dedup index rebuilt", "hashes", loaded)

	var (
		index       dedup.Index = memIndex
		invalidator service.StatsInvalidator
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		index = dedup.Tiered{memIndex, redis.NewHashIndex(client, cfg.Redis.IndexTTL, logger)}
		invalidator = redis.NewStatsCache(client, articleStore, cfg.Redis.StatsTTL, logger)
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	sources := cfg.DomainSources()

	gate := ratelimit.NewGate(cfg.Dispatch.MinInterval)
	for _, src := range sources {
		if src.MinInterval > 0 {
			gate.SetInterval(src.ID, src.MinInterval)
		}
	}

	detector, err := language.NewLingua(cfg.Normalize.Languages, cfg.Normalize.MinDetectLength)
	if err != nil {
		return fmt.Errorf("build language detector: %w", err)
	}

	feedFetcher := fetcher.New(fetcher.Config{
		Timeout:        cfg.Fetch.Timeout,
		UserAgent:      cfg.Fetch.UserAgent,
		MaxRetries:     cfg.Fetch.MaxRetries,
		InitialBackoff: cfg.Fetch.InitialBackoff,
		MaxBackoff:     cfg.Fetch.MaxBackoff,
		MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
	}, gate, logger)

	feedParser := parser.New(parser.Config{SummaryMaxRunes: cfg.Normalize.SummaryMaxRunes}, detector, logger)

	deduplicator := dedup.New(articleStore, index, dedup.Config{StoreRetries: cfg.Dispatch.StoreRetries}, logger)

	dispatcher := service.NewDispatcher(
		sources,
		feedFetcher,
		feedParser,
		deduplicator,
		stateStore,
		txManager,
		pub,
		logger,
		cfg.Dispatch,
	)
	if invalidator != nil {
		dispatcher.SetStatsInvalidator(invalidator)
	}

	logger.Info("starting news ingester",
		"sources", len(sources),
		"schedule", cfg.Dispatch.Schedule,
		"max_concurrency", cfg.Dispatch.MaxConcurrency,
		"once", once,
	)

	if once {
		_, err := dispatcher.Cycle(ctx)
		return err
	}

	sched, err := scheduler.NewScheduler(dispatcher, cfg.Dispatch.Schedule, logger)
	if err != nil {
		return err
	}
	return sched.Start(ctx)
}
