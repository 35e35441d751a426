package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_ingest/internal/config"
	"news_ingest/internal/export"
	"news_ingest/internal/logging"
	"news_ingest/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	format := flag.String("format", "csv", "export format: csv or json")
	out := flag.String("out", "", "output file (default: articles_<timestamp>.<format>, - for stdout)")
	statsOnly := flag.Bool("stats", false, "print a statistics table instead of exporting")
	flag.Parse()

	logger := logging.New("info", "json", os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := postgres.NewArticleStore(db, postgres.Limits{})

	if *statsOnly {
		stats, err := store.Statistics(ctx)
		if err != nil {
			logger.Error("failed to load statistics", "error", err)
			os.Exit(1)
		}
		if err := export.WriteStatistics(os.Stdout, stats); err != nil {
			logger.Error("failed to print statistics", "error", err)
			os.Exit(1)
		}
		return
	}

	now := time.Now()
	path := *out
	if path == "" {
		path = fmt.Sprintf("articles_%s.%s", now.UTC().Format("20060102_150405"), *format)
	}

	n, err := write(ctx, path, *format, store, now)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("export complete", "articles", n, "format", *format, "path", path)
}

func write(ctx context.Context, path, format string, src export.ArticleSource, now time.Time) (int, error) {
	if format != "csv" && format != "json" {
		return 0, fmt.Errorf("unknown format %q", format)
	}

	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return 0, fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return export.WriteCSV(ctx, w, src)
	}
	return export.WriteJSON(ctx, w, src, now)
}
