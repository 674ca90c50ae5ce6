// Command indexer builds the search index offline from the configured
// catalog, reports its statistics and optionally runs queries against it.
//
//	indexer -config configs/development.yaml -catalog assets/js/data.js observer "groovy closure"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/indexer"
	"github.com/initgrep/blogsearch/internal/indexer/index"
	"github.com/initgrep/blogsearch/internal/searcher/executor"
	"github.com/initgrep/blogsearch/internal/searcher/parser"
	"github.com/initgrep/blogsearch/pkg/config"
	"github.com/initgrep/blogsearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	catalogPath := flag.String("catalog", "", "catalog file, overrides catalog.path and forces the file source")
	limit := flag.Int("limit", 10, "results per query, 0 for all")
	dump := flag.Bool("dump", false, "print every indexed term with its postings")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *catalogPath != "" {
		cfg.Catalog.Source = config.SourceFile
		cfg.Catalog.Path = *catalogPath
	}
	// stdout carries the report, so logs go to stderr.
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, flag.Args(), *limit, *dump); err != nil {
		slog.Error("indexer failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer, queries []string, limit int, dump bool) error {
	weights, err := index.ParseWeights(cfg.Search.FieldWeights)
	if err != nil {
		return err
	}
	store, err := catalog.Open(ctx, cfg.Catalog, cfg.Postgres)
	if err != nil {
		return err
	}
	engine := indexer.New(weights, indexer.WithRequireDocuments(cfg.Search.RequireDocuments))
	if err := engine.Build(store); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	stats, err := engine.Stats()
	if err != nil {
		return err
	}
	if err := enc.Encode(stats); err != nil {
		return err
	}

	if dump {
		idx, err := engine.Index()
		if err != nil {
			return err
		}
		for _, entry := range idx.Snapshot() {
			if err := enc.Encode(entry); err != nil {
				return err
			}
		}
	}

	exec := executor.New(engine)
	for _, q := range queries {
		result, err := exec.Execute(ctx, parser.Parse(q), limit)
		if err != nil {
			return fmt.Errorf("query %q: %w", q, err)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}
