package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/initgrep/blogsearch/internal/analytics"
	"github.com/initgrep/blogsearch/internal/catalog"
	"github.com/initgrep/blogsearch/internal/indexer"
	"github.com/initgrep/blogsearch/internal/indexer/index"
	"github.com/initgrep/blogsearch/internal/searcher/cache"
	"github.com/initgrep/blogsearch/internal/searcher/executor"
	"github.com/initgrep/blogsearch/internal/searcher/handler"
	"github.com/initgrep/blogsearch/pkg/config"
	"github.com/initgrep/blogsearch/pkg/health"
	"github.com/initgrep/blogsearch/pkg/kafka"
	"github.com/initgrep/blogsearch/pkg/logger"
	"github.com/initgrep/blogsearch/pkg/metrics"
	"github.com/initgrep/blogsearch/pkg/middleware"
	pkgredis "github.com/initgrep/blogsearch/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "catalog_source", cfg.Catalog.Source)

	weights, err := index.ParseWeights(cfg.Search.FieldWeights)
	if err != nil {
		slog.Error("invalid field weights", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	engine := indexer.New(weights, indexer.WithRequireDocuments(cfg.Search.RequireDocuments))

	// A catalog that cannot be loaded leaves the service up but unready;
	// search answers 503 instead of taking the blog page down with it.
	if err := buildIndex(ctx, cfg, engine, m); err != nil {
		slog.Error("search index unavailable", "error", err)
	}

	checker := health.NewChecker()
	checker.Register("index", health.Ready(engine.Built, "search index not built"))

	var opts []handler.Option
	opts = append(opts, handler.WithMetrics(m))

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts = append(opts, handler.WithCache(cache.New(redisClient, cfg.Redis.CacheTTL)))
			checker.Register("redis", health.Ping(redisClient, true))
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Kafka.BufferSize,
			analytics.WithBatch(cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval),
			analytics.WithDropHook(m.AnalyticsEventsDropped.Inc),
		)
		collector.Start(ctx)
		defer collector.Close()
		opts = append(opts, handler.WithCollector(collector))
		checker.Register("kafka", health.Ping(producer, true))
		slog.Info("search analytics enabled", "topic", cfg.Kafka.Topic)
	}

	h := handler.New(executor.New(engine), engine, cfg.Search.DefaultLimit, cfg.Search.MaxResults, opts...)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", m.Handler())

	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.CORS(middleware.NewCORSConfig(cfg.CORS)),
		middleware.Timeout(cfg.Server.WriteTimeout),
		middleware.Metrics(m),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		slog.Error("listen failed", "addr", server.Addr, "error", err)
		os.Exit(1)
	}
	slog.Info("search service listening", "addr", server.Addr)
	if err := serve(ctx, server, ln, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}

func buildIndex(ctx context.Context, cfg *config.Config, engine *indexer.Engine, m *metrics.Metrics) error {
	store, err := catalog.Open(ctx, cfg.Catalog, cfg.Postgres)
	if err != nil {
		m.IndexBuildsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := engine.Build(store); err != nil {
		m.IndexBuildsTotal.WithLabelValues("error").Inc()
		return err
	}
	stats, _ := engine.Stats()
	m.IndexBuildsTotal.WithLabelValues("ok").Inc()
	m.IndexDocuments.Set(float64(stats.Documents))
	m.IndexTerms.Set(float64(stats.Terms))
	return nil
}

// serve runs server on ln until ctx is done and returns only once Shutdown has
// drained in-flight requests. Serve itself returns as soon as Shutdown
// begins, and handlers still running may Track events, so the deferred
// collector and producer Close calls in main must not run before then.
func serve(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
