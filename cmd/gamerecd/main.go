// gamerecd 是推荐服务进程：加载配置、连接存储、构建推荐链路并提供 HTTP API。
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/arcadelab/gamerec/catalog"
	"github.com/arcadelab/gamerec/config"
	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/filter"
	"github.com/arcadelab/gamerec/server"
	"github.com/arcadelab/gamerec/service"
	"github.com/arcadelab/gamerec/store"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gamerecd",
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docStore, err := buildDocumentStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("connect store", "err", err)
	}
	defer docStore.Close()

	opts := []service.Option{
		service.WithMaxRecommendations(cfg.Recommend.MaxRecommendations),
		service.WithCatalogOptions(
			catalog.WithCollection(cfg.Store.CatalogCollection),
			catalog.WithBatchSize(cfg.Catalog.BatchSize),
			catalog.WithLoadLimits(cfg.Catalog.MaxItems, time.Duration(cfg.Catalog.LoadTimeoutSeconds)*time.Second),
		),
	}

	if cfg.Cache.Enabled {
		cache, err := buildCache(cfg, logger)
		if err != nil {
			logger.Fatal("connect cache", "err", err)
		}
		defer cache.Close()
		opts = append(opts, service.WithCache(cache, cfg.Cache.TTLSeconds))
	}

	if len(cfg.Recommend.ExcludeRules) > 0 {
		rules, err := filter.NewRuleFilter(cfg.Recommend.ExcludeRules)
		if err != nil {
			logger.Fatal("compile exclude rules", "err", err)
		}
		opts = append(opts, service.WithExclusionChain(&filter.Chain{Filters: []filter.Filter{rules}}))
	}

	rec := service.New(docStore, opts...)
	rec.Profile.Collection = cfg.Store.FeedbackCollection
	rec.Quiz.Collection = cfg.Store.QuizCollection
	rec.Quiz.CatalogCollection = cfg.Store.CatalogCollection

	// 启动期预训练：失败只告警不退出，进程照常服务；目录恢复后通过
	// /api/v1/refresh 重建索引
	if err := rec.Train(ctx, false); err != nil {
		logger.Warn("initial training failed, call refresh once the catalog is reachable", "err", err)
	} else {
		logger.Info("recommendation index trained", "state", rec.Catalog.State())
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(rec, cfg, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

func buildDocumentStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (core.DocumentStore, error) {
	if cfg.Store.MongoURI == "" {
		logger.Warn("mongo_uri not set, using in-memory document store")
		return store.NewMemoryStore(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return store.NewMongoStore(connectCtx, cfg.Store.MongoURI, cfg.Store.Database)
}

func buildCache(cfg *config.Config, logger *log.Logger) (core.CacheStore, error) {
	if cfg.Cache.RedisAddr == "" {
		logger.Info("redis_addr not set, using in-memory result cache")
		return store.NewMemoryCache(), nil
	}
	return store.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
}
