package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/syncbridge/backend/internal/application/sync"
	"github.com/syncbridge/backend/internal/domain/integration"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/config"
	"github.com/syncbridge/backend/internal/infrastructure/logger"
	"github.com/syncbridge/backend/internal/infrastructure/odoo"
	"github.com/syncbridge/backend/internal/infrastructure/storefront"
	"github.com/syncbridge/backend/internal/interfaces/http/handler"
	"github.com/syncbridge/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting syncbridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Identity repository
	repoFactory := cache.NewIdentityRepositoryFactory(
		cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		cfg.Sync.KeyPrefix,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Sync.AllowInMemoryFallback),
	)
	repo, err := repoFactory.CreateRepository()
	if err != nil {
		log.Fatal("Failed to create identity repository", zap.Error(err))
	}

	retry := integration.RetryPolicy{
		MaxAttempts: cfg.Sync.RetryAttempts,
		BaseDelay:   cfg.Sync.RetryBaseDelay,
	}

	// Gateways
	erp, err := odoo.NewClient(odoo.Config{
		URL:         cfg.Odoo.URL,
		Database:    cfg.Odoo.Database,
		Username:    cfg.Odoo.Username,
		Password:    cfg.Odoo.Password,
		CompanyID:   cfg.Odoo.CompanyID,
		PriceListID: cfg.Odoo.PriceListID,
	}, retry, log)
	if err != nil {
		log.Fatal("Failed to create ERP gateway", zap.Error(err))
	}

	store, err := storefront.NewClient(storefront.Config{
		BaseURL:        cfg.Storefront.BaseURL,
		APIToken:       cfg.Storefront.APIToken,
		PageSize:       cfg.Storefront.PageSize,
		MaxPages:       cfg.Storefront.MaxPages,
		TimeoutSeconds: cfg.Storefront.TimeoutSeconds,
	}, retry, log)
	if err != nil {
		log.Fatal("Failed to create storefront gateway", zap.Error(err))
	}

	// Synchronizers in dependency order
	manager := appsync.NewManager([]appsync.Synchronizer{
		appsync.NewMerchantSynchronizer(erp, store, repo, log),
		appsync.NewCategorySynchronizer(erp, store, repo, log),
		appsync.NewAttributeSynchronizer(erp, store, repo, log),
		appsync.NewProductSynchronizer(erp, store, repo, log),
		appsync.NewVariantSynchronizer(erp, store, repo, log),
		appsync.NewDeliverySynchronizer(erp, store, repo, log),
		appsync.NewOrderOutboundSynchronizer(erp, store, repo, log),
		appsync.NewOrderInboundSynchronizer(erp, store, repo, log),
	}, log)

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.Recovery(log), logger.GinMiddleware(log))

	router.NewRouter(engine).
		Register(handler.NewHealthHandler()).
		Register(handler.NewSyncHandler(manager, log)).
		Setup()

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
