// Campaign Workflow Engine server: wires configuration, storage, the step
// executor, the campaign orchestrator, the Tick Driver, and the inbound
// webhook surface, then serves until signalled to shut down.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/campaignflow/engine/internal/application/engine"
	"github.com/campaignflow/engine/internal/application/observer"
	"github.com/campaignflow/engine/internal/application/orchestrator"
	"github.com/campaignflow/engine/internal/application/provider"
	"github.com/campaignflow/engine/internal/application/ratelimit"
	"github.com/campaignflow/engine/internal/application/trigger"
	"github.com/campaignflow/engine/internal/config"
	"github.com/campaignflow/engine/internal/infrastructure/api"
	"github.com/campaignflow/engine/internal/infrastructure/cache"
	"github.com/campaignflow/engine/internal/infrastructure/logger"
	"github.com/campaignflow/engine/internal/infrastructure/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)
	appLogger.Info("starting campaign workflow engine", "port", cfg.Server.Port)

	dbConfig := &storage.Config{
		DSN:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MinConnections,
		ConnMaxLifetime: cfg.Database.MaxConnLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
		Debug:           cfg.Database.Debug,
	}
	db, err := storage.NewDB(dbConfig)
	if err != nil {
		appLogger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer storage.Close(db)

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		appLogger.Error("failed to initialize redis", "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	campaigns := storage.NewCampaignRepository(db)
	leads := storage.NewLeadRepository(db)
	accounts := storage.NewAccountRepository(db)
	steps := storage.NewStepRepository(db)

	observers := observer.NewObserverManager(
		observer.WithLogger(appLogger),
		observer.WithBufferSize(cfg.Observer.BufferSize),
	)
	if cfg.Observer.EnableLogger {
		if err := observers.Register(observer.NewLoggerObserver(appLogger)); err != nil {
			appLogger.Warn("failed to register logger observer", "error", err)
		}
	}
	if cfg.Observer.EnableHTTP && cfg.Observer.HTTPCallbackURL != "" {
		httpObserver := observer.NewHTTPCallbackObserver(cfg.Observer.HTTPCallbackURL,
			observer.WithHTTPMethod(cfg.Observer.HTTPMethod),
			observer.WithHTTPHeaders(cfg.Observer.HTTPHeaders),
			observer.WithHTTPTimeout(cfg.Observer.HTTPTimeout),
			observer.WithHTTPRetry(cfg.Observer.HTTPMaxRetries, cfg.Observer.HTTPRetryDelay, 2.0),
		)
		if err := observers.Register(httpObserver); err != nil {
			appLogger.Warn("failed to register http observer", "error", err)
		}
	}
	var wsObserver *observer.WebSocketObserver
	if cfg.Observer.EnableWebSocket {
		wsObserver = observer.NewWebSocketObserver(appLogger, cfg.Observer.WebSocketBufferSize)
		if err := observers.Register(wsObserver); err != nil {
			appLogger.Warn("failed to register websocket observer", "error", err)
		}
	}

	providerClient := provider.NewHTTPClient(provider.HTTPConfig{
		BaseURL:      cfg.Provider.BaseURL,
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		TokenURL:     cfg.Provider.TokenURL,
		Timeout:      cfg.Provider.Timeout,
	}, appLogger)

	stepExecutor := engine.New(engine.Dependencies{
		Campaigns: campaigns,
		Leads:     leads,
		Accounts:  accounts,
		Steps:     steps,
		Provider:  providerClient,
		RateLimits: ratelimit.Limits{
			DailyLimit:  cfg.RateLimit.DailyLimit,
			WeeklyLimit: cfg.RateLimit.WeeklyLimit,
		},
		Observers: observers,
		Logger:    appLogger,
	})

	campaignOrchestrator := orchestrator.New(orchestrator.Dependencies{
		Campaigns: campaigns,
		Leads:     leads,
		Steps:     steps,
		Observers: observers,
		Logger:    appLogger,
	})

	tickDriver, err := trigger.New(trigger.Dependencies{
		Campaigns:    campaigns,
		Steps:        steps,
		Orchestrator: campaignOrchestrator,
		Executor:     stepExecutor,
		Locker:       redisCache,
		Observers:    observers,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.Error("failed to build tick driver", "error", err)
		os.Exit(1)
	}
	tickDriver.Start()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Dependencies{
		DB:                db,
		Cache:             redisCache,
		Leads:             leads,
		Steps:             steps,
		Logger:            appLogger,
		WebhookJWTSecret:  cfg.Webhook.JWTSecret,
		WebSocketObserver: wsObserver,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := tickDriver.Stop(shutdownCtx); err != nil {
		appLogger.Warn("tick driver stop timed out", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http server shutdown error", "error", err)
	}
	appLogger.Info("shutdown complete")
}
