package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	auctionapp "github.com/Schooleo/BIF-AuctionHouse-sub000/internal/application/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/auth"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/cache"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/config"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/event"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/lock"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/logger"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/metrics"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/persistence"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/infrastructure/scheduler"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/interfaces/http/handler"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/interfaces/http/middleware"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/interfaces/http/router"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/interfaces/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting auction house",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	lotRepo := persistence.NewGormLotRepository(db.DB)
	bidRepo := persistence.NewGormBidRepository(db.DB)
	proxyRepo := persistence.NewGormProxyRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Event bus
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Bidding policy, hot-reloaded when the config file changes
	policies := config.NewPolicyStore(cfg.Auction)
	cfg.Watch(policies, log)

	locks := lock.NewKeyedMutex()

	// Read-side snapshot cache. Redis when reachable, in-process otherwise.
	var snapshots cache.SnapshotStore
	redisStore, err := cache.NewRedisSnapshotStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory snapshot store", zap.Error(err))
		snapshots = cache.NewInMemorySnapshotStore()
	} else {
		defer redisStore.Close()
		snapshots = redisStore
	}

	m := metrics.NewDefault()

	var reputation auctionapp.ReputationPolicy = auctionapp.AllowAll{}
	if cfg.Auction.RequireReputation {
		reputation = auctionapp.NewCompletedOrderReputation(orderRepo, cfg.Auction.MinCompletedOrders)
	}

	// Application services
	lotService := auctionapp.NewLotService(lotRepo, bidRepo, proxyRepo, snapshots, log)
	biddingService := auctionapp.NewBiddingService(lotRepo, bidRepo, proxyRepo, locks, policies, reputation, snapshots, m, log)
	settlementService := auctionapp.NewSettlementService(lotRepo, bidRepo, proxyRepo, orderRepo, locks, policies, snapshots, m, log)

	lotService.SetEventPublisher(bus)
	biddingService.SetEventPublisher(bus)
	settlementService.SetEventPublisher(bus)

	// Deadline sweeper
	sweeper := scheduler.NewSweeper(lotRepo, settlementService, cfg.Scheduler, log)
	if cfg.Scheduler.Enabled {
		sweeper.Start(ctx)
	} else {
		log.Warn("Auction sweeper disabled, expired lots will not be closed automatically")
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	lotHandler := handler.NewLotHandler(lotService)
	biddingHandler := handler.NewBiddingHandler(biddingService, lotService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	healthHandler := handler.NewHealthHandler(db)
	hub := ws.NewHub(bus, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Token auth is enabled when a secret is configured. Without it the
	// API trusts the X-User-ID header, which is only acceptable for local
	// development; production config requires a secret.
	if cfg.JWT.Secret != "" {
		engine.Use(middleware.JWTAuthMiddleware(jwtService))
	} else {
		log.Warn("JWT secret not configured, accepting X-User-ID header identity")
	}

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Live updates connect at the root path so browser clients can dial
	// without auth headers
	hub.RegisterRoutes(&engine.RouterGroup)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(lotHandler).
		Register(biddingHandler).
		Register(settlementHandler).
		Register(healthHandler).
		Setup()

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	sweeper.Stop()
	biddingService.Stop()
	hub.Close()
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
