package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"art-auction/internal/api/handlers"
	"art-auction/internal/config"
	"art-auction/internal/domain"
	"art-auction/internal/infrastructure/leader"
	"art-auction/internal/infrastructure/mysql"
	redisinfra "art-auction/internal/infrastructure/redis"
	"art-auction/internal/infrastructure/websocket"
	"art-auction/internal/services"
	"art-auction/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting art auction service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	store, err := mysql.Open(ctx, cfg.MySQL)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}()
	log.Info("Connected to MySQL")

	// Event fan-out and leader election
	eventPublisher := redisinfra.NewEventPublisher(rdb)
	eventSubscriber := redisinfra.NewEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Services
	accounts := services.NewAccountService(store, cfg.Auction.SessionTTL, log)
	lifecycle := services.NewLifecycleService(store, eventPublisher, log)
	bidding := services.NewBidService(store, eventPublisher, log)
	closer := services.NewAuctionCloser(store, eventPublisher, leaderElection,
		cfg.Instance.ID, cfg.Auction.CloserInterval, log)

	// Live updates over websocket
	connManager := websocket.NewConnectionManager(log)
	wsHandler := websocket.NewHandler(store, connManager, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}"}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Handlers and routes
	accountHandler := handlers.NewAccountHandler(accounts, log)
	auctionHandler := handlers.NewAuctionHandler(lifecycle, log)
	bidHandler := handlers.NewBidHandler(bidding, log)

	e.POST("/user/register", accountHandler.Register)
	e.POST("/session/start", accountHandler.StartSession)
	e.POST("/session/end", accountHandler.EndSession)
	e.POST("/artwork/create", auctionHandler.CreateArtwork)
	e.POST("/auction/start", auctionHandler.StartAuction)
	e.GET("/auction/active", auctionHandler.ListActive)
	e.GET("/auction/:id", auctionHandler.GetAuction)
	e.POST("/bid/place", bidHandler.PlaceBid)
	e.GET("/bid/auction/:id", bidHandler.BidsForAuction)
	e.GET("/ws/auction/:id", wsHandler.HandleConnection)

	e.GET("/health", func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "art-auction",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Background: closer sweep
	runCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if err := closer.Start(runCtx); err != nil {
		log.Error("Failed to start auction closer", "error", err)
		os.Exit(1)
	}

	// Background: route committed auction events to websocket watchers
	go func() {
		handler := func(event *domain.AuctionEvent) error {
			payload, err := json.Marshal(event)
			if err != nil {
				return err
			}
			return connManager.BroadcastToAuction(event.AuctionID, payload)
		}
		if err := eventSubscriber.SubscribeToAuctionEvents(runCtx, handler); err != nil &&
			!errors.Is(err, context.Canceled) {
			log.Error("Event subscription ended", "error", err)
		}
	}()

	// Background: contend for sweep leadership
	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			default:
			}

			became, err := leaderElection.BecomeLeader(runCtx, cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became closer leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	// Start server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down art auction service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := closer.Stop(); err != nil {
		log.Error("Failed to stop auction closer", "error", err)
	}
	stopBackground()
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Art auction service stopped")
}
