package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/gin-gonic/gin"

	"github.com/meridianhft/venue-api/internal/auth"
	"github.com/meridianhft/venue-api/internal/journal"
	"github.com/meridianhft/venue-api/internal/venue"
	"github.com/meridianhft/venue-api/pkg/config"
	"github.com/meridianhft/venue-api/pkg/middleware"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the venue API server with graceful shutdown
// support. It wires the configured backend, the venue client, the
// user-data journal and the HTTP routes.
func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Select and build the venue backend
	backend, err := venue.NewBackend(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize venue backend")
	}

	client := venue.NewClient(cfg, backend)
	if err := client.Connect(); err != nil {
		zlog.Fatal().Err(err).Msg("Failed to connect venue client")
	}
	defer client.Disconnect()

	// Attach the user-data journal when enabled
	if cfg.Journal.Enabled {
		journalDB, err := journal.NewDatabase(cfg.Journal.Path)
		if err != nil {
			zlog.Fatal().Err(err).Msg("Failed to initialize journal database")
		}
		journal.New(journalDB).Attach(client.UserData())
		zlog.Info().Str("path", cfg.Journal.Path).Msg("user-data journal attached")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.Server.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	if cfg.Venue.APIKey != "" {
		authService.RegisterAPICredentials(cfg.Venue.APIKey, cfg.Venue.APISecret)
	}

	venueHandlers := venue.NewGinHandlers(client)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg, authHandlers, venueHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Order routes: Protected by JWT authentication
// - Account routes: Protected by JWT authentication
// - Health: Public connectivity check
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandlers *auth.GinHandlers,
	venueHandlers *venue.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Health check
		v1.GET("/health", venueHandlers.HealthHandler())

		// Order routes
		orders := v1.Group("/orders")
		orders.Use(middleware.JWTAuth(cfg.Server.JWTSecret))
		{
			orders.POST("", venueHandlers.PlaceOrderHandler())
			orders.DELETE("", venueHandlers.CancelAllOrdersHandler())
			orders.GET("", venueHandlers.GetOpenOrdersHandler())
			orders.GET("/history", venueHandlers.GetOrderHistoryHandler())
			orders.GET("/:order_id", venueHandlers.GetOrderHandler())
			orders.DELETE("/:order_id", venueHandlers.CancelOrderHandler())
		}

		// Account routes
		account := v1.Group("")
		account.Use(middleware.JWTAuth(cfg.Server.JWTSecret))
		{
			account.GET("/balances", venueHandlers.GetBalancesHandler())
			account.GET("/positions", venueHandlers.GetPositionsHandler())
		}
	}
}
