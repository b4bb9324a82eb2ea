package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/backend"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/catalog"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/config"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/controller"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/handlers"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/storefront/internal/view"
	"github.com/Lixing-Zhang/kart-challenge/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting storefront server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"backend_url", cfg.Backend.BaseURL,
		"api_prefix", cfg.Backend.APIPrefix,
		"order_refresh_mode", cfg.Sync.OrderRefreshMode,
		"log_level", cfg.LogLevel,
	)

	m := metrics.New()

	// Backend API client
	client, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIPrefix, cfg.Backend.Timeout,
		backend.WithRecorder(m),
		backend.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	// Controller owning the name cache and page state
	names := catalog.NewNameCache()
	ctrl := controller.New(client, names, controller.Options{
		StatusTTL:          cfg.Sync.StatusTTL,
		Refresher:          controller.NewRefresher(cfg.Sync, log),
		Recorder:           m,
		Logger:             log,
		DiagnosticsEnabled: cfg.Diagnostics.Enabled,
	})

	renderer, err := view.NewRenderer()
	if err != nil {
		log.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(names, log)
	storefrontHandler := handlers.NewStorefrontHandler(ctrl, renderer, cfg.Diagnostics.Enabled, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Operational endpoints
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Storefront page and form actions
	storefrontHandler.Routes(r)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		ctrl.Close()
		os.Exit(1)
	}

	// Stop pending inventory refreshes
	ctrl.Close()

	log.Info("server stopped gracefully")
}
