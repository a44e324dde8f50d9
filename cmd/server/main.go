package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "rental-engine-backend/internal/api/grpc"
	httpapi "rental-engine-backend/internal/api/http"
	"rental-engine-backend/internal/app"
	"rental-engine-backend/internal/config"
	"rental-engine-backend/internal/jobs"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/scheduler"
	"rental-engine-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withScheduler := flag.Bool("scheduler", true, "Run the cron jobs inside the server process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Engine...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress(), "storage", cfg.Storage.Type, "locking", cfg.Locking.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize rental engine", "error", err)
		log.Fatalf("Failed to initialize rental engine: %v", err)
	}
	defer engine.Close()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTokenTTL())
	clients := make([]security.Client, 0, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		clients = append(clients, security.Client{ID: c.ID, SecretHash: c.SecretHash, Admin: c.Admin})
	}
	if len(clients) == 0 {
		logger.Warn("No API clients configured, only public routes are reachable")
	}

	// HTTP API
	handler := httpapi.NewHandler(httpapi.Deps{
		Rentals:    engine.Rentals,
		Catalog:    engine.Rentals,
		Items:      engine.Inventory,
		Customers:  engine.Customers,
		Agreements: engine.Repos.Agreements,
		Ledger:     engine.Repos.Ledger,
		Pricing:    engine.Pricing,
		Fees:       engine.Fees,
		Tokens:     tokenManager,
		Clients:    security.NewClientRegistry(clients),
		Ping:       func() error { return pingWithTimeout(engine) },
	})
	httpServer := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      httpapi.NewRouter(handler, httpapi.NewAuthMiddleware(tokenManager)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}
	serverErr := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// gRPC health
	var grpcServer *grpcapi.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = grpcapi.NewServer(tokenManager, engine.Ping, 0)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				serverErr <- err
			}
		}()
	}

	// Scheduled jobs
	var cronScheduler *scheduler.Scheduler
	if *withScheduler {
		jobRunner := jobs.NewJobRunner(&jobs.Services{
			Rentals:   engine.Rentals,
			Customers: engine.Customers,
			Inventory: engine.Inventory,
			Notifier:  engine.Notifier,
		}, cfg)
		cronScheduler = scheduler.NewScheduler(jobRunner)
		cronScheduler.Start()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		logger.Error("Server error", "error", err)
	}

	// Graceful shutdown
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Rental Engine stopped. Goodbye!")
}

func pingWithTimeout(engine *app.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return engine.Ping(ctx)
}
