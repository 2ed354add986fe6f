package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/background"
	"github.com/folio-org/mod-login-sub000/internal/config"
	"github.com/folio-org/mod-login-sub000/internal/database"
	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/handlers"
	"github.com/folio-org/mod-login-sub000/internal/hashing"
	"github.com/folio-org/mod-login-sub000/internal/migrate"
	middlewareCustom "github.com/folio-org/mod-login-sub000/internal/middleware"
	"github.com/folio-org/mod-login-sub000/internal/repositories"
	"github.com/folio-org/mod-login-sub000/internal/routes"
	"github.com/folio-org/mod-login-sub000/internal/services"
	pkghttp "github.com/folio-org/mod-login-sub000/pkg/http"
	pkglogger "github.com/folio-org/mod-login-sub000/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Apply schema migrations
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := migrate.Up(migrateCtx, cfg.Database.DSN()); err != nil {
		migrateCancel()
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	credRepo := repositories.NewCredentialRepository(db)
	attemptRepo := repositories.NewAttemptRepository(db)
	actionRepo := repositories.NewActionRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(actionRepo, logger, cfg.Auth.ActionCleanupInterval)

	// Remote gateway client (identity, tokens, policy config, events)
	gatewayClient := gateway.NewClient(&cfg.Gateway, logger)

	// Password hasher
	hasher, err := hashing.New(cfg.Auth.HashIterations, cfg.Auth.HashKeyBits)
	if err != nil {
		logger.Error("invalid hashing configuration", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	attemptService := services.NewAttemptService(attemptRepo, gatewayClient, gatewayClient, gatewayClient, cfg.Auth, logger, auditLogger)
	historyService := services.NewHistoryService(db, credRepo, actionRepo, gatewayClient, hasher, cfg.Auth.HistoryCountOverride, logger)
	loginService := services.NewLoginService(
		gatewayClient,
		gatewayClient,
		attemptService,
		historyService,
		credRepo,
		actionRepo,
		hasher,
		gatewayClient,
		logger,
		auditLogger,
		cfg.Auth.RequireActiveUser,
		cfg.Auth.ActionTTL,
	)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{}
	loginHandler := handlers.NewLoginHandler(loginService, ipConfig)
	passwordHandler := handlers.NewPasswordHandler(loginService, ipConfig)
	attemptsHandler := handlers.NewAttemptsHandler(attemptService, loginService)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, loginHandler, passwordHandler, attemptsHandler)

	// Health check with database
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
