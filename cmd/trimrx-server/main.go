package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/trimrx/trimrx/internal/config"
	"github.com/trimrx/trimrx/internal/domain/assessment"
	"github.com/trimrx/trimrx/internal/domain/identity"
	"github.com/trimrx/trimrx/internal/domain/provider"
	"github.com/trimrx/trimrx/internal/domain/wizard"
	"github.com/trimrx/trimrx/internal/platform/auth"
	"github.com/trimrx/trimrx/internal/platform/db"
	"github.com/trimrx/trimrx/internal/platform/email"
	"github.com/trimrx/trimrx/internal/platform/events"
	"github.com/trimrx/trimrx/internal/platform/middleware"
	"github.com/trimrx/trimrx/internal/platform/payment"
)

const sessionTTL = 24 * time.Hour

func main() {
	rootCmd := &cobra.Command{
		Use:   "trimrx-server",
		Short: "Telehealth intake and review API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			applied, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", len(applied))
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("unsafe configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	// Auth
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, sessionTTL)

	// Platform collaborators
	hub := events.NewHub(logger)
	gateway := payment.NewGateway(cfg.PaymentGatewayURL, cfg.PaymentSandbox)
	mailer := email.NewClient(cfg.EmailFunctionURL, logger)

	// Assessment domain
	assessmentRepo := assessment.NewRepoPG(pool)
	assessmentSvc := assessment.NewService(assessmentRepo, logger)
	assessmentSvc.SetPublisher(hub)
	autosaver := assessment.NewAutosaver(assessmentSvc, assessment.DefaultAutosaveDelay, logger)

	// Identity domain
	identityRepo := identity.NewRepoPG(pool)
	identitySvc := identity.NewService(identityRepo, issuer, logger)
	assessmentSvc.SetAttributionSource(identitySvc)

	// Wizard
	wizardSvc := wizard.NewService(assessmentSvc, autosaver, gateway, identitySvc, mailer, logger)

	// Provider review
	providerSvc := provider.NewService(assessmentSvc, assessmentRepo, identitySvc, mailer, logger)

	// API groups
	public := e.Group("/api/v1")
	api := e.Group("/api/v1")
	ws := e.Group("/ws")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	public.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RateLimit(rateLimitCfg))

	if cfg.IsDev() {
		api.Use(auth.DevMiddleware())
		ws.Use(auth.DevMiddleware())
	} else {
		api.Use(auth.Middleware(issuer))
		ws.Use(auth.Middleware(issuer))
	}

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	// Routes
	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterPublicRoutes(public)
	identityHandler.RegisterRoutes(api)

	assessmentHandler := assessment.NewHandler(assessmentSvc, autosaver)
	assessmentHandler.RegisterRoutes(api)

	wizardHandler := wizard.NewHandler(wizardSvc)
	wizardHandler.RegisterRoutes(api)

	providerHandler := provider.NewHandler(providerSvc)
	providerHandler.RegisterRoutes(api)

	eventsHandler := events.NewHandler(hub)
	eventsHandler.RegisterRoutes(ws)

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
