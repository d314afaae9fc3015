package main

import (
	"context"
	"encoding/json"
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

	"github.com/clinica/clinica/internal/calls"
	"github.com/clinica/clinica/internal/config"
	"github.com/clinica/clinica/internal/domain/agenda"
	"github.com/clinica/clinica/internal/domain/patient"
	"github.com/clinica/clinica/internal/domain/prescription"
	"github.com/clinica/clinica/internal/platform/auth"
	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/internal/platform/middleware"
	"github.com/clinica/clinica/internal/platform/proxy"
	"github.com/clinica/clinica/internal/platform/ws"
)

// wsNotifier adapts the WebSocket hub to the agenda.ChangeNotifier interface,
// avoiding a dependency from the agenda package on the transport layer.
type wsNotifier struct {
	hub *ws.Hub
}

func (n *wsNotifier) NotifyChange(eventType string, a *agenda.Appointment) {
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	n.hub.Broadcast(ws.Event{Type: eventType, Topic: "agenda", Data: data})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinica-server",
		Short: "Clinical records server with a real-time patient-calling bridge",
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
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
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
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
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
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Repositories: Postgres when configured, seeded in-memory otherwise.
	ctx := context.Background()
	var apptRepo agenda.AppointmentRepository
	var patientRepo patient.PatientRepository
	var rxRepo prescription.PrescriptionRepository

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		apptRepo = agenda.NewAppointmentRepoPG(pool)
		patientRepo = patient.NewPatientRepoPG(pool)
		rxRepo = prescription.NewPrescriptionRepoPG(pool)
		e.GET("/health/db", db.HealthHandler(pool))
	} else {
		logger.Warn().Msg("no DATABASE_URL set, using in-memory repositories")
		apptRepo = agenda.NewMemoryRepo(cfg.IsDev())
		patientRepo = patient.NewMemoryRepo(cfg.IsDev())
		rxRepo = prescription.NewMemoryRepo()
	}

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	e.Use(middleware.RequestTimeout(30 * time.Second))

	apiV1 := e.Group("/api/v1")

	// Patient-calling bridge
	registry := calls.NewRegistry()
	broadcaster := calls.NewBroadcaster(registry, logger)
	local := calls.NewLocalChannel(cfg.SyncDir, logger)
	calls.NewHandler(registry, broadcaster, local, logger).RegisterRoutes(apiV1)

	// Live agenda feed
	hub := ws.NewHub(logger)
	ws.NewHandler(hub).RegisterRoutes(apiV1)

	// Domain services
	agendaSvc := agenda.NewService(apptRepo, broadcaster, local, &wsNotifier{hub: hub}, logger)
	agenda.NewHandler(agendaSvc).RegisterRoutes(apiV1)

	patient.NewHandler(patient.NewService(patientRepo)).RegisterRoutes(apiV1)
	prescription.NewHandler(prescription.NewService(rxRepo)).RegisterRoutes(apiV1)

	// Upstream GeneXus proxy
	if cfg.BackendBaseURL != "" {
		backend, err := proxy.NewBackend(cfg.BackendBaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid backend url")
		}
		backend.RegisterRoutes(e)
		logger.Info().Str("backend", cfg.BackendBaseURL).Msg("backend proxy enabled")
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Graceful shutdown
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
