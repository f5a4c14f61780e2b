package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"hospital-booking-server/internal/cache"
	"hospital-booking-server/internal/config"
	"hospital-booking-server/internal/logging"
	"hospital-booking-server/internal/metrics"
	"hospital-booking-server/internal/middleware"
	"hospital-booking-server/internal/models"
	"hospital-booking-server/internal/repository"
	"hospital-booking-server/internal/routes"
	"hospital-booking-server/internal/seed"
	"hospital-booking-server/internal/services"
)

const serviceName = "hospital-booking-server"

func main() {
	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Hospital appointment booking API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(completeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration, logging and the database handle shared by every command.
func bootstrap() (*config.Config, *gorm.DB, error) {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	logging.Init(serviceName, cfg.Environment, cfg.LogLevel)

	db, err := models.Open(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Environment == "development",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return cfg, db, nil
}

func newCore(ctx context.Context, cfg *config.Config, db *gorm.DB, m *metrics.Metrics) (*services.Services, func()) {
	opts := services.Options{
		DepartmentCacheTTL: time.Duration(cfg.DepartmentCacheTTL) * time.Second,
		Metrics:            m,
	}

	cleanup := func() {}
	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, department cache disabled")
		} else {
			opts.Cache = redisCache
			cleanup = func() { redisCache.Close() }
		}
	}

	return services.New(repository.NewGormStore(db), opts), cleanup
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	core, cleanup := newCore(ctx, cfg, db, m)
	defer cleanup()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(m))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, db, core, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo departments, doctors and example appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			core, cleanup := newCore(cmd.Context(), cfg, db, metrics.NewNop())
			defer cleanup()

			summary, err := seed.Run(cmd.Context(), db, core.Booking, password, time.Now())
			if err != nil {
				return err
			}
			log.Info().
				Int("departments", summary.Departments).
				Int("doctors", summary.Doctors).
				Int("appointments", summary.Appointments).
				Msg("seed completed")
			return nil
		},
	}
	cmd.Flags().String("password", "password123", "Password for the demo accounts")
	return cmd
}

func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Mark approved appointments that have ended as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}

			core, cleanup := newCore(cmd.Context(), cfg, db, metrics.NewNop())
			defer cleanup()

			n, err := core.Sweeper.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Completed %d appointment(s).\n", n)
			return nil
		},
	}
}
