package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wardchart/wardchart/internal/config"
	"github.com/wardchart/wardchart/internal/domain/chart"
	"github.com/wardchart/wardchart/internal/domain/medication"
	"github.com/wardchart/wardchart/internal/domain/stay"
	"github.com/wardchart/wardchart/internal/platform/auth"
	"github.com/wardchart/wardchart/internal/platform/db"
	"github.com/wardchart/wardchart/internal/platform/middleware"
)

// StayReaderAdapter adapts the stay repository to the chart package's
// read-only hospitalization view, avoiding a circular import between the two
// domains.
type StayReaderAdapter struct {
	repo stay.HospitalizationRepository
}

func NewStayReaderAdapter(repo stay.HospitalizationRepository) *StayReaderAdapter {
	return &StayReaderAdapter{repo: repo}
}

// GetContext implements chart.HospitalizationReader.
func (a *StayReaderAdapter) GetContext(ctx context.Context, id uuid.UUID) (*chart.HospitalizationContext, error) {
	h, err := a.repo.GetByID(ctx, id)
	if err != nil || h == nil {
		return nil, err
	}
	return &chart.HospitalizationContext{
		ID:          h.ID,
		AdmissionAt: h.AdmissionAt,
		WeightKg:    h.WeightKg,
		ArchivedAt:  h.ArchivedAt,
	}, nil
}

// DosageAdapter adapts the medication service to the chart package's dose
// resolver.
type DosageAdapter struct {
	svc *medication.Service
}

func NewDosageAdapter(svc *medication.Service) *DosageAdapter {
	return &DosageAdapter{svc: svc}
}

// RecommendedFor implements chart.DosageResolver.
func (a *DosageAdapter) RecommendedFor(ctx context.Context, medicationID uuid.UUID, weightKg float64) (*chart.DosageReference, error) {
	r, err := a.svc.RecommendedRange(ctx, medicationID, weightKg)
	if err != nil || r == nil {
		return nil, err
	}
	return &chart.DosageReference{Min: r.Min, Max: r.Max, Unit: r.Unit}, nil
}

// ChartReaderAdapter exposes the chart repositories to the stay package's
// summary aggregation.
type ChartReaderAdapter struct {
	rows    chart.RowRepository
	entries chart.EntryRepository
}

func NewChartReaderAdapter(rows chart.RowRepository, entries chart.EntryRepository) *ChartReaderAdapter {
	return &ChartReaderAdapter{rows: rows, entries: entries}
}

// ListRows implements stay.ChartReader.
func (a *ChartReaderAdapter) ListRows(ctx context.Context, hospitalizationID uuid.UUID) ([]*chart.ChartRow, error) {
	return a.rows.ListByHospitalization(ctx, hospitalizationID)
}

// ListEntries implements stay.ChartReader.
func (a *ChartReaderAdapter) ListEntries(ctx context.Context, hospitalizationID uuid.UUID) ([]*chart.ChartEntry, error) {
	return a.entries.ListByHospitalization(ctx, hospitalizationID)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "chart-server",
		Short: "Ward observation chart API server",
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
		Short: "Start the chart API server",
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

			pool, err := openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(context.Background())
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

			pool, err := openPool()
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

func openPool() (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return db.NewPool(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
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
		logger.Fatal().Err(err).Msg("invalid configuration")
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
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout()))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Repositories
	hospRepo := stay.NewHospitalizationRepoPG(pool)
	usageRepo := stay.NewMaterialUsageRepoPG(pool)
	medRepo := medication.NewMedicationRepoPG(pool)
	materialRepo := medication.NewMaterialRepoPG(pool)
	rowRepo := chart.NewRowRepoPG(pool)
	entryRepo := chart.NewEntryRepoPG(pool)
	scheduleRepo := chart.NewScheduleRepoPG(pool)
	templateRepo := chart.NewTemplateRepoPG(pool)

	// Services
	medSvc := medication.NewService(medRepo, materialRepo)

	staySvc := stay.NewService(hospRepo, usageRepo)
	staySvc.SetChartReader(NewChartReaderAdapter(rowRepo, entryRepo))

	chartSvc := chart.NewService(rowRepo, entryRepo, scheduleRepo, templateRepo, NewStayReaderAdapter(hospRepo))
	chartSvc.SetDosageResolver(NewDosageAdapter(medSvc))
	chartSvc.SetTxRunner(func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	})

	// Handlers
	stay.NewHandler(staySvc).RegisterRoutes(apiV1)
	medication.NewHandler(medSvc).RegisterRoutes(apiV1)
	chart.NewHandler(chartSvc).RegisterRoutes(apiV1)

	// DB health check endpoint
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
