package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuidobem/finance-backend/internal/adapters/gateway"
	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/core/services"
	"github.com/cuidobem/finance-backend/internal/dto"
	"github.com/cuidobem/finance-backend/internal/handlers"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/cuidobem/finance-backend/internal/platform/config"
	"github.com/cuidobem/finance-backend/internal/platform/tasks"
	"github.com/cuidobem/finance-backend/internal/repositories/database/pgsql"
	"github.com/cuidobem/finance-backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Finance Backend API
// @version 1.0
// @description Back-office finance service: invoicing, payments, caregiver payouts, approvals and period reconciliation.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	dto.RegisterValidations()

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Actor-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runner := tasks.NewRunner(logger, cfg.TaskTimeout)
	serviceContainer := buildServices(dbPool, cfg, logger, runner)

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown: stop accepting requests, then drain background tasks.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}
	runner.Wait()
	logger.Info("Server exited.")
}

// buildServices wires repositories and services. Construction order follows
// the dependency chain: settings first, then approval and pricing, then the
// ledger-facing services.
func buildServices(dbPool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger, runner *tasks.Runner) *portssvc.ServiceContainer {
	repos := pgsql.NewRepositoryProvider(dbPool)
	paymentGateway := gateway.NewLoggingGateway(logger)

	settingsSvc := services.NewSettingsService(repos.SettingRepo, cfg.SettingsCacheTTL)
	approvalSvc := services.NewApprovalService(repos.ApprovalRepo, settingsSvc)
	pricingSvc := services.NewPricingService(repos.PricePlanRepo, settingsSvc)
	invoiceSvc := services.NewInvoiceService(repos.InvoiceRepo, pricingSvc, settingsSvc, approvalSvc)
	paymentSvc := services.NewPaymentService(repos.PaymentRepo, repos.InvoiceRepo, invoiceSvc, approvalSvc, paymentGateway, runner)
	payoutSvc := services.NewPayoutService(repos.PayoutRepo, settingsSvc, approvalSvc, paymentGateway, runner)
	payableSvc := services.NewPayableService(repos.PayableRepo, approvalSvc)
	provisionSvc := services.NewProvisionService(repos.ProvisionRepo, repos.InvoiceRepo)
	reconciliationSvc := services.NewReconciliationService(repos.ReconciliationRepo, repos.InvoiceRepo, repos.PaymentRepo, repos.PayoutRepo, settingsSvc)

	return &portssvc.ServiceContainer{
		Settings:       settingsSvc,
		Pricing:        pricingSvc,
		Invoice:        invoiceSvc,
		Payment:        paymentSvc,
		Payout:         payoutSvc,
		Approval:       approvalSvc,
		Payable:        payableSvc,
		Provision:      provisionSvc,
		Reconciliation: reconciliationSvc,
	}
}

// runMigrations applies all pending "up" migrations from the migrations
// directory using a temporary database/sql connection.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
