package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/creditosbo/creditos-api/internal/config"
	"github.com/creditosbo/creditos-api/internal/database"
	"github.com/creditosbo/creditos-api/internal/handlers"
	"github.com/creditosbo/creditos-api/internal/jobs"
	"github.com/creditosbo/creditos-api/internal/middleware"
	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/creditosbo/creditos-api/internal/repository"
	"github.com/creditosbo/creditos-api/internal/services"
	"github.com/creditosbo/creditos-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Creditos API
// @version 1.0
// @description REST API for consumer loan tracking and amortization schedules

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run migrations
	if err := db.AutoMigrate(&models.Loan{}, &models.Installment{}, &models.AuditLog{}); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", h.Health.Index)

		// Loan management
		v1.GET("/loans", h.Loan.Index)
		v1.POST("/loans", h.Loan.Create)
		v1.GET("/loans/:loan_id", h.Loan.Show)
		v1.PUT("/loans/:loan_id", h.Loan.Update)
		v1.DELETE("/loans/:loan_id", h.Loan.Delete)

		// Installments and payment state
		v1.GET("/loans/:loan_id/installments", h.Installment.Index)
		v1.POST("/loans/:loan_id/installments/:number/pay", h.Installment.Pay)
		v1.POST("/loans/:loan_id/installments/:number/unpay", h.Installment.Unpay)

		// Schedule exports
		v1.GET("/loans/:loan_id/schedule/csv", h.Report.ScheduleCSV)
		v1.GET("/loans/:loan_id/schedule/xlsx", h.Report.ScheduleXLSX)
		v1.GET("/loans/:loan_id/schedule/pdf", h.Report.SchedulePDF)

		// Audit log
		v1.GET("/audits", h.Audit.Index)

		// Background worker status
		v1.GET("/jobs/status", h.Job.Status)
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Check overdue installments every hour
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking overdue installments...")
		return svcs.Payment.CheckOverdue(ctx)
	})

	// Initial scan at startup; the ticker above only fires after the first interval
	worker.Enqueue(func(ctx context.Context) error {
		return svcs.Payment.CheckOverdue(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
