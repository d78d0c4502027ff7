package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/auth"
	authPostgres "github.com/quanlynhankhau/registry-api/internal/auth/postgres"
	"github.com/quanlynhankhau/registry-api/internal/core/events"
	"github.com/quanlynhankhau/registry-api/internal/fee"
	feePostgres "github.com/quanlynhankhau/registry-api/internal/fee/postgres"
	"github.com/quanlynhankhau/registry-api/internal/household"
	householdPostgres "github.com/quanlynhankhau/registry-api/internal/household/postgres"
	"github.com/quanlynhankhau/registry-api/internal/ledger"
	ledgerPostgres "github.com/quanlynhankhau/registry-api/internal/ledger/postgres"
	"github.com/quanlynhankhau/registry-api/internal/payment"
	paymentPostgres "github.com/quanlynhankhau/registry-api/internal/payment/postgres"
	"github.com/quanlynhankhau/registry-api/internal/paymentgateway"
	"github.com/quanlynhankhau/registry-api/internal/transport/middleware"
	"github.com/quanlynhankhau/registry-api/internal/transport/rest"
	"github.com/quanlynhankhau/registry-api/internal/transport/swagger"
	"github.com/quanlynhankhau/registry-api/internal/user"
	userPostgres "github.com/quanlynhankhau/registry-api/internal/user/postgres"
	"github.com/quanlynhankhau/registry-api/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	env := "development"
	if config.Logging.Format == "json" {
		env = "production"
	}
	logger.Init(env)
	lg := logger.LoggerWrapper()

	if err := swagger.ValidateSpec(context.Background(), "./api/openapi.yml"); err != nil {
		return nil, fmt.Errorf("openapi contract check failed: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the sqlx pool so health checks and repositories see the
	// same connections.
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// Repositories
	paymentRepo := paymentPostgres.NewPaymentRepository(gormDB)
	notificationRepo := paymentPostgres.NewNotificationRepository(gormDB)
	feeRepo := feePostgres.NewFeeRepository(gormDB)
	householdRepo := householdPostgres.NewHouseholdRepository(gormDB)
	ledgerRepo := ledgerPostgres.NewLedgerRepository(gormDB)
	authRepo := authPostgres.NewRepository(gormDB)
	userRepo := userPostgres.NewUserRepository(gormDB)

	// Services
	feeService := fee.NewService(feeRepo, lg)
	householdService := household.NewService(householdRepo, lg)
	ledgerService := ledger.NewService(ledgerRepo, lg)
	userService := user.NewService(userRepo)

	tokenGenerator := auth.NewJWTTokenGenerator(config.Security)
	authService := auth.NewService(authRepo, tokenGenerator)

	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:        config.PayOS.BaseURL,
		ClientID:       config.PayOS.ClientID,
		APIKey:         config.PayOS.APIKey,
		ChecksumKey:    config.PayOS.ChecksumKey,
		RequestTimeout: config.PayOS.RequestTimeout,
	}, lg)
	quickLinkBuilder := paymentgateway.NewQuickLinkBuilder(paymentgateway.QuickLinkConfig{
		ReceiverAccountNo:   config.VietQR.ReceiverAccountNo,
		ReceiverAccountName: config.VietQR.ReceiverAccountName,
		BankBIN:             config.VietQR.BankBIN,
		TemplateID:          config.VietQR.TemplateID,
	})

	paymentService := payment.NewService(payment.ServiceConfig{
		DefaultReturnURL: config.Server.BaseURL + "/payment/success",
		DefaultCancelURL: config.Server.BaseURL + "/payment/cancel",
	}, paymentRepo, notificationRepo, feeService, householdService, gatewayClient, quickLinkBuilder, lg)

	// Event bus with the fee ledger bridge on the paid path.
	eventBus := events.NewEventBus(lg)
	ledgerEventHandler := ledger.NewEventHandler(ledgerService, lg)
	ledgerEventHandler.RegisterEventHandlers(eventBus)

	reconciler := payment.NewReconciler(payment.ReconcilerConfig{
		ProviderSecret:         config.PayOS.ChecksumKey,
		QuickLinkSecret:        config.VietQR.WebhookSecret,
		AllowUnsignedQuickLink: config.VietQR.AllowUnsignedWebhook,
	}, paymentRepo, feeService, householdService, eventBus, lg)

	// Handlers
	handlers := rest.Handlers{
		Auth:    auth.NewHandler(authService),
		User:    user.NewHandler(userService),
		Payment: payment.NewHandler(paymentService, lg),
		Webhook: payment.NewWebhookHandler(reconciler, lg),
	}

	router := chi.NewRouter()
	cors := middleware.NewCORSConfig(config.Server.AllowedOrigins)
	rest.RegisterAllRoutes(router, db.DB, handlers, cors, lg)

	return &Dependencies{
		Config: config,
		DB:     db,
		Router: router,
		Logger: lg,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
