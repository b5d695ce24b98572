package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/soltio/crypto-gateway/internal/domain/usecase/fee"
	invoiceUseCase "github.com/soltio/crypto-gateway/internal/domain/usecase/invoice"
	"github.com/soltio/crypto-gateway/internal/domain/usecase/settlement"
	withdrawalUseCase "github.com/soltio/crypto-gateway/internal/domain/usecase/withdrawal"

	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/handler"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/api/routes"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/database"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/database/migration"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/gateway/binance"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/gateway/notifier"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/gateway/nowpayments"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/logger"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/repository"
	"github.com/soltio/crypto-gateway/internal/infrastructure/adapter/secrets"
	timeProvider "github.com/soltio/crypto-gateway/internal/infrastructure/adapter/time"
	"github.com/soltio/crypto-gateway/internal/infrastructure/config"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)

	// Setup database configuration
	dbConfig := &database.Config{
		Driver:          "postgres",
		Host:            cfg.Database.Host,
		Port:            database.ParsePort(cfg.Database.Port),
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        cfg.Logger.Level,
		RetryAttempts:   3,
		RetryDelay:      5,
	}

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	// Connect to the database
	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer dbManager.Close()

	// Run migrations
	migrationMgr := migration.NewMigrationManagerWithTimeProvider(dbManager.DB(), appLogger, tp)
	if err := migrationMgr.MigrateAll(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	if cfg.Environment == config.Development {
		if err := migrationMgr.SeedDevelopmentData(context.Background()); err != nil {
			appLogger.Error("Failed to seed development data", map[string]any{
				"error": err.Error(),
			})
		}
	}

	// Secret cipher for merchant credentials at rest
	secretCipher, err := secrets.NewAESCipher(cfg.Secrets.Passphrase)
	if err != nil {
		appLogger.Error("Failed to initialize secret cipher", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Initialize repositories
	merchantRepo := repository.NewMerchantRepository(dbManager.DB(), tp, appLogger)
	invoiceRepo := repository.NewInvoiceRepository(dbManager.DB(), tp, appLogger)
	transactionRepo := repository.NewTransactionRepository(dbManager.DB(), tp, appLogger)
	withdrawalRepo := repository.NewWithdrawalRepository(dbManager.DB(), tp, appLogger)

	// Unit of work (transaction manager)
	uow := database.NewUnitOfWork(dbManager.DB(), appLogger, tp)

	// Fee calculator from the centralized rates
	feeRates, err := parseFeeRates(cfg.Fees)
	if err != nil {
		appLogger.Error("Invalid fee configuration", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	feeCalculator := fee.NewCalculator(feeRates)

	// External gateways
	processorClient := nowpayments.NewClient(nowpayments.Config{
		BaseURL: cfg.Processor.BaseURL,
		APIKey:  cfg.Processor.APIKey,
		Timeout: cfg.Processor.Timeout,
	}, appLogger)

	exchangeClient := binance.NewClient(binance.Config{
		Hosts:          cfg.Exchange.Hosts,
		PerHostTimeout: cfg.Exchange.PerHostTimeout,
	}, tp, appLogger)

	merchantNotifier := notifier.NewWebhookNotifier(cfg.Notifier.Timeout, secretCipher, appLogger)

	// Settlement pipeline and its two confirmers
	settler := settlement.NewSettler(uow, merchantNotifier, tp, appLogger)
	webhookConfirmer := settlement.NewWebhookConfirmer(
		settler, transactionRepo, feeCalculator, cfg.Processor.IPNSecret, appLogger)
	pollConfirmer := settlement.NewPollConfirmer(
		settler, invoiceRepo, transactionRepo, merchantRepo, exchangeClient,
		secretCipher, feeCalculator, cfg.Exchange.SearchWindow, appLogger)

	// Initialize use cases
	invoiceService := invoiceUseCase.NewService(
		uow, invoiceRepo, transactionRepo, merchantRepo, processorClient,
		feeCalculator, tp, appLogger, invoiceUseCase.Options{
			CheckoutBaseURL:      cfg.Checkout.BaseURL,
			CallbackURL:          cfg.Processor.CallbackURL,
			ProcessorExpiry:      cfg.Checkout.ProcessorExpiry,
			DirectTransferExpiry: cfg.Checkout.DirectTransferExpiry,
			DefaultPayCurrency:   cfg.Checkout.DefaultPayCurrency,
		})
	withdrawalService := withdrawalUseCase.NewService(uow, withdrawalRepo, merchantRepo, tp, appLogger)

	// Initialize API handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, appLogger)
	checkoutHandler := handler.NewCheckoutHandler(invoiceService, appLogger)
	webhookHandler := handler.NewWebhookHandler(webhookConfirmer, appLogger)
	verifyHandler := handler.NewVerifyHandler(pollConfirmer, appLogger)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService, appLogger)

	// Initialize Gin router
	router := gin.New()

	// Setup middlewares
	routes.SetupMiddlewares(router, appLogger)

	// Setup routes
	routes.SetupRoutes(router, merchantRepo,
		invoiceHandler, checkoutHandler, webhookHandler, verifyHandler, withdrawalHandler,
		appLogger)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown the server
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// parseFeeRates parses the configured decimal rate strings
func parseFeeRates(cfg config.FeesConfig) (fee.Rates, error) {
	platform, err := decimal.NewFromString(cfg.PlatformRate)
	if err != nil {
		return fee.Rates{}, fmt.Errorf("invalid fees.platformRate %q: %w", cfg.PlatformRate, err)
	}
	provider, err := decimal.NewFromString(cfg.ProviderRate)
	if err != nil {
		return fee.Rates{}, fmt.Errorf("invalid fees.providerRate %q: %w", cfg.ProviderRate, err)
	}
	return fee.Rates{PlatformRate: platform, ProviderRate: provider}, nil
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	// Validate server configuration
	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}

	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}

	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}

	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	// Validate database configuration
	if cfg.Database.Host == "" {
		// In production, check if environment variable exists
		if cfg.Environment == config.Production && os.Getenv("GW_DB_HOST") == "" {
			missingConfigs = append(missingConfigs, "database.host (or GW_DB_HOST environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.host")
		}
	}

	if cfg.Database.Port == "" {
		if cfg.Environment == config.Production && os.Getenv("GW_DB_PORT") == "" {
			missingConfigs = append(missingConfigs, "database.port (or GW_DB_PORT environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.port")
		}
	}

	if cfg.Database.Username == "" {
		if cfg.Environment == config.Production && os.Getenv("GW_DB_USERNAME") == "" {
			missingConfigs = append(missingConfigs, "database.username (or GW_DB_USERNAME environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.username")
		}
	}

	if cfg.Database.Password == "" {
		if cfg.Environment == config.Production && os.Getenv("GW_DB_PASSWORD") == "" {
			missingConfigs = append(missingConfigs, "database.password (or GW_DB_PASSWORD environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.password")
		}
	}

	if cfg.Database.Database == "" {
		if cfg.Environment == config.Production && os.Getenv("GW_DB_NAME") == "" {
			missingConfigs = append(missingConfigs, "database.database (or GW_DB_NAME environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.database")
		}
	}

	if cfg.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	// Validate fee configuration
	if cfg.Fees.PlatformRate == "" {
		missingConfigs = append(missingConfigs, "fees.platformRate")
	}

	if cfg.Fees.ProviderRate == "" {
		missingConfigs = append(missingConfigs, "fees.providerRate")
	}

	// Validate checkout configuration
	if cfg.Checkout.BaseURL == "" {
		missingConfigs = append(missingConfigs, "checkout.baseUrl")
	}

	// Validate secrets configuration
	if cfg.Secrets.Passphrase == "" {
		if cfg.Environment == config.Production && os.Getenv("GW_SECRETS_PASSPHRASE") == "" {
			missingConfigs = append(missingConfigs, "secrets.passphrase (or GW_SECRETS_PASSPHRASE environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "secrets.passphrase")
		}
	}

	// Environment should be set with a valid value
	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	// Logger configuration
	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	// Return error with list of missing configurations
	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	// If we're in production, do additional validation for sensitive settings
	if cfg.Environment == config.Production {
		var warnings []string

		// Check database security settings
		if strings.ToLower(cfg.Database.SSLMode) != "require" && strings.ToLower(cfg.Database.SSLMode) != "verify-ca" && strings.ToLower(cfg.Database.SSLMode) != "verify-full" {
			warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
		}

		// Payment credentials should never be empty in production
		if cfg.Processor.APIKey == "" {
			warnings = append(warnings, "processor.apiKey is empty; processor-routed payments will fail")
		}

		if cfg.Processor.IPNSecret == "" {
			warnings = append(warnings, "processor.ipnSecret is empty; payment notifications cannot be verified")
		}

		// Check timeout settings
		if cfg.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}

		if cfg.Server.WriteTimeout < 5*time.Second {
			warnings = append(warnings, "server.writeTimeout is too low for production")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential security issues in production configuration: %v", warnings)
		}
	}

	return nil
}
