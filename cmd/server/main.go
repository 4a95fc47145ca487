package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"helpme/internal/app"
	"helpme/internal/config"
	"helpme/internal/handler"
	"helpme/internal/logging"
	internalRedis "helpme/internal/redis"
	"helpme/internal/repository/postgres"
	"helpme/internal/service"
)

func main() {
	// Load .env before reading configuration; missing file is fine.
	_ = godotenv.Load()
	cfg := config.Load()

	logging.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logging.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logging.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logging.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logging.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logging.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logging.Info("connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		logging.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis-backed stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	otpStore := internalRedis.NewOTPStore(redisClient)

	// Persistence.
	userRepo := postgres.NewUserRepository(db)

	// External channels.
	smsSender := service.NewSMSSender(cfg.Twilio)
	if !smsSender.Configured() {
		logging.Warn("no SMS provider configured, running in dev mode")
	}
	pusher := service.NewLogPusher()

	// Services.
	authService := service.NewAuthService(userRepo, otpStore, locationStore, smsSender,
		cfg.JWT.Secret, cfg.JWT.TTL, cfg.OTP.TTL)
	locationService := service.NewLocationService(locationStore, userRepo)
	alertService := service.NewAlertService(userRepo, locationService, smsSender, pusher)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	locationHandler := handler.NewLocationHandler(locationService)
	contactsHandler := handler.NewContactsHandler(userRepo)
	alertHandler := handler.NewAlertHandler(alertService)
	userHandler := handler.NewUserHandler(userRepo)

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:     authHandler,
		LocationHandler: locationHandler,
		ContactsHandler: contactsHandler,
		AlertHandler:    alertHandler,
		UserHandler:     userHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		JWTSecret:       cfg.JWT.Secret,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
