package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tair/goldlink/internal/goldrate"
	goldratehandler "github.com/tair/goldlink/internal/goldrate/handler"
	"github.com/tair/goldlink/internal/lending"
	lendingdomain "github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/internal/lending/gateway"
	lendinghandler "github.com/tair/goldlink/internal/lending/handler"
	"github.com/tair/goldlink/internal/lending/usecase/command"
	"github.com/tair/goldlink/internal/migrations"
	"github.com/tair/goldlink/internal/user"
	userhttp "github.com/tair/goldlink/internal/user/delivery/http"
	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/cache"
	"github.com/tair/goldlink/pkg/config"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/health"
	"github.com/tair/goldlink/pkg/logger"
	"github.com/tair/goldlink/pkg/metrics"
	"github.com/tair/goldlink/pkg/tracing"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Init("goldlink", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("db_driver", cfg.Database.Driver).
		Bool("mock_payments", !cfg.Razorpay.Enabled()).
		Msg("Starting goldlink server")

	// Initialize tracer
	tp, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.Open(cfg.Database.Driver, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	}, cfg.Database.Path)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	if err := migrations.Run(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	redisClient := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var events command.EventPublisher = command.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable, lending events will not be published")
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	var paymentGateway lendingdomain.PaymentGateway
	if cfg.Razorpay.Enabled() {
		paymentGateway = gateway.NewRazorpayClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Timeout)
	} else {
		logger.Logger.Warn().Msg("Razorpay credentials missing, payments run in mock mode")
	}

	// Initialize handlers with Wire DI
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry, cfg.ServiceName)
	sessions := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)

	userHandler, err := user.InitializeHTTPHandler(db, sessions, httpMetrics, userhttp.Options{SecureCookie: !cfg.IsDevelopment()})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize user handler")
	}
	lendingHandler, err := lending.InitializeHTTPHandler(
		db,
		sessions,
		httpMetrics,
		lendinghandler.NewLendingMetrics(registry),
		events,
		paymentGateway,
		lending.PaymentConfig{Timeout: cfg.Razorpay.Timeout},
		lendinghandler.Options{WebhookSecret: cfg.Razorpay.WebhookSecret},
	)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize lending handler")
	}
	goldRateHandler, err := goldrate.InitializeHTTPHandler(db, redisClient, httpMetrics, goldratehandler.Options{CronSecret: cfg.CronSecret})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize gold rate handler")
	}
	countUsers, err := user.InitializeCountUsers(db)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize user counter")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start gRPC health server
	grpcServer, healthServer := health.NewGRPCServer()
	go health.Watch(ctx, healthServer, sqlDB, countUsers.Handle, 15*time.Second)
	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("Failed to listen for gRPC")
		}
		logger.Logger.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server started")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	// Setup router
	router := mux.NewRouter()
	lendinghandler.RegisterMiddlewares(router, lendinghandler.DefaultMiddlewareConfig())
	userHandler.RegisterRoutes(router)
	lendingHandler.RegisterRoutes(router)
	goldRateHandler.RegisterRoutes(router)
	router.HandleFunc("/health", health.Handler(sqlDB, countUsers.Handle)).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	c := newCORS(cfg.CORS)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()
}
