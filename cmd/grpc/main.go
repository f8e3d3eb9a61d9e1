package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tecnoshop/checkout-service/config"
	"github.com/tecnoshop/checkout-service/internal/auth"
	"github.com/tecnoshop/checkout-service/internal/checkout"
	checkoutGuard "github.com/tecnoshop/checkout-service/internal/checkout/guard"
	checkoutH "github.com/tecnoshop/checkout-service/internal/checkout/handler"
	checkoutUCPkg "github.com/tecnoshop/checkout-service/internal/checkout/usecase"
	invUCPkg "github.com/tecnoshop/checkout-service/internal/inventory/usecase"
	"github.com/tecnoshop/checkout-service/internal/order"
	orderRepoPkg "github.com/tecnoshop/checkout-service/internal/order/repository"
	"github.com/tecnoshop/checkout-service/internal/outbox"
	outboxRelayPkg "github.com/tecnoshop/checkout-service/internal/outbox/relay"
	outboxRepoPkg "github.com/tecnoshop/checkout-service/internal/outbox/repository"
	"github.com/tecnoshop/checkout-service/internal/payment"
	stripeGateway "github.com/tecnoshop/checkout-service/internal/payment/stripe"
	"github.com/tecnoshop/checkout-service/internal/product"
	prodRepoPkg "github.com/tecnoshop/checkout-service/internal/product/repository"
	"github.com/tecnoshop/checkout-service/internal/store"
	storeRepoPkg "github.com/tecnoshop/checkout-service/internal/store/repository"
	"github.com/tecnoshop/checkout-service/pkg/broker"
	"github.com/tecnoshop/checkout-service/pkg/cache"
	"github.com/tecnoshop/checkout-service/pkg/database/postgres"
	"github.com/tecnoshop/checkout-service/pkg/i18n"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"github.com/tecnoshop/checkout-service/pkg/metrics"
	"github.com/tecnoshop/checkout-service/pkg/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 1.5 Initialize i18n
	i18n.Init()
	for _, path := range cfg.Server.LocaleFiles {
		if err := i18n.Load(path); err != nil {
			log.Printf("Failed to load locale file %s: %v", path, err)
		}
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize Storage
	var (
		products   product.Repository
		stores     store.Repository
		orders     order.Repository
		outboxRepo outbox.Repository
		guard      checkout.Guard
	)

	switch cfg.Checkout.StorageDriver {
	case "memory":
		memOutbox := outboxRepoPkg.NewMemoryRepository()
		products = prodRepoPkg.NewMemoryRepository()
		stores = storeRepoPkg.NewMemoryRepository()
		orders = orderRepoPkg.NewMemoryRepository(memOutbox)
		outboxRepo = memOutbox
		guard = checkoutGuard.NewLocalGuard()
		appLogger.Warn("Using in-memory storage, data is lost on restart")
	default:
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		products = prodRepoPkg.NewPGRepository(db)
		stores = storeRepoPkg.NewPGRepository(db)
		orders = orderRepoPkg.NewPGRepository(db)
		outboxRepo = outboxRepoPkg.NewPGRepository(db)

		// 3.5 Initialize Redis
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

		guard = checkoutGuard.NewRedisGuard(redisClient, cfg.Checkout.IdempotencyTTL, appLogger)
	}

	// 4. Initialize Payment Gateway
	var gateway payment.Gateway = payment.Disabled{}
	if cfg.Payment.Provider == "stripe" && cfg.Payment.StripeSecretKey != "" {
		gateway = stripeGateway.NewGateway(stripeGateway.Config{
			SecretKey: cfg.Payment.StripeSecretKey,
			ReturnURL: cfg.Payment.ReturnURL,
		})
		appLogger.Info("Stripe payment gateway enabled")
	} else {
		appLogger.Warn("Payment gateway disabled, card checkouts will fail", zap.String("provider", cfg.Payment.Provider))
	}

	// 5. Initialize Metrics
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	// 6. Initialize UseCases
	invUC := invUCPkg.NewInventoryUseCase(products, appLogger, cfg.Checkout.CompensationTimeout)
	checkoutUC := checkoutUCPkg.NewCheckoutUseCase(checkoutUCPkg.Dependencies{
		Verifier:  auth.NewJWTVerifier(cfg.JWT.SecretKey),
		Inventory: invUC,
		Stores:    stores,
		Orders:    orders,
		Gateway:   gateway,
		Guard:     guard,
		Metrics:   checkoutMetrics,
		Logger:    appLogger,
	}, checkoutUCPkg.Config{
		Currency:            cfg.Payment.Currency,
		Routing:             order.RoutingPolicy(cfg.Checkout.PaymentRouting),
		GatewayTimeout:      cfg.Payment.Timeout,
		CompensationTimeout: cfg.Checkout.CompensationTimeout,
		EventTopic:          cfg.Kafka.Topic,
	})

	// 6.5 Initialize Outbox Relay
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer producer.Close()
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		relay := outboxRelayPkg.NewOutboxRelay(outboxRepo, producer, appLogger, cfg.Kafka.OutboxBatch, cfg.Kafka.OutboxInterval)
		go relay.Start(ctx)
	}

	// 7. Initialize Handlers
	checkoutHandler := checkoutH.NewCheckoutHandler(checkoutUC, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.LoggingInterceptor(appLogger),
		),
	)

	checkoutH.RegisterCheckoutServiceServer(grpcServer, checkoutHandler)
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	appLogger.Info("Server stopped")
}
