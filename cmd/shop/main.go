package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/pater97/go-shop/internal/cache"
	"github.com/pater97/go-shop/internal/cart"
	"github.com/pater97/go-shop/internal/catalog"
	shophttp "github.com/pater97/go-shop/internal/http"
	"github.com/pater97/go-shop/internal/invoice"
	"github.com/pater97/go-shop/internal/logging"
	"github.com/pater97/go-shop/internal/orders"
	"github.com/pater97/go-shop/internal/orders/publisher"
	ordersrepo "github.com/pater97/go-shop/internal/orders/repository"
	"github.com/pater97/go-shop/internal/poller"
	"github.com/pater97/go-shop/internal/repository"
)

type Config struct {
	HTTPPort        string
	Mongo           repository.MongoSettings
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	PageSize        int
	InvoiceDir      string
	LogFile         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Postgres        ordersrepo.Credentials
}

func loadConfig() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Mongo: repository.MongoSettings{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DB_NAME", "shopdb"),
			ConnectTimeout: time.Duration(getEnvInt("MONGO_CONNECT_TIMEOUT_SEC", 10)) * time.Second,
			MaxPoolSize:    uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 100)),
			MinPoolSize:    uint64(getEnvInt("MONGO_MIN_POOL_SIZE", 10)),
		},
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    []string{getEnv("KAFKA_BROKER", "localhost:9092")},
		PageSize:        getEnvInt("CATALOG_PAGE_SIZE", catalog.DefaultPageSize),
		InvoiceDir:      getEnv("INVOICE_DIR", "data/invoices"),
		LogFile:         getEnv("LOG_FILE", "logs/shop.log"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Postgres: ordersrepo.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              getEnvInt("POSTGRES_PORT", 5432),
			User:              getEnv("POSTGRES_USER", "shop"),
			Password:          getEnv("POSTGRES_PASSWORD", "shop"),
			DBName:            getEnv("POSTGRES_DB", "shopdb"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "internal/orders/repository/migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	logging.Init("shop", cfg.LogFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB: catalog and carts.
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoDB.Client().Disconnect(context.Background())
	slog.Info("connected to MongoDB", "uri", cfg.Mongo.URI)

	if err := repository.EnsureCartIndexes(ctx, mongoDB); err != nil {
		slog.Error("failed to create cart indexes", "error", err)
		os.Exit(1)
	}

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	productRepo := repository.NewMongoProductRepository(mongoDB)

	// Postgres: orders and their outbox.
	orderRepo, err := ordersrepo.NewRepository(&cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(&cfg.Postgres); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Postgres", "db", cfg.Postgres.DBName)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis", "addr", cfg.RedisAddr)

	cartCache := cache.NewRedisCache(redisClient, 15*time.Minute)

	catalogService := catalog.NewService(productRepo, cfg.PageSize)
	cartService := cart.NewService(cartRepo, productRepo, cartCache)
	orderService := orders.NewService(orderRepo, cartService, productRepo)
	invoiceService := invoice.NewService(orderService, invoice.NewPDFRenderer(), cfg.InvoiceDir)

	// Outbox → Kafka, and the cart-clear reconciler on the other end.
	outboxPoller := publisher.NewOutboxPoller(orderRepo, cfg.KafkaBrokers...)
	defer outboxPoller.Close()
	go outboxPoller.Run(ctx)

	cartPoller := poller.NewPoller(cartRepo, cartCache, publisher.Topic, cfg.KafkaBrokers...)
	defer cartPoller.Close()
	go cartPoller.Run(ctx)

	productHandler := shophttp.NewProductHandler(catalogService, cfg.RequestTimeout)
	cartHandler := shophttp.NewCartHandler(cartService, cfg.RequestTimeout)
	ordersHandler := shophttp.NewOrdersHandler(orderService, cfg.RequestTimeout)
	invoiceHandler := shophttp.NewInvoiceHandler(invoiceService, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(shophttp.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(shophttp.MockAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{product_id}", productHandler.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordersHandler.PlaceOrder)
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}/invoice", invoiceHandler.GetInvoice)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("shop server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}
