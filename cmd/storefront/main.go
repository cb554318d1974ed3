package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/internal/apiclient"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/i18n"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open local storage: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed")

	tokens := storage.NewTokenStore(storage.NewKV(db))

	client := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.UpstreamTimeout,
		Tokens:  tokens,
		Notifier: apiclient.NotifierFunc(func(ctx context.Context) {
			logger.Warn("shop API rejected the session token, shopper must sign in again")
		}),
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
		Logger:          logger,
	})

	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		cache = catalog.NewRedisCache(redisClient, cfg.CatalogTTL)
		log.Printf("Catalog cache enabled at %s", cfg.RedisAddr)
	}
	loader := catalog.NewLoader(client, cache, logger)

	carts, closeCarts := openCartStore(ctx, cfg, db)
	defer closeCarts()

	orders := checkout.NewSQLiteRepository(db)
	svc := checkout.NewService(carts, client, orders, cfg.Methods, logger)

	if len(cfg.KafkaBrokers) > 0 {
		publisher := checkout.NewOutboxPublisher(orders, logger, cfg.KafkaBrokers...)
		defer publisher.Close()
		go publisher.Run(ctx)
		log.Printf("Publishing order events to %v", cfg.KafkaBrokers)

		host, _ := os.Hostname()
		invalidator := catalog.NewInvalidator(loader, checkout.OrdersTopic, "storefront-catalog-"+host, logger, cfg.KafkaBrokers...)
		defer invalidator.Close()
		go invalidator.Run(ctx)
	}

	messages := i18n.New()
	router := h.NewRouter(h.Handlers{
		Catalog:  h.NewCatalogHandler(loader, cfg.CatalogLocale, messages, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(carts, loader, svc, messages, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(svc, messages, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(svc, messages, cfg.RequestTimeout),
		Session:  h.NewSessionHandler(tokens, messages),
	}, h.RouterConfig{
		Messages:           messages,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AccessLog:          true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s (upstream %s, cart backend %s)", cfg.HTTPPort, cfg.APIURL, cfg.CartBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func openCartStore(ctx context.Context, cfg *config.Config, db *storage.DB) (cart.Store, func()) {
	switch cfg.CartBackend {
	case config.CartBackendMongo:
		mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		store := cart.NewMongoStore(mongoDB)
		if err := store.CreateIndexes(ctx); err != nil {
			log.Fatalf("Failed to create cart indexes: %v", err)
		}
		return store, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoDB.Client().Disconnect(disconnectCtx); err != nil {
				log.Printf("Failed to disconnect from MongoDB: %v", err)
			}
		}
	case config.CartBackendMemory:
		return cart.NewMemoryStore(), func() {}
	default:
		return cart.NewSQLiteStore(db), func() {}
	}
}
