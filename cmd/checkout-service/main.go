package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/estefaniii/mautik-checkout/internal/backend"
	"github.com/estefaniii/mautik-checkout/internal/cart"
	"github.com/estefaniii/mautik-checkout/internal/checkout"
	"github.com/estefaniii/mautik-checkout/internal/draft"
	"github.com/estefaniii/mautik-checkout/internal/events"
	"github.com/estefaniii/mautik-checkout/internal/httpapi"
	"github.com/estefaniii/mautik-checkout/internal/payment"
	"github.com/estefaniii/mautik-checkout/internal/repository"
	"github.com/estefaniii/mautik-checkout/internal/stock"
)

type Config struct {
	HTTPPort        string
	BackendURL      string
	MongoURI        string
	MongoDBName     string
	MongoMaxPool    uint64
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	KafkaBrokers    []string
	CardCaptureURL  string
	RedirectBaseURL string

	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
	StockPollInterval time.Duration
}

func loadConfig() *Config {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		log.Fatalf("Invalid REDIS_DB: %v", err)
	}
	mongoMaxPool, err := strconv.ParseUint(getEnv("MONGO_MAX_POOL", "50"), 10, 64)
	if err != nil {
		log.Fatalf("Invalid MONGO_MAX_POOL: %v", err)
	}

	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		BackendURL:        getEnv("BACKEND_URL", "http://localhost:5000/api"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:       getEnv("MONGO_DB", "ecommerce"),
		MongoMaxPool:      mongoMaxPool,
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		KafkaBrokers:      strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		CardCaptureURL:    getEnv("CARD_CAPTURE_URL", "http://localhost:7001"),
		RedirectBaseURL:   getEnv("REDIRECT_BASE_URL", "http://localhost:7002"),
		RequestTimeout:    30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		StockPollInterval: stock.DefaultInterval,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("checkout-service starting...")

	cfg := loadConfig()
	ctx := context.Background()

	// Database setup
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "ecommerce")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./internal/repository/migrations")

	port, err := strconv.Atoi(dbPort)
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	creds := &repository.Credentials{
		Host:              dbHost,
		Port:              port,
		User:              dbUser,
		Password:          dbPass,
		DBName:            dbName,
		MigrationsDirPath: migrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Set up MongoDB connection for the cart store
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName, cart.ConnOptions{
		MaxPoolSize: cfg.MongoMaxPool,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	cartStore := cart.NewMongoRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	// Set up Redis for checkout drafts
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	draftStore := draft.NewRedisStore(redisClient)
	log.Printf("Connected to Redis at %s", cfg.RedisAddr)

	// Kafka publisher for completed orders
	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()

	// Storefront REST client, shared by all sessions
	backendClient := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	reconciler := stock.NewReconciler(backendClient, cartStore)

	providers := map[string]payment.Provider{
		"card":     payment.NewCardProvider(cfg.CardCaptureURL, cfg.RequestTimeout),
		"redirect": payment.NewRedirectProvider(cfg.RedirectBaseURL, cfg.RequestTimeout),
	}

	factory := func(session checkout.Session) *checkout.Service {
		return checkout.NewService(checkout.Config{
			Session:     session,
			Cart:        cartStore,
			Drafts:      draftStore,
			Backend:     backendClient,
			Reconciler:  reconciler,
			Submissions: repo,
			Publisher:   publisher,
		})
	}

	checkoutHandler := httpapi.NewCheckoutHandler(factory, providers, cfg.RequestTimeout)
	checkoutHandler.EnableStockPolling(func(userID string) *stock.Poller {
		return stock.NewPoller(reconciler, userID, cfg.StockPollInterval, func(advisories []stock.Advisory) {
			for _, a := range advisories {
				log.Printf("stock advisory for user %s: %s", userID, a.Message)
			}
		})
	})
	defer checkoutHandler.Close()

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpapi.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(httpapi.MockAuthMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Get("/", checkoutHandler.GetState)
		r.Put("/form", checkoutHandler.UpdateForm)
		r.Post("/coupon", checkoutHandler.ApplyCoupon)
		r.Delete("/coupon", checkoutHandler.RemoveCoupon)
		r.Post("/submit", checkoutHandler.Submit)
		r.Post("/submit/provider", checkoutHandler.SubmitWithProvider)

		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", checkoutHandler.AddAddress)
			r.Put("/{address_id}", checkoutHandler.UpdateAddress)
			r.Put("/{address_id}/select", checkoutHandler.SelectAddress)
			r.Delete("/{address_id}", checkoutHandler.DeleteAddress)
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Post("/", checkoutHandler.AddPaymentMethod)
			r.Put("/{payment_id}", checkoutHandler.UpdatePaymentMethod)
			r.Put("/{payment_id}/select", checkoutHandler.SelectPaymentMethod)
			r.Delete("/{payment_id}", checkoutHandler.DeletePaymentMethod)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "checkout-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("checkout-service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	checkoutHandler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
