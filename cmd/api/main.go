package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pricemind-sync-api/internal/auth"
	"pricemind-sync-api/internal/cache"
	"pricemind-sync-api/internal/config"
	"pricemind-sync-api/internal/handler"
	"pricemind-sync-api/internal/metrics"
	"pricemind-sync-api/internal/middleware"
	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/internal/obs"
	"pricemind-sync-api/internal/pricemind"
	"pricemind-sync-api/internal/repository"
	"pricemind-sync-api/internal/router"
	"pricemind-sync-api/internal/sender"
	"pricemind-sync-api/internal/service"
	"pricemind-sync-api/pkg/secret"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Pricemind sync API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	logger := obs.NewLogger(cfg.App.Debug || cfg.App.IsDevelopment())

	box, err := secret.NewBox(cfg.App.SecretKey)
	if err != nil {
		log.Fatalf("Failed to initialize secret box: %v", err)
	}
	if cfg.App.SecretKey == "" {
		log.Println("Warning: APP_SECRET_KEY is not set, API keys cannot be stored or read")
	}

	// Scoped config store
	var configRepo repository.ConfigRepository
	switch cfg.ConfigDB.Type {
	case "mysql":
		mysqlRepo, err := repository.NewMySQLConfigRepository(cfg.ConfigDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		configRepo = mysqlRepo
		log.Println("MySQL config repository initialized")
	case "memory":
		configRepo = repository.NewMemoryConfigRepository()
		log.Println("In-memory config repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteConfigRepository(cfg.ConfigDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		configRepo = sqliteRepo
		log.Println("SQLite config repository initialized")
	}
	defer configRepo.Close()

	// Failed request store
	var failureRepo repository.FailedRequestRepository
	switch cfg.FailureDB.Type {
	case "mongodb", "mongo":
		mongoRepo, err := repository.NewMongoDBFailedRequestRepository(
			cfg.FailureDB.MongoURI,
			cfg.FailureDB.MongoDatabase,
			cfg.FailureDB.MongoCollection,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB: %v", err)
		}
		failureRepo = mongoRepo
		log.Println("MongoDB failed request repository initialized")
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresFailedRequestRepository(cfg.FailureDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		failureRepo = pgRepo
		log.Println("PostgreSQL failed request repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteFailedRequestRepository(cfg.FailureDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		failureRepo = sqliteRepo
		log.Println("SQLite failed request repository initialized")
	}
	defer failureRepo.Close()

	// Channel options cache, Redis when available
	var optionsCache cache.Cache
	cacheType := "memory"
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, using memory cache: %v", err)
		} else {
			optionsCache = redisCache
			cacheType = "redis"
		}
	}
	if optionsCache == nil {
		optionsCache = cache.NewMemoryCache()
	}
	defer optionsCache.Close()

	// Initialize services
	configService := service.NewConfigService(configRepo, box)
	client := pricemind.NewClient(configService, box, pricemind.Options{
		DefaultBaseURL: cfg.Pricemind.DefaultBaseURL,
		Timeout:        cfg.Pricemind.ClientTimeout,
		RatePerSecond:  cfg.Pricemind.RatePerSecond,
		Burst:          cfg.Pricemind.RateBurst,
	}, logger)
	jsonSender := sender.New(sender.NewHTTPTransport(), logger)
	priceSync := service.NewPriceSyncService(client, jsonSender, failureRepo, logger)
	channelService := service.NewChannelService(client, configService, optionsCache, cfg.Cache.TTL, logger)

	// Auth
	var publicKey *rsa.PublicKey
	if cfg.Auth.JWTPublicKey != "" {
		publicKey, err = auth.LoadRSAPublicKey(cfg.Auth.JWTPublicKey)
		if err != nil {
			log.Fatalf("Failed to load JWT public key: %v", err)
		}
	}
	apiKeys := cfg.Auth.Keys()
	if len(apiKeys) == 0 && publicKey == nil {
		log.Println("Warning: no API_KEYS or JWT_PUBLIC_KEY configured, protected routes will reject every request")
	}
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		APIKeys:   apiKeys,
		PublicKey: publicKey,
	})

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version,
		handler.ReadinessCheck{Name: "config_db", Probe: func(ctx context.Context) error {
			_, _, err := configRepo.Get(ctx, model.ConfigPathBaseURL, repository.ScopeDefault, "")
			return err
		}},
		handler.ReadinessCheck{Name: "failure_db", Probe: func(ctx context.Context) error {
			_, err := failureRepo.GetStats(ctx)
			return err
		}},
	)

	r := router.New(router.Config{
		Handler:        healthHandler,
		ProductHandler: handler.NewProductHandler(priceSync),
		ChannelHandler: handler.NewChannelHandler(channelService, client),
		ConfigHandler:  handler.NewConfigHandler(configService, channelService),
		AdminHandler:   handler.NewAdminHandler(failureRepo, cfg.FailureDB.Type, cacheType),
		MetricsHandler: metrics.Handler(),
		AuthMiddleware: authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
