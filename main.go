package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipehub/auth"
	"recipehub/autocom"
	"recipehub/config"
	"recipehub/db"
	"recipehub/filemgr"
	"recipehub/logging"
	"recipehub/middleware"
	"recipehub/mq"
	"recipehub/ratelim"
	"recipehub/rdx"
	"recipehub/recipes"
	"recipehub/routes"
	"recipehub/users"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "recipehub:", err)
		os.Exit(1)
	}
}

// openStore connects to MongoDB, or returns the in-memory store for STORE=memory.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (db.Store, error) {
	if cfg.Store == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		return db.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	store, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))
	return store, nil
}

// openRedis returns nil when no REDIS_URL is configured or Redis is down;
// caching, autocomplete and the event channel then degrade to local behaviour.
func openRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set; running without cache")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, err := rdx.Connect(ctx, cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable; running without cache", zap.Error(err))
		return nil
	}
	return conn
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	conn := openRedis(ctx, cfg, log)
	cache := rdx.NewCache(conn, cfg.CacheTTL, log)
	index := autocom.NewIndex(conn)
	bus := mq.NewBus(conn, log)

	uploads := filemgr.NewUploader(cfg.UploadDir, cfg.MaxUploadBytes())
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	recipeHandler := recipes.NewHandler(store, log,
		recipes.WithUploads(uploads),
		recipes.WithCache(cache),
		recipes.WithEvents(bus),
		recipes.WithAutocomplete(index),
		recipes.WithPublicURL(cfg.PublicBaseURL),
	)
	bus.Subscribe(recipeHandler.OnRecipeEvent)
	go bus.Run(ctx)

	router := routes.NewRouter(routes.Deps{
		Recipes:   recipeHandler,
		Users:     users.NewHandler(store, store, tokens, log),
		Auth:      middleware.NewAuth(store, tokens, log),
		Limiter:   ratelim.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Store:     store,
		UploadDir: cfg.UploadDir,
	})

	corsMW := newCORS(cfg.AllowedOrigins)

	handler := middleware.Chain(router,
		corsMW.Handler,
		middleware.SecurityHeaders,
		middleware.RequestID,
		middleware.Recover(log),
		middleware.Logging(log),
	)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Port), zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	if err := store.Close(closeCtx); err != nil {
		log.Warn("close store", zap.Error(err))
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
	log.Info("server stopped cleanly")
	return nil
}

// newCORS allows bearer-token requests from origins. No cookies are used,
// so credentials are never allowed.
func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}
