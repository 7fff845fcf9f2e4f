// @title           Recipe API
// @version         1.0
// @description     Recipe sharing service: accounts, Google sign-in and recipes with images.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/recipehub/recipe-api/internal/api"
	"github.com/recipehub/recipe-api/internal/core/ports"
	"github.com/recipehub/recipe-api/internal/core/service"
	"github.com/recipehub/recipe-api/internal/infrastructure/config"
	mongodb "github.com/recipehub/recipe-api/internal/infrastructure/db/mongo"
	redisdb "github.com/recipehub/recipe-api/internal/infrastructure/db/redis"
	"github.com/recipehub/recipe-api/internal/infrastructure/http/handlers"
	"github.com/recipehub/recipe-api/internal/infrastructure/oauth"
	"github.com/recipehub/recipe-api/internal/infrastructure/queue"
	"github.com/recipehub/recipe-api/internal/infrastructure/storage"
	miniostore "github.com/recipehub/recipe-api/internal/infrastructure/storage/minio"
	s3store "github.com/recipehub/recipe-api/internal/infrastructure/storage/s3"
	"github.com/recipehub/recipe-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "recipe-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Datastores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	recipes := mongodb.NewRecipeRepository(db)
	if err := recipes.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("recipe indexes: %w", err)
	}

	// --- Object storage ---
	store, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	uploader := storage.NewUploader(store, storage.Options{
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	}, log.With().Str("component", "uploader").Logger())

	cleaner := queue.NewCleanupDispatcher(cfg.CleanupWorkers, uploader, log.With().Str("component", "cleanup").Logger())
	cleaner.Start(ctx)

	// --- Services ---
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(users, tokens, log)
	recipeService := service.NewRecipeService(recipes, uploader, cleaner, log)

	var identity ports.IdentityProvider
	if cfg.Google.Enabled() {
		identity = oauth.NewGoogleProvider(oauth.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			CallbackURL:  cfg.Google.CallbackURL,
		})
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}

	e := api.NewRouter(api.Dependencies{
		Logger:         log,
		Tokens:         tokens,
		Users:          users,
		Auth:           authService,
		Recipes:        recipeService,
		Identity:       identity,
		States:         redisdb.NewOAuthStateStore(rdb),
		FrontendURL:    cfg.FrontendURL,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Health: map[string]handlers.Checker{
			"mongo": handlers.MongoChecker(db),
			"redis": handlers.RedisChecker(rdb),
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newObjectStore returns the object store selected by STORAGE_DRIVER.
func newObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		endpoint := cfg.Endpoint
		if endpoint != "" && !strings.Contains(endpoint, "://") {
			scheme := "https://"
			if !cfg.UseSSL {
				scheme = "http://"
			}
			endpoint = scheme + endpoint
		}
		return s3store.NewClient(ctx, s3store.Config{
			Endpoint:  endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
		})
	default:
		return miniostore.NewClient(ctx, miniostore.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	}
}
