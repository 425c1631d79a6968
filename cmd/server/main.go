package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sousadrivikis20-lab/Alugabv/internal/api"
	"github.com/sousadrivikis20-lab/Alugabv/internal/app/service"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common/profanity"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common/security"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/repository"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/blobstore"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/cache"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/config"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 2. Initialize Logger
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// 3. Initialize Database
	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}
	db, err := database.Connect(ctx, dialect, cfg.DBConnStr)
	if err != nil {
		return err
	}
	defer db.Close()
	applied, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	logger.Info(ctx, "database ready", "driver", dialect, "migrations_applied", applied)

	// 4. Initialize Repositories
	repos := repository.NewManager(db.Dialect)
	userRepo := repos.Users(db)
	propertyRepo := repos.Properties(db)

	var sessions repository.SessionStore
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := cache.Connect(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = repository.NewRedisSessionStore(rdb)
	default:
		sessions = repos.Sessions(db)
	}
	logger.Info(ctx, "session store ready", "store", cfg.SessionStore)

	// 5. Initialize Blob Store
	var blobs blobstore.Store
	var uploadsDir, uploadsPath string
	switch cfg.BlobStore {
	case config.BlobStoreS3:
		blobs, err = blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		}, logger)
		if err != nil {
			return err
		}
	default:
		local, err := blobstore.NewLocalStore(cfg.UploadsDir, cfg.UploadsBaseURL, logger)
		if err != nil {
			return err
		}
		blobs = local
		uploadsDir = local.Dir()
		if u, err := url.Parse(cfg.UploadsBaseURL); err == nil {
			uploadsPath = u.Path
		}
	}
	logger.Info(ctx, "blob store ready", "store", cfg.BlobStore)

	// 6. Initialize Services
	filter := profanity.New()
	authService := service.NewAuthService(userRepo, sessions, filter, cfg.ModeratorUsername, cfg.SessionTTL, logger)
	userService := service.NewUserService(db, repos, sessions, blobs, filter, logger)
	propertyService := service.NewPropertyService(propertyRepo, blobs, filter, cfg.MaxImagesPerRequest, logger)

	if err := authService.SyncModerator(ctx); err != nil {
		return fmt.Errorf("sync moderator flag: %w", err)
	}

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(api.Dependencies{
		AuthService:     authService,
		UserService:     userService,
		PropertyService: propertyService,
		Sessions:        sessions,
		Tokens:          security.NewSessionTokens(cfg.SessionSecret),
		Log:             logger,
		CookieSecure:    cfg.CookieSecure,
		MaxImages:       cfg.MaxImagesPerRequest,
		MaxImageBytes:   cfg.MaxImageSizeBytes,
		UploadsDir:      uploadsDir,
		UploadsPath:     uploadsPath,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
	case <-stop:
	}

	logger.Info(ctx, "shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info(ctx, "server stopped gracefully")
	return nil
}
