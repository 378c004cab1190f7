// Package main is the entrypoint for the nnote API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/nnote/nnote/internal/auth"
	"github.com/nnote/nnote/internal/cache"
	"github.com/nnote/nnote/internal/config"
	"github.com/nnote/nnote/internal/handler"
	"github.com/nnote/nnote/internal/metrics"
	"github.com/nnote/nnote/internal/middleware"
	"github.com/nnote/nnote/internal/repository"
	"github.com/nnote/nnote/internal/server"
	"github.com/nnote/nnote/internal/service"
	"github.com/nnote/nnote/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return fmt.Errorf("connect database: %w", err)
	}
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("database migrations applied")
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("connected to Redis")

	srv, err := newServer(ctx, cfg, logger, repo, cacheClient)
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		return err
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"auth_mode", string(cfg.AuthMode),
		"code_exchange", cfg.CodeExchangeEnabled(),
	)

	return srv.Run(ctx)
}

// newServer wires services, handlers and the router on top of the store and
// cache. Once it returns, the server owns closing both.
func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, repo *repository.Repository, cacheClient *cache.Cache) (*server.Server, error) {
	recorder := metrics.NewInMemory()

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("session tokens: %w", err)
	}

	authSvc, err := newAuthService(ctx, cfg, repo, tokens, recorder)
	if err != nil {
		return nil, err
	}

	var imageSvc *service.ImageService
	if cfg.ImageUploadEnabled() {
		uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
			Folder:        cfg.S3Folder,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("image storage: %w", err)
		}
		imageSvc = service.NewImageService(uploader, recorder)
		logger.Info("image uploads enabled", "bucket", cfg.S3Bucket, "folder", cfg.S3Folder)
	} else {
		logger.Warn("image uploads disabled: S3_BUCKET is not set")
	}

	noteSvc := service.NewNoteService(repo, cacheClient, cfg.PublicNoteCacheTTL, recorder, logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:       logger,
		Auth:         handler.NewAuthHandler(authSvc, logger),
		Notes:        handler.NewNoteHandler(noteSvc, imageSvc, logger),
		Public:       handler.NewPublicHandler(noteSvc, logger),
		Health:       handler.NewHealthHandler(repo, cacheClient),
		Metrics:      handler.NewMetricsHandler(recorder),
		Tokens:       tokens,
		GoogleLogin:  cfg.AuthMode == config.AuthModeGoogle,
		CodeExchange: cfg.CodeExchangeEnabled(),
		MockLogin:    cfg.AuthMode == config.AuthModeMock,
		CORS:         cors,
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:   logger,
			Limiter:  cacheClient,
			Metrics:  recorder,
			Enabled:  cfg.RateLimitEnabled,
			Requests: cfg.RateLimitRequests,
			Window:   cfg.RateLimitWindow,
		},
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	return srv, nil
}

// newAuthService wires the credential path selected by AUTH_MODE.
func newAuthService(ctx context.Context, cfg *config.Config, users service.UserStore, tokens *auth.TokenService, recorder metrics.Recorder) (*service.AuthService, error) {
	authCfg := service.AuthServiceConfig{
		Users:   users,
		Tokens:  tokens,
		Metrics: recorder,
	}

	switch cfg.AuthMode {
	case config.AuthModeMock:
		authCfg.AllowMock = true
	default:
		keys, err := auth.NewGoogleKeys(ctx, cfg.GoogleCertsURL)
		if err != nil {
			return nil, fmt.Errorf("google signing keys: %w", err)
		}
		verifier, err := auth.NewGoogleVerifier(cfg.GoogleClientID, keys)
		if err != nil {
			return nil, fmt.Errorf("google verifier: %w", err)
		}
		authCfg.Verifier = verifier
		if cfg.CodeExchangeEnabled() {
			authCfg.Exchanger = auth.NewCodeExchanger(
				auth.GoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
			)
		}
	}

	svc, err := service.NewAuthService(authCfg)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	return svc, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
