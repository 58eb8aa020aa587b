package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gardenjournal/internal/auth"
	"gardenjournal/internal/config"
	"gardenjournal/internal/drive"
	"gardenjournal/internal/httpmiddleware"
	"gardenjournal/internal/journal"
	"gardenjournal/internal/roster"
	"gardenjournal/internal/sheets"
	"gardenjournal/internal/store"
	"gardenjournal/internal/web"
)

func main() {
	logger := newLogger(os.Getenv("APP_ENV"))
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" || env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	key, err := store.LoadServiceAccount(cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return err
	}
	google, err := store.NewGoogle(ctx, key)
	if err != nil {
		return err
	}

	var redisClient *store.Redis
	if cfg.CacheBackend == "redis" {
		redisClient, err = store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		if !redisClient.Healthy(ctx) {
			zap.L().Warn("redis not reachable, roster reads fall through to the sheet and sessions skip revocation checks",
				zap.String("addr", cfg.RedisAddr))
		}
	}
	defer func() { _ = redisClient.Close() }()

	var (
		rosterCache roster.Cache
		revoker     auth.Revoker
	)
	if redisClient != nil {
		rosterCache = roster.NewRedisCache(redisClient.Client, "garden:roster")
		revoker = auth.NewRedisRevoker(redisClient.Client, "garden:revoked:")
	} else {
		rosterCache = roster.NewMemoryCache()
		revoker = auth.NewMemoryRevoker()
	}

	sheetClient := sheets.New(google.Sheets, cfg.SpreadsheetID)
	students := roster.NewService(sheetClient, cfg.RosterSheet, rosterCache, cfg.RosterTTL)
	records := journal.NewService(
		journal.NewRepository(sheetClient, cfg.RecordsSheet),
		drive.New(google.Drive, cfg.DriveFolderID),
		cfg.Location(),
	)
	sessions := auth.NewSessions(cfg.SessionSigningKey, cfg.SessionIssuer, cfg.SessionTTL, revoker, cfg.Production())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.Metrics())
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		if redisClient != nil {
			healthy := redisClient.Healthy(c.Request.Context())
			body["redis"] = healthy
			if !healthy {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	})

	web.New(cfg.AppTitle, students, records, sessions, int64(cfg.MaxUploadMB)<<20).Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("server forced shutdown", zap.Error(err))
	}

	zap.L().Info("server exited")
	return nil
}
