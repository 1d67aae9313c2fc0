package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"telegram-catalog/internal/api"
	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/botruntime"
	"telegram-catalog/internal/cache"
	"telegram-catalog/internal/config"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/logger"
	"telegram-catalog/internal/mailout"
	"telegram-catalog/internal/media"
	"telegram-catalog/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadConfig()

	lg, err := logger.New(cfg.Logger.Level, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, logger.GormLevel(cfg.Logger.Level), lg)
	if err != nil {
		lg.Fatal("Failed to open database", zap.Error(err))
	}

	var store cache.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		store = cache.NewRedis(client, cfg.Cache.ConfigTTL)
		lg.Info("Config cache backed by redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = cache.NewMemory(cfg.Cache.ConfigTTL)
	}

	x, err := database.SQLX(db)
	if err != nil {
		lg.Fatal("Failed to wrap database for sqlx", zap.Error(err))
	}

	hub := ws.NewHub(lg)
	router := api.NewRouter(api.Deps{
		DB:                db,
		Tokens:            auth.NewTokenManager(cfg.JWT),
		Configs:           cache.NewConfigService(db, store, lg),
		Media:             media.NewStore(cfg.Media.Dir, cfg.Media.MaxBytes),
		Mailouts:          mailout.NewService(db, x),
		Hub:               hub,
		Runtime:           botruntime.NewClient(cfg.Runtime),
		PublicURL:         cfg.Server.PublicURL,
		CORSOrigin:        cfg.Server.CORSOrigin,
		MaxButtonsPerLine: cfg.Layout.MaxButtonsPerLine,
		Log:               lg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		lg.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		lg.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Fatal("Server stopped", zap.Error(err))
	}
	lg.Info("Server stopped")
}
