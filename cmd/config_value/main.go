package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"telegram-catalog/internal/cache"
	"telegram-catalog/internal/config"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// config_value reads or writes one tenant config value.
//
//	go run ./cmd/config_value -bot shop1 -path mailout/enabled
//	go run ./cmd/config_value -bot shop1 -path mailout/enabled -set 1 -name "Mailouts enabled"
func main() {
	bot := flag.String("bot", "", "bot identifier")
	path := flag.String("path", "", "config path")
	def := flag.String("default", cache.DefaultConfigValue, "value printed when the path is unset")
	set := flag.String("set", "", "new value; when empty the current value is printed")
	name := flag.String("name", "", "display name used when -set creates the row")
	flag.Parse()

	if *bot == "" || *path == "" {
		flag.Usage()
		log.Fatal("-bot and -path are required")
	}

	cfg := config.LoadConfig()
	lg, err := logger.New(cfg.Logger.Level, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	db, err := database.Open(cfg.Database, logger.GormLevel(cfg.Logger.Level), lg)
	if err != nil {
		lg.Fatal("Failed to open database", zap.Error(err))
	}

	// Writes must reach the cache the server reads from.
	var store cache.Store = cache.NewMemory(cfg.Cache.ConfigTTL)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		store = cache.NewRedis(client, cfg.Cache.ConfigTTL)
	}
	configs := cache.NewConfigService(db, store, lg)
	ctx := context.Background()

	if *set == "" {
		value, err := configs.Get(ctx, *bot, *path, *def)
		if err != nil {
			lg.Fatal("Failed to read config", zap.Error(err))
		}
		fmt.Println(value)
		return
	}

	if *name == "" {
		*name = *path
	}
	row, err := configs.Set(ctx, *bot, *path, *name, *set)
	if err != nil {
		lg.Fatal("Failed to write config", zap.Error(err))
	}
	lg.Info("Config updated", zap.String("bot", row.BotIdentifier), zap.String("path", row.Path), zap.String("value", row.Value))
}
