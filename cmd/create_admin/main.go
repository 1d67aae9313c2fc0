package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/config"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/logger"
	"telegram-catalog/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// create_admin creates an admin user, or resets the password of an existing one.
//
//	go run ./cmd/create_admin -name alice -password s3cret -bot shop1
//	go run ./cmd/create_admin -name root -password s3cret -super
func main() {
	name := flag.String("name", "", "admin name")
	password := flag.String("password", "", "admin password (min 6 characters)")
	bot := flag.String("bot", "", "bot identifier the admin manages")
	super := flag.Bool("super", false, "grant super admin rights")
	flag.Parse()

	if *name == "" || len(*password) < 6 {
		flag.Usage()
		log.Fatal("-name and a -password of at least 6 characters are required")
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
	ctx := context.Background()

	if *bot != "" {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Bot{}).Where("bot_identifier = ?", *bot).Count(&count).Error; err != nil {
			lg.Fatal("Failed to look up bot", zap.Error(err))
		}
		if count == 0 {
			lg.Fatal("Bot does not exist", zap.String("bot", *bot))
		}
	} else if !*super {
		lg.Fatal("-bot is required unless -super is set")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		lg.Fatal("Failed to hash password", zap.Error(err))
	}

	var admin models.AdminUser
	err = db.WithContext(ctx).Where("admin_name = ?", *name).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = models.AdminUser{AdminName: *name, PasswordHash: hash, BotIdentifier: *bot, IsSuper: *super}
		if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
			lg.Fatal("Failed to create admin", zap.Error(err))
		}
		lg.Info("Admin created", zap.String("name", *name), zap.Uint("id", admin.ID))
	case err != nil:
		lg.Fatal("Failed to look up admin", zap.Error(err))
	default:
		updateData := map[string]interface{}{"password_hash": hash, "is_super": *super}
		if *bot != "" {
			updateData["bot_identifier"] = *bot
		}
		if err := db.WithContext(ctx).Model(&admin).Updates(updateData).Error; err != nil {
			lg.Fatal("Failed to update admin", zap.Error(err))
		}
		lg.Info("Admin password reset", zap.String("name", *name), zap.Uint("id", admin.ID))
	}
}
