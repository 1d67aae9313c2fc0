package database

import (
	"context"
	"errors"

	"telegram-catalog/internal/models"

	"gorm.io/gorm"
)

// ConfigEntry is one well-known tenant setting.
type ConfigEntry struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

var ConfigSchema = []ConfigEntry{
	{Path: "bot/admin/link", Name: "Admin link", Value: ""},
	{Path: "bot/channel/link", Name: "Channel link", Value: ""},
	{Path: "order/message/welcome", Name: "Order welcome message", Value: ""},
}

// SeedConfigSchema makes sure every schema path exists for the bot. Values
// already stored are left alone.
func SeedConfigSchema(ctx context.Context, db *gorm.DB, bot string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range ConfigSchema {
			var existing models.Config
			err := tx.Where("bot_identifier = ? AND path = ?", bot, entry.Path).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Create(&models.Config{
				BotIdentifier: bot,
				Path:          entry.Path,
				Name:          entry.Name,
				Value:         entry.Value,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
