package cache

import (
	"context"
	"errors"

	"telegram-catalog/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultConfigValue is returned for unknown paths when the caller gives no
// default of its own.
const DefaultConfigValue = "0"

// ConfigService reads tenant config values through a Store.
type ConfigService struct {
	db    *gorm.DB
	store Store
	log   *zap.Logger
}

func NewConfigService(db *gorm.DB, store Store, log *zap.Logger) *ConfigService {
	return &ConfigService{db: db, store: store, log: log}
}

// Get returns the stored value for path, or def when the bot has none. A
// cache failure falls back to the database.
func (s *ConfigService) Get(ctx context.Context, bot, path, def string) (string, error) {
	value, ok, err := s.store.Get(ctx, bot, path)
	if err != nil {
		s.log.Warn("config cache read failed", zap.String("bot", bot), zap.Error(err))
	} else if ok {
		return value, nil
	}

	var cfg models.Config
	err = s.db.WithContext(ctx).Where("bot_identifier = ? AND path = ?", bot, path).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}

	if err := s.store.Set(ctx, bot, path, cfg.Value); err != nil {
		s.log.Warn("config cache write failed", zap.String("bot", bot), zap.Error(err))
	}
	return cfg.Value, nil
}

// Set upserts a value by path and drops the tenant's cached values.
func (s *ConfigService) Set(ctx context.Context, bot, path, name, value string) (*models.Config, error) {
	cfg := models.Config{BotIdentifier: bot, Path: path, Name: name, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bot_identifier"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "value"}),
	}).Create(&cfg).Error
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Where("bot_identifier = ? AND path = ?", bot, path).First(&cfg).Error; err != nil {
		return nil, err
	}
	s.Invalidate(ctx, bot)
	return &cfg, nil
}

// UpdateValue changes the value of an existing row.
func (s *ConfigService) UpdateValue(ctx context.Context, cfg *models.Config, value string) error {
	if err := s.db.WithContext(ctx).Model(cfg).Update("value", value).Error; err != nil {
		return err
	}
	s.Invalidate(ctx, cfg.BotIdentifier)
	return nil
}

// Invalidate forgets every cached value of the bot.
func (s *ConfigService) Invalidate(ctx context.Context, bot string) {
	if err := s.store.DeleteTenant(ctx, bot); err != nil {
		s.log.Warn("config cache invalidation failed", zap.String("bot", bot), zap.Error(err))
	}
}
