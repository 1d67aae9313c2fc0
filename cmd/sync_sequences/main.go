package main

import (
	"log"

	"telegram-catalog/internal/config"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/logger"
	"telegram-catalog/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sync_sequences moves every postgres id sequence past the largest copied id,
// so inserts after cmd/migrate_data do not collide.
func main() {
	cfg := config.LoadConfig()
	lg, err := logger.New(cfg.Logger.Level, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	if cfg.Database.Driver != "postgres" {
		lg.Fatal("Sequences only exist on postgres", zap.String("driver", cfg.Database.Driver))
	}

	db, err := database.Open(cfg.Database, logger.GormLevel(cfg.Logger.Level), lg)
	if err != nil {
		lg.Fatal("Failed to open database", zap.Error(err))
	}

	lg.Info("Syncing PostgreSQL sequences")
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			lg.Error("Failed to resolve table", zap.Error(err))
			continue
		}
		table := stmt.Schema.Table

		query := "SELECT setval(pg_get_serial_sequence(?, 'id'), coalesce(max(id), 0) + 1, false) FROM " + stmt.Quote(table)
		if err := db.Exec(query, table).Error; err != nil {
			lg.Error("Failed to sync sequence", zap.String("table", table), zap.Error(err))
			continue
		}
		lg.Info("Synced sequence", zap.String("table", table))
	}
	lg.Info("Done")
}
