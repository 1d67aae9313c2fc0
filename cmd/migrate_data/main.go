package main

import (
	"flag"
	"log"
	"reflect"

	"telegram-catalog/internal/config"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/logger"
	"telegram-catalog/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

// Join tables have no model of their own.
var joinTables = []string{"category_children", "product_category"}

// migrate_data copies every table from a SQLite file into the database
// configured by DB_DRIVER / DB_DSN. Run cmd/sync_sequences afterwards on
// postgres.
func main() {
	source := flag.String("source", "", "SQLite file to copy from (defaults to DB_PATH)")
	flag.Parse()

	cfg := config.LoadConfig()
	lg, err := logger.New(cfg.Logger.Level, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	if *source == "" {
		*source = cfg.Database.Path
	}
	if cfg.Database.Driver == "sqlite" || cfg.Database.Driver == "" {
		lg.Fatal("Destination must not be sqlite; set DB_DRIVER and DB_DSN")
	}

	src, err := gorm.Open(sqlite.Open(*source), &gorm.Config{})
	if err != nil {
		lg.Fatal("Failed to open SQLite source", zap.String("path", *source), zap.Error(err))
	}
	lg.Info("Connected to SQLite", zap.String("path", *source))

	dst, err := database.Open(cfg.Database, logger.GormLevel(cfg.Logger.Level), lg)
	if err != nil {
		lg.Fatal("Failed to open destination", zap.Error(err))
	}

	lg.Info("Starting data migration")
	failed := 0
	for _, model := range models.All() {
		if err := copyModel(src, dst, model, lg); err != nil {
			failed++
			lg.Error("Table migration failed", zap.String("model", reflect.TypeOf(model).Elem().Name()), zap.Error(err))
		}
	}
	for _, table := range joinTables {
		if err := copyJoinTable(src, dst, table, lg); err != nil {
			failed++
			lg.Error("Table migration failed", zap.String("table", table), zap.Error(err))
		}
	}

	if failed > 0 {
		lg.Fatal("Migration finished with errors", zap.Int("failed_tables", failed))
	}
	lg.Info("Migration completed")
}

// copyModel reads every row of model's table and writes it in one transaction,
// keeping primary keys. Associations are copied separately through the join
// tables.
func copyModel(src, dst *gorm.DB, model interface{}, lg *zap.Logger) error {
	rows := reflect.New(reflect.SliceOf(reflect.TypeOf(model).Elem()))
	if err := src.Model(model).Find(rows.Interface()).Error; err != nil {
		return err
	}

	count := rows.Elem().Len()
	name := reflect.TypeOf(model).Elem().Name()
	if count == 0 {
		lg.Info("Nothing to migrate", zap.String("model", name))
		return nil
	}

	err := dst.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(rows.Interface(), batchSize).Error
	})
	if err != nil {
		return err
	}
	lg.Info("Migrated table", zap.String("model", name), zap.Int("rows", count))
	return nil
}

func copyJoinTable(src, dst *gorm.DB, table string, lg *zap.Logger) error {
	var rows []map[string]interface{}
	if err := src.Table(table).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		lg.Info("Nothing to migrate", zap.String("table", table))
		return nil
	}

	err := dst.Transaction(func(tx *gorm.DB) error {
		return tx.Table(table).CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		return err
	}
	lg.Info("Migrated table", zap.String("table", table), zap.Int("rows", len(rows)))
	return nil
}
