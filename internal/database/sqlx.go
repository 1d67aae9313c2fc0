package database

import (
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// SQLX wraps the pool behind a gorm handle for hand-written queries. The
// driver name only selects the placeholder style used by Rebind.
func SQLX(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	name := db.Dialector.Name()
	if name == "sqlite" {
		name = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, name), nil
}
