package db

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"natours/internal/model"
)

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// models lists every table in dependency order.
func models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Tour{},
		&model.Review{},
		&model.Booking{},
		&model.PaymentLog{},
	}
}

// Migrate creates or updates the schema. With reset set, existing tables are
// dropped first.
func Migrate(db *gorm.DB, reset bool, log *slog.Logger) error {
	if reset {
		log.Warn("RESET_DB=true detected, dropping all tables")
		tables := models()
		for i := len(tables) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(tables[i]); err != nil {
				log.Warn("drop table failed", "error", err)
			}
		}
		if err := db.Migrator().DropTable("tour_guides"); err != nil {
			log.Warn("drop table failed", "table", "tour_guides", "error", err)
		}
	}

	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
