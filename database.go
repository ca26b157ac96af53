package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite" // Sqlite driver based on GGO
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// openDatabase opens the configured database. An empty database_url means an
// sqlite file inside the storage dir, a postgres DSN selects postgres and
// anything else is treated as an sqlite path.
func openDatabase(cfg Config) (*gorm.DB, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	var dialector gorm.Dialector
	switch {
	case cfg.DatabaseURL == "":
		if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		dialector = sqlite.Open(filepath.Join(cfg.StorageDir, "accounts-bot.db"))
	case isPostgresDSN(cfg.DatabaseURL):
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		dialector = sqlite.Open(cfg.DatabaseURL)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Account{}, &ActivityLog{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// seedAdmins makes sure every configured administrator has a user row with
// access. Existing rows get their access flag raised.
func seedAdmins(db *gorm.DB, adminIDs []int64) error {
	for _, id := range adminIDs {
		user := User{}
		err := db.Where("telegram_id = ?", id).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = User{
				TelegramID: id,
				UserName:   fmt.Sprintf("admin_%d", id),
				Access:     true,
			}
			if err := db.Create(&user).Error; err != nil {
				return fmt.Errorf("create admin %d: %w", id, err)
			}
			log.Printf("created admin user %d", id)
		case err != nil:
			return fmt.Errorf("lookup admin %d: %w", id, err)
		case !user.Access:
			if err := db.Model(&user).Update("access", true).Error; err != nil {
				return fmt.Errorf("grant admin %d: %w", id, err)
			}
		}
	}
	return nil
}
