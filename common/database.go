package common

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Init opens the SQLite database at path and keeps it as the shared handle
func Init(path string) (*gorm.DB, error) {
	conn, err := Open(path)
	if err != nil {
		return nil, err
	}
	db = conn
	return db, nil
}

// Open opens the SQLite database at path without touching the shared handle
func Open(path string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return conn, nil
}

// GetDB returns the handle set by Init
func GetDB() *gorm.DB {
	return db
}

// Close releases the underlying connection pool
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
