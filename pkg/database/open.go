package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Open connects to the configured driver: "postgres" or "sqlite"
func Open(driver string, cfg Config, sqlitePath string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return NewGormConnection(cfg)
	case "sqlite":
		return NewSQLiteConnection(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
