// Package migrations creates the schema in dependency order.
package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tair/goldlink/internal/audit"
	goldraterepo "github.com/tair/goldlink/internal/goldrate/repository"
	lendingrepo "github.com/tair/goldlink/internal/lending/repository"
	userrepo "github.com/tair/goldlink/internal/user/repository"
)

// Run migrates every table. Users come first because applications and
// settlements reference them.
func Run(db *gorm.DB) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"users", userrepo.NewGormUserRepository(db).AutoMigrate},
		{"audit_logs", audit.NewGormRepository(db).AutoMigrate},
		{"lending", func() error { return lendingrepo.AutoMigrate(db) }},
		{"gold_rates", goldraterepo.NewGormRateRepository(db).AutoMigrate},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("migrate %s: %w", step.name, err)
		}
	}
	return nil
}
