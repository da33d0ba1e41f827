// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"errors"
	"fmt"
	"marketquery-server/commons"
	"marketquery-server/crypto"
	"marketquery-server/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(models.AllModels...)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&models.RequestLog{},
					&models.APIKey{},
					&models.Product{},
					&models.User{},
				)
			},
		},
		{
			ID: "002_seed_admin_user",
			Migrate: func(tx *gorm.DB) error {
				email := commons.GetEnv("ADMIN_EMAIL")
				password := commons.GetEnv("ADMIN_PASSWORD")
				if email == "" || password == "" {
					commons.Logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
					return nil
				}

				err := tx.Where("email = ?", email).First(&models.User{}).Error
				if err == nil {
					return nil
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to check for existing admin: %w", err)
				}

				hash, err := crypto.NewCrypto().HashPassword(password)
				if err != nil {
					return fmt.Errorf("failed to hash admin password: %w", err)
				}

				admin := models.User{
					Name:     commons.GetEnv("ADMIN_NAME", "Administrator"),
					Email:    email,
					Password: hash,
					Role:     models.RoleAdmin,
				}
				return tx.Create(&admin).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return nil
			},
		},
	}
}

// Run applies all pending migrations.
func Run(conn *gorm.DB) error {
	commons.Logger.Info("Running database migrations")
	m := gormigrate.New(conn, gormigrate.DefaultOptions, List())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	commons.Logger.Info("Database migration completed")
	return nil
}
