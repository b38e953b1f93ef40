package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stena13/Final-project/config"
	"github.com/stena13/Final-project/models"
)

// InitGormDB initializes and returns a GORM database instance.
// GORM is used only for schema provisioning; the repository layer runs
// its own parameterized statements over *sql.DB.
func InitGormDB(cfg config.Config) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	return db, nil
}

// AutoMigrateModels creates or updates the pereval tables. Called once at
// startup; safe to re-run against an already provisioned database.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Coords{},
		&models.PerevalAdded{},
		&models.PerevalImage{},
		&models.PerevalAddedImage{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	return nil
}
