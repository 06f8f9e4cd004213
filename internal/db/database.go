package db

import (
	"fmt"
	"log"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to postgres and migrates the schema. Persistence is
// optional: with no DSN configured the gateway runs without the submission
// audit trail.
func InitDB() error {
	if config.AppConfig == nil || config.AppConfig.Database.DSN == "" {
		log.Println("⚠️ Database DSN not configured, running without submission records")
		return nil
	}

	var err error
	DB, err = gorm.Open(postgres.Open(config.AppConfig.Database.DSN), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		return fmt.Errorf("failed to connect database: %w", err)
	}

	log.Println("✅ Database connected successfully")

	if err := DB.AutoMigrate(&models.ListingRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	metrics.DBConnectionStatus.Set(1)
	return nil
}
