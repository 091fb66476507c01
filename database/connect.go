package database

import (
	"cinema_ticketing/config"
	"cinema_ticketing/model"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func DSN(cfg config.Settings) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
}

func ConnectDB(cfg config.Settings, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.Env == "production" {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	log.Info("connection opened to database", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database migrated")

	// khởi tạo dữ liệu
	SeedData(db, log)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Customer{},
		&model.Booking{},
		&model.BookingItem{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
