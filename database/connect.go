package database

import (
	"errors"
	"fmt"
	"log/slog"

	"bakery_manager/config"
	"bakery_manager/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned by Store lookups that match no row.
	ErrNotFound   = fmt.Errorf("record not found: %w", gorm.ErrRecordNotFound)
	ErrDuplicate  = fmt.Errorf("duplicate record: %w", gorm.ErrDuplicatedKey)
	ErrOutOfStock = errors.New("insufficient stock")
)

func ConnectDB(s *config.Settings, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(s.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("connection opened to database", "host", s.DBHost, "name", s.DBName)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database migrated")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Customer{},
		&model.Product{},
		&model.ProductVariant{},
		&model.TimeSlot{},
		&model.DeliveryZone{},
		&model.DiscountCode{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.Setting{},
		&model.OutboxTask{},
		&model.ProcessedWebhookEvent{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
