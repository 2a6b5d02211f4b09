package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"jiopay/internal/models"
)

// MigrateAndSeed ensures required tables exist.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.Order{},
		&models.OrderItem{},
		&models.OrderNote{},
		&models.Cart{},
		&models.CartItem{},
		&models.CheckoutSession{},
		&models.CallbackLog{},
	}
}
