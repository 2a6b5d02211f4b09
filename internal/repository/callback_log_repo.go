package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"jiopay/internal/models"
)

// CallbackLogRepository records raw inbound gateway payloads for audit.
type CallbackLogRepository struct {
	db *gorm.DB
}

func NewCallbackLogRepository(db *gorm.DB) *CallbackLogRepository {
	return &CallbackLogRepository{db: db}
}

func (r *CallbackLogRepository) Create(ctx context.Context, log *models.CallbackLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// PruneOlderThan deletes logs received before the cutoff.
func (r *CallbackLogRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("received_at < ?", cutoff).
		Delete(&models.CallbackLog{})
	return res.RowsAffected, res.Error
}
