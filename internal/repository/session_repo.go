package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"jiopay/internal/models"
)

// ErrSessionNotFound is returned for unknown or purged checkout sessions.
var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutSessionRepository persists checkout sessions and their nonce
// hashes.
type CheckoutSessionRepository struct {
	db *gorm.DB
}

func NewCheckoutSessionRepository(db *gorm.DB) *CheckoutSessionRepository {
	return &CheckoutSessionRepository{db: db}
}

func (r *CheckoutSessionRepository) Create(ctx context.Context, session *models.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *CheckoutSessionRepository) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AttachOrder links the storefront-created order to the session so the
// cancel and cart-clear paths can find it.
func (r *CheckoutSessionRepository) AttachOrder(ctx context.Context, id string, orderID uint) error {
	return r.db.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("id = ?", id).
		Update("order_id", orderID).Error
}

// SetProcessing flips the client-visible processing flag. The cancel
// channel resets it without ever touching the order.
func (r *CheckoutSessionRepository) SetProcessing(ctx context.Context, id string, processing bool) error {
	return r.db.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("id = ?", id).
		Update("processing", processing).Error
}

// DeleteExpired purges sessions past their expiry. Run from the
// maintenance scheduler.
func (r *CheckoutSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.CheckoutSession{})
	return res.RowsAffected, res.Error
}
