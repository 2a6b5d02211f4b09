package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"jiopay/internal/models"
	"jiopay/internal/reconcile"
)

// Statuses from which an order may still transition on a payment report.
var (
	payableStatuses  = []string{models.OrderStatusPending, models.OrderStatusOnHold, models.OrderStatusFailed}
	failableStatuses = []string{models.OrderStatusPending, models.OrderStatusOnHold}
)

// OrderRepository is the gorm-backed order store. It satisfies
// reconcile.OrderStore.
type OrderRepository struct {
	db      *gorm.DB
	baseURL string
}

func NewOrderRepository(db *gorm.DB, baseURL string) *OrderRepository {
	return &OrderRepository{db: db, baseURL: baseURL}
}

// Create inserts a new order. Used by the seeding path and tests; order
// creation itself belongs to the storefront, not this service.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return reconcile.NewStoreError("create", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reconcile.ErrOrderNotFound
	}
	if err != nil {
		return nil, reconcile.NewStoreError("get", err)
	}
	return &order, nil
}

func (r *OrderRepository) FindByMerchantTxnID(ctx context.Context, txnID string, statuses []string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("merchant_txn_id = ? AND status IN ?", txnID, statuses).
		Order("created_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reconcile.ErrOrderNotFound
	}
	if err != nil {
		return nil, reconcile.NewStoreError("find by merchant txn id", err)
	}
	return &order, nil
}

func (r *OrderRepository) MostRecentOrder(ctx context.Context, paymentMethod string, statuses []string, customerID string) (*models.Order, error) {
	q := r.db.WithContext(ctx).
		Where("payment_method = ? AND status IN ?", paymentMethod, statuses)
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}

	var order models.Order
	err := q.Order("created_at DESC").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reconcile.ErrOrderNotFound
	}
	if err != nil {
		return nil, reconcile.NewStoreError("most recent order", err)
	}
	return &order, nil
}

// MarkPaid performs the conditional transition to processing. The WHERE
// clause on the current status is what makes racing channels safe: only
// one update ever matches, the other observes zero rows affected.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID uint, ref string, amount decimal.Decimal) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, payableStatuses).
		Updates(map[string]interface{}{
			"status":          models.OrderStatusProcessing,
			"transaction_ref": ref,
			"paid_amount":     amount,
			"paid_at":         now,
		})
	if res.Error != nil {
		return false, reconcile.NewStoreError("mark paid", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderRepository) MarkFailed(ctx context.Context, orderID uint, reason string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, failableStatuses).
		Update("status", models.OrderStatusFailed)
	if res.Error != nil {
		return reconcile.NewStoreError("mark failed", res.Error)
	}
	return nil
}

func (r *OrderRepository) AppendNote(ctx context.Context, orderID uint, note string) error {
	rec := &models.OrderNote{
		OrderID:   orderID,
		Note:      note,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return reconcile.NewStoreError("append note", err)
	}
	return nil
}

func (r *OrderRepository) SetMerchantTxnID(ctx context.Context, orderID uint, txnID string) error {
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("merchant_txn_id", txnID).Error
	if err != nil {
		return reconcile.NewStoreError("set merchant txn id", err)
	}
	return nil
}

// ReduceStock flags each order item's reservation as consumed. The flag
// makes the decrement idempotent at the row level.
func (r *OrderRepository) ReduceStock(ctx context.Context, orderID uint) error {
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND stock_reduced = ?", orderID, false).
		Update("stock_reduced", true).Error
	if err != nil {
		return reconcile.NewStoreError("reduce stock", err)
	}
	return nil
}

func (r *OrderRepository) ClearCart(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Where("session_id = ?", sessionID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
	if err != nil {
		return reconcile.NewStoreError("clear cart", err)
	}
	return nil
}

// RedirectURL builds the order-received landing URL. The order number
// doubles as the access key, the way storefront received-pages work.
func (r *OrderRepository) RedirectURL(order *models.Order) string {
	return fmt.Sprintf("%s/checkout/order-received/%d?key=%s", r.baseURL, order.ID, order.Number)
}

// Notes returns the audit trail for an order, newest first.
func (r *OrderRepository) Notes(ctx context.Context, orderID uint) ([]models.OrderNote, error) {
	var notes []models.OrderNote
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, reconcile.NewStoreError("notes", err)
	}
	return notes, nil
}
