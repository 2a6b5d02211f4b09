// Package reconcile matches reported Jio Pay payment outcomes to orders
// and applies the correct terminal state exactly once, regardless of how
// many channels deliver the same report.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"jiopay/internal/models"
)

// ErrOrderNotFound is returned when no order matches any resolution path.
// The order state is untouched; the caller decides user-facing messaging.
var ErrOrderNotFound = errors.New("order not found")

// StoreError wraps an I/O fault from the order store. It must never be
// collapsed into a payment success or failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("order store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err so callers can distinguish infrastructure
// faults from payment outcomes via errors.As.
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// OrderStore is the slice of the commerce platform the reconciler needs.
// Implementations back it with the orders database; tests use an
// in-memory fake.
type OrderStore interface {
	// GetOrder fetches an order by id, returning ErrOrderNotFound when absent.
	GetOrder(ctx context.Context, id uint) (*models.Order, error)

	// FindByMerchantTxnID returns the order whose stored merchant
	// transaction id matches, restricted to the given statuses.
	FindByMerchantTxnID(ctx context.Context, txnID string, statuses []string) (*models.Order, error)

	// MostRecentOrder returns the newest order for the payment method in
	// the given statuses. An empty customerID skips the customer filter.
	MostRecentOrder(ctx context.Context, paymentMethod string, statuses []string, customerID string) (*models.Order, error)

	// MarkPaid transitions the order to its paid state, recording the
	// upstream reference and resolved amount. The update is conditional on
	// the order still being in a payable status; applied reports whether
	// this call performed the transition.
	MarkPaid(ctx context.Context, orderID uint, ref string, amount decimal.Decimal) (applied bool, err error)

	// MarkFailed transitions the order to failed unless it is already
	// terminal for payment.
	MarkFailed(ctx context.Context, orderID uint, reason string) error

	// AppendNote appends a free-text audit note to the order.
	AppendNote(ctx context.Context, orderID uint, note string) error

	// SetMerchantTxnID stores the pre-payment correlation id, overwriting
	// any prior value.
	SetMerchantTxnID(ctx context.Context, orderID uint, txnID string) error

	// ReduceStock decrements reserved stock for the order's items once.
	ReduceStock(ctx context.Context, orderID uint) error

	// ClearCart empties the cart attached to the checkout session.
	ClearCart(ctx context.Context, sessionID string) error

	// RedirectURL returns the canonical post-payment landing URL.
	RedirectURL(order *models.Order) string
}
