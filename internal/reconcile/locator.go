package reconcile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"jiopay/internal/models"
)

// Statuses eligible for each resolution path. The merchant-txn-id lookup
// includes processing so a late duplicate callback still finds the order
// it already paid; the recency fallback only considers orders awaiting
// payment.
var (
	txnIDStatuses    = []string{models.OrderStatusPending, models.OrderStatusOnHold, models.OrderStatusProcessing}
	fallbackStatuses = []string{models.OrderStatusPending, models.OrderStatusOnHold}
)

// Locator resolves an order from partial evidence. The return-URL channel
// frequently omits the order id, so the pre-registered merchant transaction
// id is the robust path and "most recent pending order for this method" is
// the best-effort fallback.
type Locator struct {
	store  OrderStore
	logger *zap.Logger
}

func NewLocator(store OrderStore, logger *zap.Logger) *Locator {
	return &Locator{store: store, logger: logger}
}

// Locate applies the resolution precedence: merchant transaction id first,
// then the most recent awaiting-payment order for the gateway. A guest
// caller (empty customerID) skips the customer filter and accepts the
// global most-recent match; under concurrent guest checkouts this can
// misattribute, which is a documented trade-off of the fallback.
func (l *Locator) Locate(ctx context.Context, merchantTxnID, paymentMethod, customerID string) (*models.Order, error) {
	if merchantTxnID != "" {
		order, err := l.store.FindByMerchantTxnID(ctx, merchantTxnID, txnIDStatuses)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		l.logger.Debug("no order for merchant txn id, falling back to recency",
			zap.String("merchant_txn_id", merchantTxnID))
	}

	order, err := l.store.MostRecentOrder(ctx, paymentMethod, fallbackStatuses, customerID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// RegisterTxnID stores a caller-supplied correlation id against an order
// before the popup opens, overwriting any prior value. Calling it again
// with the same pair is a no-op in effect.
func (l *Locator) RegisterTxnID(ctx context.Context, orderID uint, merchantTxnID string) error {
	if _, err := l.store.GetOrder(ctx, orderID); err != nil {
		return err
	}
	return l.store.SetMerchantTxnID(ctx, orderID, merchantTxnID)
}
