package reconcile

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jiopay/internal/models"
)

// OrderHint is the evidence the transport layer can attach to a report.
// OrderID comes from the trusted synchronous channel and may be absent;
// CustomerID and SessionID come from the authenticated session, if any.
type OrderHint struct {
	OrderID    uint
	CustomerID string
	SessionID  string
}

// Reconciler applies payment reports to orders. It is stateless; every
// invocation resolves, validates and commits against the order store,
// serialized per order by the locker.
type Reconciler struct {
	store         OrderStore
	locator       *Locator
	locker        OrderLocker
	paymentMethod string
	logger        *zap.Logger
}

func NewReconciler(store OrderStore, locator *Locator, locker OrderLocker, paymentMethod string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:         store,
		locator:       locator,
		locker:        locker,
		paymentMethod: paymentMethod,
		logger:        logger,
	}
}

// Reconcile resolves the target order, checks idempotence, gates on the
// upstream response code, validates the amount under both unit
// interpretations and commits the paid state exactly once. Calling it
// again for an already-paid order returns success without writes, which
// is what makes overlapping channels safe.
//
// Client-cancel reports never reach this method; the transport resets the
// session's processing flag and leaves the order alone.
func (r *Reconciler) Reconcile(ctx context.Context, report PaymentReport, hint OrderHint) (*Outcome, error) {
	order, err := r.resolveOrder(ctx, report, hint)
	if err != nil {
		return nil, err
	}

	release, err := r.locker.Acquire(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock; another channel may have finished first.
	order, err = r.store.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	if models.PaymentTerminal(order.Status) {
		r.logger.Info("order already reconciled, idempotent success",
			zap.Uint("order_id", order.ID),
			zap.String("status", order.Status),
			zap.String("channel", report.Channel))
		return r.success(order), nil
	}

	if report.ResponseCode != SuccessResponseCode {
		return r.decline(ctx, order, report)
	}

	paid, mismatch := ResolvePaidAmount(order.Total, report.Amount)
	if mismatch != nil {
		r.logger.Warn("amount mismatch, order left untouched",
			zap.Uint("order_id", order.ID),
			zap.String("order_total", mismatch.OrderTotal.String()),
			zap.String("as_major", mismatch.AsMajor.String()),
			zap.String("as_minor", mismatch.AsMinor.String()))
		return &Outcome{
			Status:   OutcomeAmountMismatch,
			OrderID:  order.ID,
			Reason:   fmt.Sprintf("amount mismatch: order=%s payment=%s (minor=%s)", mismatch.OrderTotal, mismatch.AsMajor, mismatch.AsMinor),
			Mismatch: mismatch,
		}, nil
	}

	return r.commit(ctx, order, report, hint, paid)
}

func (r *Reconciler) resolveOrder(ctx context.Context, report PaymentReport, hint OrderHint) (*models.Order, error) {
	if hint.OrderID != 0 {
		return r.store.GetOrder(ctx, hint.OrderID)
	}
	return r.locator.Locate(ctx, report.MerchantTxnID, r.paymentMethod, hint.CustomerID)
}

func (r *Reconciler) decline(ctx context.Context, order *models.Order, report PaymentReport) (*Outcome, error) {
	reason := report.ResponseDescription
	if reason == "" {
		reason = "payment declined by gateway"
	}

	if err := r.store.MarkFailed(ctx, order.ID, reason); err != nil {
		return nil, err
	}
	note := fmt.Sprintf("Jio Pay payment failed. Response code: %s, description: %s", report.ResponseCode, reason)
	if err := r.store.AppendNote(ctx, order.ID, note); err != nil {
		return nil, err
	}

	r.logger.Info("payment declined",
		zap.Uint("order_id", order.ID),
		zap.String("response_code", report.ResponseCode))
	return &Outcome{Status: OutcomeDeclined, OrderID: order.ID, Reason: reason}, nil
}

func (r *Reconciler) commit(ctx context.Context, order *models.Order, report PaymentReport, hint OrderHint, paid decimal.Decimal) (*Outcome, error) {
	applied, err := r.store.MarkPaid(ctx, order.ID, report.TxnAuthID, paid)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost a residual race: someone else completed the order between
		// our status read and the conditional update. Same as step 2.
		order, err = r.store.GetOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		return r.success(order), nil
	}

	note := fmt.Sprintf("Jio Pay payment successful. Auth ID: %s, Amount: %s", report.TxnAuthID, paid.StringFixed(2))
	if err := r.store.AppendNote(ctx, order.ID, note); err != nil {
		return nil, err
	}
	if err := r.store.ReduceStock(ctx, order.ID); err != nil {
		return nil, err
	}

	sessionID := order.SessionID
	if sessionID == "" {
		sessionID = hint.SessionID
	}
	if sessionID != "" {
		if err := r.store.ClearCart(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	order, err = r.store.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	r.logger.Info("payment reconciled",
		zap.Uint("order_id", order.ID),
		zap.String("auth_id", report.TxnAuthID),
		zap.String("amount", paid.StringFixed(2)),
		zap.String("channel", report.Channel))
	return r.success(order), nil
}

func (r *Reconciler) success(order *models.Order) *Outcome {
	return &Outcome{
		Status:      OutcomeSuccess,
		OrderID:     order.ID,
		RedirectURL: r.store.RedirectURL(order),
	}
}
