package reconcile_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jiopay/internal/models"
	"jiopay/internal/reconcile"
)

// fakeOrderStore is an in-memory OrderStore that counts writes so tests
// can assert exactly-once behavior.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uint]*models.Order

	notes           []string
	markPaidCalls   int
	markFailedCalls int
	stockReductions map[uint]int
	clearedCarts    []string
}

func newFakeOrderStore(orders ...*models.Order) *fakeOrderStore {
	s := &fakeOrderStore{
		orders:          make(map[uint]*models.Order),
		stockReductions: make(map[uint]int),
	}
	for _, o := range orders {
		cp := *o
		s.orders[o.ID] = &cp
	}
	return s
}

func (s *fakeOrderStore) GetOrder(_ context.Context, id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, reconcile.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) FindByMerchantTxnID(_ context.Context, txnID string, statuses []string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.MerchantTxnID == txnID && statusIn(o.Status, statuses) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, reconcile.ErrOrderNotFound
}

func (s *fakeOrderStore) MostRecentOrder(_ context.Context, paymentMethod string, statuses []string, customerID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Order
	for _, o := range s.orders {
		if o.PaymentMethod != paymentMethod || !statusIn(o.Status, statuses) {
			continue
		}
		if customerID != "" && o.CustomerID != customerID {
			continue
		}
		if best == nil || o.CreatedAt.After(best.CreatedAt) {
			best = o
		}
	}
	if best == nil {
		return nil, reconcile.ErrOrderNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *fakeOrderStore) MarkPaid(_ context.Context, orderID uint, ref string, amount decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markPaidCalls++
	o, ok := s.orders[orderID]
	if !ok {
		return false, reconcile.ErrOrderNotFound
	}
	switch o.Status {
	case models.OrderStatusPending, models.OrderStatusOnHold, models.OrderStatusFailed:
		now := time.Now()
		o.Status = models.OrderStatusProcessing
		o.TransactionRef = ref
		o.PaidAmount = amount
		o.PaidAt = &now
		return true, nil
	}
	return false, nil
}

func (s *fakeOrderStore) MarkFailed(_ context.Context, orderID uint, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markFailedCalls++
	o, ok := s.orders[orderID]
	if !ok {
		return reconcile.ErrOrderNotFound
	}
	switch o.Status {
	case models.OrderStatusPending, models.OrderStatusOnHold:
		o.Status = models.OrderStatusFailed
	}
	return nil
}

func (s *fakeOrderStore) AppendNote(_ context.Context, _ uint, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	return nil
}

func (s *fakeOrderStore) SetMerchantTxnID(_ context.Context, orderID uint, txnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return reconcile.ErrOrderNotFound
	}
	o.MerchantTxnID = txnID
	return nil
}

func (s *fakeOrderStore) ReduceStock(_ context.Context, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stockReductions[orderID]++
	return nil
}

func (s *fakeOrderStore) ClearCart(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearedCarts = append(s.clearedCarts, sessionID)
	return nil
}

func (s *fakeOrderStore) RedirectURL(order *models.Order) string {
	return "https://shop.example/checkout/order-received/" + strconv.FormatUint(uint64(order.ID), 10)
}

func statusIn(status string, statuses []string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func newReconciler(store *fakeOrderStore) *reconcile.Reconciler {
	logger := zap.NewNop()
	locker, _ := reconcile.NewOrderLocker("", "", 0)
	return reconcile.NewReconciler(store, reconcile.NewLocator(store, logger), locker, "jio_pay", logger)
}

func pendingOrder(id uint, total string) *models.Order {
	return &models.Order{
		ID:            id,
		Number:        "wc_order_" + strconv.FormatUint(uint64(id), 10),
		Total:         decimal.RequireFromString(total),
		Currency:      "INR",
		Status:        models.OrderStatusPending,
		PaymentMethod: "jio_pay",
		SessionID:     "sess-" + strconv.FormatUint(uint64(id), 10),
		CreatedAt:     time.Now(),
	}
}

func successReport(amount string) reconcile.PaymentReport {
	return reconcile.PaymentReport{
		TxnAuthID:     "AUTH-123",
		ResponseCode:  reconcile.SuccessResponseCode,
		Amount:        decimal.RequireFromString(amount),
		MerchantTxnID: "7001002003",
		Channel:       reconcile.ChannelSync,
	}
}

func TestReconcile_WhenAmountReportedInMinorUnits_ShouldMarkPaidOnce(t *testing.T) {
	store := newFakeOrderStore(pendingOrder(42, "750.00"))
	r := newReconciler(store)

	outcome, err := r.Reconcile(context.Background(), successReport("75000"), reconcile.OrderHint{OrderID: 42})

	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeSuccess, outcome.Status)
	require.Equal(t, uint(42), outcome.OrderID)
	require.Contains(t, outcome.RedirectURL, "order-received/42")

	order, _ := store.GetOrder(context.Background(), 42)
	require.Equal(t, models.OrderStatusProcessing, order.Status)
	require.Equal(t, "AUTH-123", order.TransactionRef)
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("750")))
	require.Equal(t, 1, store.markPaidCalls)
	require.Equal(t, 1, store.stockReductions[42])
	require.Equal(t, []string{"sess-42"}, store.clearedCarts)
	require.Len(t, store.notes, 1)
	require.Contains(t, store.notes[0], "AUTH-123")
}

func TestReconcile_WhenAmountReportedInMajorUnits_ShouldMarkPaid(t *testing.T) {
	store := newFakeOrderStore(pendingOrder(7, "750.00"))
	r := newReconciler(store)

	outcome, err := r.Reconcile(context.Background(), successReport("750.00"), reconcile.OrderHint{OrderID: 7})

	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeSuccess, outcome.Status)
	order, _ := store.GetOrder(context.Background(), 7)
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("750")))
}

func TestReconcile_WhenCalledTwice_ShouldBeIdempotent(t *testing.T) {
	store := newFakeOrderStore(pendingOrder(42, "750.00"))
	r := newReconciler(store)

	first, err := r.Reconcile(context.Background(), successReport("75000"), reconcile.OrderHint{OrderID: 42})
	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeSuccess, first.Status)

	// Same report arrives again on the other channel.
	repeat := successReport("75000")
	repeat.Channel = reconcile.ChannelAsync
	second, err := r.Reconcile(context.Background(), repeat, reconcile.OrderHint{OrderID: 42})
	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeSuccess, second.Status)
	require.Equal(t, first.RedirectURL, second.RedirectURL)

	// Only the first pass wrote anything.
	require.Equal(t, 1, store.markPaidCalls)
	require.Equal(t, 1, store.stockReductions[42])
	require.Len(t, store.notes, 1)
	require.Len(t, store.clearedCarts, 1)
}

func TestReconcile_WhenOrderAlreadyCompleted_ShouldReturnSuccessWithoutWrites(t *testing.T) {
	order := pendingOrder(5, "100.00")
	order.Status = models.OrderStatusCompleted
	store := newFakeOrderStore(order)
	r := newReconciler(store)

	outcome, err := r.Reconcile(context.Background(), successReport("100.00"), reconcile.OrderHint{OrderID: 5})

	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeSuccess, outcome.Status)
	require.Equal(t, 0, store.markPaidCalls)
	require.Empty(t, store.notes)
}

func TestReconcile_WhenResponseCodeNotSuccess_ShouldDeclineBeforeAmountCheck(t *testing.T) {
	store := newFakeOrderStore(pendingOrder(9, "750.00"))
	r := newReconciler(store)

	report := successReport("75000") // amount would have matched
	report.ResponseCode = "5003"
	report.ResponseDescription = "Insufficient funds"

	outcome, err := r.Reconcile(context.Background(), report, reconcile.OrderHint{OrderID: 9})

	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeDeclined, outcome.Status)
	require.Equal(t, "Insufficient funds", outcome.Reason)

	order, _ := store.GetOrder(context.Background(), 9)
	require.Equal(t, models.OrderStatusFailed, order.Status)
	require.Equal(t, 0, store.markPaidCalls)
	require.Equal(t, 1, store.markFailedCalls)
	require.Len(t, store.notes, 1)
	require.Contains(t, store.notes[0], "5003")
}

func TestReconcile_WhenDeclineRepeats_ShouldNotFailTwice(t *testing.T) {
	store := newFakeOrderStore(pendingOrder(9, "750.00"))
	r := newReconciler(store)

	report := successReport("75000")
	report.ResponseCode = "5003"

	_, err := r.Reconcile(context.Background(), report, reconcile.OrderHint{OrderID: 9})
	require.NoError(t, err)
	_, err = r.Reconcile(context.Background(), report, reconcile.OrderHint{OrderID: 9})
	require.NoError(t, err)

	// The second decline is a no-op transition; the order stays failed.
	order, _ := store.GetOrder(context.Background(), 9)
	require.Equal(t, models.OrderStatusFailed, order.Status)
}

func TestReconcile_WhenAmountMatchesNeitherUnit_ShouldReportMismatchWithoutWrites(t *testing.T) {
	store := newFakeOrderStore(pendingOrder(3, "750.00"))
	r := newReconciler(store)

	outcome, err := r.Reconcile(context.Background(), successReport("700.00"), reconcile.OrderHint{OrderID: 3})

	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeAmountMismatch, outcome.Status)
	require.NotNil(t, outcome.Mismatch)
	require.True(t, outcome.Mismatch.OrderTotal.Equal(decimal.RequireFromString("750.00")))
	require.True(t, outcome.Mismatch.AsMajor.Equal(decimal.RequireFromString("700.00")))
	require.True(t, outcome.Mismatch.AsMinor.Equal(decimal.RequireFromString("7")))

	order, _ := store.GetOrder(context.Background(), 3)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, 0, store.markPaidCalls)
	require.Equal(t, 0, store.markFailedCalls)
}

func TestReconcile_WhenNoOrderResolves_ShouldReturnNotFound(t *testing.T) {
	store := newFakeOrderStore()
	r := newReconciler(store)

	_, err := r.Reconcile(context.Background(), successReport("750.00"), reconcile.OrderHint{})

	require.ErrorIs(t, err, reconcile.ErrOrderNotFound)
}

func TestReconcile_WithoutOrderIDHint_ShouldResolveViaMerchantTxnID(t *testing.T) {
	order := pendingOrder(11, "750.00")
	order.MerchantTxnID = "7001002003"
	store := newFakeOrderStore(order)
	r := newReconciler(store)

	outcome, err := r.Reconcile(context.Background(), successReport("75000"), reconcile.OrderHint{SessionID: "sess-11"})

	require.NoError(t, err)
	require.Equal(t, reconcile.OutcomeSuccess, outcome.Status)
	require.Equal(t, uint(11), outcome.OrderID)
}

func TestReconcile_WhenConcurrentReportsRace_ShouldCommitExactlyOnce(t *testing.T) {
	store := newFakeOrderStore(pendingOrder(42, "750.00"))
	r := newReconciler(store)

	var wg sync.WaitGroup
	const workers = 8
	outcomes := make([]*reconcile.Outcome, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = r.Reconcile(context.Background(), successReport("75000"), reconcile.OrderHint{OrderID: 42})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, reconcile.OutcomeSuccess, outcomes[i].Status)
	}
	require.Equal(t, 1, store.markPaidCalls)
	require.Equal(t, 1, store.stockReductions[42])
	require.Len(t, store.notes, 1)
	require.Len(t, store.clearedCarts, 1)
}

func TestReconcile_WhenOrderHasNoSession_ShouldClearCartFromHint(t *testing.T) {
	order := pendingOrder(6, "10.00")
	order.SessionID = ""
	store := newFakeOrderStore(order)
	r := newReconciler(store)

	_, err := r.Reconcile(context.Background(), successReport("10.00"), reconcile.OrderHint{OrderID: 6, SessionID: "sess-hint"})

	require.NoError(t, err)
	require.Equal(t, []string{"sess-hint"}, store.clearedCarts)
}
