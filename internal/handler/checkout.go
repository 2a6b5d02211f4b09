package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jiopay/internal/middleware"
	"jiopay/internal/models"
	"jiopay/internal/payment"
	"jiopay/internal/pkg/utils"
	"jiopay/internal/reconcile"
)

// Gateway is the slice of the Jio Pay client the handlers use.
type Gateway interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.SessionResponse, error)
	VerifySecureHash(authID, responseCode, amount, merchantTxnID, secureHash string) bool
}

// SessionStore is the slice of the session repository the handlers use.
type SessionStore interface {
	Create(ctx context.Context, session *models.CheckoutSession) error
	AttachOrder(ctx context.Context, id string, orderID uint) error
	SetProcessing(ctx context.Context, id string, processing bool) error
}

// CallbackRecorder persists raw gateway payloads for audit.
type CallbackRecorder interface {
	Create(ctx context.Context, log *models.CallbackLog) error
}

// CheckoutHandler terminates the popup's report channels and the small
// supporting endpoints the checkout page needs.
type CheckoutHandler struct {
	reconciler   *reconcile.Reconciler
	locator      *reconcile.Locator
	sessions     SessionStore
	callbackLogs CallbackRecorder
	gateway      Gateway
	sessionTTL   time.Duration
	checkoutURL  string
	logger       *zap.Logger
}

func NewCheckoutHandler(
	reconciler *reconcile.Reconciler,
	locator *reconcile.Locator,
	sessions SessionStore,
	callbackLogs CallbackRecorder,
	gateway Gateway,
	sessionTTL time.Duration,
	checkoutURL string,
	logger *zap.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		reconciler:   reconciler,
		locator:      locator,
		sessions:     sessions,
		callbackLogs: callbackLogs,
		gateway:      gateway,
		sessionTTL:   sessionTTL,
		checkoutURL:  checkoutURL,
		logger:       logger,
	}
}

// ── Session creation ─────────────────────────────────────────────────

type createSessionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	CustomerID    string          `json:"customer_id"`
}

// CreateSession registers a session with the gateway, issues the
// anti-forgery nonce and hands the client everything the SDK popup needs.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return errorJSON(c, http.StatusBadRequest, "amount must be positive")
	}

	merchantTxnID := utils.GenerateMerchantTxnID()

	gwSession, err := h.gateway.CreateSession(c.Request().Context(), payment.SessionRequest{
		Amount:        req.Amount,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		MerchantTxnID: merchantTxnID,
	})
	if err != nil {
		h.logger.Error("gateway session creation failed", zap.Error(err))
		return errorJSON(c, http.StatusBadGateway, "payment gateway unavailable")
	}

	nonce := utils.RandomHex(16)
	session := &models.CheckoutSession{
		ID:         utils.GenerateSessionID(),
		NonceHash:  middleware.HashNonce(nonce),
		CustomerID: req.CustomerID,
		ExpiresAt:  time.Now().Add(h.sessionTTL),
		CreatedAt:  time.Now(),
	}
	if err := h.sessions.Create(c.Request().Context(), session); err != nil {
		h.logger.Error("session create failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":        true,
		"session_id":     session.ID,
		"nonce":          nonce,
		"merchant_tr_id": merchantTxnID,
		"gateway": map[string]string{
			"session_id":    gwSession.SessionID,
			"merchant_id":   gwSession.MerchantID,
			"aggregator_id": gwSession.AggregatorID,
			"environment":   gwSession.Environment,
		},
	})
}

// ── Pre-payment registration ─────────────────────────────────────────

type registerTxnRequest struct {
	OrderID       uint   `json:"order_id"`
	MerchantTxnID string `json:"merchant_tr_id"`
}

// RegisterTxn stores the merchant transaction id against the order before
// the popup opens, so the return channel can correlate without an order
// id. Re-registering overwrites the prior value.
func (h *CheckoutHandler) RegisterTxn(c echo.Context) error {
	session := sessionFromContext(c)

	var req registerTxnRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.OrderID == 0 || req.MerchantTxnID == "" {
		return errorJSON(c, http.StatusBadRequest, "order_id and merchant_tr_id are required")
	}

	ctx := c.Request().Context()
	if err := h.locator.RegisterTxnID(ctx, req.OrderID, req.MerchantTxnID); err != nil {
		if errors.Is(err, reconcile.ErrOrderNotFound) {
			return errorJSON(c, http.StatusOK, "order not found")
		}
		h.logger.Error("register txn failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	if session != nil {
		if err := h.sessions.AttachOrder(ctx, session.ID, req.OrderID); err != nil {
			h.logger.Warn("attach order to session failed", zap.Error(err))
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// ── Synchronous verification channel ─────────────────────────────────

type verifyRequest struct {
	OrderID     uint                   `json:"order_id"`
	PaymentData map[string]interface{} `json:"payment_data"`
}

// VerifyPayment is the synchronous AJAX channel: the popup's success
// callback posts the result here and waits for a redirect target.
func (h *CheckoutHandler) VerifyPayment(c echo.Context) error {
	session := sessionFromContext(c)

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	report := reconcile.NormalizeReport(req.PaymentData, reconcile.ChannelSync)
	h.recordCallback(c, report, req.OrderID)

	if !h.gateway.VerifySecureHash(report.TxnAuthID, report.ResponseCode, report.Amount.String(), report.MerchantTxnID, report.SecureHash) {
		return errorJSON(c, http.StatusForbidden, "security check failed: invalid signature")
	}

	outcome, err := h.reconciler.Reconcile(c.Request().Context(), report, reconcile.OrderHint{
		OrderID:    req.OrderID,
		CustomerID: customerID(session),
		SessionID:  sessionID(session),
	})
	if err != nil {
		return h.reconcileErrorJSON(c, err)
	}

	switch outcome.Status {
	case reconcile.OutcomeSuccess:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":  true,
			"message":  "Payment verified successfully",
			"redirect": outcome.RedirectURL,
			"order_id": outcome.OrderID,
		})
	case reconcile.OutcomeAmountMismatch:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"message": outcome.Reason,
			"debug":   outcome.Mismatch,
		})
	default:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Payment failed: " + outcome.Reason,
		})
	}
}

// ── Asynchronous return channel ──────────────────────────────────────

// Return is the server-to-server return-URL channel: the gateway posts
// form-encoded result fields and expects a browser redirect back.
func (h *CheckoutHandler) Return(c echo.Context) error {
	session := sessionFromContext(c)

	raw := map[string]interface{}{
		"txnAuthID":          c.FormValue("txnAuthID"),
		"txnResponseCode":    c.FormValue("txnResponseCode"),
		"txnRespDescription": c.FormValue("txnRespDescription"),
		"amount":             c.FormValue("amount"),
		"merchantTrId":       c.FormValue("merchantTrId"),
		"secureHash":         c.FormValue("secureHash"),
		"txnDateTime":        c.FormValue("txnDateTime"),
	}
	orderID := utils.ParseUintSafe(c.FormValue("order_id"))

	report := reconcile.NormalizeReport(raw, reconcile.ChannelAsync)
	h.recordCallback(c, report, orderID)

	if !h.gateway.VerifySecureHash(report.TxnAuthID, report.ResponseCode, report.Amount.String(), report.MerchantTxnID, report.SecureHash) {
		return h.renderResultPage(c, "Payment Error", "Security check failed.", 0)
	}

	outcome, err := h.reconciler.Reconcile(c.Request().Context(), report, reconcile.OrderHint{
		OrderID:    orderID,
		CustomerID: customerID(session),
		SessionID:  sessionID(session),
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrOrderNotFound) {
			return h.renderResultPage(c, "Payment Error", "No matching order was found for this payment.", 0)
		}
		h.logger.Error("return channel reconcile failed", zap.Error(err))
		return h.renderResultPage(c, "Payment Error", "We could not verify your payment. Please contact support.", 0)
	}

	if outcome.Status == reconcile.OutcomeSuccess {
		return c.Redirect(http.StatusFound, outcome.RedirectURL)
	}
	return c.Redirect(http.StatusFound, h.checkoutErrorURL(outcome.Reason))
}

// ── Client cancel channel ────────────────────────────────────────────

// Cancel handles a user-dismissed popup. It only resets the session's
// processing indication; the order is never failed or cancelled here.
func (h *CheckoutHandler) Cancel(c echo.Context) error {
	session := sessionFromContext(c)
	if session != nil {
		if err := h.sessions.SetProcessing(c.Request().Context(), session.ID, false); err != nil {
			h.logger.Warn("processing flag reset failed", zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment cancelled",
	})
}

// ── Helpers ──────────────────────────────────────────────────────────

func (h *CheckoutHandler) recordCallback(c echo.Context, report reconcile.PaymentReport, orderID uint) {
	payload, _ := json.Marshal(report.Raw)
	entry := &models.CallbackLog{
		Channel:       report.Channel,
		MerchantTxnID: report.MerchantTxnID,
		OrderID:       orderID,
		Payload:       string(payload),
		ReceivedAt:    time.Now(),
	}
	if err := h.callbackLogs.Create(c.Request().Context(), entry); err != nil {
		h.logger.Warn("callback log write failed", zap.Error(err))
	}
}

func (h *CheckoutHandler) reconcileErrorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, reconcile.ErrOrderNotFound):
		return errorJSON(c, http.StatusOK, "No pending order found")
	case errors.Is(err, reconcile.ErrLockBusy):
		return errorJSON(c, http.StatusServiceUnavailable, "Payment is being processed, please retry")
	default:
		h.logger.Error("reconcile failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Payment verification error")
	}
}

func (h *CheckoutHandler) checkoutErrorURL(reason string) string {
	return h.checkoutURL + "?jiopay_error=" + url.QueryEscape(reason)
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"message": msg,
	})
}

func sessionFromContext(c echo.Context) *models.CheckoutSession {
	session, _ := c.Get(middleware.SessionContextKey).(*models.CheckoutSession)
	return session
}

func customerID(session *models.CheckoutSession) string {
	if session == nil {
		return ""
	}
	return session.CustomerID
}

func sessionID(session *models.CheckoutSession) string {
	if session == nil {
		return ""
	}
	return session.ID
}
