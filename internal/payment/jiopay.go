package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jiopay/internal/config"
	"jiopay/internal/pkg/httpclient"
)

// SessionRequest carries what the checkout page knows about the buyer
// when the popup is about to open.
type SessionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	MerchantTxnID string          `json:"merchant_tr_id"`
}

// SessionResponse is the SDK bootstrap data returned by the gateway.
type SessionResponse struct {
	SessionID    string `json:"session_id"`
	MerchantID   string `json:"merchant_id"`
	AggregatorID string `json:"aggregator_id"`
	Environment  string `json:"environment"`
}

// Client talks to the Jio Pay gateway API and validates the secure hash
// the popup attaches to its result payload.
type Client struct {
	cfg    config.GatewayConfig
	http   *httpclient.Client
	logger *zap.Logger
}

func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   httpclient.New().WithTimeout(30 * time.Second),
		logger: logger,
	}
}

func (c *Client) baseURL() string {
	if c.cfg.Environment == "prod" {
		return "https://checkout.jiopay.com"
	}
	return "https://uat-checkout.jiopay.com"
}

// CreateSession registers a checkout session with the gateway so the
// popup can be opened with a server-issued session id.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	body := map[string]interface{}{
		"merchantId":   c.cfg.MerchantID,
		"aggId":        c.cfg.AggregatorID,
		"amount":       req.Amount.StringFixed(2),
		"email":        req.CustomerEmail,
		"userName":     req.CustomerName,
		"merchantTrId": req.MerchantTxnID,
	}

	resp, err := c.http.Post(c.baseURL()+"/api/v2/session", body)
	if err != nil {
		return nil, fmt.Errorf("jiopay create session failed: %w", err)
	}

	var result struct {
		SessionID string `json:"sessionId"`
		Status    string `json:"status"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("jiopay session parse error: %w", err)
	}
	if result.SessionID == "" {
		msg := result.Message
		if msg == "" {
			msg = "no session id returned"
		}
		return nil, fmt.Errorf("jiopay create session rejected: %s", msg)
	}

	return &SessionResponse{
		SessionID:    result.SessionID,
		MerchantID:   c.cfg.MerchantID,
		AggregatorID: c.cfg.AggregatorID,
		Environment:  c.cfg.Environment,
	}, nil
}

// VerifySecureHash checks the HMAC the popup attaches to its result. An
// empty hash passes: older SDK builds omit the field, and the upstream
// contract for it is not documented. A present-but-wrong hash fails.
func (c *Client) VerifySecureHash(authID, responseCode, amount, merchantTxnID, secureHash string) bool {
	if secureHash == "" || c.cfg.SecretKey == "" {
		return true
	}
	expected := c.ComputeSecureHash(authID, responseCode, amount, merchantTxnID)
	if hmac.Equal([]byte(expected), []byte(secureHash)) {
		return true
	}
	c.logger.Warn("secure hash mismatch",
		zap.String("merchant_tr_id", merchantTxnID),
		zap.String("auth_id", authID))
	return false
}

// ComputeSecureHash derives the result-payload HMAC over the pipe-joined
// transaction fields using the merchant secret.
func (c *Client) ComputeSecureHash(authID, responseCode, amount, merchantTxnID string) string {
	payload := authID + "|" + responseCode + "|" + amount + "|" + merchantTxnID
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
