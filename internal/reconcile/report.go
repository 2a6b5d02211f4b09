package reconcile

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SuccessResponseCode is the sentinel the Jio Pay SDK sends for an
// approved transaction. Anything else is a decline.
const SuccessResponseCode = "0000"

// Arrival channels. They affect transport only, never validation rules.
const (
	ChannelSync   = "synchronous-ajax"
	ChannelAsync  = "asynchronous-return"
	ChannelCancel = "client-cancel"
)

// PaymentReport is the normalized form of what the popup or return
// channel reported. Field presence in the raw payload is not guaranteed;
// NormalizeReport makes the defaults explicit.
type PaymentReport struct {
	TxnAuthID           string
	ResponseCode        string
	ResponseDescription string
	Amount              decimal.Decimal
	MerchantTxnID       string
	TxnTime             string
	SecureHash          string
	Channel             string
	Raw                 json.RawMessage
}

// NormalizeReport converts the loosely-typed payment_data payload into a
// PaymentReport. Unknown keys are kept only in Raw; missing fields become
// empty strings and a zero amount.
func NormalizeReport(raw map[string]interface{}, channel string) PaymentReport {
	report := PaymentReport{
		TxnAuthID:           stringField(raw, "txnAuthID"),
		ResponseCode:        stringField(raw, "txnResponseCode"),
		ResponseDescription: stringField(raw, "txnRespDescription"),
		MerchantTxnID:       stringField(raw, "merchantTrId"),
		TxnTime:             stringField(raw, "txnDateTime"),
		SecureHash:          stringField(raw, "secureHash"),
		Channel:             channel,
	}

	// Legacy SDK builds used payment_id / transaction_id.
	if report.TxnAuthID == "" {
		report.TxnAuthID = stringField(raw, "payment_id")
	}
	if report.MerchantTxnID == "" {
		report.MerchantTxnID = stringField(raw, "transaction_id")
	}

	report.Amount = amountField(raw, "amount")

	if encoded, err := json.Marshal(raw); err == nil {
		report.Raw = encoded
	}
	return report
}

// OutcomeStatus classifies the result of a reconcile call.
type OutcomeStatus string

const (
	OutcomeSuccess        OutcomeStatus = "success"
	OutcomeDeclined       OutcomeStatus = "declined"
	OutcomeAmountMismatch OutcomeStatus = "amount_mismatch"
)

// AmountMismatch carries both candidate interpretations of the reported
// amount alongside the order total, for operator diagnosis.
type AmountMismatch struct {
	OrderTotal decimal.Decimal `json:"order_total"`
	AsMajor    decimal.Decimal `json:"as_major"`
	AsMinor    decimal.Decimal `json:"as_minor"`
}

// Outcome is the reported result of a reconcile call. Declines and amount
// mismatches are outcomes, not errors; only store faults surface as errors.
type Outcome struct {
	Status      OutcomeStatus
	OrderID     uint
	RedirectURL string
	Reason      string
	Mismatch    *AmountMismatch
}

func stringField(raw map[string]interface{}, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return decimal.NewFromFloat(t).String()
	}
	return ""
}

func amountField(raw map[string]interface{}, key string) decimal.Decimal {
	v, ok := raw[key]
	if !ok {
		return decimal.Zero
	}
	switch t := v.(type) {
	case string:
		if d, err := decimal.NewFromString(t); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(t)
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	}
	return decimal.Zero
}
