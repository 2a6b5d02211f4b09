package reconcile_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"jiopay/internal/reconcile"
)

func TestNormalizeReport_ShouldMapSDKFields(t *testing.T) {
	raw := map[string]interface{}{
		"txnAuthID":          "AUTH-1",
		"txnResponseCode":    "0000",
		"txnRespDescription": "Approved",
		"amount":             "75000",
		"merchantTrId":       "7001002003",
		"txnDateTime":        "2026-09-01 12:00:00",
		"secureHash":         "abc123",
		"extra":              "kept only in Raw",
	}

	report := reconcile.NormalizeReport(raw, reconcile.ChannelSync)

	require.Equal(t, "AUTH-1", report.TxnAuthID)
	require.Equal(t, reconcile.SuccessResponseCode, report.ResponseCode)
	require.Equal(t, "Approved", report.ResponseDescription)
	require.True(t, report.Amount.Equal(decimal.RequireFromString("75000")))
	require.Equal(t, "7001002003", report.MerchantTxnID)
	require.Equal(t, "abc123", report.SecureHash)
	require.Equal(t, reconcile.ChannelSync, report.Channel)
	require.Contains(t, string(report.Raw), "kept only in Raw")
}

func TestNormalizeReport_ShouldFallBackToLegacyKeys(t *testing.T) {
	raw := map[string]interface{}{
		"payment_id":     "PAY-9",
		"transaction_id": "TXN-9",
		"amount":         float64(750),
	}

	report := reconcile.NormalizeReport(raw, reconcile.ChannelAsync)

	require.Equal(t, "PAY-9", report.TxnAuthID)
	require.Equal(t, "TXN-9", report.MerchantTxnID)
	require.True(t, report.Amount.Equal(decimal.RequireFromString("750")))
}

func TestNormalizeReport_WithEmptyPayload_ShouldZeroEverything(t *testing.T) {
	report := reconcile.NormalizeReport(map[string]interface{}{}, reconcile.ChannelSync)

	require.Empty(t, report.TxnAuthID)
	require.Empty(t, report.ResponseCode)
	require.True(t, report.Amount.IsZero())
}

func TestNormalizeReport_WithGarbageAmount_ShouldDefaultToZero(t *testing.T) {
	report := reconcile.NormalizeReport(map[string]interface{}{"amount": "not a number"}, reconcile.ChannelSync)

	require.True(t, report.Amount.IsZero())
}
