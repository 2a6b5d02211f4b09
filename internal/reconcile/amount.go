package reconcile

import "github.com/shopspring/decimal"

// amountTolerance is the accepted absolute difference, in major units,
// between the order total and a candidate interpretation of the reported
// amount.
var amountTolerance = decimal.New(1, -2) // 0.01

var minorUnitFactor = decimal.NewFromInt(100)

// ResolvePaidAmount decides which unit the gateway reported the amount in.
// The SDK has been observed to send both paise (75000 for ₹750) and rupees
// (750.00), so both interpretations are tried, minor units first, matching
// the upstream integration's behavior. When neither is within tolerance the
// returned mismatch carries both candidates and no amount is accepted.
func ResolvePaidAmount(orderTotal, reported decimal.Decimal) (decimal.Decimal, *AmountMismatch) {
	asMinor := reported.Div(minorUnitFactor)
	asMajor := reported

	if orderTotal.Sub(asMinor).Abs().LessThanOrEqual(amountTolerance) {
		return asMinor, nil
	}
	if orderTotal.Sub(asMajor).Abs().LessThanOrEqual(amountTolerance) {
		return asMajor, nil
	}

	return decimal.Zero, &AmountMismatch{
		OrderTotal: orderTotal,
		AsMajor:    asMajor,
		AsMinor:    asMinor,
	}
}
