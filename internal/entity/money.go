package domain

import "github.com/shopspring/decimal"

var (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(500)
	// FlatShippingFee applies below the threshold.
	FlatShippingFee = decimal.NewFromInt(50)
)

// PointsFor converts an order total into loyalty points: floor(total).
func PointsFor(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Floor().IntPart()
}

// MinorUnits returns the amount in cents, as hosted processors expect it.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
