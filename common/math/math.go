// Package math holds decimal helpers shared by the cost models and order
// intake.
package math

import "github.com/shopspring/decimal"

var (
	nearIntegerTolerance = decimal.New(1, -4)
	basisPointDivisor    = decimal.NewFromInt(10000)
)

// RoundTowardZero drops the fractional part of d, snapping values within
// 1e-4 of the next integer onto it first so float noise such as 99.99999
// becomes 100 rather than 99
func RoundTowardZero(d decimal.Decimal) decimal.Decimal {
	rounded := d.Round(0)
	if rounded.Sub(d).Abs().LessThanOrEqual(nearIntegerTolerance) {
		return rounded
	}
	return d.Truncate(0)
}

// FloorToTick rounds price down to a multiple of tick. A zero tick is a no-op.
func FloorToTick(price, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return price
	}
	return price.Div(tick).Floor().Mul(tick)
}

// CeilToTick rounds price up to a multiple of tick. A zero tick is a no-op.
func CeilToTick(price, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return price
	}
	return price.Div(tick).Ceil().Mul(tick)
}

// BasisPoints converts bps into a fraction
func BasisPoints(bps decimal.Decimal) decimal.Decimal {
	return bps.Div(basisPointDivisor)
}
