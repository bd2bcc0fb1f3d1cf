package slippage

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/order"
)

var (
	errAssetMismatch     = errors.New("bar asset does not match order asset")
	errInvalidParameters = errors.New("invalid slippage parameters")
)

// Model estimates how much of an order fills against one bar and at what
// price. volumeUsed is the volume already consumed for the asset in the bar.
type Model interface {
	Simulate(b bardata.Bar, o *order.Order, volumeUsed decimal.Decimal) (Result, error)
	Name() string
}

// Result is the outcome of one order against one bar. Quantity carries the
// order's sign and is zero when nothing fills.
type Result struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// VolumeShare caps fills at a fraction of bar volume and moves the price in
// proportion to participation
type VolumeShare struct {
	VolumeLimit decimal.Decimal
	PriceImpact decimal.Decimal
}

// FixedSpread fills at half a fixed spread away from the bar price. A zero
// VolumeLimit disables the volume cap.
type FixedSpread struct {
	Spread      decimal.Decimal
	VolumeLimit decimal.Decimal
}

// FixedBasisPoints fills at a fixed number of basis points away from the bar
// price. A zero VolumeLimit disables the volume cap.
type FixedBasisPoints struct {
	BasisPoints decimal.Decimal
	VolumeLimit decimal.Decimal
}

// NoSlippage fills the full remaining quantity at the bar price
type NoSlippage struct{}

// Defaults used when a config omits parameters
var (
	DefaultVolumeLimit      = decimal.RequireFromString("0.025")
	DefaultPriceImpact      = decimal.RequireFromString("0.1")
	DefaultBasisPoints      = decimal.NewFromInt(5)
	DefaultBasisPointVolume = decimal.RequireFromString("0.1")
)
