package slippage

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/common"
	bmath "github.com/thrasher-corp/blotter/common/math"
	"github.com/thrasher-corp/blotter/order"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// NewVolumeShare validates and returns a volume share model
func NewVolumeShare(volumeLimit, priceImpact decimal.Decimal) (*VolumeShare, error) {
	if !volumeLimit.IsPositive() || volumeLimit.GreaterThan(one) || priceImpact.IsNegative() {
		return nil, fmt.Errorf("%w: volume limit %v price impact %v", errInvalidParameters, volumeLimit, priceImpact)
	}
	return &VolumeShare{VolumeLimit: volumeLimit, PriceImpact: priceImpact}, nil
}

// Name returns the model name
func (v *VolumeShare) Name() string {
	return "volume-share"
}

// Simulate fills up to the remaining volume share of the bar. When the order
// has a limit the quantity is clipped to the largest whole amount whose
// impacted price respects it.
func (v *VolumeShare) Simulate(b bardata.Bar, o *order.Order, volumeUsed decimal.Decimal) (Result, error) {
	price, ok, err := precheck(b, o)
	if err != nil || !ok {
		return Result{}, err
	}
	qty := capacity(v.VolumeLimit, b.Volume, volumeUsed, o.Remaining.Abs())
	if !qty.IsPositive() {
		return Result{}, nil
	}
	buy := o.IsBuy()
	fillPrice := v.impactPrice(price, qty, b.Volume, buy)
	if o.HasLimit() && violates(fillPrice, o.Style.LimitPrice, buy) {
		qty = v.clipToLimit(price, o.Style.LimitPrice, b.Volume, buy)
		if qty.GreaterThan(o.Remaining.Abs()) {
			qty = o.Remaining.Abs()
		}
		if !qty.IsPositive() {
			return Result{}, nil
		}
		fillPrice = v.impactPrice(price, qty, b.Volume, buy)
	}
	if !fillPrice.IsPositive() {
		return Result{}, nil
	}
	return Result{Quantity: signed(qty, buy), Price: fillPrice}, nil
}

func (v *VolumeShare) impactPrice(price, qty, volume decimal.Decimal, buy bool) decimal.Decimal {
	impact := qty.Div(volume).Mul(v.PriceImpact)
	if buy {
		return price.Mul(one.Add(impact))
	}
	return price.Mul(one.Sub(impact))
}

// clipToLimit solves price*(1 +/- q/volume*impact) against the limit for the
// largest whole q
func (v *VolumeShare) clipToLimit(price, limit, volume decimal.Decimal, buy bool) decimal.Decimal {
	if v.PriceImpact.IsZero() {
		return decimal.Zero
	}
	headroom := limit.Div(price).Sub(one)
	if !buy {
		headroom = headroom.Neg()
	}
	q := headroom.Mul(volume).Div(v.PriceImpact).Floor()
	// division rounding can land one share over the boundary
	for q.IsPositive() && violates(v.impactPrice(price, q, volume, buy), limit, buy) {
		q = q.Sub(one)
	}
	return q
}

// NewFixedSpread validates and returns a fixed spread model
func NewFixedSpread(spread, volumeLimit decimal.Decimal) (*FixedSpread, error) {
	if spread.IsNegative() || volumeLimit.IsNegative() || volumeLimit.GreaterThan(one) {
		return nil, fmt.Errorf("%w: spread %v volume limit %v", errInvalidParameters, spread, volumeLimit)
	}
	return &FixedSpread{Spread: spread, VolumeLimit: volumeLimit}, nil
}

// Name returns the model name
func (f *FixedSpread) Name() string {
	return "fixed-spread"
}

// Simulate fills at the bar price plus half the spread for buys, minus for sells
func (f *FixedSpread) Simulate(b bardata.Bar, o *order.Order, volumeUsed decimal.Decimal) (Result, error) {
	price, ok, err := precheck(b, o)
	if err != nil || !ok {
		return Result{}, err
	}
	half := f.Spread.Div(two)
	if !o.IsBuy() {
		half = half.Neg()
	}
	return fixedFill(price.Add(half), f.VolumeLimit, b, o, volumeUsed), nil
}

// NewFixedBasisPoints validates and returns a fixed basis points model
func NewFixedBasisPoints(bps, volumeLimit decimal.Decimal) (*FixedBasisPoints, error) {
	if bps.IsNegative() || volumeLimit.IsNegative() || volumeLimit.GreaterThan(one) {
		return nil, fmt.Errorf("%w: basis points %v volume limit %v", errInvalidParameters, bps, volumeLimit)
	}
	return &FixedBasisPoints{BasisPoints: bps, VolumeLimit: volumeLimit}, nil
}

// Name returns the model name
func (f *FixedBasisPoints) Name() string {
	return "fixed-basis-points"
}

// Simulate fills at price * (1 +/- bps/10000)
func (f *FixedBasisPoints) Simulate(b bardata.Bar, o *order.Order, volumeUsed decimal.Decimal) (Result, error) {
	price, ok, err := precheck(b, o)
	if err != nil || !ok {
		return Result{}, err
	}
	adj := bmath.BasisPoints(f.BasisPoints)
	if !o.IsBuy() {
		adj = adj.Neg()
	}
	return fixedFill(price.Mul(one.Add(adj)), f.VolumeLimit, b, o, volumeUsed), nil
}

// Name returns the model name
func (NoSlippage) Name() string {
	return "none"
}

// Simulate fills the whole remaining quantity at the bar price
func (NoSlippage) Simulate(b bardata.Bar, o *order.Order, volumeUsed decimal.Decimal) (Result, error) {
	price, ok, err := precheck(b, o)
	if err != nil || !ok {
		return Result{}, err
	}
	return fixedFill(price, decimal.Zero, b, o, volumeUsed), nil
}

// precheck returns the bar price and whether the order may trade on this bar
func precheck(b bardata.Bar, o *order.Order) (decimal.Decimal, bool, error) {
	if o == nil {
		return decimal.Zero, false, common.ErrNilArguments
	}
	if b.Asset.SID != o.Asset.SID {
		return decimal.Zero, false, fmt.Errorf("%w: bar %v order %v", errAssetMismatch, b.Asset, o.Asset)
	}
	if !b.Volume.IsPositive() || o.Remaining.IsZero() {
		return decimal.Zero, false, nil
	}
	price := b.Price()
	return price, o.CheckTriggers(price), nil
}

// fixedFill handles the models whose price does not depend on quantity, so a
// limit either admits the whole fill or none of it
func fixedFill(fillPrice, volumeLimit decimal.Decimal, b bardata.Bar, o *order.Order, volumeUsed decimal.Decimal) Result {
	buy := o.IsBuy()
	if !fillPrice.IsPositive() || (o.HasLimit() && violates(fillPrice, o.Style.LimitPrice, buy)) {
		return Result{}
	}
	qty := o.Remaining.Abs()
	if volumeLimit.IsPositive() {
		qty = capacity(volumeLimit, b.Volume, volumeUsed, qty)
	}
	if !qty.IsPositive() {
		return Result{}
	}
	return Result{Quantity: signed(qty, buy), Price: fillPrice}
}

// capacity returns min(floor(limit*volume) - used, remaining)
func capacity(limit, volume, used, remaining decimal.Decimal) decimal.Decimal {
	available := limit.Mul(volume).Floor().Sub(used)
	if available.GreaterThan(remaining) {
		return remaining
	}
	return available
}

func violates(price, limit decimal.Decimal, buy bool) bool {
	if buy {
		return price.GreaterThan(limit)
	}
	return price.LessThan(limit)
}

func signed(qty decimal.Decimal, buy bool) decimal.Decimal {
	if buy {
		return qty
	}
	return qty.Neg()
}
