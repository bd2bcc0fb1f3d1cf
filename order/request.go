package order

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	bmath "github.com/thrasher-corp/blotter/common/math"
)

// Prepare validates the request and returns the whole share signed amount
// and the tick rounded execution style. A zero maxShares disables the guard.
func (r *Request) Prepare(maxShares decimal.Decimal) (decimal.Decimal, Style, error) {
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return decimal.Zero, Style{}, fmt.Errorf("%w: %v", ErrNonFiniteAmount, r.Amount)
	}
	amount := bmath.RoundTowardZero(decimal.NewFromFloat(r.Amount))
	if amount.IsZero() {
		return decimal.Zero, Style{}, fmt.Errorf("%w: requested %v", ErrZeroAmount, r.Amount)
	}
	if maxShares.IsPositive() && amount.Abs().GreaterThan(maxShares) {
		return decimal.Zero, Style{}, fmt.Errorf("%w: %v > %v", ErrAmountTooLarge, amount.Abs(), maxShares)
	}
	style, err := r.style(amount.IsPositive())
	if err != nil {
		return decimal.Zero, Style{}, err
	}
	return amount, style, nil
}

func (r *Request) style(buy bool) (Style, error) {
	t := r.Type
	if t == "" {
		t = Market
	}
	s := Style{Type: t}
	tick := r.Asset.TickSize
	switch t {
	case Market:
		return s, nil
	case Limit:
		limit, err := stylePrice("limit", r.LimitPrice)
		if err != nil {
			return Style{}, err
		}
		s.LimitPrice = roundLimit(limit, tick, buy)
	case Stop:
		stop, err := stylePrice("stop", r.StopPrice)
		if err != nil {
			return Style{}, err
		}
		s.StopPrice = roundStop(stop, tick, buy)
	case StopLimit:
		limit, err := stylePrice("limit", r.LimitPrice)
		if err != nil {
			return Style{}, err
		}
		stop, err := stylePrice("stop", r.StopPrice)
		if err != nil {
			return Style{}, err
		}
		s.LimitPrice = roundLimit(limit, tick, buy)
		s.StopPrice = roundStop(stop, tick, buy)
	default:
		return Style{}, fmt.Errorf("%w: unknown type %q", ErrInvalidStyle, t)
	}
	if (s.LimitPrice.IsZero() && (t == Limit || t == StopLimit)) ||
		(s.StopPrice.IsZero() && (t == Stop || t == StopLimit)) {
		return Style{}, fmt.Errorf("%w: price rounds to zero at tick %v", ErrInvalidStyle, tick)
	}
	return s, nil
}

func stylePrice(name string, p float64) (decimal.Decimal, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return decimal.Zero, fmt.Errorf("%w: %s price %v must be positive and finite", ErrInvalidStyle, name, p)
	}
	return decimal.NewFromFloat(p), nil
}
