package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	bmath "github.com/thrasher-corp/blotter/common/math"
)

// String implements the stringer interface
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == Filled || s == Cancelled || s == Rejected
}

// CanTransition reports whether from -> to is a permitted status change
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// String implements the stringer interface
func (t Type) String() string {
	return string(t)
}

// String implements the stringer interface
func (s Side) String() string {
	return string(s)
}

// Side returns the side implied by the requested amount
func (o *Order) Side() Side {
	if o.Amount.IsNegative() {
		return Sell
	}
	return Buy
}

// IsBuy returns whether the order buys
func (o *Order) IsBuy() bool {
	return o.Amount.IsPositive()
}

// IsOpen returns whether the order is eligible for fills
func (o *Order) IsOpen() bool {
	return o.Status == Open
}

// SetStatus moves the order to the supplied status, enforcing the lifecycle
func (o *Order) SetStatus(to Status, reason string, t time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("order %d %w: %s -> %s", o.ID, ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	o.Reason = reason
	o.LastUpdated = t
	return nil
}

// CheckTriggers evaluates the stop and limit conditions of the order against
// a bar price. The stop flag is sticky once reached; the limit condition is
// evaluated afresh every bar. It returns whether the order may fill.
func (o *Order) CheckTriggers(price decimal.Decimal) bool {
	s := o.Style
	buy := o.IsBuy()
	if (s.Type == Stop || s.Type == StopLimit) && !o.StopReached {
		if (buy && price.GreaterThanOrEqual(s.StopPrice)) ||
			(!buy && price.LessThanOrEqual(s.StopPrice)) {
			o.StopReached = true
		}
	}
	if s.Type == Limit || s.Type == StopLimit {
		o.LimitReached = limitReached(buy, price, s.LimitPrice)
	}
	switch s.Type {
	case Market:
		return true
	case Stop:
		return o.StopReached
	case Limit:
		return o.LimitReached
	case StopLimit:
		return o.StopReached && o.LimitReached
	}
	return false
}

// HasLimit returns whether the order carries a limit price
func (o *Order) HasLimit() bool {
	return o.Style.Type == Limit || o.Style.Type == StopLimit
}

func limitReached(buy bool, price, limit decimal.Decimal) bool {
	if buy {
		return price.LessThanOrEqual(limit)
	}
	return price.GreaterThanOrEqual(limit)
}

// ApplySplit adjusts the order for a capital structure change. A ratio of
// 0.5 describes a 2-for-1 split: share counts double and prices halve.
// Filled stays in pre-split shares so it keeps matching the recorded
// transactions; only the unfilled remainder is rescaled.
func (o *Order) ApplySplit(ratio decimal.Decimal, tick decimal.Decimal) error {
	if !ratio.IsPositive() {
		return fmt.Errorf("%w: %v", ErrInvalidSplitRatio, ratio)
	}
	o.Remaining = bmath.RoundTowardZero(o.Remaining.Div(ratio))
	o.Amount = o.Filled.Add(o.Remaining)
	buy := o.IsBuy()
	if o.HasLimit() {
		o.Style.LimitPrice = roundLimit(o.Style.LimitPrice.Mul(ratio), tick, buy)
	}
	if o.Style.Type == Stop || o.Style.Type == StopLimit {
		o.Style.StopPrice = roundStop(o.Style.StopPrice.Mul(ratio), tick, buy)
	}
	return nil
}

// roundLimit never improves the owner's limit: buys round down, sells up
func roundLimit(p, tick decimal.Decimal, buy bool) decimal.Decimal {
	if buy {
		return bmath.FloorToTick(p, tick)
	}
	return bmath.CeilToTick(p, tick)
}

// roundStop never triggers earlier than requested: buys round up, sells down
func roundStop(p, tick decimal.Decimal, buy bool) decimal.Decimal {
	if buy {
		return bmath.CeilToTick(p, tick)
	}
	return bmath.FloorToTick(p, tick)
}
