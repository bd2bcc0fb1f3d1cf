package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/order"
)

// NewPerShare validates and returns a per share model
func NewPerShare(costPerShare, minTradeCost decimal.Decimal) (*PerShare, error) {
	if costPerShare.IsNegative() || minTradeCost.IsNegative() {
		return nil, fmt.Errorf("%w: per share %v min %v", errNegativeRate, costPerShare, minTradeCost)
	}
	return &PerShare{CostPerShare: costPerShare, MinTradeCost: minTradeCost}, nil
}

// Calculate returns max(min trade cost, cost per share * |qty|)
func (p *PerShare) Calculate(_ *order.Order, qty, _ decimal.Decimal) decimal.Decimal {
	return decimal.Max(p.MinTradeCost, p.CostPerShare.Mul(qty.Abs()))
}

// Name returns the model name
func (p *PerShare) Name() string {
	return "per-share"
}

// NewPerTrade validates and returns a per trade model
func NewPerTrade(cost decimal.Decimal) (*PerTrade, error) {
	if cost.IsNegative() {
		return nil, fmt.Errorf("%w: per trade %v", errNegativeRate, cost)
	}
	return &PerTrade{Cost: cost}, nil
}

// Calculate charges the flat cost on the first fill of the order only. The
// order is expected in its pre-fill state.
func (p *PerTrade) Calculate(o *order.Order, _, _ decimal.Decimal) decimal.Decimal {
	if o != nil && !o.Filled.IsZero() {
		return decimal.Zero
	}
	return p.Cost
}

// Name returns the model name
func (p *PerTrade) Name() string {
	return "per-trade"
}

// NewPerDollar validates and returns a per dollar model
func NewPerDollar(costPerDollar decimal.Decimal) (*PerDollar, error) {
	if costPerDollar.IsNegative() {
		return nil, fmt.Errorf("%w: per dollar %v", errNegativeRate, costPerDollar)
	}
	return &PerDollar{CostPerDollar: costPerDollar}, nil
}

// Calculate returns rate * |qty| * price
func (p *PerDollar) Calculate(_ *order.Order, qty, price decimal.Decimal) decimal.Decimal {
	return p.CostPerDollar.Mul(qty.Abs()).Mul(price.Abs())
}

// Name returns the model name
func (p *PerDollar) Name() string {
	return "per-dollar"
}

// Calculate always returns zero
func (None) Calculate(_ *order.Order, _, _ decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// Name returns the model name
func (None) Name() string {
	return "none"
}
