package commission

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/order"
)

var errNegativeRate = errors.New("commission rates cannot be negative")

// Model computes the non-negative charge for one fill of qty shares at price
type Model interface {
	Calculate(o *order.Order, qty, price decimal.Decimal) decimal.Decimal
	Name() string
}

// PerShare charges a rate per share with a minimum per fill
type PerShare struct {
	CostPerShare decimal.Decimal
	MinTradeCost decimal.Decimal
}

// PerTrade charges a flat cost once per order
type PerTrade struct {
	Cost decimal.Decimal
}

// PerDollar charges a rate on the notional value of each fill
type PerDollar struct {
	CostPerDollar decimal.Decimal
}

// None is a free commission model
type None struct{}

// Default values for the per share model
var (
	DefaultPerShareCost = decimal.RequireFromString("0.001")
	DefaultMinTradeCost = decimal.Zero
)
