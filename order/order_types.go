package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
)

var (
	// ErrInvalidTransition is returned when a status change is not permitted by
	// the order lifecycle
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrZeroAmount is returned when a request rounds to zero shares
	ErrZeroAmount = errors.New("order amount is zero")
	// ErrNonFiniteAmount is returned for NaN or infinite amounts
	ErrNonFiniteAmount = errors.New("order amount is not finite")
	// ErrAmountTooLarge is returned when a request exceeds the max shares guard
	ErrAmountTooLarge = errors.New("order amount exceeds maximum shares")
	// ErrInvalidStyle is returned for malformed execution style parameters
	ErrInvalidStyle = errors.New("invalid order style")
	// ErrInvalidSplitRatio is returned for a non positive split ratio
	ErrInvalidSplitRatio = errors.New("split ratio must be positive")
)

// DefaultMaxShares guards against fat-fingered requests
var DefaultMaxShares = decimal.New(1, 11)

// Status is the lifecycle state of an order
type Status string

// Status values
const (
	Open      Status = "OPEN"
	Filled    Status = "FILLED"
	Cancelled Status = "CANCELLED"
	Rejected  Status = "REJECTED"
	Held      Status = "HELD"
)

// Type is the execution style of an order
type Type string

// Type values
const (
	Market    Type = "MARKET"
	Limit     Type = "LIMIT"
	Stop      Type = "STOP"
	StopLimit Type = "STOP_LIMIT"
)

// Side is derived from the sign of the requested amount
type Side string

// Side values
const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Style holds the execution style and its prices
type Style struct {
	Type       Type            `json:"type"`
	LimitPrice decimal.Decimal `json:"limit-price"`
	StopPrice  decimal.Decimal `json:"stop-price"`
}

// Request is an order request as it arrives from a strategy. Amount and
// prices are floats so that non-finite input can be detected and rejected.
type Request struct {
	Asset      asset.Item
	Amount     float64
	Type       Type
	LimitPrice float64
	StopPrice  float64
	CustomID   string
}

// Order is a request to change a position. Amount, Remaining and Filled are
// signed: positive buys, negative sells.
type Order struct {
	ID           int64           `json:"id"`
	CustomID     string          `json:"custom-id,omitempty"`
	Asset        asset.Item      `json:"asset"`
	Amount       decimal.Decimal `json:"amount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Filled       decimal.Decimal `json:"filled"`
	Commission   decimal.Decimal `json:"commission"`
	Style        Style           `json:"style"`
	Status       Status          `json:"status"`
	Reason       string          `json:"reason,omitempty"`
	StopReached  bool            `json:"stop-reached"`
	LimitReached bool            `json:"limit-reached"`
	Created      time.Time       `json:"created"`
	LastUpdated  time.Time       `json:"last-updated"`
}

// Transaction is a realised fill of all or part of an order against one bar
type Transaction struct {
	ID         string          `json:"id"`
	OrderID    int64           `json:"order-id"`
	Asset      asset.Item      `json:"asset"`
	Amount     decimal.Decimal `json:"amount"`
	Price      decimal.Decimal `json:"price"`
	Time       time.Time       `json:"time"`
	Commission decimal.Decimal `json:"commission"`
}

// transitions lists the permitted status changes. Terminal states have no
// outgoing edges.
var transitions = map[Status][]Status{
	Open: {Filled, Cancelled, Rejected, Held},
	Held: {Open, Filled},
}
