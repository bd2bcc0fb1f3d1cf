package blotter

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/cancelpolicy"
	"github.com/thrasher-corp/blotter/commission"
	"github.com/thrasher-corp/blotter/ledger"
	"github.com/thrasher-corp/blotter/order"
	"github.com/thrasher-corp/blotter/slippage"
)

// Reasons recorded against orders the engine closes
const (
	ReasonManual = "cancelled by request"
	ReasonPolicy = "cancelled by policy"
)

var (
	// ErrRejected wraps every intake validation failure
	ErrRejected = errors.New("order rejected")

	errAssetExpired   = errors.New("asset is past its auto close date")
	errNilPortal      = errors.New("bar portal is nil")
	errEmptyAssetInfo = errors.New("request carries no asset sid or symbol")
)

// Settings configures a Blotter. Nil models fall back to the defaults.
type Settings struct {
	Commission commission.Model
	Slippage   slippage.Model
	Policy     cancelpolicy.Policy
	Finder     *asset.Finder
	Ledger     *ledger.Ledger
	// MaxShares rejects requests larger than this magnitude; zero uses
	// order.DefaultMaxShares
	MaxShares decimal.Decimal
}

// Blotter is the execution engine of one run. It owns the ledger and the
// cost and cancellation models and is not safe for concurrent use.
type Blotter struct {
	ledger     *ledger.Ledger
	commission commission.Model
	slippage   slippage.Model
	policy     cancelpolicy.Policy
	finder     *asset.Finder
	maxShares  decimal.Decimal
	current    time.Time
}

// Split describes a capital structure change for one asset. A ratio of 0.5
// is a 2-for-1 split.
type Split struct {
	Asset asset.Item
	Ratio decimal.Decimal
}

// Commission is a charge produced by one fill
type Commission struct {
	OrderID int64           `json:"order-id"`
	Asset   asset.Item      `json:"asset"`
	Cost    decimal.Decimal `json:"cost"`
}

// BarResult is what a single bar produced
type BarResult struct {
	Time         time.Time           `json:"time"`
	Transactions []order.Transaction `json:"transactions"`
	Commissions  []Commission        `json:"commissions"`
}
