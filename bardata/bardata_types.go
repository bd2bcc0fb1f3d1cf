package bardata

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
)

var (
	errDuplicateBar     = errors.New("duplicate bar for asset and time")
	errNegativeVolume   = errors.New("bar volume cannot be negative")
	errNonPositivePrice = errors.New("bar close price must be positive")
	errHighBelowLow     = errors.New("bar high is below bar low")
	errMissingColumn    = errors.New("missing required column")
	errEmptyTimeline    = errors.New("no bars supplied")
)

// Bar is one discrete step of historical market data for an asset
type Bar struct {
	Asset  asset.Item
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Portal supplies the current bar for an asset. The bool result is false when
// the asset has no data this bar, which is distinct from a zero volume bar.
type Portal interface {
	Current(a asset.Item) (Bar, bool)
}

// Slice holds every bar sharing one timestamp
type Slice struct {
	Time time.Time
	bars map[int64]Bar
}

// Timeline is the ordered sequence of slices driving a run
type Timeline struct {
	slices []*Slice
}
