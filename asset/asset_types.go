package asset

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownAsset is returned when an asset is not registered with the finder
	ErrUnknownAsset    = errors.New("unknown asset")
	errDuplicateSID    = errors.New("duplicate asset sid")
	errDuplicateSymbol = errors.New("duplicate asset symbol")
	errInvalidSID      = errors.New("asset sid must be positive")
	errEmptySymbol     = errors.New("asset symbol is empty")
	errNegativeTick    = errors.New("asset tick size cannot be negative")
)

// Item is a tradeable instrument
type Item struct {
	SID           int64           `json:"sid" yaml:"sid"`
	Symbol        string          `json:"symbol" yaml:"symbol"`
	TickSize      decimal.Decimal `json:"tick-size" yaml:"tick-size"`
	AutoCloseDate time.Time       `json:"auto-close-date,omitempty" yaml:"auto-close-date,omitempty"`
}

// Finder resolves assets by sid and symbol
type Finder struct {
	bySID    map[int64]Item
	bySymbol map[string]int64
}
