package config

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/checkpoint"
	"github.com/thrasher-corp/blotter/log"
)

var (
	errNoNickname        = errors.New("config nickname is empty")
	errNoAssets          = errors.New("no assets configured")
	errNoDataPath        = errors.New("data path is empty")
	errUnknownModel      = errors.New("unknown model")
	errUnknownPreset     = errors.New("unknown preset")
	errDuplicatePreset   = errors.New("preset already registered")
	errUnknownPolicy     = errors.New("unknown cancel policy")
	errNoScript          = errors.New("script policy requires script or script-path")
	errUnknownStore      = errors.New("unknown checkpoint store")
	errNoStoreTarget     = errors.New("checkpoint store requires a path or dsn")
	errNoRunID           = errors.New("checkpoint store requires a run id")
	errNoListenAddress   = errors.New("api enabled without a listen address")
	errInvalidSplit      = errors.New("invalid split")
	errUnsupportedFormat = errors.New("unsupported config file extension")
	errNegativeMaxShares = errors.New("max shares cannot be negative")
)

// Model names accepted in commission and slippage settings
const (
	PerShare         = "per-share"
	PerTrade         = "per-trade"
	PerDollar        = "per-dollar"
	VolumeShare      = "volume-share"
	FixedSpread      = "fixed-spread"
	FixedBasisPoints = "fixed-basis-points"
	None             = "none"
)

// Cancel policy names
const (
	PolicyEOD      = "eod"
	PolicyNever    = "never"
	PolicyBarCount = "bar-count"
	PolicyScript   = "script"
)

// Checkpoint store names
const (
	StoreFile     = "file"
	StoreSQLite   = checkpoint.DriverSQLite
	StorePostgres = checkpoint.DriverPostgres
	StoreRedis    = "redis"
)

// Config defines a single simulation run
type Config struct {
	Nickname           string             `json:"nickname" yaml:"nickname"`
	Goal               string             `json:"goal,omitempty" yaml:"goal,omitempty"`
	Assets             []asset.Item       `json:"assets" yaml:"assets"`
	DataSettings       DataSettings       `json:"data-settings" yaml:"data-settings"`
	CommissionSettings CommissionSettings `json:"commission-settings" yaml:"commission-settings"`
	SlippageSettings   SlippageSettings   `json:"slippage-settings" yaml:"slippage-settings"`
	CancelPolicy       PolicySettings     `json:"cancel-policy" yaml:"cancel-policy"`
	Checkpoint         CheckpointSettings `json:"checkpoint,omitempty" yaml:"checkpoint,omitempty"`
	API                APISettings        `json:"api,omitempty" yaml:"api,omitempty"`
	Output             OutputSettings     `json:"output,omitempty" yaml:"output,omitempty"`
	Splits             []SplitSettings    `json:"splits,omitempty" yaml:"splits,omitempty"`
	Orders             []ScheduledOrder   `json:"orders,omitempty" yaml:"orders,omitempty"`
	MaxShares          decimal.Decimal    `json:"max-shares,omitempty" yaml:"max-shares,omitempty"`
	Logging            *log.Config        `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// DataSettings points at the bar file driving the run
type DataSettings struct {
	Path string `json:"path" yaml:"path"`
}

// CommissionSettings selects a commission model either by preset name or by
// model and parameters
type CommissionSettings struct {
	Preset        string              `json:"preset,omitempty" yaml:"preset,omitempty"`
	Model         string              `json:"model,omitempty" yaml:"model,omitempty"`
	CostPerShare  decimal.NullDecimal `json:"cost-per-share,omitempty" yaml:"cost-per-share,omitempty"`
	MinTradeCost  decimal.Decimal     `json:"min-trade-cost,omitempty" yaml:"min-trade-cost,omitempty"`
	CostPerTrade  decimal.Decimal     `json:"cost-per-trade,omitempty" yaml:"cost-per-trade,omitempty"`
	CostPerDollar decimal.Decimal     `json:"cost-per-dollar,omitempty" yaml:"cost-per-dollar,omitempty"`
}

// SlippageSettings selects a slippage model either by preset name or by
// model and parameters. An absent price impact takes the default while an
// explicit zero disables it.
type SlippageSettings struct {
	Preset      string              `json:"preset,omitempty" yaml:"preset,omitempty"`
	Model       string              `json:"model,omitempty" yaml:"model,omitempty"`
	VolumeLimit decimal.Decimal     `json:"volume-limit,omitempty" yaml:"volume-limit,omitempty"`
	PriceImpact decimal.NullDecimal `json:"price-impact,omitempty" yaml:"price-impact,omitempty"`
	Spread      decimal.Decimal     `json:"spread,omitempty" yaml:"spread,omitempty"`
	BasisPoints decimal.Decimal     `json:"basis-points,omitempty" yaml:"basis-points,omitempty"`
}

// PolicySettings selects the cancellation policy
type PolicySettings struct {
	Policy        string        `json:"policy" yaml:"policy"`
	WarnOnCancel  bool          `json:"warn-on-cancel,omitempty" yaml:"warn-on-cancel,omitempty"`
	Bars          int64         `json:"bars,omitempty" yaml:"bars,omitempty"`
	Script        string        `json:"script,omitempty" yaml:"script,omitempty"`
	ScriptPath    string        `json:"script-path,omitempty" yaml:"script-path,omitempty"`
	ScriptTimeout time.Duration `json:"script-timeout,omitempty" yaml:"script-timeout,omitempty"`
}

// CheckpointSettings selects where run state is persisted. An empty store
// disables checkpointing.
type CheckpointSettings struct {
	Store  string                  `json:"store,omitempty" yaml:"store,omitempty"`
	RunID  string                  `json:"run-id,omitempty" yaml:"run-id,omitempty"`
	Path   string                  `json:"path,omitempty" yaml:"path,omitempty"`
	DSN    string                  `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Resume bool                    `json:"resume,omitempty" yaml:"resume,omitempty"`
	Redis  *checkpoint.RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// APISettings configures the read only snapshot server
type APISettings struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ListenAddress string `json:"listen-address" yaml:"listen-address"`
}

// OutputSettings configures where run results are written
type OutputSettings struct {
	TransactionsPath string `json:"transactions-path,omitempty" yaml:"transactions-path,omitempty"`
	CheckpointPath   string `json:"checkpoint-path,omitempty" yaml:"checkpoint-path,omitempty"`
}

// SplitSettings schedules a split, applied before the first bar of its day
type SplitSettings struct {
	Symbol string          `json:"symbol" yaml:"symbol"`
	Date   time.Time       `json:"date" yaml:"date"`
	Ratio  decimal.Decimal `json:"ratio" yaml:"ratio"`
}

// ScheduledOrder is an order placed by the built in scheduled strategy at
// the first bar at or after Time
type ScheduledOrder struct {
	Time       time.Time `json:"time" yaml:"time"`
	Symbol     string    `json:"symbol" yaml:"symbol"`
	Amount     float64   `json:"amount" yaml:"amount"`
	Type       string    `json:"type,omitempty" yaml:"type,omitempty"`
	LimitPrice float64   `json:"limit-price,omitempty" yaml:"limit-price,omitempty"`
	StopPrice  float64   `json:"stop-price,omitempty" yaml:"stop-price,omitempty"`
	CustomID   string    `json:"custom-id,omitempty" yaml:"custom-id,omitempty"`
}

// Registry holds named model presets. It is built once at startup and passed
// to whatever builds runs.
type Registry struct {
	commission map[string]CommissionSettings
	slippage   map[string]SlippageSettings
}
