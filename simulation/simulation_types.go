package simulation

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/blotter"
	"github.com/thrasher-corp/blotter/checkpoint"
	"github.com/thrasher-corp/blotter/ledger"
	"github.com/thrasher-corp/blotter/order"
)

var (
	errNilBlotter    = errors.New("runner requires a blotter")
	errNoBars        = errors.New("runner requires a non empty timeline")
	errNoConfigs     = errors.New("no configs supplied")
	errSinkClosed    = errors.New("sink is closed")
	errAlreadyRan    = errors.New("runner has already run")
	errResumeNoStore = errors.New("resume requested without a checkpoint store")
)

// Strategy is invoked once per bar after the bar's fills. Orders it places
// are first eligible to fill on the next bar.
type Strategy interface {
	OnBar(ctx context.Context, b *blotter.Blotter, s *bardata.Slice) error
}

// Sink receives every bar result of a run
type Sink interface {
	Write(res *blotter.BarResult) error
	Close() error
}

// ScheduledOrder is a request to place at the first bar at or after Time
type ScheduledOrder struct {
	Time    time.Time
	Request order.Request
}

// Scheduled is a strategy placing a fixed list of orders at their scheduled
// times
type Scheduled struct {
	orders   []ScheduledOrder
	next     int
	rejected int
}

// JSONLines writes each transaction as one JSON object per line
type JSONLines struct {
	m      sync.Mutex
	w      io.Writer
	closer io.Closer
	closed bool
}

// Publisher holds the ledger snapshot published at the last bar boundary.
// It is safe for concurrent readers while the run writes.
type Publisher struct {
	snap atomic.Pointer[ledger.Snapshot]
}

// ScheduledSplit applies a split before the first bar of Date's day
type ScheduledSplit struct {
	Date  time.Time
	Split blotter.Split
}

// Settings holds everything a Runner needs. Only Blotter and Timeline are
// required.
type Settings struct {
	Nickname  string
	Blotter   *blotter.Blotter
	Timeline  *bardata.Timeline
	Strategy  Strategy
	Splits    []ScheduledSplit
	Sink      Sink
	// Publisher receives a snapshot at every bar boundary. Without one no
	// snapshots are taken.
	Publisher *Publisher
	Store     checkpoint.Store
	RunID     string
	// ResumeAfter skips every bar at or before it. It is set from the
	// restored checkpoint time.
	ResumeAfter time.Time
	// ExportPath receives the final checkpoint document when set
	ExportPath string
}

// Runner drives one blotter over a timeline
type Runner struct {
	nickname    string
	blotter     *blotter.Blotter
	timeline    *bardata.Timeline
	strategy    Strategy
	splits      map[time.Time][]blotter.Split
	sink        Sink
	publisher   *Publisher
	store       checkpoint.Store
	runID       string
	resumeAfter time.Time
	exportPath  string
	day         time.Time
	ran         bool
}

// Result summarises a finished run
type Result struct {
	Nickname        string          `json:"nickname"`
	RunID           string          `json:"run-id,omitempty"`
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	Bars            int             `json:"bars"`
	Transactions    int             `json:"transactions"`
	Commission      decimal.Decimal `json:"commission"`
	PolicyCancelled int             `json:"policy-cancelled"`
	Open            int             `json:"open"`
	Held            int             `json:"held"`
	Filled          int             `json:"filled"`
	Cancelled       int             `json:"cancelled"`
	Rejected        int             `json:"rejected"`
}
