package ledger

import (
	"errors"
	"time"

	"github.com/gammazero/deque"
	"github.com/thrasher-corp/blotter/order"
)

var (
	// ErrOrderNotFound is returned when an id was never issued
	ErrOrderNotFound = errors.New("order not found")
	// ErrOverfill is returned when a fill exceeds the remaining quantity
	ErrOverfill = errors.New("fill exceeds remaining quantity")
	// ErrWrongSign is returned when a fill's sign differs from the order's
	ErrWrongSign = errors.New("fill sign does not match order")

	errZeroFill       = errors.New("fill quantity is zero")
	errNonContiguous  = errors.New("restored order ids are not contiguous")
	errUnknownOrderTx = errors.New("restored transaction references unknown order")
)

const splitNoShares = "split left no whole shares"

// Ledger is the authoritative arena of orders and transactions for one run.
// Order ids are dense and monotonically increasing from 1 so an id indexes
// straight into the arena.
type Ledger struct {
	orders []*order.Order
	txs    []order.Transaction

	open    map[int64]*deque.Deque[int64]
	byBar   map[int64][]int
	byOrder map[int64][]int

	updated    []int64
	updatedSet map[int64]struct{}
}

// Snapshot is an immutable copy of the ledger published at a bar boundary
type Snapshot struct {
	Time         time.Time           `json:"time"`
	NextID       int64               `json:"next-id"`
	Orders       []order.Order       `json:"orders"`
	Transactions []order.Transaction `json:"transactions"`

	open  map[int64][]int64
	byBar map[int64][]int
}
