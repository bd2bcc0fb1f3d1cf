package ledger

import (
	"time"

	"github.com/thrasher-corp/blotter/order"
)

// Order returns the order with the supplied id as of the snapshot
func (s *Snapshot) Order(id int64) (order.Order, bool) {
	if s == nil || id < 1 || id > int64(len(s.Orders)) {
		return order.Order{}, false
	}
	return s.Orders[id-1], true
}

// Open returns the non terminal orders of an asset in creation order
func (s *Snapshot) Open(sid int64) []order.Order {
	if s == nil {
		return nil
	}
	ids := s.open[sid]
	out := make([]order.Order, len(ids))
	for i, id := range ids {
		out[i] = s.Orders[id-1]
	}
	return out
}

// TransactionsAt returns the transactions recorded for one bar
func (s *Snapshot) TransactionsAt(t time.Time) []order.Transaction {
	if s == nil {
		return nil
	}
	return collect(s.Transactions, s.byBar[t.UnixNano()])
}
