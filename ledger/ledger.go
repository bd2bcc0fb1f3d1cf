package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/gammazero/deque"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/order"
)

// New returns an empty ledger
func New() *Ledger {
	return &Ledger{
		open:       make(map[int64]*deque.Deque[int64]),
		byBar:      make(map[int64][]int),
		byOrder:    make(map[int64][]int),
		updatedSet: make(map[int64]struct{}),
	}
}

// NextID returns the id the next created order will receive
func (l *Ledger) NextID() int64 {
	return int64(len(l.orders)) + 1
}

// Create registers a new OPEN order and returns a copy of it
func (l *Ledger) Create(a asset.Item, amount decimal.Decimal, style order.Style, customID string, t time.Time) order.Order {
	o := &order.Order{
		ID:          l.NextID(),
		CustomID:    customID,
		Asset:       a,
		Amount:      amount,
		Remaining:   amount,
		Filled:      decimal.Zero,
		Commission:  decimal.Zero,
		Style:       style,
		Status:      order.Open,
		Created:     t,
		LastUpdated: t,
	}
	l.orders = append(l.orders, o)
	l.index(o)
	l.touch(o.ID)
	log.Debugf(log.Ledger, "order %d created %s %v %s", o.ID, a, amount, style.Type)
	return *o
}

// CreateRejected records a request which failed validation. The order never
// enters the open index.
func (l *Ledger) CreateRejected(a asset.Item, amount decimal.Decimal, style order.Style, customID, reason string, t time.Time) order.Order {
	o := &order.Order{
		ID:          l.NextID(),
		CustomID:    customID,
		Asset:       a,
		Amount:      amount,
		Remaining:   amount,
		Filled:      decimal.Zero,
		Commission:  decimal.Zero,
		Style:       style,
		Status:      order.Rejected,
		Reason:      reason,
		Created:     t,
		LastUpdated: t,
	}
	l.orders = append(l.orders, o)
	l.touch(o.ID)
	log.Debugf(log.Ledger, "order %d rejected at intake: %s", o.ID, reason)
	return *o
}

func (l *Ledger) get(id int64) (*order.Order, error) {
	if id < 1 || id > int64(len(l.orders)) {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return l.orders[id-1], nil
}

// Order returns a copy of the order with the supplied id
func (l *Ledger) Order(id int64) (order.Order, error) {
	o, err := l.get(id)
	if err != nil {
		return order.Order{}, err
	}
	return *o, nil
}

// Orders returns copies of every order in id order
func (l *Ledger) Orders() []order.Order {
	out := make([]order.Order, len(l.orders))
	for i := range l.orders {
		out[i] = *l.orders[i]
	}
	return out
}

// OpenIDs returns the ids of non terminal orders for an asset in creation
// order
func (l *Ledger) OpenIDs(sid int64) []int64 {
	q := l.open[sid]
	if q == nil {
		return nil
	}
	ids := make([]int64, q.Len())
	for i := range ids {
		ids[i] = q.At(i)
	}
	return ids
}

// Open returns copies of the non terminal orders for an asset
func (l *Ledger) Open(sid int64) []order.Order {
	ids := l.OpenIDs(sid)
	out := make([]order.Order, len(ids))
	for i := range ids {
		out[i] = *l.orders[ids[i]-1]
	}
	return out
}

// OpenAssets returns the sids with at least one non terminal order, ascending
func (l *Ledger) OpenAssets() []int64 {
	sids := make([]int64, 0, len(l.open))
	for sid, q := range l.open {
		if q.Len() > 0 {
			sids = append(sids, sid)
		}
	}
	slices.Sort(sids)
	return sids
}

// SetTriggers stores the trigger flags evaluated against the current bar
func (l *Ledger) SetTriggers(id int64, stopReached, limitReached bool) error {
	o, err := l.get(id)
	if err != nil {
		return err
	}
	o.StopReached = stopReached
	o.LimitReached = limitReached
	return nil
}

// ApplyFill records a transaction against the order, accruing commission and
// moving it to FILLED once nothing remains
func (l *Ledger) ApplyFill(id int64, qty, price, commission decimal.Decimal, t time.Time) (order.Transaction, error) {
	o, err := l.get(id)
	if err != nil {
		return order.Transaction{}, err
	}
	if o.Status.IsTerminal() {
		return order.Transaction{}, fmt.Errorf("order %d %w: fill on %s order", id, order.ErrInvalidTransition, o.Status)
	}
	if qty.IsZero() {
		return order.Transaction{}, fmt.Errorf("order %d %w", id, errZeroFill)
	}
	if qty.Sign() != o.Remaining.Sign() {
		return order.Transaction{}, fmt.Errorf("order %d %w: fill %v remaining %v", id, ErrWrongSign, qty, o.Remaining)
	}
	if qty.Abs().GreaterThan(o.Remaining.Abs()) {
		return order.Transaction{}, fmt.Errorf("order %d %w: fill %v remaining %v", id, ErrOverfill, qty, o.Remaining)
	}
	txID, err := uuid.NewV4()
	if err != nil {
		return order.Transaction{}, err
	}
	tx := order.Transaction{
		ID:         txID.String(),
		OrderID:    id,
		Asset:      o.Asset,
		Amount:     qty,
		Price:      price,
		Time:       t,
		Commission: commission,
	}
	o.Filled = o.Filled.Add(qty)
	o.Remaining = o.Remaining.Sub(qty)
	o.Commission = o.Commission.Add(commission)
	o.LastUpdated = t
	if o.Remaining.IsZero() {
		if err := o.SetStatus(order.Filled, "", t); err != nil {
			return order.Transaction{}, err
		}
		l.unindex(o)
	}
	l.addTransaction(tx)
	l.touch(id)
	return tx, nil
}

func (l *Ledger) addTransaction(tx order.Transaction) {
	at := len(l.txs)
	l.txs = append(l.txs, tx)
	bar := tx.Time.UnixNano()
	l.byBar[bar] = append(l.byBar[bar], at)
	l.byOrder[tx.OrderID] = append(l.byOrder[tx.OrderID], at)
}

// Cancel moves an OPEN order to CANCELLED. Cancelling a terminal order is a
// no-op and reports false. HELD orders must be released first.
func (l *Ledger) Cancel(id int64, reason string, t time.Time) (bool, error) {
	return l.terminate(id, order.Cancelled, reason, t)
}

// Reject moves an OPEN order to REJECTED. Rejecting a terminal order is a
// no-op and reports false.
func (l *Ledger) Reject(id int64, reason string, t time.Time) (bool, error) {
	return l.terminate(id, order.Rejected, reason, t)
}

func (l *Ledger) terminate(id int64, to order.Status, reason string, t time.Time) (bool, error) {
	o, err := l.get(id)
	if err != nil {
		return false, err
	}
	if o.Status.IsTerminal() {
		return false, nil
	}
	if err := o.SetStatus(to, reason, t); err != nil {
		return false, err
	}
	l.unindex(o)
	l.touch(id)
	log.Debugf(log.Ledger, "order %d %s: %s", id, to, reason)
	return true, nil
}

// Hold pauses an OPEN order. Holding a held order is a no-op.
func (l *Ledger) Hold(id int64, reason string, t time.Time) (bool, error) {
	o, err := l.get(id)
	if err != nil {
		return false, err
	}
	if o.Status == order.Held {
		return false, nil
	}
	if err := o.SetStatus(order.Held, reason, t); err != nil {
		return false, err
	}
	l.touch(id)
	return true, nil
}

// Release resumes a HELD order. Releasing an open order is a no-op.
func (l *Ledger) Release(id int64, t time.Time) (bool, error) {
	o, err := l.get(id)
	if err != nil {
		return false, err
	}
	if o.Status == order.Open {
		return false, nil
	}
	if err := o.SetStatus(order.Open, "", t); err != nil {
		return false, err
	}
	l.touch(id)
	if o.Remaining.IsZero() {
		if err := l.closeEmpty(o, t); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ApplySplit rescales every non terminal order for the asset and returns the
// ids it touched
func (l *Ledger) ApplySplit(a asset.Item, ratio decimal.Decimal, t time.Time) ([]int64, error) {
	ids := l.OpenIDs(a.SID)
	for _, id := range ids {
		o := l.orders[id-1]
		if err := o.ApplySplit(ratio, a.TickSize); err != nil {
			return nil, err
		}
		o.LastUpdated = t
		l.touch(id)
		// held orders are closed once released
		if o.Remaining.IsZero() && o.Status == order.Open {
			if err := l.closeEmpty(o, t); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

// closeEmpty finishes an open order that a split left without whole shares.
// Anything already filled completes the order, otherwise it is cancelled.
func (l *Ledger) closeEmpty(o *order.Order, t time.Time) error {
	to := order.Cancelled
	if !o.Filled.IsZero() {
		to = order.Filled
	}
	_, err := l.terminate(o.ID, to, splitNoShares, t)
	return err
}

// Transactions returns every transaction in the order it was recorded
func (l *Ledger) Transactions() []order.Transaction {
	return slices.Clone(l.txs)
}

// TransactionsAt returns the transactions recorded for one bar
func (l *Ledger) TransactionsAt(t time.Time) []order.Transaction {
	return collect(l.txs, l.byBar[t.UnixNano()])
}

// TransactionsFor returns the transactions of one order
func (l *Ledger) TransactionsFor(id int64) []order.Transaction {
	return collect(l.txs, l.byOrder[id])
}

func collect(txs []order.Transaction, idx []int) []order.Transaction {
	out := make([]order.Transaction, len(idx))
	for i, at := range idx {
		out[i] = txs[at]
	}
	return out
}

// TakeUpdated drains the orders created or changed since the last call, in
// the order they were first touched
func (l *Ledger) TakeUpdated() []order.Order {
	out := make([]order.Order, len(l.updated))
	for i, id := range l.updated {
		out[i] = *l.orders[id-1]
	}
	l.updated = l.updated[:0]
	clear(l.updatedSet)
	return out
}

func (l *Ledger) touch(id int64) {
	if _, ok := l.updatedSet[id]; ok {
		return
	}
	l.updatedSet[id] = struct{}{}
	l.updated = append(l.updated, id)
}

func (l *Ledger) index(o *order.Order) {
	q := l.open[o.Asset.SID]
	if q == nil {
		q = &deque.Deque[int64]{}
		l.open[o.Asset.SID] = q
	}
	q.PushBack(o.ID)
}

func (l *Ledger) unindex(o *order.Order) {
	q := l.open[o.Asset.SID]
	if q == nil {
		return
	}
	if q.Len() > 0 && q.Front() == o.ID {
		q.PopFront()
	} else if at := q.Index(func(id int64) bool { return id == o.ID }); at >= 0 {
		q.Remove(at)
	}
	if q.Len() == 0 {
		delete(l.open, o.Asset.SID)
	}
}

// Snapshot copies the ledger for readers outside the engine
func (l *Ledger) Snapshot(t time.Time) *Snapshot {
	s := &Snapshot{
		Time:         t,
		NextID:       l.NextID(),
		Orders:       l.Orders(),
		Transactions: l.Transactions(),
		open:         make(map[int64][]int64, len(l.open)),
		byBar:        make(map[int64][]int, len(l.byBar)),
	}
	for sid := range l.open {
		s.open[sid] = l.OpenIDs(sid)
	}
	for bar, idx := range l.byBar {
		s.byBar[bar] = slices.Clone(idx)
	}
	return s
}

// Restore rebuilds a ledger from persisted orders and transactions. Orders
// must carry the contiguous ids 1..n.
func Restore(orders []order.Order, txs []order.Transaction) (*Ledger, error) {
	l := New()
	sorted := slices.Clone(orders)
	slices.SortFunc(sorted, func(a, b order.Order) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	for i := range sorted {
		if sorted[i].ID != int64(i)+1 {
			return nil, fmt.Errorf("%w: position %d holds id %d", errNonContiguous, i, sorted[i].ID)
		}
		o := sorted[i]
		l.orders = append(l.orders, &o)
		if !o.Status.IsTerminal() {
			l.index(&o)
		}
	}
	for i := range txs {
		if _, err := l.get(txs[i].OrderID); err != nil {
			return nil, fmt.Errorf("%w: transaction %s order %d", errUnknownOrderTx, txs[i].ID, txs[i].OrderID)
		}
		l.addTransaction(txs[i])
	}
	return l, nil
}
