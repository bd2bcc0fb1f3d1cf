package blotter

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/cancelpolicy"
	"github.com/thrasher-corp/blotter/commission"
	"github.com/thrasher-corp/blotter/common/convert"
	"github.com/thrasher-corp/blotter/ledger"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/order"
	"github.com/thrasher-corp/blotter/slippage"
)

// New returns a blotter for a single run
func New(s *Settings) *Blotter {
	if s == nil {
		s = &Settings{}
	}
	b := &Blotter{
		ledger:     s.Ledger,
		commission: s.Commission,
		slippage:   s.Slippage,
		policy:     s.Policy,
		finder:     s.Finder,
		maxShares:  s.MaxShares,
	}
	if b.ledger == nil {
		b.ledger = ledger.New()
	}
	if b.commission == nil {
		b.commission = &commission.PerShare{
			CostPerShare: commission.DefaultPerShareCost,
			MinTradeCost: commission.DefaultMinTradeCost,
		}
	}
	if b.slippage == nil {
		b.slippage = &slippage.VolumeShare{
			VolumeLimit: slippage.DefaultVolumeLimit,
			PriceImpact: slippage.DefaultPriceImpact,
		}
	}
	if b.policy == nil {
		b.policy = cancelpolicy.NeverCancel{}
	}
	if b.maxShares.IsZero() {
		b.maxShares = order.DefaultMaxShares
	}
	return b
}

// SetTime sets the simulation clock used to stamp intake and lifecycle calls
func (b *Blotter) SetTime(t time.Time) {
	b.current = t
}

// Time returns the simulation clock
func (b *Blotter) Time() time.Time {
	return b.current
}

// Policy returns the active cancellation policy
func (b *Blotter) Policy() cancelpolicy.Policy {
	return b.policy
}

// Ledger returns the ledger for checkpointing. Callers outside the engine
// should read Snapshot instead.
func (b *Blotter) Ledger() *ledger.Ledger {
	return b.ledger
}

// Order validates and registers a request. A request failing validation is
// recorded as REJECTED and returned alongside an error wrapping ErrRejected.
func (b *Blotter) Order(req *order.Request) (order.Order, error) {
	if req == nil {
		return order.Order{}, fmt.Errorf("%w: nil request", ErrRejected)
	}
	a, err := b.resolve(req.Asset)
	if err == nil && !a.IsAlive(b.current) {
		err = fmt.Errorf("%v %w: %s", a, errAssetExpired, a.AutoCloseDate.Format(time.DateOnly))
	}
	var (
		amount decimal.Decimal
		style  order.Style
	)
	if err == nil {
		r := *req
		r.Asset = a
		amount, style, err = r.Prepare(b.maxShares)
	}
	if err != nil {
		if a.IsEmpty() {
			a = req.Asset
		}
		o := b.ledger.CreateRejected(a, rejectedAmount(req.Amount), order.Style{Type: req.Type}, req.CustomID, err.Error(), b.current)
		log.Warnf(log.Blotter, "order %d for %v rejected: %v", o.ID, a, err)
		return o, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	o := b.ledger.Create(a, amount, style, req.CustomID, b.current)
	log.Debugf(log.Blotter, "order %d placed %v %v %s", o.ID, a, amount, style.Type)
	return o, nil
}

// rejectedAmount keeps what was asked for where it is representable
func rejectedAmount(f float64) decimal.Decimal {
	d, err := convert.DecimalFromFloat(f)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// resolve maps the request asset onto the registered asset
func (b *Blotter) resolve(a asset.Item) (asset.Item, error) {
	if b.finder == nil {
		if a.IsEmpty() {
			return asset.Item{}, errEmptyAssetInfo
		}
		return a, nil
	}
	switch {
	case a.SID != 0:
		return b.finder.Lookup(a.SID)
	case a.Symbol != "":
		return b.finder.LookupSymbol(a.Symbol)
	}
	return asset.Item{}, errEmptyAssetInfo
}

// BatchOrder registers every request in turn. Failures are collected and
// returned together without stopping the rest of the batch; the returned
// slice holds one order per request.
func (b *Blotter) BatchOrder(reqs []order.Request) ([]order.Order, error) {
	out := make([]order.Order, len(reqs))
	var errs error
	for i := range reqs {
		o, err := b.Order(&reqs[i])
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("request %d: %w", i, err))
		}
		out[i] = o
	}
	return out, errs
}

// Cancel cancels an open order. Cancelling a closed order is a no-op.
func (b *Blotter) Cancel(id int64, reason string) error {
	if reason == "" {
		reason = ReasonManual
	}
	_, err := b.ledger.Cancel(id, reason, b.current)
	return err
}

// CancelAll cancels every OPEN order of an asset and returns how many
// changed. Held orders are left alone.
func (b *Blotter) CancelAll(sid int64, reason string) (int, error) {
	if reason == "" {
		reason = ReasonManual
	}
	return b.cancelOpen(sid, reason, false)
}

func (b *Blotter) cancelOpen(sid int64, reason string, warn bool) (int, error) {
	var count int
	for _, o := range b.ledger.Open(sid) {
		if o.Status != order.Open {
			continue
		}
		changed, err := b.ledger.Cancel(o.ID, reason, b.current)
		if err != nil {
			return count, err
		}
		if !changed {
			continue
		}
		count++
		if warn {
			log.Warnf(log.Blotter, "%s: order %d for %v %v of %v remaining",
				reason, o.ID, o.Asset, o.Remaining, o.Amount)
		}
	}
	return count, nil
}

// Hold pauses an order
func (b *Blotter) Hold(id int64, reason string) error {
	_, err := b.ledger.Hold(id, reason, b.current)
	return err
}

// Release resumes a held order
func (b *Blotter) Release(id int64) error {
	_, err := b.ledger.Release(id, b.current)
	return err
}

// Reject closes an open order as rejected
func (b *Blotter) Reject(id int64, reason string) error {
	_, err := b.ledger.Reject(id, reason, b.current)
	return err
}

// ProcessSplits rescales open orders of each split asset
func (b *Blotter) ProcessSplits(splits []Split) error {
	for i := range splits {
		a := splits[i].Asset
		if b.finder != nil {
			var err error
			if a, err = b.finder.Lookup(a.SID); err != nil {
				return err
			}
		}
		ids, err := b.ledger.ApplySplit(a, splits[i].Ratio, b.current)
		if err != nil {
			return fmt.Errorf("split %v: %w", a, err)
		}
		if len(ids) > 0 {
			log.Infof(log.Blotter, "split %v ratio %v adjusted %d orders", a, splits[i].Ratio, len(ids))
		}
	}
	return nil
}

// ExecuteCancelPolicy consults the policy for an event and cancels every
// OPEN order when it fires. It returns how many orders were cancelled.
func (b *Blotter) ExecuteCancelPolicy(e cancelpolicy.Event) (int, error) {
	fire, err := b.policy.ShouldCancel(e)
	if err != nil {
		return 0, fmt.Errorf("cancel policy %s at %s: %w", b.policy.Name(), e, err)
	}
	if !fire {
		return 0, nil
	}
	var total int
	for _, sid := range b.ledger.OpenAssets() {
		n, err := b.cancelOpen(sid, ReasonPolicy, b.policy.WarnOnCancel())
		total += n
		if err != nil {
			return total, err
		}
	}
	if total > 0 {
		log.Debugf(log.Policy, "%s policy cancelled %d orders at %s", b.policy.Name(), total, e)
	}
	return total, nil
}

// ProcessBar fills OPEN orders against the bar data available at t. Assets
// are visited in ascending sid and orders in creation order, sharing the
// bar's volume. Assets without data are skipped and their orders stay open.
// Errors are contract violations and the run should stop.
func (b *Blotter) ProcessBar(p bardata.Portal, t time.Time) (*BarResult, error) {
	if p == nil {
		return nil, errNilPortal
	}
	b.current = t
	res := &BarResult{Time: t}
	for _, sid := range b.ledger.OpenAssets() {
		ids := b.ledger.OpenIDs(sid)
		first, err := b.ledger.Order(ids[0])
		if err != nil {
			return nil, err
		}
		bar, ok := p.Current(first.Asset)
		if !ok {
			log.Debugf(log.Blotter, "%v has no data at %s, %d orders waiting", first.Asset, t, len(ids))
			continue
		}
		volumeUsed := decimal.Zero
		for _, id := range ids {
			o, err := b.ledger.Order(id)
			if err != nil {
				return nil, err
			}
			if o.Status != order.Open {
				continue
			}
			fill, err := b.slippage.Simulate(bar, &o, volumeUsed)
			if err != nil {
				return nil, fmt.Errorf("order %d %s: %w", id, b.slippage.Name(), err)
			}
			if err = b.ledger.SetTriggers(id, o.StopReached, o.LimitReached); err != nil {
				return nil, err
			}
			if fill.Quantity.IsZero() {
				continue
			}
			cost := b.commission.Calculate(&o, fill.Quantity, fill.Price)
			tx, err := b.ledger.ApplyFill(id, fill.Quantity, fill.Price, cost, t)
			if err != nil {
				return nil, err
			}
			volumeUsed = volumeUsed.Add(fill.Quantity.Abs())
			res.Transactions = append(res.Transactions, tx)
			res.Commissions = append(res.Commissions, Commission{OrderID: id, Asset: o.Asset, Cost: cost})
		}
	}
	return res, nil
}

// NewOrders drains the orders created or changed since the last call
func (b *Blotter) NewOrders() []order.Order {
	return b.ledger.TakeUpdated()
}

// GetOrder returns an order by id
func (b *Blotter) GetOrder(id int64) (order.Order, error) {
	return b.ledger.Order(id)
}

// OpenOrders returns the non terminal orders of an asset
func (b *Blotter) OpenOrders(sid int64) []order.Order {
	return b.ledger.Open(sid)
}

// AllOrders returns every order of the run
func (b *Blotter) AllOrders() []order.Order {
	return b.ledger.Orders()
}

// Snapshot publishes a detached view of the ledger at the current time
func (b *Blotter) Snapshot() *ledger.Snapshot {
	return b.ledger.Snapshot(b.current)
}
