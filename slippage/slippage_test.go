package slippage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/common"
	"github.com/thrasher-corp/blotter/order"
	"pgregory.net/rapid"
)

var (
	d    = decimal.RequireFromString
	aapl = asset.Item{SID: 24, Symbol: "AAPL", TickSize: d("0.01")}
	when = time.Date(2024, 1, 2, 14, 31, 0, 0, time.UTC)
)

func bar(price string, volume int64) bardata.Bar {
	p := d(price)
	return bardata.Bar{Asset: aapl, Time: when, Open: p, High: p, Low: p, Close: p, Volume: decimal.NewFromInt(volume)}
}

func newOrder(amount int64, style order.Style) *order.Order {
	a := decimal.NewFromInt(amount)
	return &order.Order{ID: 1, Asset: aapl, Amount: a, Remaining: a, Style: style, Status: order.Open}
}

func defaultVolumeShare(t *testing.T) *VolumeShare {
	t.Helper()
	m, err := NewVolumeShare(DefaultVolumeLimit, DefaultPriceImpact)
	require.NoError(t, err)
	return m
}

func TestVolumeSharePartialFill(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)
	o := newOrder(10000, order.Style{Type: order.Market})
	r, err := m.Simulate(bar("100", 100000), o, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("2500")), r.Quantity.String())
	assert.True(t, r.Price.Equal(d("100.25")), r.Price.String())

	sell := newOrder(-10000, order.Style{Type: order.Market})
	r, err = m.Simulate(bar("100", 100000), sell, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("-2500")), r.Quantity.String())
	assert.True(t, r.Price.Equal(d("99.75")), r.Price.String())
}

func TestVolumeShareSharedCapacity(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)
	o := newOrder(10000, order.Style{Type: order.Market})
	r, err := m.Simulate(bar("100", 100000), o, d("2000"))
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("500")), r.Quantity.String())

	r, err = m.Simulate(bar("100", 100000), o, d("2500"))
	require.NoError(t, err)
	assert.True(t, r.Quantity.IsZero(), "bar capacity exhausted")
}

func TestVolumeShareCapsAtRemaining(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)
	o := newOrder(100, order.Style{Type: order.Market})
	r, err := m.Simulate(bar("100", 100000), o, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("100")))
	assert.True(t, r.Price.Equal(d("100.01")), r.Price.String())
}

func TestVolumeShareZeroVolume(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)
	r, err := m.Simulate(bar("100", 0), newOrder(10, order.Style{Type: order.Market}), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.IsZero())
}

func TestVolumeShareLimitClip(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)

	buy := newOrder(10000, order.Style{Type: order.Limit, LimitPrice: d("100.10")})
	r, err := m.Simulate(bar("100", 100000), buy, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("1000")), r.Quantity.String())
	assert.True(t, r.Price.LessThanOrEqual(d("100.10")), r.Price.String())

	sell := newOrder(-10000, order.Style{Type: order.Limit, LimitPrice: d("99.90")})
	r, err = m.Simulate(bar("100", 100000), sell, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("-1000")), r.Quantity.String())
	assert.True(t, r.Price.GreaterThanOrEqual(d("99.90")), r.Price.String())
}

func TestVolumeShareLimitSkip(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)
	buy := newOrder(10000, order.Style{Type: order.Limit, LimitPrice: d("100")})
	r, err := m.Simulate(bar("100", 100000), buy, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.IsZero(), "a single share would breach the limit")

	sell := newOrder(-10000, order.Style{Type: order.Limit, LimitPrice: d("100")})
	r, err = m.Simulate(bar("100", 100000), sell, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.IsZero())

	unreachable := newOrder(10, order.Style{Type: order.Limit, LimitPrice: d("99")})
	r, err = m.Simulate(bar("100", 100000), unreachable, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.IsZero())
}

func TestStopTriggersBeforeFill(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)
	o := newOrder(100, order.Style{Type: order.Stop, StopPrice: d("105")})
	r, err := m.Simulate(bar("100", 100000), o, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.IsZero())
	assert.False(t, o.StopReached)

	r, err = m.Simulate(bar("106", 100000), o, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("100")))
	assert.True(t, o.StopReached)
}

func TestFixedSpread(t *testing.T) {
	t.Parallel()
	m, err := NewFixedSpread(d("0.02"), decimal.Zero)
	require.NoError(t, err)
	r, err := m.Simulate(bar("100", 10), newOrder(1000, order.Style{Type: order.Market}), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("1000")), "uncapped fills the whole order")
	assert.True(t, r.Price.Equal(d("100.01")))

	r, err = m.Simulate(bar("100", 10), newOrder(-1000, order.Style{Type: order.Limit, LimitPrice: d("100")}), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.IsZero(), "spread pushes the sell through its limit")

	capped, err := NewFixedSpread(d("0.02"), d("0.5"))
	require.NoError(t, err)
	r, err = capped.Simulate(bar("100", 10), newOrder(1000, order.Style{Type: order.Market}), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("5")))

	_, err = NewFixedSpread(d("-1"), decimal.Zero)
	assert.ErrorIs(t, err, errInvalidParameters)
}

func TestFixedBasisPoints(t *testing.T) {
	t.Parallel()
	m, err := NewFixedBasisPoints(DefaultBasisPoints, DefaultBasisPointVolume)
	require.NoError(t, err)
	r, err := m.Simulate(bar("100", 1000), newOrder(-500, order.Style{Type: order.Market}), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("-100")), r.Quantity.String())
	assert.True(t, r.Price.Equal(d("99.95")), r.Price.String())

	_, err = NewFixedBasisPoints(d("5"), d("2"))
	assert.ErrorIs(t, err, errInvalidParameters)
}

func TestNoSlippage(t *testing.T) {
	t.Parallel()
	var m Model = NoSlippage{}
	r, err := m.Simulate(bar("42", 1), newOrder(-7, order.Style{Type: order.Market}), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Quantity.Equal(d("-7")))
	assert.True(t, r.Price.Equal(d("42")))
}

func TestSimulateErrors(t *testing.T) {
	t.Parallel()
	m := defaultVolumeShare(t)
	_, err := m.Simulate(bar("100", 1), nil, decimal.Zero)
	assert.ErrorIs(t, err, common.ErrNilArguments)

	o := newOrder(1, order.Style{Type: order.Market})
	o.Asset = asset.Item{SID: 99, Symbol: "MSFT"}
	_, err = m.Simulate(bar("100", 1), o, decimal.Zero)
	assert.ErrorIs(t, err, errAssetMismatch)

	_, err = NewVolumeShare(decimal.Zero, DefaultPriceImpact)
	assert.ErrorIs(t, err, errInvalidParameters)
}

func TestVolumeShareBarCapacityProperty(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		limit := decimal.New(rapid.Int64Range(1, 1000).Draw(rt, "limitBps"), -3)
		volume := rapid.Int64Range(0, 1_000_000).Draw(rt, "volume")
		m := &VolumeShare{VolumeLimit: limit, PriceImpact: DefaultPriceImpact}
		b := bar("50", volume)
		amounts := rapid.SliceOfN(rapid.Int64Range(1, 100_000), 1, 8).Draw(rt, "amounts")

		used := decimal.Zero
		for i, amt := range amounts {
			if rapid.Bool().Draw(rt, "sell") {
				amt = -amt
			}
			o := newOrder(amt, order.Style{Type: order.Market})
			r, err := m.Simulate(b, o, used)
			if err != nil {
				rt.Fatal(err)
			}
			if !r.Quantity.IsZero() && r.Quantity.Sign() != o.Amount.Sign() {
				rt.Fatalf("order %d fill %v has wrong sign for %v", i, r.Quantity, o.Amount)
			}
			if r.Quantity.Abs().GreaterThan(o.Remaining.Abs()) {
				rt.Fatalf("order %d overfilled: %v > %v", i, r.Quantity, o.Remaining)
			}
			used = used.Add(r.Quantity.Abs())
		}
		maxVolume := limit.Mul(decimal.NewFromInt(volume)).Floor()
		if used.GreaterThan(maxVolume) {
			rt.Fatalf("bar volume %v exceeded: used %v of %v", volume, used, maxVolume)
		}
	})
}
