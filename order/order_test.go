package order

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/blotter/asset"
)

var aapl = asset.Item{SID: 24, Symbol: "AAPL", TickSize: decimal.RequireFromString("0.01")}

func TestCanTransition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{Open, Filled, true},
		{Open, Cancelled, true},
		{Open, Rejected, true},
		{Open, Held, true},
		{Held, Open, true},
		{Held, Filled, true},
		{Held, Cancelled, false},
		{Filled, Open, false},
		{Cancelled, Open, false},
		{Rejected, Held, false},
		{Open, Open, false},
	}
	for _, tc := range tests {
		assert.Equalf(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()
	assert.True(t, Filled.IsTerminal())
	assert.True(t, Cancelled.IsTerminal())
	assert.True(t, Rejected.IsTerminal())
	assert.False(t, Open.IsTerminal())
	assert.False(t, Held.IsTerminal())
}

func TestSetStatus(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	o := &Order{ID: 1, Status: Open}
	require.NoError(t, o.SetStatus(Held, "broker", now))
	assert.Equal(t, Held, o.Status)
	assert.Equal(t, "broker", o.Reason)
	assert.Equal(t, now, o.LastUpdated)

	require.NoError(t, o.SetStatus(Open, "", now))
	require.NoError(t, o.SetStatus(Cancelled, "manual", now))
	assert.ErrorIs(t, o.SetStatus(Open, "", now), ErrInvalidTransition)
	assert.Equal(t, Cancelled, o.Status)
}

func TestSide(t *testing.T) {
	t.Parallel()
	buy := &Order{Amount: decimal.NewFromInt(10)}
	sell := &Order{Amount: decimal.NewFromInt(-10)}
	assert.Equal(t, Buy, buy.Side())
	assert.True(t, buy.IsBuy())
	assert.Equal(t, Sell, sell.Side())
	assert.False(t, sell.IsBuy())
}

func TestCheckTriggers(t *testing.T) {
	t.Parallel()
	d := decimal.RequireFromString
	tests := []struct {
		name   string
		amount int64
		style  Style
		prices []string
		want   []bool
	}{
		{"market", 10, Style{Type: Market}, []string{"1"}, []bool{true}},
		{"buy limit", 10, Style{Type: Limit, LimitPrice: d("100")}, []string{"101", "100", "99", "101"}, []bool{false, true, true, false}},
		{"sell limit", -10, Style{Type: Limit, LimitPrice: d("100")}, []string{"99", "100", "101"}, []bool{false, true, true}},
		{"buy stop sticky", 10, Style{Type: Stop, StopPrice: d("105")}, []string{"104", "105", "90"}, []bool{false, true, true}},
		{"sell stop", -10, Style{Type: Stop, StopPrice: d("95")}, []string{"96", "95"}, []bool{false, true}},
		{"buy stop limit", 10, Style{Type: StopLimit, StopPrice: d("105"), LimitPrice: d("106")}, []string{"104", "107", "105.5"}, []bool{false, false, true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o := &Order{Amount: decimal.NewFromInt(tc.amount), Style: tc.style}
			for i, p := range tc.prices {
				assert.Equalf(t, tc.want[i], o.CheckTriggers(d(p)), "bar %d price %s", i, p)
			}
		})
	}
}

func TestApplySplit(t *testing.T) {
	t.Parallel()
	o := &Order{
		Asset:     aapl,
		Amount:    decimal.NewFromInt(100),
		Filled:    decimal.NewFromInt(40),
		Remaining: decimal.NewFromInt(60),
		Style:     Style{Type: StopLimit, LimitPrice: decimal.NewFromInt(101), StopPrice: decimal.NewFromInt(99)},
	}
	require.NoError(t, o.ApplySplit(decimal.RequireFromString("0.5"), aapl.TickSize))
	assert.True(t, o.Remaining.Equal(decimal.NewFromInt(120)))
	assert.True(t, o.Filled.Equal(decimal.NewFromInt(40)), "fills already booked are not rescaled")
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(160)))
	assert.True(t, o.Style.LimitPrice.Equal(decimal.RequireFromString("50.5")))
	assert.True(t, o.Style.StopPrice.Equal(decimal.RequireFromString("49.5")))

	assert.ErrorIs(t, o.ApplySplit(decimal.Zero, aapl.TickSize), ErrInvalidSplitRatio)
}

func TestApplySplitRoundsPricesAgainstOwner(t *testing.T) {
	t.Parallel()
	o := &Order{
		Amount:    decimal.NewFromInt(-30),
		Remaining: decimal.NewFromInt(-30),
		Style:     Style{Type: Limit, LimitPrice: decimal.NewFromInt(10)},
	}
	require.NoError(t, o.ApplySplit(decimal.NewFromInt(3).Inv(), aapl.TickSize))
	assert.True(t, o.Remaining.Equal(decimal.NewFromInt(-90)), o.Remaining.String())
	// sell limit of 3.333.. rounds up to the tick
	assert.True(t, o.Style.LimitPrice.Equal(decimal.RequireFromString("3.34")), o.Style.LimitPrice.String())
}

func TestPrepare(t *testing.T) {
	t.Parallel()
	maxShares := DefaultMaxShares

	r := Request{Asset: aapl, Amount: 99.99999}
	amt, style, err := r.Prepare(maxShares)
	require.NoError(t, err)
	assert.True(t, amt.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, Market, style.Type)

	r = Request{Asset: aapl, Amount: -10.7}
	amt, _, err = r.Prepare(maxShares)
	require.NoError(t, err)
	assert.True(t, amt.Equal(decimal.NewFromInt(-10)))

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		r = Request{Asset: aapl, Amount: bad}
		_, _, err = r.Prepare(maxShares)
		assert.ErrorIs(t, err, ErrNonFiniteAmount)
	}

	r = Request{Asset: aapl, Amount: 0.4}
	_, _, err = r.Prepare(maxShares)
	assert.ErrorIs(t, err, ErrZeroAmount)

	r = Request{Asset: aapl, Amount: 2e11}
	_, _, err = r.Prepare(maxShares)
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	_, _, err = r.Prepare(decimal.Zero)
	assert.NoError(t, err, "zero max shares disables the guard")
}

func TestPrepareStyle(t *testing.T) {
	t.Parallel()
	d := decimal.RequireFromString

	r := Request{Asset: aapl, Amount: 10, Type: Limit, LimitPrice: 100.129}
	_, s, err := r.Prepare(DefaultMaxShares)
	require.NoError(t, err)
	assert.True(t, s.LimitPrice.Equal(d("100.12")), "buy limit rounds down")

	r.Amount = -10
	_, s, err = r.Prepare(DefaultMaxShares)
	require.NoError(t, err)
	assert.True(t, s.LimitPrice.Equal(d("100.13")), "sell limit rounds up")

	r = Request{Asset: aapl, Amount: 10, Type: Stop, StopPrice: 100.121}
	_, s, err = r.Prepare(DefaultMaxShares)
	require.NoError(t, err)
	assert.True(t, s.StopPrice.Equal(d("100.13")), "buy stop rounds up")

	r.Amount = -10
	_, s, err = r.Prepare(DefaultMaxShares)
	require.NoError(t, err)
	assert.True(t, s.StopPrice.Equal(d("100.12")), "sell stop rounds down")

	bad := []Request{
		{Asset: aapl, Amount: 1, Type: Limit},
		{Asset: aapl, Amount: 1, Type: Stop, StopPrice: -1},
		{Asset: aapl, Amount: 1, Type: StopLimit, LimitPrice: 10},
		{Asset: aapl, Amount: 1, Type: Limit, LimitPrice: math.NaN()},
		{Asset: aapl, Amount: 1, Type: Limit, LimitPrice: 0.001},
		{Asset: aapl, Amount: 1, Type: "ICEBERG"},
	}
	for i := range bad {
		_, _, err = bad[i].Prepare(DefaultMaxShares)
		assert.ErrorIsf(t, err, ErrInvalidStyle, "request %d", i)
	}
}
