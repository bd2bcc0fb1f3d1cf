package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/blotter"
	"github.com/thrasher-corp/blotter/cancelpolicy"
	"github.com/thrasher-corp/blotter/order"
)

var (
	aapl = asset.Item{SID: 24, Symbol: "AAPL", TickSize: decimal.RequireFromString("0.01")}
	day  = time.Date(2024, 1, 2, 14, 31, 0, 0, time.UTC)
)

// runFixture places three orders, fills one partially and ticks a bar count
// policy once
func runFixture(t *testing.T) (*blotter.Blotter, *cancelpolicy.BarCount) {
	t.Helper()
	f, err := asset.NewFinder(aapl)
	require.NoError(t, err)
	policy, err := cancelpolicy.NewBarCount(5, false)
	require.NoError(t, err)
	b := blotter.New(&blotter.Settings{Finder: f, Policy: policy})
	b.SetTime(day)
	_, err = b.Order(&order.Request{Asset: aapl, Amount: 10000, CustomID: "big"})
	require.NoError(t, err)
	_, err = b.Order(&order.Request{Asset: aapl, Amount: -20, Type: order.Limit, LimitPrice: 150})
	require.NoError(t, err)
	_, err = b.Order(&order.Request{Asset: aapl, Amount: 0})
	require.Error(t, err)

	p := decimal.NewFromInt(100)
	s, err := bardata.NewSlice(day, bardata.Bar{Asset: aapl, Time: day, Open: p, High: p, Low: p, Close: p, Volume: decimal.NewFromInt(100000)})
	require.NoError(t, err)
	_, err = b.ProcessBar(s, day)
	require.NoError(t, err)
	_, err = b.ExecuteCancelPolicy(cancelpolicy.BarEnd)
	require.NoError(t, err)
	return b, policy
}

func assertSameState(t *testing.T, want, got *State) {
	t.Helper()
	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, want.Time.Equal(got.Time))
	assert.Equal(t, want.NextID, got.NextID)
	assert.Equal(t, want.Policy, got.Policy)
	require.Len(t, got.Orders, len(want.Orders))
	for i := range want.Orders {
		w, g := want.Orders[i], got.Orders[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.CustomID, g.CustomID)
		assert.Equal(t, w.Status, g.Status)
		assert.Equal(t, w.Reason, g.Reason)
		assert.Equal(t, w.Asset.SID, g.Asset.SID)
		assert.True(t, w.Asset.TickSize.Equal(g.Asset.TickSize))
		assert.True(t, w.Amount.Equal(g.Amount))
		assert.True(t, w.Remaining.Equal(g.Remaining))
		assert.True(t, w.Filled.Equal(g.Filled))
		assert.True(t, w.Commission.Equal(g.Commission))
		assert.True(t, w.Style.LimitPrice.Equal(g.Style.LimitPrice))
		assert.True(t, w.Created.Equal(g.Created))
	}
	require.Len(t, got.Transactions, len(want.Transactions))
	for i := range want.Transactions {
		w, g := want.Transactions[i], got.Transactions[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.OrderID, g.OrderID)
		assert.True(t, w.Amount.Equal(g.Amount))
		assert.True(t, w.Price.Equal(g.Price))
		assert.True(t, w.Time.Equal(g.Time))
	}
}

func TestCapture(t *testing.T) {
	t.Parallel()
	b, _ := runFixture(t)
	_, err := Capture("", b)
	assert.ErrorIs(t, err, errEmptyRunID)

	s, err := Capture("run-1", b)
	require.NoError(t, err)
	assert.Len(t, s.Orders, 3)
	assert.Len(t, s.Transactions, 1)
	assert.Equal(t, int64(4), s.NextID)
	assert.Equal(t, map[string]int64{"bars": 1}, s.Policy)
}

func TestRestore(t *testing.T) {
	t.Parallel()
	b, _ := runFixture(t)
	s, err := Capture("run-1", b)
	require.NoError(t, err)

	policy, err := cancelpolicy.NewBarCount(5, false)
	require.NoError(t, err)
	restored, err := Restore(s, blotter.Settings{Policy: policy})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"bars": 1}, policy.State())
	assert.True(t, restored.Time().Equal(day))
	assert.Len(t, restored.OpenOrders(aapl.SID), 2)

	o, err := restored.Order(&order.Request{Asset: aapl, Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), o.ID, "ids continue after the restored ones")

	_, err = Restore(s, blotter.Settings{Policy: cancelpolicy.NeverCancel{}})
	assert.ErrorIs(t, err, errPolicyMismatch)
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	b, _ := runFixture(t)
	want, err := Capture("file-run", b)
	require.NoError(t, err)

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.Load(ctx, "file-run")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx, "file-run")
	require.NoError(t, err)
	assertSameState(t, want, got)

	assert.ErrorIs(t, store.Save(ctx, &State{}), errEmptyRunID)
	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, errEmptyRunID)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	b, _ := runFixture(t)
	want, err := Capture("export", b)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "final.json")
	require.NoError(t, WriteFile(path, want))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assertSameState(t, want, got)

	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "missing", "final.json"), want))
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := OpenSQL(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	b, _ := runFixture(t)
	want, err := Capture("sql-run", b)
	require.NoError(t, err)

	_, err = store.Load(ctx, "sql-run")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, want))
	require.NoError(t, store.Save(ctx, want), "saving twice replaces the previous checkpoint")
	got, err := store.Load(ctx, "sql-run")
	require.NoError(t, err)
	assertSameState(t, want, got)
	assert.Equal(t, aapl.Symbol, got.Transactions[0].Asset.Symbol)

	_, err = OpenSQL(ctx, "oracle", "")
	assert.ErrorIs(t, err, errUnsupportedDriver)
}

func TestQueriesFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "DELETE FROM checkpoint_run WHERE run_id = $1", queriesFor(DriverPostgres).deleteRun)
	assert.Contains(t, queriesFor(DriverPostgres).insertOrder, "$20)")
	assert.Equal(t, "DELETE FROM checkpoint_run WHERE run_id = ?", queriesFor(DriverSQLite).deleteRun)
	assert.Equal(t, 20, strings.Count(sqliteQueries.insertOrder, "?"), "order insert binds every column")
	assert.Equal(t, 8, strings.Count(sqliteQueries.insertTransaction, "?"))
	assert.NotContains(t, postgresQueries.insertOrder, "?")
	assert.NotContains(t, postgresQueries.insertTransaction, "$9")
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	url := os.Getenv("BLOTTER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BLOTTER_TEST_REDIS_URL not set, skipping redis checkpoint test")
	}
	ctx := context.Background()
	store, err := OpenRedis(ctx, &RedisConfig{ConnectionURL: url, Prefix: "blotter:test:", TTL: time.Minute})
	require.NoError(t, err)
	defer store.Close()

	b, _ := runFixture(t)
	want, err := Capture("redis-run", b)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx, "redis-run")
	require.NoError(t, err)
	assertSameState(t, want, got)

	_, err = store.Load(ctx, "missing-run")
	assert.ErrorIs(t, err, ErrNotFound)
}
