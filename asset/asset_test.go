package asset

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	aapl = Item{SID: 24, Symbol: "AAPL", TickSize: decimal.RequireFromString("0.01")}
	msft = Item{SID: 5061, Symbol: "MSFT"}
)

func TestNewFinder(t *testing.T) {
	t.Parallel()
	f, err := NewFinder(msft, aapl)
	require.NoError(t, err)
	all := f.All()
	require.Len(t, all, 2)
	assert.Equal(t, aapl, all[0], "assets must be ordered by sid")

	_, err = NewFinder(aapl, Item{SID: 24, Symbol: "OTHER"})
	assert.ErrorIs(t, err, errDuplicateSID)
	_, err = NewFinder(aapl, Item{SID: 1, Symbol: "aapl"})
	assert.ErrorIs(t, err, errDuplicateSymbol)
	_, err = NewFinder(Item{SID: 0, Symbol: "X"})
	assert.ErrorIs(t, err, errInvalidSID)
	_, err = NewFinder(Item{SID: 1, Symbol: " "})
	assert.ErrorIs(t, err, errEmptySymbol)
	_, err = NewFinder(Item{SID: 1, Symbol: "X", TickSize: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, errNegativeTick)
}

func TestLookup(t *testing.T) {
	t.Parallel()
	f, err := NewFinder(aapl)
	require.NoError(t, err)

	got, err := f.Lookup(24)
	require.NoError(t, err)
	assert.Equal(t, aapl, got)

	got, err = f.LookupSymbol("aapl")
	require.NoError(t, err)
	assert.Equal(t, aapl, got)

	_, err = f.Lookup(1)
	assert.ErrorIs(t, err, ErrUnknownAsset)
	_, err = f.LookupSymbol("TSLA")
	assert.ErrorIs(t, err, ErrUnknownAsset)

	assert.True(t, f.Exists(aapl))
	assert.False(t, f.Exists(Item{SID: 24, Symbol: "IMPOSTER"}))
	var nilFinder *Finder
	assert.False(t, nilFinder.Exists(aapl))
}

func TestIsAlive(t *testing.T) {
	t.Parallel()
	closeDate := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	i := Item{SID: 1, Symbol: "DEAD", AutoCloseDate: closeDate}
	assert.True(t, i.IsAlive(closeDate.Add(-time.Hour)))
	assert.False(t, i.IsAlive(closeDate))
	assert.True(t, aapl.IsAlive(closeDate), "zero auto close date never expires")
	assert.Equal(t, "AAPL(24)", aapl.String())
}
