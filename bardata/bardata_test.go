package bardata

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/blotter/asset"
)

var (
	aapl  = asset.Item{SID: 1, Symbol: "AAPL"}
	msft  = asset.Item{SID: 2, Symbol: "MSFT"}
	day1  = time.Date(2020, 1, 2, 21, 0, 0, 0, time.UTC)
	day2  = day1.AddDate(0, 0, 1)
	price = decimal.NewFromInt(100)
)

func testFinder(t *testing.T) *asset.Finder {
	t.Helper()
	f, err := asset.NewFinder(aapl, msft)
	require.NoError(t, err)
	return f
}

func TestBarValidate(t *testing.T) {
	t.Parallel()
	b := Bar{Asset: aapl, Close: price, Volume: decimal.NewFromInt(-1)}
	assert.ErrorIs(t, b.Validate(), errNegativeVolume)
	b.Volume = decimal.Zero
	assert.NoError(t, b.Validate(), "zero volume is a real bar")
	b.Close = decimal.Zero
	assert.ErrorIs(t, b.Validate(), errNonPositivePrice)
	b.Close = price
	b.High = decimal.NewFromInt(1)
	b.Low = decimal.NewFromInt(2)
	assert.ErrorIs(t, b.Validate(), errHighBelowLow)
}

func TestNewTimeline(t *testing.T) {
	t.Parallel()
	_, err := NewTimeline(nil)
	assert.ErrorIs(t, err, errEmptyTimeline)

	bars := []Bar{
		{Asset: aapl, Time: day2, Close: price},
		{Asset: aapl, Time: day1, Close: price, Volume: decimal.NewFromInt(10)},
		{Asset: msft, Time: day1, Close: price},
	}
	tl, err := NewTimeline(bars)
	require.NoError(t, err)
	require.Equal(t, 2, tl.Len())
	assert.True(t, tl.At(0).Time.Equal(day1))
	assert.Equal(t, []int64{1, 2}, tl.At(0).SIDs())

	b, ok := tl.At(1).Current(aapl)
	assert.True(t, ok)
	assert.True(t, b.Volume.IsZero())
	_, ok = tl.At(1).Current(msft)
	assert.False(t, ok, "absent data must be distinguishable from zero volume")

	_, err = NewTimeline(append(bars, Bar{Asset: aapl, Time: day1, Close: price}))
	assert.ErrorIs(t, err, errDuplicateBar)

	var nilSlice *Slice
	_, ok = nilSlice.Current(aapl)
	assert.False(t, ok)
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()
	in := "time,symbol,open,high,low,close,volume\n" +
		"2020-01-02T21:00:00Z,AAPL,99,101,98,100,100000\n" +
		"2020-01-02T21:00:00Z,msft,10,11,9,10.5,0\n"
	bars, err := LoadCSV(strings.NewReader(in), testFinder(t))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, aapl, bars[0].Asset)
	assert.True(t, bars[0].Volume.Equal(decimal.NewFromInt(100000)))
	assert.True(t, bars[1].Close.Equal(decimal.RequireFromString("10.5")))

	_, err = LoadCSV(strings.NewReader("symbol,time\n"), testFinder(t))
	assert.ErrorIs(t, err, errMissingColumn)

	_, err = LoadCSV(strings.NewReader("symbol,time,open,high,low,close,volume\nTSLA,2020-01-02,1,1,1,1,1\n"), testFinder(t))
	assert.ErrorIs(t, err, asset.ErrUnknownAsset)
}

func TestLoadJSONLines(t *testing.T) {
	t.Parallel()
	in := `{"symbol":"AAPL","time":"2020-01-02T21:00:00Z","open":99,"high":101,"low":98,"close":100,"volume":"100000"}

{"symbol":"MSFT","time":"2020-01-02","close":"10.5","volume":null}
`
	bars, err := LoadJSONLines(strings.NewReader(in), testFinder(t))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Close.Equal(price))
	assert.True(t, bars[0].Volume.Equal(decimal.NewFromInt(100000)))
	assert.True(t, bars[1].Volume.IsZero())

	_, err = LoadJSONLines(strings.NewReader(`{"time":"2020-01-02","close":1}`), testFinder(t))
	assert.ErrorIs(t, err, errMissingColumn)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	_, err := LoadFile("bars.parquet", testFinder(t))
	assert.Error(t, err)
}
