package math

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundTowardZero(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"10.7":      "10",
		"-10.7":     "-10",
		"99.99999":  "100",
		"-99.99999": "-100",
		"0.4":       "0",
		"5":         "5",
	} {
		got := RoundTowardZero(decimal.RequireFromString(in))
		assert.Truef(t, got.Equal(decimal.RequireFromString(want)), "%s: received %s expected %s", in, got, want)
	}
}

func TestTickRounding(t *testing.T) {
	t.Parallel()
	tick := decimal.RequireFromString("0.01")
	p := decimal.RequireFromString("10.057")
	assert.Equal(t, "10.05", FloorToTick(p, tick).String())
	assert.Equal(t, "10.06", CeilToTick(p, tick).String())
	assert.True(t, FloorToTick(p, decimal.Zero).Equal(p))
}

func TestBasisPoints(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0.0005", BasisPoints(decimal.NewFromInt(5)).String())
}
