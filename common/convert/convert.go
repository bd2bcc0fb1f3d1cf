package convert

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errNonFinite = errors.New("value is not a finite number")

// DecimalFromString parses a trimmed decimal string, treating empty input as zero
func DecimalFromString(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not convert value: %s Error: %w", raw, err)
	}
	return d, nil
}

// DecimalFromFloat converts a float into a decimal, rejecting NaN and infinities
func DecimalFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v", errNonFinite, f)
	}
	return decimal.NewFromFloat(f), nil
}

// TimeFromString parses RFC3339, date only or unix second timestamps
func TimeFromString(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse time %q: %w", raw, err)
	}
	return UnixTimestampToTime(secs), nil
}

// UnixTimestampToTime returns int timestamp to time.Time
func UnixTimestampToTime(timeint64 int64) time.Time {
	return time.Unix(timeint64, 0).UTC()
}

// BoolPtr takes in boolean condition and returns pointer version of it
func BoolPtr(condition bool) *bool {
	b := condition
	return &b
}
