package bardata

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/asset"
)

// Price returns the reference trade price of the bar
func (b *Bar) Price() decimal.Decimal {
	return b.Close
}

// Validate checks the bar is internally consistent
func (b *Bar) Validate() error {
	if b.Volume.IsNegative() {
		return fmt.Errorf("%v %v %w", b.Asset, b.Time, errNegativeVolume)
	}
	if !b.Close.IsPositive() {
		return fmt.Errorf("%v %v %w", b.Asset, b.Time, errNonPositivePrice)
	}
	if !b.High.IsZero() && !b.Low.IsZero() && b.High.LessThan(b.Low) {
		return fmt.Errorf("%v %v %w", b.Asset, b.Time, errHighBelowLow)
	}
	return nil
}

// Current implements Portal
func (s *Slice) Current(a asset.Item) (Bar, bool) {
	if s == nil {
		return Bar{}, false
	}
	b, ok := s.bars[a.SID]
	return b, ok
}

// SIDs returns the sids with data in this slice in ascending order
func (s *Slice) SIDs() []int64 {
	resp := make([]int64, 0, len(s.bars))
	for sid := range s.bars {
		resp = append(resp, sid)
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i] < resp[j] })
	return resp
}

// NewSlice builds a single slice, mostly for tests and hand driven runs
func NewSlice(t time.Time, bars ...Bar) (*Slice, error) {
	s := &Slice{Time: t, bars: make(map[int64]Bar, len(bars))}
	for x := range bars {
		if err := bars[x].Validate(); err != nil {
			return nil, err
		}
		if _, ok := s.bars[bars[x].Asset.SID]; ok {
			return nil, fmt.Errorf("%w: %v %v", errDuplicateBar, bars[x].Asset, t)
		}
		bars[x].Time = t
		s.bars[bars[x].Asset.SID] = bars[x]
	}
	return s, nil
}

// NewTimeline groups bars by timestamp into an ascending timeline
func NewTimeline(bars []Bar) (*Timeline, error) {
	if len(bars) == 0 {
		return nil, errEmptyTimeline
	}
	byTime := make(map[int64]*Slice)
	for x := range bars {
		if err := bars[x].Validate(); err != nil {
			return nil, err
		}
		key := bars[x].Time.UnixNano()
		s, ok := byTime[key]
		if !ok {
			s = &Slice{Time: bars[x].Time, bars: make(map[int64]Bar)}
			byTime[key] = s
		}
		if _, dupe := s.bars[bars[x].Asset.SID]; dupe {
			return nil, fmt.Errorf("%w: %v %v", errDuplicateBar, bars[x].Asset, bars[x].Time)
		}
		s.bars[bars[x].Asset.SID] = bars[x]
	}
	t := &Timeline{slices: make([]*Slice, 0, len(byTime))}
	for _, s := range byTime {
		t.slices = append(t.slices, s)
	}
	sort.Slice(t.slices, func(i, j int) bool { return t.slices[i].Time.Before(t.slices[j].Time) })
	return t, nil
}

// Len returns the number of slices
func (t *Timeline) Len() int {
	return len(t.slices)
}

// At returns the slice at index i
func (t *Timeline) At(i int) *Slice {
	return t.slices[i]
}

// Slices returns the ordered slices
func (t *Timeline) Slices() []*Slice {
	return t.slices
}
