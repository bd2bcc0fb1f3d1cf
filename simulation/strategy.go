package simulation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/blotter"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/order"
)

// NewScheduled returns a strategy placing orders in time order. Orders
// sharing a time keep their given order.
func NewScheduled(orders []ScheduledOrder) *Scheduled {
	sorted := make([]ScheduledOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return &Scheduled{orders: sorted}
}

// OnBar places every order now due. Rejections are recorded by the blotter
// and do not stop the run.
func (s *Scheduled) OnBar(_ context.Context, b *blotter.Blotter, sl *bardata.Slice) error {
	start := s.next
	for s.next < len(s.orders) && !s.orders[s.next].Time.After(sl.Time) {
		s.next++
	}
	if start == s.next {
		return nil
	}
	due := make([]order.Request, 0, s.next-start)
	for i := start; i < s.next; i++ {
		due = append(due, s.orders[i].Request)
	}
	placed, err := b.BatchOrder(due)
	if err != nil && !errors.Is(err, blotter.ErrRejected) {
		return err
	}
	for i := range placed {
		if placed[i].Status == order.Rejected {
			s.rejected++
		}
	}
	log.Debugf(log.Simulation, "scheduled %d orders at %s", len(placed), sl.Time)
	return nil
}

// skipThrough marks every order scheduled at or before t as already placed
func (s *Scheduled) skipThrough(t time.Time) {
	for s.next < len(s.orders) && !s.orders[s.next].Time.After(t) {
		s.next++
	}
}

// Pending returns how many orders are still to be placed
func (s *Scheduled) Pending() int {
	return len(s.orders) - s.next
}

// Rejected returns how many placed orders were rejected at intake
func (s *Scheduled) Rejected() int {
	return s.rejected
}
