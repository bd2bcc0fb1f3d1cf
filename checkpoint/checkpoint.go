// Package checkpoint persists ledger and cancel policy state so a run can be
// resumed later.
package checkpoint

import (
	"fmt"
	"time"

	"github.com/thrasher-corp/blotter/blotter"
	"github.com/thrasher-corp/blotter/cancelpolicy"
	"github.com/thrasher-corp/blotter/ledger"
)

// Capture builds a State from a blotter at the current simulation time
func Capture(runID string, b *blotter.Blotter) (*State, error) {
	if runID == "" {
		return nil, errEmptyRunID
	}
	l := b.Ledger()
	s := &State{
		RunID:        runID,
		Time:         b.Time(),
		NextID:       l.NextID(),
		Orders:       l.Orders(),
		Transactions: l.Transactions(),
	}
	if sp, ok := b.Policy().(cancelpolicy.Stateful); ok {
		s.Policy = sp.State()
	}
	return s, nil
}

// Restore rebuilds a blotter from a State. The settings supply the models;
// any ledger already set on them is replaced.
func Restore(s *State, settings blotter.Settings) (*blotter.Blotter, error) {
	l, err := ledger.Restore(s.Orders, s.Transactions)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", s.RunID, err)
	}
	if l.NextID() != s.NextID && s.NextID != 0 {
		return nil, fmt.Errorf("run %s: next id %d does not follow %d orders", s.RunID, s.NextID, len(s.Orders))
	}
	if len(s.Policy) > 0 {
		sp, ok := settings.Policy.(cancelpolicy.Stateful)
		if !ok {
			return nil, fmt.Errorf("run %s: %w", s.RunID, errPolicyMismatch)
		}
		if err := sp.Restore(s.Policy); err != nil {
			return nil, err
		}
	}
	settings.Ledger = l
	b := blotter.New(&settings)
	b.SetTime(s.Time)
	return b, nil
}

func validRunID(runID string) error {
	if runID == "" {
		return errEmptyRunID
	}
	return nil
}

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
