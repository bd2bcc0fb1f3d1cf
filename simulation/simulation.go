// Package simulation drives a blotter across a bar timeline, raising the
// day and bar lifecycle events, invoking a strategy and persisting results.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/blotter"
	"github.com/thrasher-corp/blotter/cancelpolicy"
	"github.com/thrasher-corp/blotter/checkpoint"
	"github.com/thrasher-corp/blotter/common"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/order"
)

// NewRunner validates the settings and returns a runner ready to Run
func NewRunner(s *Settings) (*Runner, error) {
	if s == nil {
		return nil, common.ErrNilArguments
	}
	if s.Blotter == nil {
		return nil, errNilBlotter
	}
	if s.Timeline == nil || s.Timeline.Len() == 0 {
		return nil, errNoBars
	}
	r := &Runner{
		nickname:    s.Nickname,
		blotter:     s.Blotter,
		timeline:    s.Timeline,
		strategy:    s.Strategy,
		splits:      make(map[time.Time][]blotter.Split),
		sink:        s.Sink,
		publisher:   s.Publisher,
		store:       s.Store,
		runID:       s.RunID,
		resumeAfter: s.ResumeAfter,
		exportPath:  s.ExportPath,
	}
	for i := range s.Splits {
		d := dayOf(s.Splits[i].Date)
		r.splits[d] = append(r.splits[d], s.Splits[i].Split)
	}
	if !r.resumeAfter.IsZero() {
		r.day = dayOf(r.resumeAfter)
	}
	return r, nil
}

// Publisher returns the snapshot holder updated at each bar boundary, nil
// when the run was built without one
func (r *Runner) Publisher() *Publisher {
	return r.publisher
}

// Blotter returns the engine driven by the runner
func (r *Runner) Blotter() *blotter.Blotter {
	return r.blotter
}

// Run processes every remaining bar. The context is checked between bars;
// on cancellation the state reached so far is still checkpointed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.ran {
		return nil, errAlreadyRan
	}
	r.ran = true
	res := &Result{Nickname: r.nickname, RunID: r.runID}
	slices := r.timeline.Slices()
	for i, s := range slices {
		if !r.resumeAfter.IsZero() && !s.Time.After(r.resumeAfter) {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warnf(log.Simulation, "%s stopped before %s: %v", r.nickname, s.Time, err)
			return res, errors.Join(err, r.finish(ctx, res))
		}
		if res.Start.IsZero() {
			res.Start = s.Time
		}
		lastOfDay := i == len(slices)-1 || !dayOf(slices[i+1].Time).Equal(dayOf(s.Time))
		if err := r.step(ctx, s, lastOfDay, res); err != nil {
			return res, fmt.Errorf("%s bar %s: %w", r.nickname, s.Time, err)
		}
	}
	if err := r.finish(ctx, res); err != nil {
		return res, err
	}
	log.Infof(log.Simulation, "%s finished %d bars: %d transactions, %d filled, %d open, %d cancelled, %d rejected",
		r.nickname, res.Bars, res.Transactions, res.Filled, res.Open+res.Held, res.Cancelled, res.Rejected)
	return res, nil
}

// step processes one bar in the fixed event order: day start and the day's
// splits, bar start, fills, strategy, bar end, then day end on the last bar
// of the day
func (r *Runner) step(ctx context.Context, s *bardata.Slice, lastOfDay bool, res *Result) error {
	r.blotter.SetTime(s.Time)
	if d := dayOf(s.Time); !d.Equal(r.day) {
		r.day = d
		if err := r.event(cancelpolicy.DayStart, res); err != nil {
			return err
		}
		if splits := r.splits[d]; len(splits) > 0 {
			if err := r.blotter.ProcessSplits(splits); err != nil {
				return err
			}
		}
	}
	if err := r.event(cancelpolicy.BarStart, res); err != nil {
		return err
	}
	bar, err := r.blotter.ProcessBar(s, s.Time)
	if err != nil {
		return err
	}
	res.Bars++
	res.Transactions += len(bar.Transactions)
	for i := range bar.Commissions {
		res.Commission = res.Commission.Add(bar.Commissions[i].Cost)
	}
	if r.sink != nil {
		if err = r.sink.Write(bar); err != nil {
			return err
		}
	}
	if r.strategy != nil {
		if err = r.strategy.OnBar(ctx, r.blotter, s); err != nil {
			return err
		}
	}
	if err = r.event(cancelpolicy.BarEnd, res); err != nil {
		return err
	}
	if lastOfDay {
		if err = r.event(cancelpolicy.DayEnd, res); err != nil {
			return err
		}
	}
	r.publish()
	return nil
}

func (r *Runner) publish() {
	if r.publisher != nil {
		r.publisher.Publish(r.blotter.Snapshot())
	}
}

func (r *Runner) event(e cancelpolicy.Event, res *Result) error {
	n, err := r.blotter.ExecuteCancelPolicy(e)
	res.PolicyCancelled += n
	return err
}

// finish tallies order states, publishes the final snapshot and persists
// the run
func (r *Runner) finish(ctx context.Context, res *Result) error {
	orders := r.blotter.AllOrders()
	for i := range orders {
		switch orders[i].Status {
		case order.Open:
			res.Open++
		case order.Held:
			res.Held++
		case order.Filled:
			res.Filled++
		case order.Cancelled:
			res.Cancelled++
		case order.Rejected:
			res.Rejected++
		}
	}
	res.End = r.blotter.Time()
	r.publish()
	if r.store == nil && r.exportPath == "" {
		return nil
	}
	state, err := checkpoint.Capture(r.checkpointID(), r.blotter)
	if err != nil {
		return err
	}
	if r.store != nil {
		if err = r.store.Save(context.WithoutCancel(ctx), state); err != nil {
			return fmt.Errorf("checkpoint %s: %w", state.RunID, err)
		}
		log.Infof(log.Simulation, "%s checkpointed as %s at %s", r.nickname, state.RunID, state.Time)
	}
	if r.exportPath != "" {
		if err = checkpoint.WriteFile(r.exportPath, state); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) checkpointID() string {
	if r.runID != "" {
		return r.runID
	}
	return r.nickname
}

// Close releases the sink and checkpoint store
func (r *Runner) Close() error {
	var errs error
	if r.sink != nil {
		errs = errors.Join(errs, r.sink.Close())
	}
	if r.store != nil {
		errs = errors.Join(errs, r.store.Close())
	}
	return errs
}

// dayOf returns midnight UTC of t's day, which is what day boundaries and
// split dates are keyed on
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
