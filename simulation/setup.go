package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/blotter/bardata"
	"github.com/thrasher-corp/blotter/blotter"
	"github.com/thrasher-corp/blotter/checkpoint"
	"github.com/thrasher-corp/blotter/common"
	"github.com/thrasher-corp/blotter/config"
	"github.com/thrasher-corp/blotter/log"
	"golang.org/x/sync/errgroup"
)

// FromConfig validates a config and builds its runner: bars are loaded, the
// scheduled orders and splits registered and the checkpoint store opened.
// With resume set, a stored run continues from its last bar. Snapshots are
// only taken when a publisher is supplied.
func FromConfig(ctx context.Context, c *config.Config, reg *config.Registry, p *Publisher) (*Runner, error) {
	if c == nil || reg == nil {
		return nil, common.ErrNilArguments
	}
	if err := c.Validate(reg); err != nil {
		return nil, fmt.Errorf("%s: %w", c.Nickname, err)
	}
	settings, err := c.BlotterSettings(reg)
	if err != nil {
		return nil, err
	}
	bars, err := bardata.LoadFile(c.DataSettings.Path, settings.Finder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Nickname, err)
	}
	timeline, err := bardata.NewTimeline(bars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Nickname, err)
	}
	reqs, err := c.ScheduledRequests(settings.Finder)
	if err != nil {
		return nil, err
	}
	orders := make([]ScheduledOrder, len(reqs))
	for i := range reqs {
		orders[i] = ScheduledOrder{Time: c.Orders[i].Time, Request: reqs[i]}
	}
	strategy := NewScheduled(orders)
	splits := make([]ScheduledSplit, len(c.Splits))
	for i := range c.Splits {
		a, err := settings.Finder.LookupSymbol(c.Splits[i].Symbol)
		if err != nil {
			return nil, err
		}
		splits[i] = ScheduledSplit{Date: c.Splits[i].Date, Split: blotter.Split{Asset: a, Ratio: c.Splits[i].Ratio}}
	}

	var store checkpoint.Store
	if c.Checkpoint.Enabled() {
		if store, err = c.Checkpoint.OpenStore(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Nickname, err)
		}
	}
	b, resumeAfter, err := restoreOrNew(ctx, c, store, settings)
	if err != nil {
		if store != nil {
			err = errors.Join(err, store.Close())
		}
		return nil, err
	}
	if !resumeAfter.IsZero() {
		strategy.skipThrough(resumeAfter)
	}

	var sink Sink
	if c.Output.TransactionsPath != "" {
		if sink, err = CreateJSONLines(c.Output.TransactionsPath, !resumeAfter.IsZero()); err != nil {
			if store != nil {
				err = errors.Join(err, store.Close())
			}
			return nil, err
		}
	}
	return NewRunner(&Settings{
		Nickname:    c.Nickname,
		Blotter:     b,
		Timeline:    timeline,
		Strategy:    strategy,
		Splits:      splits,
		Sink:        sink,
		Publisher:   p,
		Store:       store,
		RunID:       c.Checkpoint.RunID,
		ResumeAfter: resumeAfter,
		ExportPath:  c.Output.CheckpointPath,
	})
}

// restoreOrNew returns a blotter restored from the stored run when resuming
// or a fresh one otherwise, along with the time to resume after
func restoreOrNew(ctx context.Context, c *config.Config, store checkpoint.Store, settings *blotter.Settings) (*blotter.Blotter, time.Time, error) {
	if !c.Checkpoint.Resume {
		return blotter.New(settings), time.Time{}, nil
	}
	if store == nil {
		return nil, time.Time{}, errResumeNoStore
	}
	state, err := store.Load(ctx, c.Checkpoint.RunID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		log.Infof(log.Simulation, "%s: no checkpoint for %s, starting fresh", c.Nickname, c.Checkpoint.RunID)
		return blotter.New(settings), time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	b, err := checkpoint.Restore(state, *settings)
	if err != nil {
		return nil, time.Time{}, err
	}
	log.Infof(log.Simulation, "%s: resuming %s after %s with %d orders", c.Nickname, state.RunID, state.Time, len(state.Orders))
	return b, state.Time, nil
}

// RunAll runs independent configs concurrently, each with its own blotter.
// The first failure cancels the remaining runs. Results keep the config
// order; a run that never started leaves a nil entry.
func RunAll(ctx context.Context, configs []*config.Config, reg *config.Registry) ([]*Result, error) {
	if len(configs) == 0 {
		return nil, errNoConfigs
	}
	results := make([]*Result, len(configs))
	g, ctx := errgroup.WithContext(ctx)
	for i := range configs {
		i := i
		g.Go(func() error {
			r, err := FromConfig(ctx, configs[i], reg, nil)
			if err != nil {
				return err
			}
			res, err := r.Run(ctx)
			results[i] = res
			return errors.Join(err, r.Close())
		})
	}
	return results, g.Wait()
}
