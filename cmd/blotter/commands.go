package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/thrasher-corp/blotter/apiserver"
	"github.com/thrasher-corp/blotter/checkpoint"
	"github.com/thrasher-corp/blotter/config"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/simulation"
	"github.com/urfave/cli/v2"
)

var (
	errServeMany     = errors.New("--serve only supports a single config")
	errNoCheckpoint  = errors.New("supply --checkpoint or --store with --run-id")
	errMissingConfig = errors.New("at least one --config is required")
)

var configFlag = &cli.StringSliceFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "the run config file, .json .yaml or .yml, may be repeated",
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "runs one or more configs",
	ArgsUsage: "--config <path> [--config <path>...]",
	Flags: []cli.Flag{
		configFlag,
		&cli.StringFlag{
			Name:  "serve",
			Usage: "serve the snapshot API on this address while running and after completion until interrupted",
		},
	},
	Action: runConfigs,
}

var validateCommand = &cli.Command{
	Name:   "validate",
	Usage:  "validates configs without running them",
	Flags:  []cli.Flag{configFlag},
	Action: validateConfigs,
}

var inspectCommand = &cli.Command{
	Name:  "inspect",
	Usage: "prints a stored checkpoint",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "checkpoint",
			Usage: "path to a checkpoint JSON document",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "checkpoint store to read from: file, sqlite3, postgres or redis",
		},
		&cli.StringFlag{
			Name:  "target",
			Usage: "the store directory, dsn or redis url",
		},
		&cli.StringFlag{
			Name:  "run-id",
			Usage: "the run to load from the store",
		},
		&cli.BoolFlag{
			Name:  "summary",
			Usage: "print order counts by status instead of the full document",
		},
	},
	Action: inspectCheckpoint,
}

var presetsCommand = &cli.Command{
	Name:  "presets",
	Usage: "lists the built in commission and slippage presets",
	Action: func(*cli.Context) error {
		c, s := config.NewRegistry().Presets()
		jsonOutput(map[string][]string{"commission": c, "slippage": s})
		return nil
	},
}

func loadConfigs(c *cli.Context) ([]*config.Config, error) {
	paths := c.StringSlice("config")
	if len(paths) == 0 {
		return nil, errMissingConfig
	}
	out := make([]*config.Config, len(paths))
	for i := range paths {
		cfg, err := config.ReadConfigFromFile(paths[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		out[i] = cfg
	}
	if out[0].Logging != nil {
		if err := log.SetupGlobalLogger(out[0].Logging); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func validateConfigs(c *cli.Context) error {
	configs, err := loadConfigs(c)
	if err != nil {
		return err
	}
	reg := config.NewRegistry()
	var errs error
	for i := range configs {
		if err := configs[i].Validate(reg); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", configs[i].Nickname, err))
			continue
		}
		fmt.Printf("%s: ok\n", configs[i].Nickname)
	}
	return errs
}

func runConfigs(c *cli.Context) error {
	configs, err := loadConfigs(c)
	if err != nil {
		return err
	}
	reg := config.NewRegistry()
	addr := c.String("serve")
	if len(configs) > 1 {
		if addr != "" {
			return errServeMany
		}
		results, err := simulation.RunAll(c.Context, configs, reg)
		for i := range results {
			if results[i] != nil {
				jsonOutput(results[i])
			}
		}
		return err
	}

	cfg := configs[0]
	if addr == "" && cfg.API.Enabled {
		addr = cfg.API.ListenAddress
	}
	var publisher *simulation.Publisher
	if addr != "" {
		publisher = &simulation.Publisher{}
	}
	runner, err := simulation.FromConfig(c.Context, cfg, reg, publisher)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	serveCtx, stopServing := context.WithCancel(c.Context)
	defer stopServing()
	if addr != "" {
		finder, err := cfg.NewFinder()
		if err != nil {
			return errors.Join(err, runner.Close())
		}
		srv, err := apiserver.New(publisher, finder, &apiserver.Config{ListenAddress: addr})
		if err != nil {
			return errors.Join(err, runner.Close())
		}
		go func() { serveErr <- srv.ListenAndServe(serveCtx) }()
	}

	res, err := runner.Run(c.Context)
	err = errors.Join(err, runner.Close())
	if res != nil {
		jsonOutput(res)
	}
	if err != nil || addr == "" {
		stopServing()
		return err
	}
	log.Infof(log.Global, "%s complete, serving snapshot on %s until interrupted", cfg.Nickname, addr)
	return <-serveErr
}

func inspectCheckpoint(c *cli.Context) error {
	state, err := loadCheckpoint(c)
	if err != nil {
		return err
	}
	if !c.Bool("summary") {
		jsonOutput(state)
		return nil
	}
	counts := make(map[string]int)
	for i := range state.Orders {
		counts[strings.ToLower(string(state.Orders[i].Status))]++
	}
	jsonOutput(map[string]any{
		"run-id":       state.RunID,
		"time":         state.Time,
		"orders":       counts,
		"transactions": len(state.Transactions),
		"policy":       state.Policy,
	})
	return nil
}

func loadCheckpoint(c *cli.Context) (*checkpoint.State, error) {
	if path := c.String("checkpoint"); path != "" {
		return checkpoint.ReadFile(path)
	}
	if c.String("store") == "" || c.String("run-id") == "" {
		return nil, errNoCheckpoint
	}
	settings := config.CheckpointSettings{
		Store: c.String("store"),
		RunID: c.String("run-id"),
	}
	switch settings.Store {
	case config.StoreFile:
		settings.Path = c.String("target")
	case config.StoreRedis:
		settings.Redis = &checkpoint.RedisConfig{ConnectionURL: c.String("target")}
	default:
		settings.DSN = c.String("target")
	}
	store, err := settings.OpenStore(c.Context)
	if err != nil {
		return nil, err
	}
	state, err := store.Load(c.Context, settings.RunID)
	if closeErr := store.Close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
	}
	return state, err
}
