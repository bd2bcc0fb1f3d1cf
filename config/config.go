package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/blotter"
	"github.com/thrasher-corp/blotter/cancelpolicy"
	"github.com/thrasher-corp/blotter/checkpoint"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/order"
	"gopkg.in/yaml.v3"
)

// ReadConfigFromFile loads a config from a .json, .yaml or .yml file
func ReadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadConfig(data, false)
	case ".yaml", ".yml":
		return LoadConfig(data, true)
	}
	return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, path)
}

// LoadConfig expands ${ENV} references then decodes JSON or YAML
func LoadConfig(data []byte, isYAML bool) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))
	resp := &Config{}
	var err error
	if isYAML {
		err = yaml.Unmarshal(expanded, resp)
	} else {
		err = json.Unmarshal(expanded, resp)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Validate checks all config settings
func (c *Config) Validate(r *Registry) error {
	if strings.TrimSpace(c.Nickname) == "" {
		return errNoNickname
	}
	finder, err := c.NewFinder()
	if err != nil {
		return err
	}
	if c.DataSettings.Path == "" {
		return errNoDataPath
	}
	if c.MaxShares.IsNegative() {
		return fmt.Errorf("%w: %v", errNegativeMaxShares, c.MaxShares)
	}
	if _, err = r.CommissionModel(&c.CommissionSettings); err != nil {
		return err
	}
	if _, err = r.SlippageModel(&c.SlippageSettings); err != nil {
		return err
	}
	if err = c.CancelPolicy.validate(); err != nil {
		return err
	}
	if err = c.Checkpoint.validate(); err != nil {
		return err
	}
	if c.API.Enabled && c.API.ListenAddress == "" {
		return errNoListenAddress
	}
	for i := range c.Splits {
		if _, err = finder.LookupSymbol(c.Splits[i].Symbol); err != nil {
			return fmt.Errorf("%w %d: %w", errInvalidSplit, i, err)
		}
		if !c.Splits[i].Ratio.IsPositive() {
			return fmt.Errorf("%w %d: ratio %v must be positive", errInvalidSplit, i, c.Splits[i].Ratio)
		}
	}
	for i := range c.Orders {
		if _, err = finder.LookupSymbol(c.Orders[i].Symbol); err != nil {
			return fmt.Errorf("scheduled order %d: %w", i, err)
		}
	}
	return nil
}

// NewFinder registers the configured assets
func (c *Config) NewFinder() (*asset.Finder, error) {
	if len(c.Assets) == 0 {
		return nil, errNoAssets
	}
	return asset.NewFinder(c.Assets...)
}

// BlotterSettings builds the engine settings for the run
func (c *Config) BlotterSettings(r *Registry) (*blotter.Settings, error) {
	finder, err := c.NewFinder()
	if err != nil {
		return nil, err
	}
	cm, err := r.CommissionModel(&c.CommissionSettings)
	if err != nil {
		return nil, err
	}
	sm, err := r.SlippageModel(&c.SlippageSettings)
	if err != nil {
		return nil, err
	}
	policy, err := c.CancelPolicy.NewPolicy()
	if err != nil {
		return nil, err
	}
	log.Debugf(log.ConfigMgr, "%s: commission %s slippage %s policy %s", c.Nickname, cm.Name(), sm.Name(), policy.Name())
	return &blotter.Settings{
		Commission: cm,
		Slippage:   sm,
		Policy:     policy,
		Finder:     finder,
		MaxShares:  c.MaxShares,
	}, nil
}

// ScheduledRequests resolves the configured orders against the assets
func (c *Config) ScheduledRequests(finder *asset.Finder) ([]order.Request, error) {
	out := make([]order.Request, len(c.Orders))
	for i := range c.Orders {
		a, err := finder.LookupSymbol(c.Orders[i].Symbol)
		if err != nil {
			return nil, fmt.Errorf("scheduled order %d: %w", i, err)
		}
		out[i] = order.Request{
			Asset:      a,
			Amount:     c.Orders[i].Amount,
			Type:       order.Type(strings.ToUpper(c.Orders[i].Type)),
			LimitPrice: c.Orders[i].LimitPrice,
			StopPrice:  c.Orders[i].StopPrice,
			CustomID:   c.Orders[i].CustomID,
		}
	}
	return out, nil
}

func (p *PolicySettings) validate() error {
	switch p.Policy {
	case "", PolicyEOD, PolicyNever:
		return nil
	case PolicyBarCount:
		_, err := cancelpolicy.NewBarCount(p.Bars, p.WarnOnCancel)
		return err
	case PolicyScript:
		if p.Script == "" && p.ScriptPath == "" {
			return errNoScript
		}
		return nil
	}
	return fmt.Errorf("%w: %q", errUnknownPolicy, p.Policy)
}

// NewPolicy builds the cancellation policy. An empty policy never cancels.
func (p *PolicySettings) NewPolicy() (cancelpolicy.Policy, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	switch p.Policy {
	case PolicyEOD:
		return &cancelpolicy.EODCancel{Warn: p.WarnOnCancel}, nil
	case PolicyBarCount:
		return cancelpolicy.NewBarCount(p.Bars, p.WarnOnCancel)
	case PolicyScript:
		if p.Script != "" {
			return cancelpolicy.NewScript(p.Script, p.ScriptTimeout, p.WarnOnCancel)
		}
		return cancelpolicy.LoadScript(p.ScriptPath, p.ScriptTimeout, p.WarnOnCancel)
	}
	return cancelpolicy.NeverCancel{}, nil
}

func (c *CheckpointSettings) validate() error {
	switch c.Store {
	case "":
		return nil
	case StoreFile:
		if c.Path == "" {
			return errNoStoreTarget
		}
	case StoreSQLite, StorePostgres:
		if c.DSN == "" {
			return errNoStoreTarget
		}
	case StoreRedis:
		if c.Redis == nil || c.Redis.ConnectionURL == "" {
			return errNoStoreTarget
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownStore, c.Store)
	}
	if c.RunID == "" {
		return errNoRunID
	}
	return nil
}

// Enabled reports whether a checkpoint store is configured
func (c *CheckpointSettings) Enabled() bool {
	return c.Store != ""
}

// OpenStore connects to the configured checkpoint store
func (c *CheckpointSettings) OpenStore(ctx context.Context) (checkpoint.Store, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	switch c.Store {
	case StoreFile:
		return checkpoint.NewFileStore(c.Path)
	case StoreSQLite, StorePostgres:
		return checkpoint.OpenSQL(ctx, c.Store, c.DSN)
	case StoreRedis:
		return checkpoint.OpenRedis(ctx, c.Redis)
	}
	return nil, fmt.Errorf("%w: %q", errUnknownStore, c.Store)
}
