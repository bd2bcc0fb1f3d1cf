package config

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/blotter/commission"
	"github.com/thrasher-corp/blotter/slippage"
)

// NewRegistry returns a registry holding the built in presets
func NewRegistry() *Registry {
	r := &Registry{
		commission: map[string]CommissionSettings{
			"us-equities": {Model: PerShare, CostPerShare: decimal.NewNullDecimal(commission.DefaultPerShareCost), MinTradeCost: commission.DefaultMinTradeCost},
			"retail-min":  {Model: PerShare, CostPerShare: decimal.NewNullDecimal(decimal.RequireFromString("0.005")), MinTradeCost: decimal.NewFromInt(1)},
			"flat-fee":    {Model: PerTrade, CostPerTrade: decimal.NewFromInt(5)},
			"free":        {Model: None},
		},
		slippage: map[string]SlippageSettings{
			"volume-share": {Model: VolumeShare, VolumeLimit: slippage.DefaultVolumeLimit, PriceImpact: decimal.NewNullDecimal(slippage.DefaultPriceImpact)},
			"fixed-bps":    {Model: FixedBasisPoints, BasisPoints: slippage.DefaultBasisPoints, VolumeLimit: slippage.DefaultBasisPointVolume},
			"penny-spread": {Model: FixedSpread, Spread: decimal.RequireFromString("0.01")},
			"none":         {Model: None},
		},
	}
	return r
}

// RegisterCommission adds a named commission preset
func (r *Registry) RegisterCommission(name string, s CommissionSettings) error {
	if _, ok := r.commission[name]; ok {
		return fmt.Errorf("%w: commission %s", errDuplicatePreset, name)
	}
	s.Preset = ""
	r.commission[name] = s
	return nil
}

// RegisterSlippage adds a named slippage preset
func (r *Registry) RegisterSlippage(name string, s SlippageSettings) error {
	if _, ok := r.slippage[name]; ok {
		return fmt.Errorf("%w: slippage %s", errDuplicatePreset, name)
	}
	s.Preset = ""
	r.slippage[name] = s
	return nil
}

// Presets lists the registered preset names
func (r *Registry) Presets() (commissionPresets, slippagePresets []string) {
	for k := range r.commission {
		commissionPresets = append(commissionPresets, k)
	}
	for k := range r.slippage {
		slippagePresets = append(slippagePresets, k)
	}
	sort.Strings(commissionPresets)
	sort.Strings(slippagePresets)
	return commissionPresets, slippagePresets
}

// CommissionModel builds the commission model from a preset or parameters.
// An empty setting uses the us-equities preset.
func (r *Registry) CommissionModel(s *CommissionSettings) (commission.Model, error) {
	settings := *s
	if settings.Preset == "" && settings.Model == "" {
		settings.Preset = "us-equities"
	}
	if settings.Preset != "" {
		preset, ok := r.commission[settings.Preset]
		if !ok {
			return nil, fmt.Errorf("%w: commission %q", errUnknownPreset, settings.Preset)
		}
		settings = preset
	}
	switch settings.Model {
	case PerShare:
		cost := commission.DefaultPerShareCost
		if settings.CostPerShare.Valid {
			cost = settings.CostPerShare.Decimal
		}
		return commission.NewPerShare(cost, settings.MinTradeCost)
	case PerTrade:
		return commission.NewPerTrade(settings.CostPerTrade)
	case PerDollar:
		return commission.NewPerDollar(settings.CostPerDollar)
	case None:
		return commission.None{}, nil
	}
	return nil, fmt.Errorf("%w: commission %q", errUnknownModel, settings.Model)
}

// SlippageModel builds the slippage model from a preset or parameters. An
// empty setting uses the volume-share preset.
func (r *Registry) SlippageModel(s *SlippageSettings) (slippage.Model, error) {
	settings := *s
	if settings.Preset == "" && settings.Model == "" {
		settings.Preset = "volume-share"
	}
	if settings.Preset != "" {
		preset, ok := r.slippage[settings.Preset]
		if !ok {
			return nil, fmt.Errorf("%w: slippage %q", errUnknownPreset, settings.Preset)
		}
		settings = preset
	}
	switch settings.Model {
	case VolumeShare:
		limit, impact := settings.VolumeLimit, slippage.DefaultPriceImpact
		if limit.IsZero() {
			limit = slippage.DefaultVolumeLimit
		}
		if settings.PriceImpact.Valid {
			impact = settings.PriceImpact.Decimal
		}
		return slippage.NewVolumeShare(limit, impact)
	case FixedSpread:
		return slippage.NewFixedSpread(settings.Spread, settings.VolumeLimit)
	case FixedBasisPoints:
		return slippage.NewFixedBasisPoints(settings.BasisPoints, settings.VolumeLimit)
	case None:
		return slippage.NoSlippage{}, nil
	}
	return nil, fmt.Errorf("%w: slippage %q", errUnknownModel, settings.Model)
}
