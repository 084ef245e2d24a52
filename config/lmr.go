package config

import "github.com/samber/lo"

// LMRFormula selects how late-move reductions are computed.
type LMRFormula string

const (
	// LMRStatic always reduces by the base reduction.
	LMRStatic LMRFormula = "static"
	// LMRDepthScaled grows with log(depth)*log(move index).
	LMRDepthScaled LMRFormula = "depth"
	// LMRMaterialScaled reduces more when the material balance is lopsided.
	LMRMaterialScaled LMRFormula = "material"
	// LMRHistoryScaled reduces less for moves with good history.
	LMRHistoryScaled LMRFormula = "history"
	// LMRCombined is a weighted sum of the above.
	LMRCombined LMRFormula = "weighted"
)

var lmrFormulas = []LMRFormula{LMRStatic, LMRDepthScaled, LMRMaterialScaled, LMRHistoryScaled, LMRCombined}

type LMRConfig struct {
	Enabled       bool       `mapstructure:"enabled" yaml:"enabled"`
	MinDepth      int        `mapstructure:"min-depth" yaml:"min-depth"`
	MinMoveIndex  int        `mapstructure:"min-move-index" yaml:"min-move-index"`
	BaseReduction int        `mapstructure:"base-reduction" yaml:"base-reduction"`
	MaxReduction  int        `mapstructure:"max-reduction" yaml:"max-reduction"`
	Formula       LMRFormula `mapstructure:"formula" yaml:"formula"`
	// DepthDivisor scales the log*log term; smaller divisors reduce more.
	DepthDivisor float64 `mapstructure:"depth-divisor" yaml:"depth-divisor"`

	Advanced AdvancedReductionConfig `mapstructure:"advanced" yaml:"advanced"`
	Adaptive AdaptiveTuningConfig    `mapstructure:"adaptive" yaml:"adaptive"`
}

// AdvancedReductionConfig holds the weights and units of the material and
// history terms.
type AdvancedReductionConfig struct {
	DepthWeight    float64 `mapstructure:"depth-weight" yaml:"depth-weight"`
	MaterialWeight float64 `mapstructure:"material-weight" yaml:"material-weight"`
	HistoryWeight  float64 `mapstructure:"history-weight" yaml:"history-weight"`
	// MaterialUnit is the imbalance worth one extra ply of reduction.
	MaterialUnit int32 `mapstructure:"material-unit" yaml:"material-unit"`
	// HistoryUnit is the history score worth one ply less reduction.
	HistoryUnit int32 `mapstructure:"history-unit" yaml:"history-unit"`
}

// AdaptiveTuningConfig nudges the base reduction between iterations so
// the share of reduced moves that need a full re-search stays near
// TargetReSearchRate.
type AdaptiveTuningConfig struct {
	Enabled            bool    `mapstructure:"enabled" yaml:"enabled"`
	TargetReSearchRate float64 `mapstructure:"target-research-rate" yaml:"target-research-rate"`
	Tolerance          float64 `mapstructure:"tolerance" yaml:"tolerance"`
	MinSamples         int     `mapstructure:"min-samples" yaml:"min-samples"`
	MaxAdjustment      int     `mapstructure:"max-adjustment" yaml:"max-adjustment"`
}

func DefaultLMRConfig() LMRConfig {
	return LMRConfig{
		Enabled:       true,
		MinDepth:      3,
		MinMoveIndex:  3,
		BaseReduction: 1,
		MaxReduction:  4,
		Formula:       LMRDepthScaled,
		DepthDivisor:  2.25,
		Advanced: AdvancedReductionConfig{
			DepthWeight:    1.0,
			MaterialWeight: 0.5,
			HistoryWeight:  1.0,
			MaterialUnit:   500,
			HistoryUnit:    4096,
		},
		Adaptive: AdaptiveTuningConfig{
			TargetReSearchRate: 0.15,
			Tolerance:          0.05,
			MinSamples:         64,
			MaxAdjustment:      1,
		},
	}
}

func (c LMRConfig) Validate() error {
	v := &validator{record: "lmr"}
	checkRange(v, "min-depth", c.MinDepth, 1, MaxDepth)
	checkRange(v, "min-move-index", c.MinMoveIndex, 1, 256)
	checkRange(v, "base-reduction", c.BaseReduction, 0, 8)
	checkRange(v, "max-reduction", c.MaxReduction, max(c.BaseReduction, 1), 16)
	checkOption(v, "formula", c.Formula, lmrFormulas)
	checkRange(v, "depth-divisor", c.DepthDivisor, 0.5, 10)
	checkRange(v, "advanced.depth-weight", c.Advanced.DepthWeight, 0, 4)
	checkRange(v, "advanced.material-weight", c.Advanced.MaterialWeight, 0, 4)
	checkRange(v, "advanced.history-weight", c.Advanced.HistoryWeight, 0, 4)
	checkRange(v, "advanced.material-unit", c.Advanced.MaterialUnit, 1, 10000)
	checkRange(v, "advanced.history-unit", c.Advanced.HistoryUnit, 1, 1<<24)
	checkRange(v, "adaptive.target-research-rate", c.Adaptive.TargetReSearchRate, 0, 1)
	checkRange(v, "adaptive.tolerance", c.Adaptive.Tolerance, 0, 0.5)
	checkRange(v, "adaptive.min-samples", c.Adaptive.MinSamples, 1, 1_000_000)
	checkRange(v, "adaptive.max-adjustment", c.Adaptive.MaxAdjustment, 0, 4)
	return v.err()
}

func NewValidatedLMRConfig(c LMRConfig) LMRConfig {
	c.MinDepth = lo.Clamp(c.MinDepth, 1, MaxDepth)
	c.MinMoveIndex = lo.Clamp(c.MinMoveIndex, 1, 256)
	c.BaseReduction = lo.Clamp(c.BaseReduction, 0, 8)
	c.MaxReduction = lo.Clamp(c.MaxReduction, max(c.BaseReduction, 1), 16)
	c.Formula = optionOr(c.Formula, lmrFormulas, LMRDepthScaled)
	c.DepthDivisor = lo.Clamp(c.DepthDivisor, 0.5, 10)
	c.Advanced.DepthWeight = lo.Clamp(c.Advanced.DepthWeight, 0, 4)
	c.Advanced.MaterialWeight = lo.Clamp(c.Advanced.MaterialWeight, 0, 4)
	c.Advanced.HistoryWeight = lo.Clamp(c.Advanced.HistoryWeight, 0, 4)
	c.Advanced.MaterialUnit = lo.Clamp(c.Advanced.MaterialUnit, 1, 10000)
	c.Advanced.HistoryUnit = lo.Clamp(c.Advanced.HistoryUnit, 1, 1<<24)
	c.Adaptive.TargetReSearchRate = lo.Clamp(c.Adaptive.TargetReSearchRate, 0, 1)
	c.Adaptive.Tolerance = lo.Clamp(c.Adaptive.Tolerance, 0, 0.5)
	c.Adaptive.MinSamples = lo.Clamp(c.Adaptive.MinSamples, 1, 1_000_000)
	c.Adaptive.MaxAdjustment = lo.Clamp(c.Adaptive.MaxAdjustment, 0, 4)
	return c
}

func (c LMRConfig) Merge(o LMRConfig) LMRConfig {
	if o == (LMRConfig{}) {
		return c
	}
	return LMRConfig{
		Enabled:       o.Enabled,
		MinDepth:      lo.CoalesceOrEmpty(o.MinDepth, c.MinDepth),
		MinMoveIndex:  lo.CoalesceOrEmpty(o.MinMoveIndex, c.MinMoveIndex),
		BaseReduction: lo.CoalesceOrEmpty(o.BaseReduction, c.BaseReduction),
		MaxReduction:  lo.CoalesceOrEmpty(o.MaxReduction, c.MaxReduction),
		Formula:       lo.CoalesceOrEmpty(o.Formula, c.Formula),
		DepthDivisor:  lo.CoalesceOrEmpty(o.DepthDivisor, c.DepthDivisor),
		Advanced:      c.Advanced.Merge(o.Advanced),
		Adaptive:      c.Adaptive.Merge(o.Adaptive),
	}
}

func (c AdvancedReductionConfig) Merge(o AdvancedReductionConfig) AdvancedReductionConfig {
	if o == (AdvancedReductionConfig{}) {
		return c
	}
	return AdvancedReductionConfig{
		DepthWeight:    lo.CoalesceOrEmpty(o.DepthWeight, c.DepthWeight),
		MaterialWeight: lo.CoalesceOrEmpty(o.MaterialWeight, c.MaterialWeight),
		HistoryWeight:  lo.CoalesceOrEmpty(o.HistoryWeight, c.HistoryWeight),
		MaterialUnit:   lo.CoalesceOrEmpty(o.MaterialUnit, c.MaterialUnit),
		HistoryUnit:    lo.CoalesceOrEmpty(o.HistoryUnit, c.HistoryUnit),
	}
}

func (c AdaptiveTuningConfig) Merge(o AdaptiveTuningConfig) AdaptiveTuningConfig {
	if o == (AdaptiveTuningConfig{}) {
		return c
	}
	return AdaptiveTuningConfig{
		Enabled:            o.Enabled,
		TargetReSearchRate: lo.CoalesceOrEmpty(o.TargetReSearchRate, c.TargetReSearchRate),
		Tolerance:          lo.CoalesceOrEmpty(o.Tolerance, c.Tolerance),
		MinSamples:         lo.CoalesceOrEmpty(o.MinSamples, c.MinSamples),
		MaxAdjustment:      lo.CoalesceOrEmpty(o.MaxAdjustment, c.MaxAdjustment),
	}
}
