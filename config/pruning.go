package config

import "github.com/samber/lo"

type NullMoveConfig struct {
	Enabled  bool `mapstructure:"enabled" yaml:"enabled"`
	MinDepth int  `mapstructure:"min-depth" yaml:"min-depth"`
	// The null move is searched at depth - 1 - (Reduction + depth/DepthDivisor).
	Reduction    int `mapstructure:"reduction" yaml:"reduction"`
	DepthDivisor int `mapstructure:"depth-divisor" yaml:"depth-divisor"`
	// EvalMargin is added to beta before comparing with the static eval.
	EvalMargin int32 `mapstructure:"eval-margin" yaml:"eval-margin"`
	// MinNonPawnPieces guards against zugzwang-prone positions: the side to
	// move needs at least this many pieces other than pawns and the king.
	MinNonPawnPieces     int  `mapstructure:"min-non-pawn-pieces" yaml:"min-non-pawn-pieces"`
	Verification         bool `mapstructure:"verification" yaml:"verification"`
	VerificationMinDepth int  `mapstructure:"verification-min-depth" yaml:"verification-min-depth"`
}

func DefaultNullMoveConfig() NullMoveConfig {
	return NullMoveConfig{
		Enabled:              true,
		MinDepth:             3,
		Reduction:            2,
		DepthDivisor:         6,
		EvalMargin:           0,
		MinNonPawnPieces:     1,
		Verification:         true,
		VerificationMinDepth: 6,
	}
}

func (c NullMoveConfig) Validate() error {
	v := &validator{record: "null-move"}
	checkRange(v, "min-depth", c.MinDepth, 1, MaxDepth)
	checkRange(v, "reduction", c.Reduction, 1, 8)
	checkRange(v, "depth-divisor", c.DepthDivisor, 1, MaxDepth)
	checkRange(v, "eval-margin", c.EvalMargin, -10000, 10000)
	checkRange(v, "min-non-pawn-pieces", c.MinNonPawnPieces, 0, 40)
	checkRange(v, "verification-min-depth", c.VerificationMinDepth, 1, MaxDepth)
	return v.err()
}

func NewValidatedNullMoveConfig(c NullMoveConfig) NullMoveConfig {
	c.MinDepth = lo.Clamp(c.MinDepth, 1, MaxDepth)
	c.Reduction = lo.Clamp(c.Reduction, 1, 8)
	c.DepthDivisor = lo.Clamp(c.DepthDivisor, 1, MaxDepth)
	c.EvalMargin = lo.Clamp(c.EvalMargin, -10000, 10000)
	c.MinNonPawnPieces = lo.Clamp(c.MinNonPawnPieces, 0, 40)
	c.VerificationMinDepth = lo.Clamp(c.VerificationMinDepth, 1, MaxDepth)
	return c
}

func (c NullMoveConfig) Merge(o NullMoveConfig) NullMoveConfig {
	if o == (NullMoveConfig{}) {
		return c
	}
	return NullMoveConfig{
		Enabled:              o.Enabled,
		MinDepth:             lo.CoalesceOrEmpty(o.MinDepth, c.MinDepth),
		Reduction:            lo.CoalesceOrEmpty(o.Reduction, c.Reduction),
		DepthDivisor:         lo.CoalesceOrEmpty(o.DepthDivisor, c.DepthDivisor),
		EvalMargin:           lo.CoalesceOrEmpty(o.EvalMargin, c.EvalMargin),
		MinNonPawnPieces:     lo.CoalesceOrEmpty(o.MinNonPawnPieces, c.MinNonPawnPieces),
		Verification:         o.Verification,
		VerificationMinDepth: lo.CoalesceOrEmpty(o.VerificationMinDepth, c.VerificationMinDepth),
	}
}

// PruningParameters covers the quiescence search and its pruning.
type PruningParameters struct {
	FutilityEnabled bool  `mapstructure:"futility-enabled" yaml:"futility-enabled"`
	FutilityMargin  int32 `mapstructure:"futility-margin" yaml:"futility-margin"`
	DeltaEnabled    bool  `mapstructure:"delta-enabled" yaml:"delta-enabled"`
	DeltaMargin     int32 `mapstructure:"delta-margin" yaml:"delta-margin"`
	// PruneLosingCaptures skips quiescence captures with negative SEE.
	PruneLosingCaptures bool `mapstructure:"prune-losing-captures" yaml:"prune-losing-captures"`
	QuiescenceMaxDepth  int  `mapstructure:"quiescence-max-depth" yaml:"quiescence-max-depth"`
	// QuiescenceCheckPlies is how many quiescence plies also try checks.
	QuiescenceCheckPlies int `mapstructure:"quiescence-check-plies" yaml:"quiescence-check-plies"`
	// QuiescenceTableMB sizes the quiescence transposition table; 0
	// disables it.
	QuiescenceTableMB int `mapstructure:"quiescence-table-mb" yaml:"quiescence-table-mb"`
}

func DefaultPruningParameters() PruningParameters {
	return PruningParameters{
		FutilityEnabled:      true,
		FutilityMargin:       100,
		DeltaEnabled:         true,
		DeltaMargin:          200,
		PruneLosingCaptures:  true,
		QuiescenceMaxDepth:   8,
		QuiescenceCheckPlies: 1,
		QuiescenceTableMB:    2,
	}
}

func (c PruningParameters) Validate() error {
	v := &validator{record: "pruning"}
	checkRange(v, "futility-margin", c.FutilityMargin, 0, 10000)
	checkRange(v, "delta-margin", c.DeltaMargin, 0, 10000)
	checkRange(v, "quiescence-max-depth", c.QuiescenceMaxDepth, 0, MaxDepth)
	checkRange(v, "quiescence-check-plies", c.QuiescenceCheckPlies, 0, 8)
	checkRange(v, "quiescence-table-mb", c.QuiescenceTableMB, 0, 1024)
	return v.err()
}

func NewValidatedPruningParameters(c PruningParameters) PruningParameters {
	c.FutilityMargin = lo.Clamp(c.FutilityMargin, 0, 10000)
	c.DeltaMargin = lo.Clamp(c.DeltaMargin, 0, 10000)
	c.QuiescenceMaxDepth = lo.Clamp(c.QuiescenceMaxDepth, 0, MaxDepth)
	c.QuiescenceCheckPlies = lo.Clamp(c.QuiescenceCheckPlies, 0, 8)
	c.QuiescenceTableMB = lo.Clamp(c.QuiescenceTableMB, 0, 1024)
	return c
}

func (c PruningParameters) Merge(o PruningParameters) PruningParameters {
	if o == (PruningParameters{}) {
		return c
	}
	return PruningParameters{
		FutilityEnabled:      o.FutilityEnabled,
		FutilityMargin:       lo.CoalesceOrEmpty(o.FutilityMargin, c.FutilityMargin),
		DeltaEnabled:         o.DeltaEnabled,
		DeltaMargin:          lo.CoalesceOrEmpty(o.DeltaMargin, c.DeltaMargin),
		PruneLosingCaptures:  o.PruneLosingCaptures,
		QuiescenceMaxDepth:   lo.CoalesceOrEmpty(o.QuiescenceMaxDepth, c.QuiescenceMaxDepth),
		QuiescenceCheckPlies: lo.CoalesceOrEmpty(o.QuiescenceCheckPlies, c.QuiescenceCheckPlies),
		QuiescenceTableMB:    lo.CoalesceOrEmpty(o.QuiescenceTableMB, c.QuiescenceTableMB),
	}
}
