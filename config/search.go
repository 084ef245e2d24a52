package config

import (
	"errors"

	"github.com/samber/lo"
)

// MaxDepth is the deepest nominal search depth any config may ask for.
const MaxDepth = 64

// ReplacementPolicy decides which transposition-table entry a store evicts.
type ReplacementPolicy string

const (
	PolicyFIFO           ReplacementPolicy = "fifo"
	PolicyLRU            ReplacementPolicy = "lru"
	PolicyDepthPreferred ReplacementPolicy = "depth"
	PolicyHybrid         ReplacementPolicy = "hybrid"
	PolicyAge            ReplacementPolicy = "age"
)

var replacementPolicies = []ReplacementPolicy{PolicyFIFO, PolicyLRU, PolicyDepthPreferred, PolicyHybrid, PolicyAge}

type TranspositionConfig struct {
	SizeMB int `mapstructure:"size-mb" yaml:"size-mb"`
	// FractionOfMemory, when positive, sizes the table from total system
	// memory instead of SizeMB.
	FractionOfMemory float64           `mapstructure:"fraction-of-memory" yaml:"fraction-of-memory"`
	Policy           ReplacementPolicy `mapstructure:"policy" yaml:"policy"`
}

func DefaultTranspositionConfig() TranspositionConfig {
	return TranspositionConfig{
		SizeMB: 64,
		Policy: PolicyHybrid,
	}
}

func (c TranspositionConfig) Validate() error {
	v := &validator{record: "transposition"}
	checkRange(v, "size-mb", c.SizeMB, 1, 1<<16)
	checkRange(v, "fraction-of-memory", c.FractionOfMemory, 0, 0.9)
	checkOption(v, "policy", c.Policy, replacementPolicies)
	return v.err()
}

func NewValidatedTranspositionConfig(c TranspositionConfig) TranspositionConfig {
	c.SizeMB = lo.Clamp(c.SizeMB, 1, 1<<16)
	c.FractionOfMemory = lo.Clamp(c.FractionOfMemory, 0, 0.9)
	c.Policy = optionOr(c.Policy, replacementPolicies, PolicyHybrid)
	return c
}

func (c TranspositionConfig) Merge(o TranspositionConfig) TranspositionConfig {
	if o == (TranspositionConfig{}) {
		return c
	}
	return TranspositionConfig{
		SizeMB:           lo.CoalesceOrEmpty(o.SizeMB, c.SizeMB),
		FractionOfMemory: lo.CoalesceOrEmpty(o.FractionOfMemory, c.FractionOfMemory),
		Policy:           lo.CoalesceOrEmpty(o.Policy, c.Policy),
	}
}

// Distribution decides which worker queue receives each younger brother.
type Distribution string

const (
	DistributeRoundRobin  Distribution = "round-robin"
	DistributeLeastLoaded Distribution = "least-loaded"
)

var distributions = []Distribution{DistributeRoundRobin, DistributeLeastLoaded}

// MaxThreads caps the size of the worker pool.
const MaxThreads = 32

type ParallelConfig struct {
	Threads int `mapstructure:"threads" yaml:"threads"`
	// Searches shallower than MinSplitDepth are not split.
	MinSplitDepth int          `mapstructure:"min-split-depth" yaml:"min-split-depth"`
	Distribution  Distribution `mapstructure:"distribution" yaml:"distribution"`
	// DeferDepth is the minimum remaining depth at which a worker defers
	// a move another worker is already searching.
	DeferDepth int `mapstructure:"defer-depth" yaml:"defer-depth"`
}

func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		Threads:       1,
		MinSplitDepth: 2,
		Distribution:  DistributeRoundRobin,
		DeferDepth:    3,
	}
}

func (c ParallelConfig) Validate() error {
	v := &validator{record: "parallel"}
	checkRange(v, "threads", c.Threads, 1, MaxThreads)
	checkRange(v, "min-split-depth", c.MinSplitDepth, 1, MaxDepth)
	checkOption(v, "distribution", c.Distribution, distributions)
	checkRange(v, "defer-depth", c.DeferDepth, 1, MaxDepth)
	return v.err()
}

func NewValidatedParallelConfig(c ParallelConfig) ParallelConfig {
	c.Threads = lo.Clamp(c.Threads, 1, MaxThreads)
	c.MinSplitDepth = lo.Clamp(c.MinSplitDepth, 1, MaxDepth)
	c.Distribution = optionOr(c.Distribution, distributions, DistributeRoundRobin)
	c.DeferDepth = lo.Clamp(c.DeferDepth, 1, MaxDepth)
	return c
}

func (c ParallelConfig) Merge(o ParallelConfig) ParallelConfig {
	if o == (ParallelConfig{}) {
		return c
	}
	return ParallelConfig{
		Threads:       lo.CoalesceOrEmpty(o.Threads, c.Threads),
		MinSplitDepth: lo.CoalesceOrEmpty(o.MinSplitDepth, c.MinSplitDepth),
		Distribution:  lo.CoalesceOrEmpty(o.Distribution, c.Distribution),
		DeferDepth:    lo.CoalesceOrEmpty(o.DeferDepth, c.DeferDepth),
	}
}

// SearchConfig gathers every record the search engines use.
type SearchConfig struct {
	Aspiration    AspirationWindowConfig `mapstructure:"aspiration" yaml:"aspiration"`
	LMR           LMRConfig              `mapstructure:"lmr" yaml:"lmr"`
	NullMove      NullMoveConfig         `mapstructure:"null-move" yaml:"null-move"`
	Pruning       PruningParameters      `mapstructure:"pruning" yaml:"pruning"`
	Ordering      MoveOrderingConfig     `mapstructure:"ordering" yaml:"ordering"`
	Transposition TranspositionConfig    `mapstructure:"transposition" yaml:"transposition"`
	Parallel      ParallelConfig         `mapstructure:"parallel" yaml:"parallel"`
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Aspiration:    DefaultAspirationConfig(),
		LMR:           DefaultLMRConfig(),
		NullMove:      DefaultNullMoveConfig(),
		Pruning:       DefaultPruningParameters(),
		Ordering:      DefaultMoveOrderingConfig(),
		Transposition: DefaultTranspositionConfig(),
		Parallel:      DefaultParallelConfig(),
	}
}

func (c SearchConfig) Validate() error {
	return errors.Join(
		c.Aspiration.Validate(),
		c.LMR.Validate(),
		c.NullMove.Validate(),
		c.Pruning.Validate(),
		c.Ordering.Validate(),
		c.Transposition.Validate(),
		c.Parallel.Validate(),
	)
}

func NewValidatedSearchConfig(c SearchConfig) SearchConfig {
	return SearchConfig{
		Aspiration:    NewValidatedAspirationConfig(c.Aspiration),
		LMR:           NewValidatedLMRConfig(c.LMR),
		NullMove:      NewValidatedNullMoveConfig(c.NullMove),
		Pruning:       NewValidatedPruningParameters(c.Pruning),
		Ordering:      NewValidatedMoveOrderingConfig(c.Ordering),
		Transposition: NewValidatedTranspositionConfig(c.Transposition),
		Parallel:      NewValidatedParallelConfig(c.Parallel),
	}
}

// Merge merges o record by record. Records left at their zero value in o
// keep c's settings, switches included. A record that is set replaces
// c's switches with its own, so build overrides from the current record:
//
//	o := cfg.Aspiration
//	o.InitialWindow = 30
//	cfg = cfg.Merge(SearchConfig{Aspiration: o})
func (c SearchConfig) Merge(o SearchConfig) SearchConfig {
	if o == (SearchConfig{}) {
		return c
	}
	return SearchConfig{
		Aspiration:    c.Aspiration.Merge(o.Aspiration),
		LMR:           c.LMR.Merge(o.LMR),
		NullMove:      c.NullMove.Merge(o.NullMove),
		Pruning:       c.Pruning.Merge(o.Pruning),
		Ordering:      c.Ordering.Merge(o.Ordering),
		Transposition: c.Transposition.Merge(o.Transposition),
		Parallel:      c.Parallel.Merge(o.Parallel),
	}
}
