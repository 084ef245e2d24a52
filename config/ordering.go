package config

import "github.com/samber/lo"

// MoveOrderingConfig holds the priority bands of the move orderer and its
// sub-configs. Bands must be strictly decreasing from PV down to history
// so the categories never overlap.
type MoveOrderingConfig struct {
	PVBonus          int32 `mapstructure:"pv-bonus" yaml:"pv-bonus"`
	HashMoveBonus    int32 `mapstructure:"hash-move-bonus" yaml:"hash-move-bonus"`
	KillerBonus      int32 `mapstructure:"killer-bonus" yaml:"killer-bonus"`
	CaptureBonus     int32 `mapstructure:"capture-bonus" yaml:"capture-bonus"`
	PromotionBonus   int32 `mapstructure:"promotion-bonus" yaml:"promotion-bonus"`
	HistoryBonus     int32 `mapstructure:"history-bonus" yaml:"history-bonus"`
	CounterMoveBonus int32 `mapstructure:"counter-move-bonus" yaml:"counter-move-bonus"`

	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Killer      KillerConfig      `mapstructure:"killer" yaml:"killer"`
	History     HistoryConfig     `mapstructure:"history" yaml:"history"`
	Debug       DebugConfig       `mapstructure:"debug" yaml:"debug"`
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Sizes are rounded down to a power of two.
	SEECacheSize   int `mapstructure:"see-cache-size" yaml:"see-cache-size"`
	ScoreCacheSize int `mapstructure:"score-cache-size" yaml:"score-cache-size"`
}

type KillerConfig struct {
	Enabled     bool `mapstructure:"enabled" yaml:"enabled"`
	MaxPerDepth int  `mapstructure:"max-per-depth" yaml:"max-per-depth"`
}

type HistoryConfig struct {
	Enabled  bool  `mapstructure:"enabled" yaml:"enabled"`
	MaxScore int32 `mapstructure:"max-score" yaml:"max-score"`
	// AgingFactor multiplies every entry when the table is aged.
	AgingFactor float64 `mapstructure:"aging-factor" yaml:"aging-factor"`
	// AgingInterval ages the table after that many updates; 0 ages only
	// between iterations.
	AgingInterval int `mapstructure:"aging-interval" yaml:"aging-interval"`
}

type DebugConfig struct {
	LogOrdering      bool `mapstructure:"log-ordering" yaml:"log-ordering"`
	ValidateOrdering bool `mapstructure:"validate-ordering" yaml:"validate-ordering"`
}

type PerformanceConfig struct {
	UseSEE          bool `mapstructure:"use-see" yaml:"use-see"`
	CounterMoves    bool `mapstructure:"counter-moves" yaml:"counter-moves"`
	MaxSEEExchanges int  `mapstructure:"max-see-exchanges" yaml:"max-see-exchanges"`
}

func DefaultMoveOrderingConfig() MoveOrderingConfig {
	return MoveOrderingConfig{
		PVBonus:          10_000_000,
		HashMoveBonus:    9_000_000,
		KillerBonus:      8_000_000,
		CaptureBonus:     6_000_000,
		PromotionBonus:   5_000_000,
		HistoryBonus:     2_000_000,
		CounterMoveBonus: 4096,
		Cache: CacheConfig{
			Enabled:        true,
			SEECacheSize:   1 << 14,
			ScoreCacheSize: 1 << 14,
		},
		Killer: KillerConfig{
			Enabled:     true,
			MaxPerDepth: 2,
		},
		History: HistoryConfig{
			Enabled:     true,
			MaxScore:    16384,
			AgingFactor: 0.5,
		},
		Performance: PerformanceConfig{
			UseSEE:          true,
			CounterMoves:    true,
			MaxSEEExchanges: 32,
		},
	}
}

const maxBonus = 1 << 28

func (c MoveOrderingConfig) Validate() error {
	v := &validator{record: "move-ordering"}
	checkRange(v, "pv-bonus", c.PVBonus, c.HashMoveBonus+1, maxBonus)
	checkRange(v, "hash-move-bonus", c.HashMoveBonus, c.KillerBonus+1, maxBonus)
	checkRange(v, "killer-bonus", c.KillerBonus, c.CaptureBonus+1, maxBonus)
	checkRange(v, "capture-bonus", c.CaptureBonus, c.PromotionBonus+1, maxBonus)
	checkRange(v, "promotion-bonus", c.PromotionBonus, c.HistoryBonus+1, maxBonus)
	checkRange(v, "history-bonus", c.HistoryBonus, 1, maxBonus)
	checkRange(v, "counter-move-bonus", c.CounterMoveBonus, 0, maxBonus)
	checkRange(v, "cache.see-cache-size", c.Cache.SEECacheSize, 0, 1<<24)
	checkRange(v, "cache.score-cache-size", c.Cache.ScoreCacheSize, 0, 1<<24)
	checkRange(v, "killer.max-per-depth", c.Killer.MaxPerDepth, 1, 8)
	checkRange(v, "history.max-score", c.History.MaxScore, 1, 1<<24)
	checkRange(v, "history.aging-factor", c.History.AgingFactor, 0, 1)
	checkRange(v, "history.aging-interval", c.History.AgingInterval, 0, 1<<30)
	checkRange(v, "performance.max-see-exchanges", c.Performance.MaxSEEExchanges, 2, 32)
	return v.err()
}

func NewValidatedMoveOrderingConfig(c MoveOrderingConfig) MoveOrderingConfig {
	c.HistoryBonus = lo.Clamp(c.HistoryBonus, 1, maxBonus-5)
	c.PromotionBonus = lo.Clamp(c.PromotionBonus, c.HistoryBonus+1, maxBonus-4)
	c.CaptureBonus = lo.Clamp(c.CaptureBonus, c.PromotionBonus+1, maxBonus-3)
	c.KillerBonus = lo.Clamp(c.KillerBonus, c.CaptureBonus+1, maxBonus-2)
	c.HashMoveBonus = lo.Clamp(c.HashMoveBonus, c.KillerBonus+1, maxBonus-1)
	c.PVBonus = lo.Clamp(c.PVBonus, c.HashMoveBonus+1, maxBonus)
	c.CounterMoveBonus = lo.Clamp(c.CounterMoveBonus, 0, maxBonus)
	c.Cache.SEECacheSize = lo.Clamp(c.Cache.SEECacheSize, 0, 1<<24)
	c.Cache.ScoreCacheSize = lo.Clamp(c.Cache.ScoreCacheSize, 0, 1<<24)
	c.Killer.MaxPerDepth = lo.Clamp(c.Killer.MaxPerDepth, 1, 8)
	c.History.MaxScore = lo.Clamp(c.History.MaxScore, 1, 1<<24)
	c.History.AgingFactor = lo.Clamp(c.History.AgingFactor, 0, 1)
	c.History.AgingInterval = lo.Clamp(c.History.AgingInterval, 0, 1<<30)
	c.Performance.MaxSEEExchanges = lo.Clamp(c.Performance.MaxSEEExchanges, 2, 32)
	return c
}

func (c MoveOrderingConfig) Merge(o MoveOrderingConfig) MoveOrderingConfig {
	if o == (MoveOrderingConfig{}) {
		return c
	}
	return MoveOrderingConfig{
		PVBonus:          lo.CoalesceOrEmpty(o.PVBonus, c.PVBonus),
		HashMoveBonus:    lo.CoalesceOrEmpty(o.HashMoveBonus, c.HashMoveBonus),
		KillerBonus:      lo.CoalesceOrEmpty(o.KillerBonus, c.KillerBonus),
		CaptureBonus:     lo.CoalesceOrEmpty(o.CaptureBonus, c.CaptureBonus),
		PromotionBonus:   lo.CoalesceOrEmpty(o.PromotionBonus, c.PromotionBonus),
		HistoryBonus:     lo.CoalesceOrEmpty(o.HistoryBonus, c.HistoryBonus),
		CounterMoveBonus: lo.CoalesceOrEmpty(o.CounterMoveBonus, c.CounterMoveBonus),
		Cache: CacheConfig{
			Enabled:        o.Cache.Enabled,
			SEECacheSize:   lo.CoalesceOrEmpty(o.Cache.SEECacheSize, c.Cache.SEECacheSize),
			ScoreCacheSize: lo.CoalesceOrEmpty(o.Cache.ScoreCacheSize, c.Cache.ScoreCacheSize),
		},
		Killer: KillerConfig{
			Enabled:     o.Killer.Enabled,
			MaxPerDepth: lo.CoalesceOrEmpty(o.Killer.MaxPerDepth, c.Killer.MaxPerDepth),
		},
		History: HistoryConfig{
			Enabled:       o.History.Enabled,
			MaxScore:      lo.CoalesceOrEmpty(o.History.MaxScore, c.History.MaxScore),
			AgingFactor:   lo.CoalesceOrEmpty(o.History.AgingFactor, c.History.AgingFactor),
			AgingInterval: lo.CoalesceOrEmpty(o.History.AgingInterval, c.History.AgingInterval),
		},
		Debug: o.Debug,
		Performance: PerformanceConfig{
			UseSEE:          o.Performance.UseSEE,
			CounterMoves:    o.Performance.CounterMoves,
			MaxSEEExchanges: lo.CoalesceOrEmpty(o.Performance.MaxSEEExchanges, c.Performance.MaxSEEExchanges),
		},
	}
}
