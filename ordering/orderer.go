// Package ordering sorts moves so that alpha-beta search finds cutoffs
// early. An Orderer and its heuristic tables belong to a single search
// goroutine and are never shared.
package ordering

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/tinymove"
)

// Hints carries what the search knows about the node being ordered.
type Hints struct {
	PVMove   move.Move
	HashMove move.Move
	Ply      int
	// PrevMove is the opponent's move leading to this node.
	PrevMove move.Move
}

type Stats struct {
	Orderings        uint64
	SEECalculations  uint64
	SEECacheHits     uint64
	SEECacheMisses   uint64
	ScoreCacheHits   uint64
	ScoreCacheMisses uint64
	OrderingErrors   uint64
}

type scoredMove struct {
	m     move.Move
	score int32
}

type Orderer struct {
	cfg      config.MoveOrderingConfig
	psq      evaluator.PieceSquareScorer
	killers  *KillerTable
	history  *HistoryTable
	counters *CounterMoveTable

	seeCache   *moveCache
	scoreCache *moveCache

	scratch []scoredMove
	stats   Stats
}

// NewOrderer creates an orderer. psq scores quiet moves that have no
// history; it may be nil.
func NewOrderer(cfg config.MoveOrderingConfig, psq evaluator.PieceSquareScorer) *Orderer {
	o := &Orderer{psq: psq, scratch: make([]scoredMove, 0, 256)}
	o.setConfig(cfg)
	return o
}

func (o *Orderer) setConfig(cfg config.MoveOrderingConfig) {
	o.cfg = cfg
	o.killers = NewKillerTable(cfg.Killer.MaxPerDepth)
	o.history = NewHistoryTable(cfg.History.MaxScore, cfg.History.AgingFactor, cfg.History.AgingInterval)
	o.counters = NewCounterMoveTable()
	o.seeCache, o.scoreCache = nil, nil
	if cfg.Cache.Enabled {
		o.seeCache = newMoveCache(cfg.Cache.SEECacheSize)
		o.scoreCache = newMoveCache(cfg.Cache.ScoreCacheSize)
	}
}

// UpdateConfig validates cfg and installs it. Heuristic tables are reset.
func (o *Orderer) UpdateConfig(cfg config.MoveOrderingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.setConfig(cfg)
	return nil
}

func (o *Orderer) Config() config.MoveOrderingConfig {
	return o.cfg
}

// OrderMoves sorts moves in place by descending priority and returns
// them. Moves with equal priority keep their generation order.
func (o *Orderer) OrderMoves(pos *board.Position, moves []move.Move, h Hints) []move.Move {
	o.stats.Orderings++
	if len(moves) < 2 {
		return moves
	}
	o.scratch = o.scratch[:0]
	for _, m := range moves {
		o.scratch = append(o.scratch, scoredMove{m: m, score: o.Score(pos, m, h)})
	}
	sort.SliceStable(o.scratch, func(i, j int) bool {
		return o.scratch[i].score > o.scratch[j].score
	})
	for i := range o.scratch {
		moves[i] = o.scratch[i].m
	}
	if o.cfg.Debug.ValidateOrdering {
		o.validate()
	}
	if o.cfg.Debug.LogOrdering {
		log.Debug().Int("ply", h.Ply).Int("num-moves", len(moves)).
			Str("first", moves[0].String()).Int32("first-score", o.scratch[0].score).
			Msg("ordered-moves")
	}
	return moves
}

func (o *Orderer) validate() {
	for i := 1; i < len(o.scratch); i++ {
		if o.scratch[i].score > o.scratch[i-1].score {
			o.stats.OrderingErrors++
			log.Error().Int("index", i).Str("move", o.scratch[i].m.String()).
				Msg("move-ordering-not-descending")
			return
		}
	}
}

// Score returns the ordering priority of m. The bands from the move
// ordering config never overlap.
func (o *Orderer) Score(pos *board.Position, m move.Move, h Hints) int32 {
	if !h.PVMove.IsNull() && m.SameAction(h.PVMove) {
		return o.cfg.PVBonus
	}
	if !h.HashMove.IsNull() && m.SameAction(h.HashMove) {
		return o.cfg.HashMoveBonus
	}
	if o.cfg.Killer.Enabled && m.IsQuiet() {
		if k := o.killers.Index(h.Ply, m); k >= 0 {
			return within(o.cfg.KillerBonus-int32(k), o.cfg.CaptureBonus, o.cfg.HashMoveBonus)
		}
	}
	if m.IsCapture() {
		if o.cfg.Performance.UseSEE {
			return within(o.cfg.CaptureBonus+o.CalculateSEE(pos, m), o.cfg.PromotionBonus, o.cfg.KillerBonus)
		}
		return within(o.cfg.CaptureBonus+mvvLVA(m), o.cfg.PromotionBonus, o.cfg.KillerBonus)
	}
	if m.IsPromotion() {
		return within(o.cfg.PromotionBonus+promotionGain(m), o.cfg.HistoryBonus, o.cfg.CaptureBonus)
	}

	var counter int32
	if o.cfg.Performance.CounterMoves && !h.PrevMove.IsNull() &&
		o.counters.Counter(h.PrevMove).SameAction(m) {
		counter = o.cfg.CounterMoveBonus
	}
	if o.cfg.History.Enabled {
		if hs := o.history.Score(m); hs > 0 {
			return within(o.cfg.HistoryBonus+hs+counter, o.cfg.HistoryBonus-1, o.cfg.PromotionBonus)
		}
	}
	return min(o.staticScore(pos, m)+counter, o.cfg.HistoryBonus-1)
}

// within clamps v into the open interval (floor, ceil).
func within(v, floor, ceil int32) int32 {
	return max(floor+1, min(v, ceil-1))
}

func mvvLVA(m move.Move) int32 {
	return 16*evaluator.Value(m.Captured()) - evaluator.Value(m.Piece())
}

func (o *Orderer) staticScore(pos *board.Position, m move.Move) int32 {
	if o.psq == nil {
		return 0
	}
	tm := tinymove.FromMove(m)
	if v, ok := o.scoreCache.get(pos.Hash(), tm); ok {
		return v
	}
	v := o.psq.PieceSquareDelta(pos, m)
	o.scoreCache.put(pos.Hash(), tm, v)
	return v
}

// CalculateSEE returns the static exchange value of m in pos from the
// mover's point of view. Results are cached per position and move.
func (o *Orderer) CalculateSEE(pos *board.Position, m move.Move) int32 {
	tm := tinymove.FromMove(m)
	if v, ok := o.seeCache.get(pos.Hash(), tm); ok {
		return v
	}
	o.stats.SEECalculations++
	v := staticExchange(pos, m, o.cfg.Performance.MaxSEEExchanges)
	o.seeCache.put(pos.Hash(), tm, v)
	return v
}

// UpdateHistory credits a quiet move that caused a cutoff at depth.
func (o *Orderer) UpdateHistory(m move.Move, depth int) {
	if o.cfg.History.Enabled {
		o.history.Update(m, depth)
	}
}

// AgeHistory decays every history entry by the configured factor.
func (o *Orderer) AgeHistory() {
	o.history.Age()
}

func (o *Orderer) UpdateKiller(m move.Move, ply int) {
	if o.cfg.Killer.Enabled {
		o.killers.Update(ply, m)
	}
}

// UpdateCounterMove records reply as the refutation of prev.
func (o *Orderer) UpdateCounterMove(prev, reply move.Move) {
	if o.cfg.Performance.CounterMoves {
		o.counters.Update(prev, reply)
	}
}

// IsKiller returns true if m is a killer at ply.
func (o *Orderer) IsKiller(m move.Move, ply int) bool {
	return o.cfg.Killer.Enabled && o.killers.Index(ply, m) >= 0
}

func (o *Orderer) HistoryScore(m move.Move) int32 {
	return o.history.Score(m)
}

func (o *Orderer) Killers() *KillerTable {
	return o.killers
}

func (o *Orderer) History() *HistoryTable {
	return o.history
}

// NewSearch clears the killer, history and counter-move tables at the
// start of a top-level search. The SEE and score caches stay valid.
func (o *Orderer) NewSearch() {
	o.killers.Clear()
	o.history.Clear()
	o.counters.Clear()
}

// CounterMove returns the recorded reply to prev, or move.Null.
func (o *Orderer) CounterMove(prev move.Move) move.Move {
	return o.counters.Counter(prev)
}

// Reset clears the killer, history and counter-move tables and the
// caches. It is called between independent searches.
func (o *Orderer) Reset() {
	o.killers.Clear()
	o.history.Clear()
	o.counters.Clear()
	o.seeCache.clear()
	o.scoreCache.clear()
}

func (o *Orderer) Stats() Stats {
	s := o.stats
	if o.seeCache != nil {
		s.SEECacheHits, s.SEECacheMisses = o.seeCache.hits, o.seeCache.misses
	}
	if o.scoreCache != nil {
		s.ScoreCacheHits, s.ScoreCacheMisses = o.scoreCache.hits, o.scoreCache.misses
	}
	return s
}

func (o *Orderer) ResetStats() {
	o.stats = Stats{}
	if o.seeCache != nil {
		o.seeCache.hits, o.seeCache.misses = 0, 0
	}
	if o.scoreCache != nil {
		o.scoreCache.hits, o.scoreCache.misses = 0, 0
	}
}
