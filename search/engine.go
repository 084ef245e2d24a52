// Package search is a single-threaded iterative-deepening alpha-beta
// search with aspiration windows, null-move pruning, late move
// reductions and quiescence search.
package search

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/movegen"
	"github.com/domino14/yomi/ordering"
	"github.com/domino14/yomi/ttable"
)

var errSearchAborted = errors.New("search aborted")

// checkInterval is how many nodes pass between abort checks.
const checkInterval = 1024

// Result is the outcome of a root search.
type Result struct {
	Move  move.Move
	Score int32
	// Depth is the deepest completed iteration.
	Depth int
	PV    []move.Move
	Nodes uint64
	// Fallback is set when no move scored above alpha and the first legal
	// move was returned instead.
	Fallback bool
	// RootMoves is the root move list in the order of the last completed
	// iteration, best first.
	RootMoves []move.Move
}

type Engine struct {
	cfg      config.SearchConfig
	tt       *ttable.Table
	qtt      *ttable.Table
	gen      movegen.MoveGenerator
	ev       evaluator.Evaluator
	orderer  *ordering.Orderer
	lmr      *lmrTuner
	inflight *InFlightTable
	source   ttable.Source

	ownStop atomic.Bool
	stop    *atomic.Bool

	// per-search state
	ctx         context.Context
	deadline    time.Time
	rootPly     int
	checkNodes  int
	aborted     bool
	aspDisabled bool
	aspSamples  int
	aspFails    int

	pvCache  map[uint64]move.Move
	pvLines  [MaxPly + 1]PVLine
	moveBufs [MaxPly + 1][]move.Move
	scratch  []move.Move

	stats     SearchStats
	logStream io.Writer
}

// New creates an engine. cfg is clamped into range. A nil tt gets a
// private table sized by cfg.Transposition.
func New(cfg config.SearchConfig, tt *ttable.Table, gen movegen.MoveGenerator, ev evaluator.Evaluator) *Engine {
	cfg = config.NewValidatedSearchConfig(cfg)
	if tt == nil {
		tt = ttable.New(cfg.Transposition)
	}
	var psq evaluator.PieceSquareScorer
	if s, ok := ev.(evaluator.PieceSquareScorer); ok {
		psq = s
	}
	e := &Engine{
		cfg:     cfg,
		tt:      tt,
		gen:     gen,
		ev:      ev,
		orderer: ordering.NewOrderer(cfg.Ordering, psq),
		lmr:     newLMRTuner(cfg.LMR),
		source:  ttable.SourceMainSearch,
		ctx:     context.Background(),
		pvCache: make(map[uint64]move.Move),
		scratch: make([]move.Move, 0, 256),
	}
	e.stop = &e.ownStop
	e.qtt = newQuiescenceTable(cfg.Pruning)
	for i := range e.moveBufs {
		e.moveBufs[i] = make([]move.Move, 0, 128)
	}
	return e
}

func newQuiescenceTable(p config.PruningParameters) *ttable.Table {
	if p.QuiescenceTableMB == 0 {
		return nil
	}
	return ttable.NewWithMB(p.QuiescenceTableMB, config.PolicyDepthPreferred)
}

// SetStopFlag makes the engine poll a shared flag instead of its own.
func (e *Engine) SetStopFlag(stop *atomic.Bool) {
	e.stop = stop
}

// SetInFlightTable enables deferring moves that other workers sharing t
// are already searching.
func (e *Engine) SetInFlightTable(t *InFlightTable) {
	e.inflight = t
}

// SetSource sets the tag written into transposition table entries.
func (e *Engine) SetSource(s ttable.Source) {
	e.source = s
}

// SetLogStream makes the engine write a YAML document per completed
// iteration to w.
func (e *Engine) SetLogStream(w io.Writer) {
	e.logStream = w
}

// Stop asks a running search to return as soon as possible.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

func (e *Engine) Config() config.SearchConfig {
	return e.cfg
}

func (e *Engine) TranspositionTable() *ttable.Table {
	return e.tt
}

func (e *Engine) Orderer() *ordering.Orderer {
	return e.orderer
}

func (e *Engine) UpdateAspirationConfig(c config.AspirationWindowConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.cfg.Aspiration = c
	e.aspDisabled = false
	e.aspSamples, e.aspFails = 0, 0
	return nil
}

func (e *Engine) UpdateLMRConfig(c config.LMRConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.cfg.LMR = c
	e.lmr = newLMRTuner(c)
	return nil
}

func (e *Engine) UpdateNullMoveConfig(c config.NullMoveConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.cfg.NullMove = c
	return nil
}

func (e *Engine) UpdatePruningConfig(c config.PruningParameters) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.QuiescenceTableMB != e.cfg.Pruning.QuiescenceTableMB {
		e.qtt = newQuiescenceTable(c)
	}
	e.cfg.Pruning = c
	return nil
}

func (e *Engine) UpdateMoveOrderingConfig(c config.MoveOrderingConfig) error {
	if err := e.orderer.UpdateConfig(c); err != nil {
		return err
	}
	e.cfg.Ordering = c
	return nil
}

func (e *Engine) UpdateParallelConfig(c config.ParallelConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.cfg.Parallel = c
	return nil
}

func (e *Engine) Stats() SearchStats {
	return e.stats
}

func (e *Engine) OrderingStats() ordering.Stats {
	return e.orderer.Stats()
}

func (e *Engine) TTStats() ttable.Stats {
	return e.tt.Stats()
}

func (e *Engine) ResetStats() {
	e.stats = SearchStats{}
	e.orderer.ResetStats()
	e.aspDisabled = false
	e.aspSamples, e.aspFails = 0, 0
}

// ResetHeuristics forgets everything learned from earlier searches except
// the shared transposition table.
func (e *Engine) ResetHeuristics() {
	e.orderer.Reset()
	e.lmr.reset()
	clear(e.pvCache)
	if e.qtt != nil {
		e.qtt.Clear()
	}
}

// Nodes is the total of main and quiescence nodes searched so far.
func (e *Engine) Nodes() uint64 {
	return e.stats.Nodes + e.stats.QNodes
}

func (e *Engine) begin(ctx context.Context, pos *board.Position, timeLimit time.Duration) {
	e.ctx = ctx
	e.deadline = time.Time{}
	if timeLimit > 0 {
		e.deadline = time.Now().Add(timeLimit)
	}
	if d, ok := ctx.Deadline(); ok && (e.deadline.IsZero() || d.Before(e.deadline)) {
		e.deadline = d
	}
	e.rootPly = pos.Ply()
	e.checkNodes = 0
	e.aborted = false
}

// shouldAbort is polled from the search loops.
func (e *Engine) shouldAbort() bool {
	if e.aborted {
		return true
	}
	e.checkNodes++
	if e.checkNodes < checkInterval {
		return false
	}
	e.checkNodes = 0
	if e.stop.Load() || e.ctx.Err() != nil ||
		(!e.deadline.IsZero() && time.Now().After(e.deadline)) {
		e.aborted = true
	}
	return e.aborted
}

// SearchAtDepth searches pos to depth and returns the best move. ok is
// false only when the side to move has no legal moves. pos is restored
// before returning. A zero timeLimit means no time limit.
func (e *Engine) SearchAtDepth(ctx context.Context, pos *board.Position, depth int, timeLimit time.Duration,
	alpha, beta int32) (Result, bool) {

	moves := e.gen.GenerateLegalMoves(pos, nil)
	return e.SearchRootMoves(ctx, pos, moves, depth, timeLimit, alpha, beta)
}

// SearchRootMoves is SearchAtDepth over a caller-supplied list of legal
// root moves.
func (e *Engine) SearchRootMoves(ctx context.Context, pos *board.Position, moves []move.Move, depth int,
	timeLimit time.Duration, alpha, beta int32) (Result, bool) {

	if len(moves) == 0 {
		return Result{}, false
	}
	tstart := time.Now()
	depth = lo.Clamp(depth, 1, min(config.MaxDepth, MaxPly-1))
	alpha, beta = normalizeWindow(alpha, beta)
	e.begin(ctx, pos, timeLimit)
	e.tt.NewSearch()
	e.orderer.NewSearch()
	clear(e.pvCache)
	startNodes := e.Nodes()

	rootMoves := append([]move.Move(nil), moves...)
	first := moves[0]

	var enc *yaml.Encoder
	if e.logStream != nil {
		enc = yaml.NewEncoder(e.logStream)
		defer enc.Close()
	}

	res := Result{Move: move.Null}
	var prevScore int32
	for d := 1; d <= depth; d++ {
		log.Debug().Int("depth", d).Msg("deepening-iteratively")
		iterStart := e.Nodes()
		hashMove := move.Null
		if entry, ok := e.tt.Lookup(pos.Hash()); ok {
			hashMove = entry.BestMove
		}
		rootMoves = e.orderer.OrderMoves(pos, rootMoves, ordering.Hints{
			PVMove: res.Move, HashMove: hashMove, Ply: 0, PrevMove: pos.LastMove()})

		asp := NewAspirationWindowState(e.cfg.Aspiration, alpha, beta)
		useAsp := e.cfg.Aspiration.Enabled && !e.aspDisabled && d >= e.cfg.Aspiration.MinDepth && res.Depth > 0
		if useAsp {
			asp.Center(prevScore, d)
		}

		var score int32
		var best move.Move
		var err error
		for {
			if !asp.IsFull() {
				e.stats.AspirationSearches++
			}
			score, best, err = e.searchRoot(pos, rootMoves, d, asp.Alpha, asp.Beta)
			if err != nil {
				break
			}
			failedLow, failedHigh := asp.FailedLow(score), asp.FailedHigh(score)
			if !failedLow && !failedHigh {
				if useAsp {
					e.recordAspiration(false)
				}
				break
			}
			e.recordAspiration(true)
			if asp.Exhausted() {
				e.stats.AspirationFallbacks++
				asp.FullWindow()
				continue
			}
			e.stats.AspirationReSearches++
			if failedLow {
				e.stats.AspirationFailLows++
				asp.FailLow(score)
			} else {
				e.stats.AspirationFailHighs++
				asp.FailHigh(score)
			}
		}
		if err != nil {
			if res.Depth == 0 && !best.IsNull() {
				res.Move, res.Score = best, score
			}
			log.Debug().Int("depth", d).Msg("iteration-aborted")
			break
		}

		rootMoves = moveToFront(rootMoves, best)
		res.Move, res.Score, res.Depth = best, score, d
		res.PV = append(res.PV[:0], e.pvLines[0].Moves...)
		res.RootMoves = append(res.RootMoves[:0], rootMoves...)
		prevScore = score
		e.stats.Iterations++
		e.stats.NodesPerIteration.Push(float64(e.Nodes() - iterStart))
		e.refreshPVCache(pos, e.pvLines[0])
		if e.cfg.Ordering.History.AgingInterval == 0 {
			e.orderer.AgeHistory()
		}
		e.lmr.tune()

		log.Debug().Int("depth", d).Int32("score", score).Str("move", best.String()).
			Str("pv", e.pvLines[0].String()).Int("researches", asp.Researches).Msg("best-val")
		if enc != nil {
			e.trace(enc, d, asp, score, best, e.Nodes()-iterStart, time.Since(tstart))
		}
	}

	if res.Move.IsNull() || res.Score <= alpha {
		// nothing beat alpha, or not even depth 1 finished
		res.Move, res.Fallback = first, true
	}
	res.Score = max(alpha, min(res.Score, beta))
	res.Nodes = e.Nodes() - startNodes
	if len(res.RootMoves) == 0 {
		res.RootMoves = rootMoves
	}

	log.Debug().
		Int("depth", res.Depth).
		Str("move", res.Move.String()).
		Int32("score", res.Score).
		Bool("fallback", res.Fallback).
		Uint64("nodes", res.Nodes).
		Float64("tt-hit-rate", e.tt.Stats().HitRate()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("search-returning")
	return res, true
}

// recordAspiration feeds the auto-disable check. Persistent failures turn
// aspiration windows off until the stats are reset.
func (e *Engine) recordAspiration(failed bool) {
	e.aspSamples++
	if failed {
		e.aspFails++
	}
	c := e.cfg.Aspiration
	if !e.aspDisabled && e.aspSamples >= c.DisableMinSamples &&
		float64(e.aspFails)/float64(e.aspSamples) >= c.DisableFailRate {
		e.aspDisabled = true
		e.stats.AspirationDisabled = true
		log.Warn().Int("samples", e.aspSamples).Int("fails", e.aspFails).Msg("aspiration-windows-disabled")
	}
}

// SearchMove returns the score of root move m searched to depth within
// [alpha, beta], from the point of view of the side playing m. A search
// cut short by the stop flag, the context or its deadline returns
// errSearchAborted.
func (e *Engine) SearchMove(ctx context.Context, pos *board.Position, m move.Move, depth int,
	alpha, beta int32) (int32, error) {

	e.begin(ctx, pos, 0)
	alpha, beta = normalizeWindow(alpha, beta)
	depth = lo.Clamp(depth, 1, min(config.MaxDepth, MaxPly-1))
	pos.Play(m)
	child, err := e.negamax(pos, depth-1, 1, satNeg(beta), satNeg(alpha), true, true)
	pos.Unplay()
	if err != nil {
		return 0, err
	}
	score := satNeg(child)
	e.pvLines[0].Update(m, &e.pvLines[1])
	return score, nil
}

// IsAborted reports whether err came from an interrupted search.
func IsAborted(err error) bool {
	return errors.Is(err, errSearchAborted)
}

// PV returns the line found by the last SearchMove or iteration.
func (e *Engine) PV() PVLine {
	return PVLine{Moves: append([]move.Move(nil), e.pvLines[0].Moves...)}
}

// moveToFront moves m to index 0, keeping the relative order of the rest.
func moveToFront(moves []move.Move, m move.Move) []move.Move {
	for i := range moves {
		if moves[i] == m {
			copy(moves[1:i+1], moves[:i])
			moves[0] = m
			break
		}
	}
	return moves
}
