// Package parallel spreads a root search over several workers with the
// young brothers wait concept: the first root move is searched alone, and
// only then are its younger brothers handed out through work-stealing
// deques.
package parallel

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/movegen"
	"github.com/domino14/yomi/search"
	"github.com/domino14/yomi/ttable"
)

type worker struct {
	id     int
	engine *search.Engine
	deque  *WorkDeque
	units  atomic.Uint64
}

// ThreadStats are one worker's counters.
type ThreadStats struct {
	DequeStats
	Units uint64
	Nodes uint64
}

type Stats struct {
	Threads     []ThreadStats
	Splits      uint64
	Timeouts    uint64
	Aborts      uint64
	Sequential  uint64
	StolenUnits uint64
}

type Engine struct {
	cfg      config.SearchConfig
	tt       *ttable.Table
	gen      movegen.MoveGenerator
	workers  []*worker
	inflight *search.InFlightTable
	stop     atomic.Bool

	splits     atomic.Uint64
	timeouts   atomic.Uint64
	aborts     atomic.Uint64
	sequential atomic.Uint64

	// node counts per root move of the last split, in generation order
	rootNodes []uint64
}

// New creates a parallel engine with cfg.Parallel.Threads workers,
// clamped to [1, config.MaxThreads]. Every worker shares tt, which is
// created from cfg when nil.
func New(cfg config.SearchConfig, tt *ttable.Table, gen movegen.MoveGenerator, ev evaluator.Evaluator) *Engine {
	cfg = config.NewValidatedSearchConfig(cfg)
	if tt == nil {
		tt = ttable.New(cfg.Transposition)
	}
	e := &Engine{
		cfg: cfg,
		tt:  tt,
		gen: gen,
	}
	threads := lo.Clamp(cfg.Parallel.Threads, 1, config.MaxThreads)
	if threads > 1 {
		e.inflight = search.NewInFlightTable()
	}
	e.workers = lo.Times(threads, func(i int) *worker {
		se := search.New(cfg, tt, gen, ev)
		se.SetStopFlag(&e.stop)
		if e.inflight != nil {
			se.SetInFlightTable(e.inflight)
		}
		if i > 0 {
			se.SetSource(ttable.SourceWorker)
		}
		return &worker{id: i, engine: se, deque: NewWorkDeque()}
	})
	log.Debug().Int("threads", threads).Msg("parallel-engine-created")
	return e
}

func (e *Engine) Threads() int {
	return len(e.workers)
}

// Main returns the engine of worker 0, which runs the warm-up, the oldest
// brother and every unsplit search.
func (e *Engine) Main() *search.Engine {
	return e.workers[0].engine
}

// Stop raises the shared stop flag.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

func (e *Engine) TTStats() ttable.Stats {
	return e.tt.Stats()
}

func (e *Engine) Stats() Stats {
	st := Stats{
		Splits:     e.splits.Load(),
		Timeouts:   e.timeouts.Load(),
		Aborts:     e.aborts.Load(),
		Sequential: e.sequential.Load(),
	}
	st.Threads = lo.Map(e.workers, func(w *worker, _ int) ThreadStats {
		ds := w.deque.Stats()
		st.StolenUnits += ds.Steals
		return ThreadStats{DequeStats: ds, Units: w.units.Load(), Nodes: w.engine.Nodes()}
	})
	return st
}

// RootMoveNodes returns the nodes spent on each root move of the last
// split, in the order the moves were passed in. Moves that were never
// searched count zero.
func (e *Engine) RootMoveNodes() []uint64 {
	return e.rootNodes
}

// ResetHeuristics resets every worker between unrelated searches.
func (e *Engine) ResetHeuristics() {
	for _, w := range e.workers {
		w.engine.ResetHeuristics()
	}
}

// SearchAtDepth searches every legal move of pos. ok is false only when
// there are none.
func (e *Engine) SearchAtDepth(ctx context.Context, pos *board.Position, depth int, timeLimit time.Duration,
	alpha, beta int32) (move.Move, int32, bool) {

	moves := e.gen.GenerateLegalMoves(pos, nil)
	return e.SearchRootMoves(ctx, pos, moves, depth, timeLimit, alpha, beta)
}

// SearchRootMoves returns the best of moves and its score. Searches that
// are too small to split run on worker 0 alone.
func (e *Engine) SearchRootMoves(ctx context.Context, pos *board.Position, moves []move.Move, depth int,
	timeLimit time.Duration, alpha, beta int32) (move.Move, int32, bool) {

	if len(moves) == 0 {
		return move.Null, 0, false
	}
	tstart := time.Now()
	e.stop.Store(false)
	for _, w := range e.workers {
		w.engine.Orderer().NewSearch()
	}
	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}
	defer context.AfterFunc(ctx, func() { e.stop.Store(true) })()

	depth = lo.Clamp(depth, 1, config.MaxDepth)
	alpha, beta = window(alpha, beta)
	main := e.Main()
	e.rootNodes = make([]uint64, len(moves))

	if len(e.workers) == 1 || len(moves) == 1 || depth < max(2, e.cfg.Parallel.MinSplitDepth) {
		e.sequential.Add(1)
		res, ok := main.SearchRootMoves(ctx, pos, moves, depth, 0, alpha, beta)
		return res.Move, res.Score, ok
	}

	// warm-up: order the root moves with a shallower search
	warm, _ := main.SearchRootMoves(ctx, pos, moves, depth-1, 0, alpha, beta)
	if e.stop.Load() || ctx.Err() != nil {
		return warm.Move, warm.Score, true
	}
	ordered := warm.RootMoves
	genIndex := make(map[move.Move]int, len(moves))
	for i, m := range moves {
		genIndex[m] = i
	}

	// the oldest brother runs alone
	deadline, _ := ctx.Deadline()
	oldest := &WorkUnit{
		Pos:             pos,
		Move:            ordered[0],
		Alpha:           alpha,
		Beta:            beta,
		Depth:           depth,
		Deadline:        deadline,
		IsOldestBrother: true,
		Index:           genIndex[ordered[0]],
	}
	best, err := e.searchUnit(ctx, e.workers[0], oldest, nil)
	if err != nil {
		return warm.Move, warm.Score, true
	}
	e.rootNodes[best.Index] = best.Nodes
	if best.Score >= beta {
		return e.finish(moves, best, alpha, beta, tstart)
	}

	e.splits.Add(1)
	sp := NewSplitPoint(len(ordered)-1, max(alpha, best.Score), &e.stop)
	units := lo.Map(ordered[1:], func(m move.Move, _ int) *WorkUnit {
		return &WorkUnit{
			Pos:      pos.Copy(),
			Move:     m,
			Alpha:    alpha,
			Beta:     beta,
			Depth:    depth,
			Deadline: deadline,
			Index:    genIndex[m],
		}
	})
	e.distribute(units)
	log.Debug().Int("units", len(units)).Int("threads", len(e.workers)).
		Str("oldest-brother", oldest.Move.String()).Int32("alpha", sp.Alpha()).Msg("ybwc-split")

	g := errgroup.Group{}
	for _, w := range e.workers {
		g.Go(func() error {
			e.runWorker(ctx, w, sp)
			return nil
		})
	}
	var budget time.Duration
	if !deadline.IsZero() {
		budget = time.Until(deadline)
	}
	wr := sp.WaitForComplete(budget)
	switch wr.Status {
	case Timeout:
		e.timeouts.Add(1)
		e.stop.Store(true)
	case Aborted:
		e.aborts.Add(1)
		e.stop.Store(true)
	}
	if err := g.Wait(); err != nil {
		log.Err(err).Msg("worker-failed")
	}

	for _, r := range sp.Results() {
		e.rootNodes[r.Index] = r.Nodes
		if better(r, best) {
			best = r
		}
	}
	return e.finish(moves, best, alpha, beta, tstart)
}

func (e *Engine) finish(moves []move.Move, best UnitResult, alpha, beta int32,
	tstart time.Time) (move.Move, int32, bool) {

	m, score := best.Move, max(alpha, min(best.Score, beta))
	if best.Score <= alpha {
		m = moves[0]
	}
	log.Debug().
		Str("move", m.String()).
		Int32("score", score).
		Int("worker", best.Worker).
		Uint64("splits", e.splits.Load()).
		Float64("tt-hit-rate", e.tt.Stats().HitRate()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("parallel-search-returning")
	return m, score, true
}

// better orders results by score, then exact over bounded, then
// generation order.
func better(a, b UnitResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if (a.Bound == ttable.Exact) != (b.Bound == ttable.Exact) {
		return a.Bound == ttable.Exact
	}
	return a.Index < b.Index
}

func boundOf(score, alpha, beta int32) ttable.Bound {
	switch {
	case score <= alpha:
		return ttable.UpperBound
	case score >= beta:
		return ttable.LowerBound
	}
	return ttable.Exact
}

// window normalizes a caller's window the way the sequential engine does.
func window(alpha, beta int32) (int32, int32) {
	alpha, beta = max(alpha, -search.Infinity), min(beta, search.Infinity)
	if alpha >= beta {
		return -search.Infinity, search.Infinity
	}
	return alpha, beta
}

// distribute hands units to the worker deques. Each deque receives its
// units in reverse so that the owner pops the most promising first and
// thieves take the least promising.
func (e *Engine) distribute(units []*WorkUnit) {
	assigned := make([][]*WorkUnit, len(e.workers))
	load := lo.Map(e.workers, func(w *worker, _ int) int { return w.deque.Size() })
	for i, u := range units {
		var to int
		switch e.cfg.Parallel.Distribution {
		case config.DistributeLeastLoaded:
			to = slices.Index(load, slices.Min(load))
		default:
			to = i % len(e.workers)
		}
		assigned[to] = append(assigned[to], u)
		load[to]++
	}
	for i, list := range assigned {
		for j := len(list) - 1; j >= 0; j-- {
			e.workers[i].deque.Push(list[j])
		}
	}
}

func (e *Engine) runWorker(ctx context.Context, w *worker, sp *SplitPoint) {
	for !e.stop.Load() {
		u, ok := w.deque.Pop()
		if !ok {
			u, ok = e.steal(w)
		}
		if !ok {
			return
		}
		r, err := e.searchUnit(ctx, w, u, sp)
		if err != nil {
			log.Debug().Int("worker", w.id).Str("move", u.Move.String()).Msg("unit-aborted")
			return
		}
		w.units.Add(1)
		sp.MarkComplete(r)
	}
}

func (e *Engine) steal(w *worker) (*WorkUnit, bool) {
	n := len(e.workers)
	for k := 1; k < n; k++ {
		if u, ok := e.workers[(w.id+k)%n].deque.Steal(); ok {
			return u, true
		}
	}
	return nil, false
}

// searchUnit searches u to its deadline. The oldest brother gets the full
// window. Younger brothers are scouted with a null window at the split's
// alpha and re-searched with the full window when the scout beats it.
func (e *Engine) searchUnit(ctx context.Context, w *worker, u *WorkUnit, sp *SplitPoint) (UnitResult, error) {
	if !u.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, u.Deadline)
		defer cancel()
	}
	se := w.engine
	before := se.Nodes()
	a := u.Alpha
	if sp != nil {
		a = max(a, sp.Alpha())
	}

	var score int32
	var err error
	bound := ttable.UpperBound
	if u.IsOldestBrother {
		if score, err = se.SearchMove(ctx, u.Pos, u.Move, u.Depth, a, u.Beta); err != nil {
			return UnitResult{}, err
		}
		bound = boundOf(score, a, u.Beta)
	} else {
		if score, err = se.SearchMove(ctx, u.Pos, u.Move, u.Depth, a, a+1); err != nil {
			return UnitResult{}, err
		}
		if score > a {
			if score, err = se.SearchMove(ctx, u.Pos, u.Move, u.Depth, a, u.Beta); err != nil {
				return UnitResult{}, err
			}
			bound = boundOf(score, a, u.Beta)
		}
	}
	return UnitResult{
		Move:   u.Move,
		Index:  u.Index,
		Score:  score,
		Bound:  bound,
		Worker: w.id,
		Nodes:  se.Nodes() - before,
	}, nil
}
