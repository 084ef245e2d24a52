package search

import (
	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/ordering"
	"github.com/domino14/yomi/ttable"
)

// searchRoot runs one iteration over the ordered root moves. On abort it
// returns the best move found so far together with the error.
func (e *Engine) searchRoot(pos *board.Position, moves []move.Move, depth int, alpha, beta int32) (int32, move.Move, error) {
	e.pvLines[0].Clear()
	origAlpha := alpha
	bestScore, best := -Infinity, move.Null

	for i, m := range moves {
		pos.Play(m)
		var score int32
		var err error
		if i == 0 {
			score, err = e.negamax(pos, depth-1, 1, satNeg(beta), satNeg(alpha), true, true)
			score = satNeg(score)
		} else {
			score, err = e.negamax(pos, depth-1, 1, satNeg(satAdd(alpha, 1)), satNeg(alpha), false, true)
			score = satNeg(score)
			if err == nil && score > alpha && score < beta {
				score, err = e.negamax(pos, depth-1, 1, satNeg(beta), satNeg(alpha), true, true)
				score = satNeg(score)
			}
		}
		pos.Unplay()
		if err != nil {
			return bestScore, best, err
		}
		if score > bestScore {
			bestScore, best = score, m
		}
		if score > alpha {
			alpha = score
			e.pvLines[0].Update(m, &e.pvLines[1])
			if alpha >= beta {
				break
			}
		}
	}
	if len(e.pvLines[0].Moves) == 0 {
		e.pvLines[0].Update(best, &PVLine{})
	}

	e.tt.Store(ttable.Entry{
		Hash:     pos.Hash(),
		Score:    scoreToTT(bestScore, 0),
		Depth:    depth,
		Bound:    boundFor(bestScore, origAlpha, beta),
		BestMove: best,
		Source:   e.source,
	})
	return bestScore, best, nil
}

func boundFor(score, origAlpha, beta int32) ttable.Bound {
	switch {
	case score <= origAlpha:
		return ttable.UpperBound
	case score >= beta:
		return ttable.LowerBound
	}
	return ttable.Exact
}

// negamax is a fail-soft principal variation search. Scores are from the
// point of view of the side to move.
func (e *Engine) negamax(pos *board.Position, depth, ply int, alpha, beta int32, pvNode, allowNull bool) (int32, error) {
	if ply >= MaxPly-1 {
		return e.ev.Evaluate(pos), nil
	}
	if depth <= 0 {
		return e.quiescence(pos, ply, 0, alpha, beta)
	}
	e.pvLines[ply].Clear()
	e.stats.Nodes++
	if e.shouldAbort() {
		return 0, errSearchAborted
	}
	if pos.HasRepeated() {
		return DrawScore, nil
	}

	// mate distance pruning
	alpha = max(alpha, matedIn(ply))
	beta = min(beta, satNeg(matedIn(ply+1)))
	if alpha >= beta {
		return alpha, nil
	}

	hash := pos.Hash()
	pvMove, hashMove := move.Null, move.Null
	if m, ok := e.pvCache[hash]; ok {
		pvMove = m
	}
	if entry, ok := e.tt.Lookup(hash); ok {
		hashMove = entry.BestMove
		if !pvNode && entry.Depth >= depth {
			s := scoreFromTT(entry.Score, ply)
			switch entry.Bound {
			case ttable.Exact:
				e.stats.TTCutoffs++
				return s, nil
			case ttable.LowerBound:
				alpha = max(alpha, s)
			case ttable.UpperBound:
				beta = min(beta, s)
			}
			if alpha >= beta {
				e.stats.TTCutoffs++
				return s, nil
			}
		}
	}
	origAlpha := alpha

	inCheck := pos.InCheck()
	var staticEval int32
	if !inCheck {
		staticEval = e.ev.Evaluate(pos)
	}

	if !pvNode && allowNull && !inCheck {
		if s, ok, err := e.tryNullMove(pos, depth, ply, beta, staticEval); err != nil {
			return 0, err
		} else if ok {
			return s, nil
		}
	}

	moves := e.gen.GenerateLegalMoves(pos, e.moveBufs[ply][:0])
	e.moveBufs[ply] = moves
	if len(moves) == 0 {
		// no legal moves loses in shogi, check or not
		return matedIn(ply), nil
	}
	prev := pos.LastMove()
	moves = e.orderer.OrderMoves(pos, moves, ordering.Hints{
		PVMove: pvMove, HashMove: hashMove, Ply: ply, PrevMove: prev})

	bestScore, bestMove := -Infinity, move.Null
	searched := 0
	var deferred []move.Move

outer:
	for pass := 0; pass < 2; pass++ {
		list := moves
		if pass == 1 {
			list = deferred
		}
		for _, m := range list {
			if pass == 0 && e.inflight != nil && searched > 0 && depth >= e.cfg.Parallel.DeferDepth &&
				e.inflight.Busy(hash, m, depth) {
				deferred = append(deferred, m)
				e.stats.DeferredMoves++
				continue
			}
			if e.inflight != nil {
				e.inflight.Begin(hash, m, depth)
			}
			score, err := e.searchChild(pos, m, searched, depth, ply, alpha, beta, pvNode, inCheck, staticEval)
			if e.inflight != nil {
				e.inflight.End(hash, m)
			}
			if err != nil {
				return 0, err
			}
			searched++
			if score > bestScore {
				bestScore, bestMove = score, m
			}
			if score <= alpha {
				continue
			}
			alpha = score
			e.pvLines[ply].Update(m, &e.pvLines[ply+1])
			if alpha >= beta {
				e.stats.BetaCutoffs++
				if searched == 1 {
					e.stats.FirstMoveCutoffs++
				}
				if m.IsQuiet() {
					e.orderer.UpdateKiller(m, ply)
					e.orderer.UpdateHistory(m, depth)
					e.orderer.UpdateCounterMove(prev, m)
				}
				break outer
			}
		}
	}

	bound := boundFor(bestScore, origAlpha, beta)
	stored := bestMove
	if bound == ttable.UpperBound {
		stored = move.Null
	}
	e.tt.Store(ttable.Entry{
		Hash:     hash,
		Score:    scoreToTT(bestScore, ply),
		Depth:    depth,
		Bound:    bound,
		BestMove: stored,
		Source:   e.source,
	})
	return bestScore, nil
}

// tryNullMove gives the opponent a free move. If a reduced search still
// fails high the node is cut.
func (e *Engine) tryNullMove(pos *board.Position, depth, ply int, beta, staticEval int32) (int32, bool, error) {
	nm := e.cfg.NullMove
	if !nm.Enabled || depth < nm.MinDepth || IsMateScore(beta) ||
		pos.NonPawnPieces(pos.SideToMove()) < nm.MinNonPawnPieces ||
		staticEval < satAdd(beta, nm.EvalMargin) {
		return 0, false, nil
	}
	e.stats.NullMoveTries++
	r := nm.Reduction + depth/nm.DepthDivisor
	pos.PlayNull()
	s, err := e.negamax(pos, depth-1-r, ply+1, satNeg(beta), satNeg(satSub(beta, 1)), false, false)
	pos.UnplayNull()
	if err != nil {
		return 0, false, err
	}
	s = satNeg(s)
	if s < beta {
		return 0, false, nil
	}
	// an unproven mate from a pass is not trusted
	if IsMateScore(s) {
		s = beta
	}
	if nm.Verification && depth >= nm.VerificationMinDepth {
		v, err := e.negamax(pos, depth-1-r, ply, satSub(beta, 1), beta, false, false)
		if err != nil {
			return 0, false, err
		}
		if v < beta {
			e.stats.NullMoveVerifyFailures++
			return 0, false, nil
		}
	}
	e.stats.NullMoveCutoffs++
	return s, true, nil
}

// searchChild plays m and searches it. The first move gets the full
// window; later moves get a null-window scout, possibly reduced, and a
// re-search when the scout beats alpha.
func (e *Engine) searchChild(pos *board.Position, m move.Move, idx, depth, ply int, alpha, beta int32,
	pvNode, inCheck bool, staticEval int32) (int32, error) {

	newDepth := depth - 1
	pos.Play(m)
	defer pos.Unplay()

	if idx == 0 {
		s, err := e.negamax(pos, newDepth, ply+1, satNeg(beta), satNeg(alpha), pvNode, true)
		return satNeg(s), err
	}

	reduction := 0
	if !inCheck && m.IsQuiet() && !e.orderer.IsKiller(m, ply) && e.lmr.eligible(depth, idx) {
		reduction = min(e.lmr.reduction(depth, idx, staticEval, e.orderer.HistoryScore(m)), newDepth-1)
		reduction = max(reduction, 0)
	}

	scoutAlpha, scoutBeta := satNeg(satAdd(alpha, 1)), satNeg(alpha)
	s, err := e.negamax(pos, newDepth-reduction, ply+1, scoutAlpha, scoutBeta, false, true)
	if err != nil {
		return 0, err
	}
	score := satNeg(s)
	if reduction > 0 {
		e.stats.LMRReductions++
		e.lmr.recordReduction()
		if score > alpha {
			e.stats.LMRReSearches++
			e.lmr.recordReSearch()
			if s, err = e.negamax(pos, newDepth, ply+1, scoutAlpha, scoutBeta, false, true); err != nil {
				return 0, err
			}
			score = satNeg(s)
		}
	}
	if pvNode && score > alpha && score < beta {
		if s, err = e.negamax(pos, newDepth, ply+1, satNeg(beta), satNeg(alpha), true, true); err != nil {
			return 0, err
		}
		score = satNeg(s)
	}
	return score, nil
}
