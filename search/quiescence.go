package search

import (
	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/ordering"
	"github.com/domino14/yomi/ttable"
)

func promoGain(m move.Move) int32 {
	if !m.IsPromotion() {
		return 0
	}
	return evaluator.Value(m.Piece().Promoted()) - evaluator.Value(m.Piece())
}

// quiescence resolves captures, promotions and, for the first few plies,
// checks until the position is quiet enough to trust the evaluator.
func (e *Engine) quiescence(pos *board.Position, ply, qdepth int, alpha, beta int32) (int32, error) {
	e.stats.QNodes++
	if e.shouldAbort() {
		return 0, errSearchAborted
	}
	if ply >= MaxPly-1 {
		return e.ev.Evaluate(pos), nil
	}
	e.pvLines[ply].Clear()
	p := e.cfg.Pruning

	hash := pos.Hash()
	if e.qtt != nil {
		if entry, ok := e.qtt.Lookup(hash); ok {
			s := scoreFromTT(entry.Score, ply)
			switch {
			case entry.Bound == ttable.Exact,
				entry.Bound == ttable.LowerBound && s >= beta,
				entry.Bound == ttable.UpperBound && s <= alpha:
				return s, nil
			}
		}
	}
	if qdepth >= p.QuiescenceMaxDepth {
		return e.ev.Evaluate(pos), nil
	}

	origAlpha := alpha
	inCheck := pos.InCheck()
	best := -Infinity
	var standPat int32
	var moves []move.Move
	if inCheck {
		moves = e.gen.GenerateLegalMoves(pos, e.moveBufs[ply][:0])
		if len(moves) == 0 {
			return matedIn(ply), nil
		}
	} else {
		standPat = e.ev.Evaluate(pos)
		if standPat >= beta {
			return standPat, nil
		}
		best = standPat
		alpha = max(alpha, standPat)
		moves = e.gen.GenerateTacticalMoves(pos, e.moveBufs[ply][:0], qdepth < p.QuiescenceCheckPlies)
	}
	e.moveBufs[ply] = moves
	moves = e.orderer.OrderMoves(pos, moves, ordering.Hints{Ply: ply, PrevMove: pos.LastMove()})

	bestMove := move.Null
	for _, m := range moves {
		if !inCheck && !m.IsCheck() {
			if m.IsCapture() {
				if p.DeltaEnabled &&
					satAdd(standPat, evaluator.Value(m.Captured())+promoGain(m)+p.DeltaMargin) <= alpha {
					e.stats.DeltaPrunes++
					continue
				}
				if p.PruneLosingCaptures && e.orderer.CalculateSEE(pos, m) < 0 {
					e.stats.LosingCapturePrunes++
					continue
				}
			} else if p.FutilityEnabled && satAdd(standPat, promoGain(m)+p.FutilityMargin) <= alpha {
				e.stats.FutilityPrunes++
				continue
			}
		}

		pos.Play(m)
		s, err := e.quiescence(pos, ply+1, qdepth+1, satNeg(beta), satNeg(alpha))
		pos.Unplay()
		if err != nil {
			return 0, err
		}
		score := satNeg(s)
		if score > best {
			best, bestMove = score, m
		}
		if score > alpha {
			alpha = score
			e.pvLines[ply].Update(m, &e.pvLines[ply+1])
			if alpha >= beta {
				break
			}
		}
	}

	if e.qtt != nil {
		e.qtt.Store(ttable.Entry{
			Hash:     hash,
			Score:    scoreToTT(best, ply),
			Depth:    0,
			Bound:    boundFor(best, origAlpha, beta),
			BestMove: bestMove,
			Source:   ttable.SourceQuiescence,
		})
	}
	return best, nil
}
