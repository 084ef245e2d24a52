// Package movegen generates shogi moves for a board.Position.
package movegen

import (
	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/move"
)

// MoveGenerator is what the search needs from a move generator. dst is
// reused as the output buffer.
type MoveGenerator interface {
	GenerateLegalMoves(pos *board.Position, dst []move.Move) []move.Move
	// GenerateTacticalMoves returns the legal captures and promotions,
	// plus checking moves when checks is true.
	GenerateTacticalMoves(pos *board.Position, dst []move.Move, checks bool) []move.Move
}

// Generator is a stateless MoveGenerator that is safe to share between
// goroutines as long as each works on its own position.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) GenerateLegalMoves(pos *board.Position, dst []move.Move) []move.Move {
	dst = genPseudo(pos, dst[:0], true)
	return filterLegal(pos, dst, func(move.Move) bool { return true })
}

func (g *Generator) GenerateTacticalMoves(pos *board.Position, dst []move.Move, checks bool) []move.Move {
	dst = genPseudo(pos, dst[:0], checks)
	if checks {
		return filterLegal(pos, dst, move.Move.IsTactical)
	}
	return filterLegal(pos, dst, func(m move.Move) bool {
		return m.IsCapture() || m.IsPromotion()
	})
}

// HasLegalMove returns true if the side to move has at least one legal
// move.
func HasLegalMove(pos *board.Position) bool {
	pseudo := genPseudo(pos, make([]move.Move, 0, 128), true)
	me := pos.SideToMove()
	for _, m := range pseudo {
		pos.Play(m)
		ok := !pos.IsAttacked(pos.KingSquare(me), me.Opponent())
		pos.Unplay()
		if ok {
			return true
		}
	}
	return false
}

// filterLegal keeps the moves that do not leave the mover's king
// attacked, annotating each with its check flag. keep is applied after
// the annotation.
func filterLegal(pos *board.Position, moves []move.Move, keep func(move.Move) bool) []move.Move {
	me := pos.SideToMove()
	n := 0
	for _, m := range moves {
		pos.Play(m)
		legal := !pos.IsAttacked(pos.KingSquare(me), me.Opponent())
		check := legal && pos.InCheck()
		if legal && check && m.IsDrop() && m.Piece() == move.Pawn {
			// pawn-drop mate is illegal.
			legal = HasLegalMove(pos)
		}
		pos.Unplay()
		if !legal {
			continue
		}
		m = m.WithCheck(check)
		if keep(m) {
			moves[n] = m
			n++
		}
	}
	return moves[:n]
}

// genPseudo appends the pseudo-legal moves for the side to move. Drops
// are only generated when withDrops is set; a drop is never a capture or
// a promotion.
func genPseudo(pos *board.Position, dst []move.Move, withDrops bool) []move.Move {
	me := pos.SideToMove()
	for s := move.Square(0); s < move.NumSquares; s++ {
		pc, owner := pos.PieceAt(s)
		if pc == move.NoPiece || owner != me {
			continue
		}
		r, c := s.Row(), s.Col()
		steps := board.StepMask(pc)
		for d := 0; d < board.NumDirections; d++ {
			if steps&(1<<d) == 0 {
				continue
			}
			dr, dc := board.Direction(d, me)
			if !move.OnBoard(r+dr, c+dc) {
				continue
			}
			dst = addBoardMove(pos, dst, s, move.NewSquare(r+dr, c+dc), pc, me)
		}
		slides := board.SlideMask(pc)
		for d := 0; d < board.NumSlideDirections; d++ {
			if slides&(1<<d) == 0 {
				continue
			}
			dr, dc := board.Direction(d, me)
			tr, tc := r+dr, c+dc
			for move.OnBoard(tr, tc) {
				to := move.NewSquare(tr, tc)
				dst = addBoardMove(pos, dst, s, to, pc, me)
				if target, _ := pos.PieceAt(to); target != move.NoPiece {
					break
				}
				tr += dr
				tc += dc
			}
		}
	}
	if withDrops {
		dst = genDrops(pos, dst, me)
	}
	return dst
}

func addBoardMove(pos *board.Position, dst []move.Move, from, to move.Square, pc move.Piece, me move.Player) []move.Move {
	target, owner := pos.PieceAt(to)
	if target != move.NoPiece && owner == me {
		return dst
	}
	if pc.CanPromote() && (from.InPromotionZone(me) || to.InPromotionZone(me)) {
		dst = append(dst, move.NewBoardMove(from, to, pc, me, target, true))
	}
	if !deadEnd(pc, to, me) {
		dst = append(dst, move.NewBoardMove(from, to, pc, me, target, false))
	}
	return dst
}

// deadEnd returns true if an unpromoted pc on sq could never move again.
func deadEnd(pc move.Piece, sq move.Square, me move.Player) bool {
	rel := sq.RelativeRow(me)
	switch pc {
	case move.Pawn, move.Lance:
		return rel == move.BoardDim-1
	case move.Knight:
		return rel >= move.BoardDim-2
	}
	return false
}

func genDrops(pos *board.Position, dst []move.Move, me move.Player) []move.Move {
	var pawnFiles [move.BoardDim]bool
	hasPawn := pos.HandCount(me, move.Pawn) > 0
	if hasPawn {
		for s := move.Square(0); s < move.NumSquares; s++ {
			if pc, owner := pos.PieceAt(s); pc == move.Pawn && owner == me {
				pawnFiles[s.Col()] = true
			}
		}
	}
	for _, pc := range move.HandPieces {
		if pos.HandCount(me, pc) == 0 {
			continue
		}
		for s := move.Square(0); s < move.NumSquares; s++ {
			if target, _ := pos.PieceAt(s); target != move.NoPiece {
				continue
			}
			if deadEnd(pc, s, me) {
				continue
			}
			if pc == move.Pawn && pawnFiles[s.Col()] {
				continue
			}
			dst = append(dst, move.NewDrop(s, pc, me))
		}
	}
	return dst
}
