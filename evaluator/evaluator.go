// Package evaluator scores shogi positions for the search.
package evaluator

import (
	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/move"
)

// Evaluator is a static evaluator. Scores are from the point of view of
// the side to move.
type Evaluator interface {
	Evaluate(pos *board.Position) int32
}

// PieceSquareScorer supplies the static piece-square delta that move
// ordering uses for quiet moves.
type PieceSquareScorer interface {
	PieceSquareDelta(pos *board.Position, m move.Move) int32
}

var mgValue = [move.NumPieceTypes]int32{
	move.Pawn:      90,
	move.Lance:     315,
	move.Knight:    405,
	move.Silver:    495,
	move.Gold:      540,
	move.Bishop:    855,
	move.Rook:      990,
	move.ProPawn:   540,
	move.ProLance:  540,
	move.ProKnight: 540,
	move.ProSilver: 540,
	move.Horse:     945,
	move.Dragon:    1395,
}

var egValue = [move.NumPieceTypes]int32{
	move.Pawn:      110,
	move.Lance:     270,
	move.Knight:    360,
	move.Silver:    520,
	move.Gold:      570,
	move.Bishop:    810,
	move.Rook:      945,
	move.ProPawn:   600,
	move.ProLance:  570,
	move.ProKnight: 570,
	move.ProSilver: 570,
	move.Horse:     1000,
	move.Dragon:    1350,
}

// phaseWeight measures how much a piece in hand sharpens the game.
var phaseWeight = [move.NumPieceTypes]int{
	move.Pawn:   1,
	move.Lance:  2,
	move.Knight: 2,
	move.Silver: 3,
	move.Gold:   3,
	move.Bishop: 5,
	move.Rook:   5,
}

const (
	maxPhase = 24
	tempo    = 10

	// hand pieces are worth a little more than their board value since
	// they can be dropped anywhere.
	handBonusPct = 10
	shelterBonus = 15
)

// Tapered is a material, piece-square and king-shelter evaluator that
// blends midgame and endgame terms. Pieces never leave a shogi game, so
// the phase is taken from how much material is held in hand.
type Tapered struct{}

func New() *Tapered {
	return &Tapered{}
}

func (t *Tapered) Evaluate(pos *board.Position) int32 {
	var mg, eg [2]int32
	phase := 0
	for s := move.Square(0); s < move.NumSquares; s++ {
		pc, owner := pos.PieceAt(s)
		if pc == move.NoPiece {
			continue
		}
		pm, pe := pieceSquare(pc, s, owner)
		mg[owner] += mgValue[pc] + pm
		eg[owner] += egValue[pc] + pe
	}
	for _, pl := range []move.Player{move.Sente, move.Gote} {
		for _, pc := range move.HandPieces {
			n := int32(pos.HandCount(pl, pc))
			if n == 0 {
				continue
			}
			mg[pl] += n * mgValue[pc] * (100 + handBonusPct) / 100
			eg[pl] += n * egValue[pc] * (100 + handBonusPct) / 100
			phase += int(n) * phaseWeight[pc]
		}
		mg[pl] += shelter(pos, pl)
	}
	phase = min(phase, maxPhase)

	me := pos.SideToMove()
	opp := me.Opponent()
	mgScore := mg[me] - mg[opp]
	egScore := eg[me] - eg[opp]
	score := (mgScore*int32(maxPhase-phase) + egScore*int32(phase)) / maxPhase
	return score + tempo
}

// PieceSquareDelta is the midgame piece-square gain of m.
func (t *Tapered) PieceSquareDelta(pos *board.Position, m move.Move) int32 {
	to, _ := pieceSquare(m.Landed(), m.To(), m.Player())
	if m.IsDrop() {
		return to
	}
	from, _ := pieceSquare(m.Piece(), m.From(), m.Player())
	return to - from
}

// pieceSquare returns the midgame and endgame placement bonuses.
func pieceSquare(pc move.Piece, s move.Square, owner move.Player) (int32, int32) {
	rel := int32(s.RelativeRow(owner))
	switch pc {
	case move.Pawn:
		return rel * 4, rel * 6
	case move.Knight:
		if rel >= 5 {
			return 10, 10
		}
		return 0, 0
	case move.Silver, move.Gold, move.ProPawn, move.ProLance, move.ProKnight, move.ProSilver:
		return 8 * min(rel, 4), 5 * rel
	case move.King:
		center := int32(s.Col() - move.BoardDim/2)
		if center < 0 {
			center = -center
		}
		switch rel {
		case 0:
			return 30, -5 * center
		case 1:
			return 10, -5 * center
		}
		return -20 * rel, -5 * center
	}
	return 0, 0
}

// shelter rewards golds and silvers adjacent to the king.
func shelter(pos *board.Position, pl move.Player) int32 {
	k := pos.KingSquare(pl)
	if k == move.NoSquare {
		return 0
	}
	var bonus int32
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			r, c := k.Row()+dr, k.Col()+dc
			if (dr == 0 && dc == 0) || !move.OnBoard(r, c) {
				continue
			}
			pc, owner := pos.PieceAt(move.NewSquare(r, c))
			if owner == pl && (pc == move.Gold || pc == move.Silver) {
				bonus += shelterBonus
			}
		}
	}
	return bonus
}

// Value returns the midgame material value of a piece type.
func Value(pc move.Piece) int32 {
	return mgValue[pc]
}
