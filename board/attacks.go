package board

import "github.com/domino14/yomi/move"

// Direction indexes. Offsets are from sente's point of view, where
// "up" (row - 1) is forward; gote uses the same offsets rotated 180°.
const (
	UpLeft = iota
	Up
	UpRight
	Left
	Right
	DownLeft
	Down
	DownRight
	KnightLeft
	KnightRight

	NumDirections
	NumSlideDirections = KnightLeft
)

var offsets = [NumDirections][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
	{-2, -1}, {-2, 1},
}

const (
	goldSteps = 1<<UpLeft | 1<<Up | 1<<UpRight | 1<<Left | 1<<Right | 1<<Down
	diagonals = 1<<UpLeft | 1<<UpRight | 1<<DownLeft | 1<<DownRight
	orthogons = 1<<Up | 1<<Left | 1<<Right | 1<<Down
)

var stepMasks = [move.NumPieceTypes]uint16{
	move.Pawn:      1 << Up,
	move.Knight:    1<<KnightLeft | 1<<KnightRight,
	move.Silver:    diagonals | 1<<Up,
	move.Gold:      goldSteps,
	move.King:      diagonals | orthogons,
	move.ProPawn:   goldSteps,
	move.ProLance:  goldSteps,
	move.ProKnight: goldSteps,
	move.ProSilver: goldSteps,
	move.Horse:     orthogons,
	move.Dragon:    diagonals,
}

var slideMasks = [move.NumPieceTypes]uint16{
	move.Lance:  1 << Up,
	move.Bishop: diagonals,
	move.Rook:   orthogons,
	move.Horse:  diagonals,
	move.Dragon: orthogons,
}

// seeRank orders pieces for least-valuable-attacker selection.
var seeRank = [move.NumPieceTypes]int{
	move.Pawn:      1,
	move.Lance:     2,
	move.Knight:    3,
	move.ProPawn:   4,
	move.Silver:    5,
	move.ProLance:  6,
	move.ProKnight: 6,
	move.ProSilver: 6,
	move.Gold:      7,
	move.Bishop:    8,
	move.Rook:      9,
	move.Horse:     10,
	move.Dragon:    11,
	move.King:      12,
}

// StepMask returns the single-step directions of a piece type.
func StepMask(pc move.Piece) uint16 {
	return stepMasks[pc]
}

// SlideMask returns the sliding directions of a piece type.
func SlideMask(pc move.Piece) uint16 {
	return slideMasks[pc]
}

// Direction returns the row and column delta of direction d for a player.
func Direction(d int, pl move.Player) (int, int) {
	dr, dc := offsets[d][0], offsets[d][1]
	if pl == move.Gote {
		return -dr, -dc
	}
	return dr, dc
}

// IsAttacked returns true if any piece of player by attacks sq.
func (p *Position) IsAttacked(sq move.Square, by move.Player) bool {
	if sq == move.NoSquare {
		return false
	}
	found := false
	p.forEachAttacker(sq, by, func(move.Square) bool {
		found = true
		return false
	})
	return found
}

// forEachAttacker calls fn for every square holding a piece of player by
// that attacks sq, until fn returns false.
func (p *Position) forEachAttacker(sq move.Square, by move.Player, fn func(from move.Square) bool) {
	r, c := sq.Row(), sq.Col()
	for d := 0; d < NumDirections; d++ {
		dr, dc := Direction(d, by)
		ar, ac := r-dr, c-dc
		if !move.OnBoard(ar, ac) {
			continue
		}
		from := move.NewSquare(ar, ac)
		pc := p.pieces[from]
		if pc != move.NoPiece && p.owners[from] == by && stepMasks[pc]&(1<<d) != 0 {
			if !fn(from) {
				return
			}
		}
	}
	for d := 0; d < NumSlideDirections; d++ {
		dr, dc := Direction(d, by)
		ar, ac := r-dr, c-dc
		for move.OnBoard(ar, ac) {
			from := move.NewSquare(ar, ac)
			pc := p.pieces[from]
			if pc == move.NoPiece {
				ar -= dr
				ac -= dc
				continue
			}
			if p.owners[from] == by && slideMasks[pc]&(1<<d) != 0 {
				if !fn(from) {
					return
				}
			}
			break
		}
	}
}

// LeastValuableAttacker returns the capture of sq by the cheapest piece
// of player by. Pins are ignored. The capture promotes whenever it is
// allowed to.
func (p *Position) LeastValuableAttacker(sq move.Square, by move.Player) (move.Move, bool) {
	best := move.NoSquare
	bestRank := 1 << 10
	p.forEachAttacker(sq, by, func(from move.Square) bool {
		if r := seeRank[p.pieces[from]]; r < bestRank {
			best, bestRank = from, r
		}
		return bestRank > 1
	})
	if best == move.NoSquare {
		return move.Null, false
	}
	pc := p.pieces[best]
	promote := pc.CanPromote() && (sq.InPromotionZone(by) || best.InPromotionZone(by))
	return move.NewBoardMove(best, sq, pc, by, p.pieces[sq], promote), true
}
