package tinymove

import "github.com/domino14/yomi/move"

// TinyMove is a 32-bit representation of a move. It is lossless, so a
// move can be restored from it without a position, and it is small
// enough to share a transposition table word with other data.
type TinyMove uint32

// Schema:
// 7 bits to-square, 7 bits from-square (127 = drop), 4 bits piece,
// 4 bits captured piece, then one bit each for player, promotion and check.
// The null move encodes as 0.
//
//  31       24       16        8        0
//   xxxx xxxK PCcc ccpp ppff ffff fttt tttt

const (
	toShift       = 0
	fromShift     = 7
	pieceShift    = 14
	capturedShift = 18
	playerShift   = 22
	promoteShift  = 23
	checkShift    = 24

	squareMask = 0x7f
	pieceMask  = 0x0f
	dropFrom   = 0x7f
)

const Null TinyMove = 0

// FromMove packs a move.
func FromMove(m move.Move) TinyMove {
	if m.IsNull() {
		return Null
	}
	from := uint32(dropFrom)
	if !m.IsDrop() {
		from = uint32(m.From())
	}
	tm := uint32(m.To())<<toShift |
		from<<fromShift |
		uint32(m.Piece())<<pieceShift |
		uint32(m.Captured())<<capturedShift |
		uint32(m.Player())<<playerShift
	if m.IsPromotion() {
		tm |= 1 << promoteShift
	}
	if m.IsCheck() {
		tm |= 1 << checkShift
	}
	return TinyMove(tm)
}

// Move unpacks the tiny move.
func (tm TinyMove) Move() move.Move {
	if tm == Null {
		return move.Null
	}
	to := move.Square((tm >> toShift) & squareMask)
	piece := move.Piece((tm >> pieceShift) & pieceMask)
	player := move.Player((tm >> playerShift) & 1)
	check := (tm>>checkShift)&1 == 1
	from := (tm >> fromShift) & squareMask
	if from == dropFrom {
		return move.NewDrop(to, piece, player).WithCheck(check)
	}
	captured := move.Piece((tm >> capturedShift) & pieceMask)
	promote := (tm>>promoteShift)&1 == 1
	return move.NewBoardMove(move.Square(from), to, piece, player, captured, promote).WithCheck(check)
}

// To returns the destination square without decoding the whole move.
func (tm TinyMove) To() move.Square {
	return move.Square((tm >> toShift) & squareMask)
}
