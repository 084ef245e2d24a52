package move

import "strings"

// Move is a shogi move. It is an immutable value; two moves are equal
// when all of their fields are equal, so == can be used directly.
// The zero Move is the null move.
type Move struct {
	from     Square
	to       Square
	piece    Piece
	captured Piece
	player   Player
	promote  bool
	check    bool
}

// Null is the null (pass) move used by null-move pruning and as an
// "absent" marker.
var Null Move

// NewBoardMove creates a move of a piece already on the board. piece is
// the type standing on from before the move.
func NewBoardMove(from, to Square, piece Piece, player Player, captured Piece, promote bool) Move {
	return Move{
		from:     from,
		to:       to,
		piece:    piece,
		captured: captured,
		player:   player,
		promote:  promote,
	}
}

// NewDrop creates a drop of a piece from hand.
func NewDrop(to Square, piece Piece, player Player) Move {
	return Move{
		from:   NoSquare,
		to:     to,
		piece:  piece,
		player: player,
	}
}

// WithCheck returns a copy of the move with the check flag set.
func (m Move) WithCheck(check bool) Move {
	m.check = check
	return m
}

func (m Move) From() Square { return m.from }
func (m Move) To() Square { return m.to }
func (m Move) Piece() Piece { return m.piece }
func (m Move) Captured() Piece { return m.captured }
func (m Move) Player() Player { return m.player }
func (m Move) IsPromotion() bool { return m.promote }
func (m Move) IsCheck() bool { return m.check }
func (m Move) IsCapture() bool { return m.captured != NoPiece }
func (m Move) IsDrop() bool { return m.piece != NoPiece && m.from == NoSquare }
func (m Move) IsNull() bool { return m.piece == NoPiece }

// IsQuiet returns true for moves that neither capture, promote nor check.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.promote && !m.check
}

// IsTactical is the complement of IsQuiet.
func (m Move) IsTactical() bool {
	return !m.IsQuiet()
}

// Landed returns the piece type that stands on the destination square
// after the move.
func (m Move) Landed() Piece {
	if m.promote {
		return m.piece.Promoted()
	}
	return m.piece
}

// SameAction compares two moves ignoring the check annotation. Moves
// recorded in killer or counter tables were generated in other positions
// and may carry a stale check flag.
func (m Move) SameAction(o Move) bool {
	return m.from == o.from && m.to == o.to && m.piece == o.piece &&
		m.player == o.player && m.promote == o.promote
}

// String returns the USI representation, e.g. 7g7f, 8h2b+, P*5e.
func (m Move) String() string {
	if m.IsNull() {
		return "null"
	}
	var sb strings.Builder
	if m.IsDrop() {
		sb.WriteString(m.piece.Letter(Sente))
		sb.WriteByte('*')
		sb.WriteString(m.to.String())
		return sb.String()
	}
	sb.WriteString(m.from.String())
	sb.WriteString(m.to.String())
	if m.promote {
		sb.WriteByte('+')
	}
	return sb.String()
}

// FindUSI returns the move in moves whose USI text matches s.
func FindUSI(moves []Move, s string) (Move, bool) {
	for _, m := range moves {
		if m.String() == s {
			return m, true
		}
	}
	return Null, false
}
