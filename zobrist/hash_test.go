package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yomi/move"
)

func TestSeedIsDeterministic(t *testing.T) {
	is := is.New(t)
	a := New(42)
	b := New(42)
	c := New(43)
	sq := move.NewSquare(4, 4)
	is.Equal(a.PieceSquare(sq, move.Sente, move.Rook), b.PieceSquare(sq, move.Sente, move.Rook))
	is.Equal(a.Turn(), b.Turn())
	is.True(a.Turn() != c.Turn())
}

func TestPlayAndUnplay(t *testing.T) {
	is := is.New(t)
	z := New(DefaultSeed)

	var pieces [move.NumSquares]move.Piece
	var owners [move.NumSquares]move.Player
	var hands [2][move.NumPieceTypes]int
	from := move.NewSquare(6, 4)
	to := move.NewSquare(5, 4)
	pieces[from] = move.Pawn
	hands[move.Sente][move.Gold] = 1

	h := z.Hash(&pieces, &owners, &hands, move.Sente)

	m := move.NewBoardMove(from, to, move.Pawn, move.Sente, move.NoPiece, false)
	h1 := z.AddMove(h, m, 0)
	pieces[from], pieces[to] = move.NoPiece, move.Pawn
	is.Equal(h1, z.Hash(&pieces, &owners, &hands, move.Gote))

	drop := move.NewDrop(move.NewSquare(3, 3), move.Gold, move.Sente)
	h2 := z.AddMove(h1, drop, 1)
	pieces[drop.To()] = move.Gold
	hands[move.Sente][move.Gold] = 0
	is.Equal(h2, z.Hash(&pieces, &owners, &hands, move.Sente))
	is.True(h2 != h)
}

