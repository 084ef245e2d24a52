package move

import (
	"testing"

	"github.com/matryer/is"
)

func TestSquareNotation(t *testing.T) {
	is := is.New(t)
	sq, err := ParseSquare("7g")
	is.NoErr(err)
	is.Equal(sq.Row(), 6)
	is.Equal(sq.Col(), 2)
	is.Equal(sq.String(), "7g")

	_, err = ParseSquare("0a")
	is.True(err != nil)
	_, err = ParseSquare("5j")
	is.True(err != nil)
}

func TestMoveString(t *testing.T) {
	is := is.New(t)
	from, _ := ParseSquare("8h")
	to, _ := ParseSquare("2b")
	m := NewBoardMove(from, to, Bishop, Sente, Bishop, true)
	is.Equal(m.String(), "8h2b+")
	is.True(m.IsCapture())
	is.True(m.IsPromotion())
	is.True(!m.IsQuiet())
	is.Equal(m.Landed(), Horse)

	to, _ = ParseSquare("5e")
	d := NewDrop(to, Pawn, Gote)
	is.Equal(d.String(), "P*5e")
	is.True(d.IsDrop())
	is.True(d.IsQuiet())
	is.True(Null.IsNull())
	is.True(!d.IsNull())
}

func TestSameActionIgnoresCheck(t *testing.T) {
	is := is.New(t)
	to, _ := ParseSquare("5b")
	m := NewDrop(to, Gold, Sente)
	is.True(m.SameAction(m.WithCheck(true)))
	is.True(m != m.WithCheck(true))
}

func TestPromotion(t *testing.T) {
	is := is.New(t)
	is.True(!Gold.CanPromote())
	is.True(!King.CanPromote())
	for p := Pawn; p <= Rook; p++ {
		if p == Gold {
			continue
		}
		is.True(p.CanPromote())
		is.Equal(p.Promoted().Demoted(), p)
	}
	is.Equal(Horse.Letter(Gote), "+b")
}
