package tinymove

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yomi/move"
)

func TestTinyMove(t *testing.T) {
	is := is.New(t)
	from, _ := move.ParseSquare("8h")
	to, _ := move.ParseSquare("2b")
	m := move.NewBoardMove(from, to, move.Bishop, move.Sente, move.Bishop, true).WithCheck(true)

	tm := FromMove(m)
	is.True(tm != Null)
	is.Equal(tm.Move(), m)
	is.Equal(tm.To(), to)
}

func TestTinyMoveDrop(t *testing.T) {
	is := is.New(t)
	to, _ := move.ParseSquare("1a")
	m := move.NewDrop(to, move.Lance, move.Gote)
	is.Equal(FromMove(m).Move(), m)
	is.True(FromMove(m).Move().IsDrop())
}

func TestTinyMoveNull(t *testing.T) {
	is := is.New(t)
	is.Equal(FromMove(move.Null), Null)
	is.True(Null.Move().IsNull())
}
