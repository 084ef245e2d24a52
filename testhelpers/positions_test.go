package testhelpers

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/movegen"
)

func TestPositions(t *testing.T) {
	is := is.New(t)
	gen := movegen.NewGenerator()

	legal := gen.GenerateLegalMoves(MateInOne(), nil)
	m, ok := move.FindUSI(legal, "G*2b")
	is.True(ok)
	pos := MateInOne()
	pos.Play(m)
	is.True(pos.InCheck())
	is.True(!movegen.HasLegalMove(pos))

	_, ok = move.FindUSI(gen.GenerateLegalMoves(HangingGold(), nil), "2e2d")
	is.True(ok)

	is.True(Checkmated().InCheck())
	is.Equal(len(gen.GenerateLegalMoves(Checkmated(), nil)), 0)
}
