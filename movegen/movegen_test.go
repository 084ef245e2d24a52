package movegen

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/move"
)

func perft(g *Generator, pos *board.Position, depth int) int {
	moves := g.GenerateLegalMoves(pos, nil)
	if depth == 1 {
		return len(moves)
	}
	n := 0
	for _, m := range moves {
		pos.Play(m)
		n += perft(g, pos, depth-1)
		pos.Unplay()
	}
	return n
}

func TestPerftStartingPosition(t *testing.T) {
	g := NewGenerator()
	pos := board.StartingPosition()
	assert.Equal(t, 30, perft(g, pos, 1))
	assert.Equal(t, 900, perft(g, pos, 2))
	assert.Equal(t, board.StartSFEN, pos.SFEN())
}

func TestNoTwoPawnsOnAFile(t *testing.T) {
	is := is.New(t)
	pos, err := board.FromSFEN("4k4/9/9/9/9/9/4P4/9/4K4 b P 1")
	is.NoErr(err)
	moves := NewGenerator().GenerateLegalMoves(pos, nil)
	for _, m := range moves {
		if m.IsDrop() {
			is.True(m.To().Col() != 4)
			// never onto the last rank
			is.True(m.To().Row() != 0)
		}
	}
	_, ok := move.FindUSI(moves, "P*4e")
	is.True(ok)
	_, ok = move.FindUSI(moves, "P*5e")
	is.True(!ok)
}

func TestPawnDropMateIsIllegal(t *testing.T) {
	is := is.New(t)
	// gote's king on 1a is boxed in by its own knight and silver; P*1b would mate
	// because the gold on 2c guards 1b.
	pos, err := board.FromSFEN("7nk/7s1/7G1/9/9/9/9/9/4K4 b P 1")
	is.NoErr(err)
	moves := NewGenerator().GenerateLegalMoves(pos, nil)
	_, ok := move.FindUSI(moves, "P*1b")
	is.True(!ok)
}

func TestMandatoryPromotion(t *testing.T) {
	is := is.New(t)
	pos, err := board.FromSFEN("4k4/P8/9/9/9/9/9/9/4K4 b - 1")
	is.NoErr(err)
	moves := NewGenerator().GenerateLegalMoves(pos, nil)
	_, ok := move.FindUSI(moves, "9b9a+")
	is.True(ok)
	_, ok = move.FindUSI(moves, "9b9a")
	is.True(!ok)
}

func TestCannotMoveIntoCheck(t *testing.T) {
	is := is.New(t)
	// a gote rook on 4a covers the 4th file.
	pos, err := board.FromSFEN("k4r3/9/9/9/9/9/9/9/4K4 b - 1")
	is.NoErr(err)
	moves := NewGenerator().GenerateLegalMoves(pos, nil)
	for _, m := range moves {
		is.True(m.To().File() != 4)
	}
	is.Equal(len(moves), 3)
}

func TestTacticalMoves(t *testing.T) {
	is := is.New(t)
	pos, err := board.FromSFEN("4k4/9/4p4/9/4R4/9/9/9/4K4 b G 1")
	is.NoErr(err)
	g := NewGenerator()

	quiet := g.GenerateTacticalMoves(pos, nil, false)
	for _, m := range quiet {
		is.True(m.IsCapture() || m.IsPromotion())
	}
	_, ok := move.FindUSI(quiet, "5e5c+")
	is.True(ok)

	withChecks := g.GenerateTacticalMoves(pos, nil, true)
	is.True(len(withChecks) > len(quiet))
	drop, ok := move.FindUSI(withChecks, "G*5b")
	is.True(ok)
	is.True(drop.IsCheck())
}
