// Package testhelpers builds the small positions shared by the search
// tests.
package testhelpers

import (
	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/move"
)

// Sq parses a square such as "7g" and panics on bad input.
func Sq(s string) move.Square {
	q, err := move.ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return q
}

// SearchConfig is the default search config with a small hash table.
func SearchConfig(threads int) config.SearchConfig {
	cfg := config.DefaultSearchConfig()
	cfg.Transposition.SizeMB = 8
	cfg.Parallel.Threads = threads
	return cfg
}

type piece struct {
	sq    string
	pc    move.Piece
	owner move.Player
}

func build(toMove move.Player, pieces ...piece) *board.Position {
	pos := board.NewEmpty()
	pos.Put(Sq("9i"), move.King, move.Sente)
	pos.Put(Sq("1a"), move.King, move.Gote)
	for _, p := range pieces {
		pos.Put(Sq(p.sq), p.pc, p.owner)
	}
	pos.SetSideToMove(toMove)
	pos.Rehash()
	return pos
}

// MateInOne: sente drops G*2b, covered by the rook on 2d.
func MateInOne() *board.Position {
	pos := build(move.Sente, piece{"2d", move.Rook, move.Sente})
	pos.SetHand(move.Sente, move.Gold, 1)
	pos.Rehash()
	return pos
}

// HangingGold: sente wins an undefended gold with 2e2d.
func HangingGold() *board.Position {
	return build(move.Sente,
		piece{"2e", move.Rook, move.Sente},
		piece{"2d", move.Gold, move.Gote})
}

// Checkmated: gote to move has no legal moves.
func Checkmated() *board.Position {
	return build(move.Gote,
		piece{"2d", move.Rook, move.Sente},
		piece{"2b", move.Gold, move.Sente})
}
