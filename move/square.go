package move

import (
	"errors"
	"fmt"
)

const (
	BoardDim   = 9
	NumSquares = BoardDim * BoardDim
)

// Square is a board index. Row 0 is rank "a" (gote's back rank) and
// column 0 is file 9, so squares run in SFEN order.
type Square int8

const NoSquare Square = -1

var ErrBadSquare = errors.New("bad square")

func NewSquare(row, col int) Square {
	return Square(row*BoardDim + col)
}

func OnBoard(row, col int) bool {
	return row >= 0 && row < BoardDim && col >= 0 && col < BoardDim
}

func (s Square) Row() int {
	return int(s) / BoardDim
}

func (s Square) Col() int {
	return int(s) % BoardDim
}

// File is the shogi file number, 1 to 9, right to left from sente's view.
func (s Square) File() int {
	return BoardDim - s.Col()
}

func (s Square) Valid() bool {
	return s >= 0 && s < NumSquares
}

func (s Square) String() string {
	if !s.Valid() {
		return "--"
	}
	return fmt.Sprintf("%d%c", s.File(), 'a'+s.Row())
}

// ParseSquare parses USI coordinates such as "7g".
func ParseSquare(str string) (Square, error) {
	if len(str) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, str)
	}
	file := int(str[0] - '0')
	row := int(str[1] - 'a')
	if file < 1 || file > BoardDim || row < 0 || row >= BoardDim {
		return NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, str)
	}
	return NewSquare(row, BoardDim-file), nil
}

// InPromotionZone returns true if the square is within the player's
// promotion zone, the far three ranks.
func (s Square) InPromotionZone(p Player) bool {
	if p == Sente {
		return s.Row() <= 2
	}
	return s.Row() >= BoardDim-3
}

// RelativeRow is the row counted from the player's own back rank
// (0 = own back rank, 8 = the far rank).
func (s Square) RelativeRow(p Player) int {
	if p == Sente {
		return BoardDim - 1 - s.Row()
	}
	return s.Row()
}
