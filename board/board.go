// Package board holds a shogi position: the 9x9 grid, both hands and the
// side to move. Moves are applied and taken back in place.
package board

import (
	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/zobrist"
)

type undo struct {
	m   move.Move
	key uint64
}

// Position is a shogi position. It is not safe for concurrent use; the
// parallel search gives each work unit its own Copy.
type Position struct {
	pieces [move.NumSquares]move.Piece
	owners [move.NumSquares]move.Player
	hands  [2][move.NumPieceTypes]int
	kings  [2]move.Square
	toMove move.Player
	key    uint64
	// moveNumber is the SFEN move counter of the root position.
	moveNumber int

	history []undo
	z       *zobrist.Zobrist
}

// NewEmpty returns an empty board with sente to move.
func NewEmpty() *Position {
	p := &Position{
		kings:      [2]move.Square{move.NoSquare, move.NoSquare},
		moveNumber: 1,
		history:    make([]undo, 0, 64),
		z:          zobrist.Default,
	}
	p.Rehash()
	return p
}

// Copy returns a deep copy, including the move history.
func (p *Position) Copy() *Position {
	c := *p
	c.history = make([]undo, len(p.history), max(cap(p.history), 64))
	copy(c.history, p.history)
	return &c
}

// Rehash recomputes the key from scratch.
func (p *Position) Rehash() {
	p.key = p.z.Hash(&p.pieces, &p.owners, &p.hands, p.toMove)
}

// Put places a piece on the board. It is meant for setting up positions,
// not for playing moves.
func (p *Position) Put(sq move.Square, pc move.Piece, owner move.Player) {
	p.put(sq, pc, owner)
	p.Rehash()
}

// SetHand sets a hand count. Like Put it is a setup function.
func (p *Position) SetHand(owner move.Player, pc move.Piece, count int) {
	p.hands[owner][pc] = count
	p.Rehash()
}

func (p *Position) SetSideToMove(pl move.Player) {
	p.toMove = pl
	p.Rehash()
}

func (p *Position) put(sq move.Square, pc move.Piece, owner move.Player) {
	p.pieces[sq] = pc
	p.owners[sq] = owner
	if pc == move.King {
		p.kings[owner] = sq
	}
}

func (p *Position) PieceAt(sq move.Square) (move.Piece, move.Player) {
	return p.pieces[sq], p.owners[sq]
}

func (p *Position) HandCount(owner move.Player, pc move.Piece) int {
	return p.hands[owner][pc]
}

func (p *Position) SideToMove() move.Player {
	return p.toMove
}

func (p *Position) Hash() uint64 {
	return p.key
}

// KingSquare returns move.NoSquare when the player has no king, which
// is allowed for problem positions.
func (p *Position) KingSquare(pl move.Player) move.Square {
	return p.kings[pl]
}

// Ply is the number of moves played since the position was set up.
func (p *Position) Ply() int {
	return len(p.history)
}

// LastMove returns the most recent move, or move.Null.
func (p *Position) LastMove() move.Move {
	if len(p.history) == 0 {
		return move.Null
	}
	return p.history[len(p.history)-1].m
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	k := p.kings[p.toMove]
	if k == move.NoSquare {
		return false
	}
	return p.IsAttacked(k, p.toMove.Opponent())
}

// NonPawnPieces counts a player's pieces other than pawns and the king,
// on the board and in hand.
func (p *Position) NonPawnPieces(pl move.Player) int {
	n := 0
	for sq, pc := range p.pieces {
		if pc == move.NoPiece || p.owners[sq] != pl {
			continue
		}
		if pc != move.Pawn && pc != move.King {
			n++
		}
	}
	for _, pc := range move.HandPieces {
		if pc != move.Pawn {
			n += p.hands[pl][pc]
		}
	}
	return n
}

// HasRepeated returns true if the current position occurred before with
// the same side to move.
func (p *Position) HasRepeated() bool {
	for i := len(p.history) - 2; i >= 0; i -= 2 {
		if p.history[i].key == p.key {
			return true
		}
		if p.history[i].m.IsNull() {
			break
		}
	}
	return false
}

// Play applies m, which must be at least pseudo-legal for the side to
// move.
func (p *Position) Play(m move.Move) {
	p.history = append(p.history, undo{m: m, key: p.key})
	pl := m.Player()
	if m.IsDrop() {
		p.key = p.z.AddMove(p.key, m, p.hands[pl][m.Piece()])
		p.hands[pl][m.Piece()]--
		p.put(m.To(), m.Piece(), pl)
		p.toMove = pl.Opponent()
		return
	}
	handCount := 0
	if m.IsCapture() {
		handCount = p.hands[pl][m.Captured().Demoted()]
	}
	p.key = p.z.AddMove(p.key, m, handCount)
	p.pieces[m.From()] = move.NoPiece
	if m.IsCapture() {
		p.hands[pl][m.Captured().Demoted()]++
		if m.Captured() == move.King {
			p.kings[pl.Opponent()] = move.NoSquare
		}
	}
	p.put(m.To(), m.Landed(), pl)
	p.toMove = pl.Opponent()
}

// Unplay takes back the last move, null moves included.
func (p *Position) Unplay() {
	u := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	m := u.m
	p.key = u.key
	if m.IsNull() {
		p.toMove = p.toMove.Opponent()
		return
	}
	pl := m.Player()
	p.toMove = pl
	if m.IsDrop() {
		p.pieces[m.To()] = move.NoPiece
		p.hands[pl][m.Piece()]++
		return
	}
	if m.IsCapture() {
		p.put(m.To(), m.Captured(), pl.Opponent())
		p.hands[pl][m.Captured().Demoted()]--
	} else {
		p.pieces[m.To()] = move.NoPiece
	}
	p.put(m.From(), m.Piece(), pl)
}

// PlayNull passes the turn.
func (p *Position) PlayNull() {
	p.history = append(p.history, undo{m: move.Null, key: p.key})
	p.key = p.z.AddMove(p.key, move.Null, 0)
	p.toMove = p.toMove.Opponent()
}

func (p *Position) UnplayNull() {
	p.Unplay()
}
