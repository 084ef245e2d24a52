package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/domino14/yomi/move"
)

// StartSFEN is the standard initial position.
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var ErrBadSFEN = errors.New("bad sfen")

// StartingPosition returns a new position at the start of the game.
func StartingPosition() *Position {
	p, err := FromSFEN(StartSFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// FromSFEN parses a position in SFEN notation. The move counter is
// optional; "startpos" is accepted as an alias of StartSFEN.
func FromSFEN(sfen string) (*Position, error) {
	if strings.TrimSpace(sfen) == "startpos" {
		sfen = StartSFEN
	}
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 fields, got %d", ErrBadSFEN, len(fields))
	}
	p := NewEmpty()
	if err := p.parseBoard(fields[0]); err != nil {
		return nil, err
	}
	switch fields[1] {
	case "b":
		p.toMove = move.Sente
	case "w":
		p.toMove = move.Gote
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrBadSFEN, fields[1])
	}
	if err := p.parseHands(fields[2]); err != nil {
		return nil, err
	}
	if len(fields) > 3 {
		n, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: move number: %w", ErrBadSFEN, err)
		}
		p.moveNumber = n
	}
	p.Rehash()
	return p, nil
}

func (p *Position) parseBoard(s string) error {
	ranks := strings.Split(s, "/")
	if len(ranks) != move.BoardDim {
		return fmt.Errorf("%w: expected %d ranks, got %d", ErrBadSFEN, move.BoardDim, len(ranks))
	}
	for row, rank := range ranks {
		col := 0
		promoted := false
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			switch {
			case ch >= '1' && ch <= '9':
				col += int(ch - '0')
				continue
			case ch == '+':
				promoted = true
				continue
			}
			pc, owner, ok := move.PieceFromLetter(ch)
			if !ok {
				return fmt.Errorf("%w: unknown piece %q", ErrBadSFEN, ch)
			}
			if promoted {
				if !pc.CanPromote() {
					return fmt.Errorf("%w: %q cannot promote", ErrBadSFEN, ch)
				}
				pc = pc.Promoted()
				promoted = false
			}
			if col >= move.BoardDim {
				return fmt.Errorf("%w: rank %d too long", ErrBadSFEN, row+1)
			}
			sq := move.NewSquare(row, col)
			if pc == move.King && p.kings[owner] != move.NoSquare {
				return fmt.Errorf("%w: two %s kings", ErrBadSFEN, owner)
			}
			p.put(sq, pc, owner)
			col++
		}
		if col != move.BoardDim {
			return fmt.Errorf("%w: rank %d has %d files", ErrBadSFEN, row+1, col)
		}
	}
	return nil
}

func (p *Position) parseHands(s string) error {
	if s == "-" {
		return nil
	}
	count := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= '0' && ch <= '9' {
			count = count*10 + int(ch-'0')
			continue
		}
		pc, owner, ok := move.PieceFromLetter(ch)
		if !ok || pc == move.King {
			return fmt.Errorf("%w: bad hand piece %q", ErrBadSFEN, ch)
		}
		if count == 0 {
			count = 1
		}
		p.hands[owner][pc] += count
		count = 0
	}
	if count != 0 {
		return fmt.Errorf("%w: dangling count in hand %q", ErrBadSFEN, s)
	}
	return nil
}

// SFEN formats the position. The move counter advances with the plies
// played since setup.
func (p *Position) SFEN() string {
	var sb strings.Builder
	for row := 0; row < move.BoardDim; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < move.BoardDim; col++ {
			sq := move.NewSquare(row, col)
			pc := p.pieces[sq]
			if pc == move.NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(pc.Letter(p.owners[sq]))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	if p.toMove == move.Sente {
		sb.WriteString(" b ")
	} else {
		sb.WriteString(" w ")
	}
	hand := ""
	for _, owner := range []move.Player{move.Sente, move.Gote} {
		for _, pc := range move.HandPieces {
			n := p.hands[owner][pc]
			if n == 0 {
				continue
			}
			if n > 1 {
				hand += strconv.Itoa(n)
			}
			hand += pc.Letter(owner)
		}
	}
	if hand == "" {
		hand = "-"
	}
	sb.WriteString(hand)
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.moveNumber + len(p.history)))
	return sb.String()
}

func (p *Position) String() string {
	return p.SFEN()
}
