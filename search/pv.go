package search

import (
	"strings"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/move"
)

// PVLine is a principal variation.
type PVLine struct {
	Moves []move.Move
}

func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

// Update replaces the line with m followed by child.
func (pv *PVLine) Update(m move.Move, child *PVLine) {
	pv.Moves = append(pv.Moves[:0], m)
	pv.Moves = append(pv.Moves, child.Moves...)
}

func (pv PVLine) String() string {
	var sb strings.Builder
	for i, m := range pv.Moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}

func (pv PVLine) strings() []string {
	s := make([]string, len(pv.Moves))
	for i, m := range pv.Moves {
		s[i] = m.String()
	}
	return s
}

// refreshPVCache maps every position along pv to its PV move. Moves that
// are not legal in the position reached (a stale table line) end the
// walk.
func (e *Engine) refreshPVCache(pos *board.Position, pv PVLine) {
	clear(e.pvCache)
	played := 0
	for _, m := range pv.Moves {
		legal := e.gen.GenerateLegalMoves(pos, e.scratch[:0])
		e.scratch = legal
		lm, ok := move.FindUSI(legal, m.String())
		if !ok {
			break
		}
		e.pvCache[pos.Hash()] = lm
		pos.Play(lm)
		played++
	}
	for ; played > 0; played-- {
		pos.Unplay()
	}
}
