package ordering

import "github.com/domino14/yomi/move"

// dropFrom is the from-index used for drops.
const dropFrom = move.NumSquares

// HistoryTable accumulates depth² for quiet moves that caused cutoffs,
// keyed by (player, piece, from, to).
type HistoryTable struct {
	maxScore      int32
	agingFactor   float64
	agingInterval int
	updates       int
	table         [2][move.NumPieceTypes][move.NumSquares + 1][move.NumSquares]int32
}

func NewHistoryTable(maxScore int32, agingFactor float64, agingInterval int) *HistoryTable {
	return &HistoryTable{
		maxScore:      maxScore,
		agingFactor:   agingFactor,
		agingInterval: agingInterval,
	}
}

func fromIndex(m move.Move) int {
	if m.IsDrop() {
		return dropFrom
	}
	return int(m.From())
}

// Score returns the history value of m.
func (h *HistoryTable) Score(m move.Move) int32 {
	if m.IsNull() {
		return 0
	}
	return h.table[m.Player()][m.Piece()][fromIndex(m)][m.To()]
}

// Update adds depth² to m's entry, clamped to the maximum score. With a
// non-zero aging interval the whole table is aged after that many updates.
func (h *HistoryTable) Update(m move.Move, depth int) {
	if m.IsNull() || depth <= 0 {
		return
	}
	e := &h.table[m.Player()][m.Piece()][fromIndex(m)][m.To()]
	bonus := int64(depth) * int64(depth)
	*e = int32(min(int64(*e)+bonus, int64(h.maxScore)))

	h.updates++
	if h.agingInterval > 0 && h.updates >= h.agingInterval {
		h.Age()
	}
}

// Age multiplies every entry by the aging factor.
func (h *HistoryTable) Age() {
	h.updates = 0
	for pl := range h.table {
		for pc := range h.table[pl] {
			for from := range h.table[pl][pc] {
				row := &h.table[pl][pc][from]
				for to := range row {
					if row[to] != 0 {
						row[to] = int32(float64(row[to]) * h.agingFactor)
					}
				}
			}
		}
	}
}

func (h *HistoryTable) Clear() {
	h.updates = 0
	h.table = [2][move.NumPieceTypes][move.NumSquares + 1][move.NumSquares]int32{}
}

// CounterMoveTable remembers, for each opponent move, the reply that
// refuted it last.
type CounterMoveTable struct {
	table [2][move.NumPieceTypes][move.NumSquares]move.Move
}

func NewCounterMoveTable() *CounterMoveTable {
	return &CounterMoveTable{}
}

// Update records reply as the counter to prev.
func (c *CounterMoveTable) Update(prev, reply move.Move) {
	if prev.IsNull() || reply.IsNull() {
		return
	}
	c.table[prev.Player()][prev.Landed()][prev.To()] = reply
}

// Counter returns the recorded reply to prev, or move.Null.
func (c *CounterMoveTable) Counter(prev move.Move) move.Move {
	if prev.IsNull() {
		return move.Null
	}
	return c.table[prev.Player()][prev.Landed()][prev.To()]
}

func (c *CounterMoveTable) Clear() {
	c.table = [2][move.NumPieceTypes][move.NumSquares]move.Move{}
}
