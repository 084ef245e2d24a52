package ordering

import "github.com/domino14/yomi/move"

// MaxPly bounds the ply-indexed tables. Searches never go deeper than this.
const MaxPly = 128

// KillerTable keeps, per ply, the quiet moves that most recently caused a
// beta cutoff. The most recent killer comes first.
type KillerTable struct {
	maxPerPly int
	killers   [MaxPly][]move.Move
}

func NewKillerTable(maxPerPly int) *KillerTable {
	kt := &KillerTable{maxPerPly: max(1, maxPerPly)}
	for i := range kt.killers {
		kt.killers[i] = make([]move.Move, 0, kt.maxPerPly)
	}
	return kt
}

// Update moves m to the front of the list for ply. An existing copy of m
// is moved rather than duplicated, and the oldest killer falls off the end.
func (kt *KillerTable) Update(ply int, m move.Move) {
	if ply < 0 || ply >= MaxPly || m.IsNull() {
		return
	}
	list := kt.killers[ply]
	idx := indexOf(list, m)
	switch {
	case idx == 0:
		return
	case idx > 0:
		copy(list[1:idx+1], list[:idx])
	case len(list) < kt.maxPerPly:
		list = append(list, move.Null)
		copy(list[1:], list[:len(list)-1])
	default:
		copy(list[1:], list[:len(list)-1])
	}
	list[0] = m
	kt.killers[ply] = list
}

// Index returns the position of m among the killers at ply, or -1.
func (kt *KillerTable) Index(ply int, m move.Move) int {
	if ply < 0 || ply >= MaxPly {
		return -1
	}
	return indexOf(kt.killers[ply], m)
}

func (kt *KillerTable) Killers(ply int) []move.Move {
	if ply < 0 || ply >= MaxPly {
		return nil
	}
	return kt.killers[ply]
}

func (kt *KillerTable) Len(ply int) int {
	return len(kt.Killers(ply))
}

// Clear removes every killer.
func (kt *KillerTable) Clear() {
	for i := range kt.killers {
		kt.killers[i] = kt.killers[i][:0]
	}
}

func indexOf(list []move.Move, m move.Move) int {
	for i := range list {
		if list[i].SameAction(m) {
			return i
		}
	}
	return -1
}
