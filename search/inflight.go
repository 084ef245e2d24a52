package search

import (
	"sync/atomic"

	"github.com/domino14/yomi/move"
	"github.com/domino14/yomi/tinymove"
)

const (
	inFlightSize = 1 << 15
	inFlightWays = 4
)

type inFlightEntry struct {
	key   atomic.Uint64
	depth atomic.Int32
}

// InFlightTable records which (position, move) pairs parallel workers
// are currently searching, so that a worker can put off a move somebody
// else is already busy with. Collisions only cost efficiency.
type InFlightTable struct {
	entries [inFlightSize][inFlightWays]inFlightEntry
}

func NewInFlightTable() *InFlightTable {
	return &InFlightTable{}
}

func inFlightKey(posKey uint64, m move.Move) uint64 {
	k := posKey ^ (uint64(tinymove.FromMove(m)) * 0x9e3779b97f4a7c15)
	// 0 marks an empty entry
	if k == 0 {
		k = 1
	}
	return k
}

// Busy returns true if another worker is searching m from this position
// at least as deep.
func (t *InFlightTable) Busy(posKey uint64, m move.Move, depth int) bool {
	k := inFlightKey(posKey, m)
	set := &t.entries[k%inFlightSize]
	for w := range set {
		if set[w].key.Load() == k && set[w].depth.Load() >= int32(depth) {
			return true
		}
	}
	return false
}

// Begin registers a search of m.
func (t *InFlightTable) Begin(posKey uint64, m move.Move, depth int) {
	k := inFlightKey(posKey, m)
	set := &t.entries[k%inFlightSize]
	for w := range set {
		if set[w].key.Load() == 0 && set[w].key.CompareAndSwap(0, k) {
			set[w].depth.Store(int32(depth))
			return
		}
	}
	set[0].key.Store(k)
	set[0].depth.Store(int32(depth))
}

// End removes the registration made by Begin.
func (t *InFlightTable) End(posKey uint64, m move.Move) {
	k := inFlightKey(posKey, m)
	set := &t.entries[k%inFlightSize]
	for w := range set {
		if set[w].key.CompareAndSwap(k, 0) {
			set[w].depth.Store(0)
		}
	}
}
